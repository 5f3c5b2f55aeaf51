package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"skinvault/internal/cache"
	"skinvault/internal/inventory"
	"skinvault/internal/lock"
	"skinvault/internal/logger"
	"skinvault/internal/model"
	"skinvault/internal/session"
)

// InventoryService runs the inventory pipeline: expand containers, then persist.
type InventoryService struct {
	expander *inventory.Expander
	writer   *inventory.Writer
	runner   runner
}

// NewInventoryService creates the inventory pipeline service.
func NewInventoryService(
	expander *inventory.Expander,
	writer *inventory.Writer,
	locker lock.Locker,
	status *cache.StatusStore,
	lockTTL time.Duration,
	log logrus.FieldLogger,
) *InventoryService {
	return &InventoryService{
		expander: expander,
		writer:   writer,
		runner: runner{
			locker:  locker,
			status:  status,
			lockTTL: lockTTL,
			log:     logger.Component(log, "service.inventory"),
			now:     time.Now,
		},
	}
}

// Expand only reads the session and returns the merged item set. Nothing is written.
func (s *InventoryService) Expand(ctx context.Context, sess session.Session) (model.Expansion, error) {
	release, err := s.runner.locker.Acquire(ctx, model.PipelineInventory, s.runner.lockTTL)
	if err != nil {
		return model.Expansion{}, err
	}
	defer release()
	return s.expander.Expand(ctx, sess)
}

// Sync expands the session's inventory and persists it with one snapshot timestamp.
func (s *InventoryService) Sync(ctx context.Context, sess session.Session) (model.InventorySyncResult, error) {
	var result model.InventorySyncResult
	_, err := s.runner.run(ctx, model.PipelineInventory, func(ctx context.Context, st *model.RunStatus) error {
		result.RunID = st.RunID
		st.Inventory = &result

		exp, err := s.expander.Expand(ctx, sess)
		if err != nil {
			return err
		}
		result.Expansion = exp.Summary

		write, err := s.writer.Persist(ctx, exp.Items, s.runner.now())
		result.Write = write
		return err
	})
	return result, err
}
