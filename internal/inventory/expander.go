package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"skinvault/internal/config"
	"skinvault/internal/logger"
	"skinvault/internal/model"
	"skinvault/internal/session"
)

// ErrInventoryTimeout is returned when the session never exposes a base snapshot.
var ErrInventoryTimeout = errors.New("timed out waiting for inventory snapshot")

var (
	containerCountAliases = []string{"casket_contained_item_count", "casketContainedItemCount"}
	casketIDAliases       = []string{"casket_id", "casketId"}
)

// Expander turns a base snapshot plus container contents into one deduplicated item set.
type Expander struct {
	InventoryTimeout time.Duration
	PollInterval     time.Duration
	Throttle         time.Duration
	Retries          int
	RetryDelay       time.Duration
	// ContainerLimit caps how many containers are opened; zero opens all.
	ContainerLimit int

	log   *logrus.Entry
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExpander creates an expander tuned by the sync configuration.
func NewExpander(cfg config.SyncConfig, log logrus.FieldLogger) *Expander {
	return &Expander{
		InventoryTimeout: cfg.InventoryTimeout,
		PollInterval:     cfg.InventoryPoll,
		Throttle:         cfg.ContainerThrottle,
		Retries:          cfg.ContainerRetries,
		RetryDelay:       cfg.ContainerRetryDelay,
		ContainerLimit:   cfg.ContainerLimit,
		log:              logger.Component(log, "expander"),
		now:              time.Now,
		sleep:            sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Expand waits for the base snapshot, opens every container sequentially and merges the results.
// Only the initial wait is fatal; containers that keep failing are skipped.
func (e *Expander) Expand(ctx context.Context, sess session.Session) (model.Expansion, error) {
	base, err := e.waitForInventory(ctx, sess)
	if err != nil {
		return model.Expansion{}, err
	}

	merged := newItemSet(len(base))
	for _, it := range base {
		merged.put(it)
	}

	containers := containerIDs(base)
	e.log.WithFields(logrus.Fields{
		"base_items": len(base),
		"containers": len(containers),
	}).Info("base inventory loaded")

	if e.ContainerLimit > 0 && len(containers) > e.ContainerLimit {
		containers = containers[:e.ContainerLimit]
	}

	var failed []string
	for i, id := range containers {
		e.log.WithFields(logrus.Fields{
			"container": id,
			"position":  fmt.Sprintf("%d/%d", i+1, len(containers)),
		}).Debug("loading container")

		contents, err := e.fetchContainer(ctx, sess, id)
		if err != nil {
			if ctx.Err() != nil {
				return model.Expansion{}, ctx.Err()
			}
			e.log.WithField("container", id).WithError(err).Warn("container failed permanently, skipped")
			failed = append(failed, id)
		} else {
			for _, it := range contents {
				merged.put(it)
			}
			e.log.WithFields(logrus.Fields{
				"container": id,
				"items":     len(contents),
			}).Debug("container loaded")
		}

		if err := e.sleep(ctx, e.Throttle); err != nil {
			return model.Expansion{}, err
		}
	}

	items := merged.values()
	summary := Summarize(items)
	e.log.WithFields(logrus.Fields{
		"total_items":         summary.TotalItems,
		"container_count":     summary.ContainerCount,
		"items_in_containers": summary.ItemsInContainers,
		"failed_containers":   len(failed),
	}).Info("inventory expanded")

	return model.Expansion{Items: items, Summary: summary, FailedContainers: failed}, nil
}

func (e *Expander) waitForInventory(ctx context.Context, sess session.Session) ([]model.RawItem, error) {
	deadline := e.now().Add(e.InventoryTimeout)
	var lastErr error
	for {
		items, ok, err := sess.Inventory(ctx)
		switch {
		case err != nil:
			lastErr = err
			e.log.WithError(err).Debug("inventory not readable yet")
		case ok && len(items) > 0:
			return items, nil
		}
		if !e.now().Before(deadline) {
			break
		}
		if err := e.sleep(ctx, e.PollInterval); err != nil {
			return nil, err
		}
	}

	// An empty but present snapshot is a valid inventory.
	items, ok, err := sess.Inventory(ctx)
	if err == nil && ok {
		return items, nil
	}
	if err != nil {
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w after %s: %v", ErrInventoryTimeout, e.InventoryTimeout, lastErr)
	}
	return nil, fmt.Errorf("%w after %s", ErrInventoryTimeout, e.InventoryTimeout)
}

func (e *Expander) fetchContainer(ctx context.Context, sess session.Session, id string) ([]model.RawItem, error) {
	var lastErr error
	for attempt := 0; attempt <= e.Retries; attempt++ {
		items, err := sess.ContainerContents(ctx, id)
		if err == nil {
			return items, nil
		}
		lastErr = err
		e.log.WithFields(logrus.Fields{
			"container": id,
			"attempt":   attempt + 1,
		}).WithError(err).Warn("container fetch failed")

		if attempt < e.Retries {
			if err := e.sleep(ctx, e.RetryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("container %s: %w", id, lastErr)
}

func containerCount(raw model.RawItem) int64 {
	if n := intField(raw, containerCountAliases...); n != nil {
		return *n
	}
	return 0
}

func containerIDs(items []model.RawItem) []string {
	var ids []string
	for _, it := range items {
		if containerCount(it) <= 0 {
			continue
		}
		if id, ok := ItemID(it); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Summarize counts items, containers and container members in an item set.
func Summarize(items []model.RawItem) model.ExpansionSummary {
	s := model.ExpansionSummary{TotalItems: len(items)}
	for _, it := range items {
		if containerCount(it) > 0 {
			s.ContainerCount++
		}
		if _, ok := lookup(it, casketIDAliases...); ok {
			s.ItemsInContainers++
		}
	}
	return s
}

// itemSet keeps one item per identifier, last write wins, in first-seen order.
type itemSet struct {
	order []string
	byID  map[string]model.RawItem
}

func newItemSet(capacity int) *itemSet {
	return &itemSet{
		order: make([]string, 0, capacity),
		byID:  make(map[string]model.RawItem, capacity),
	}
}

func (s *itemSet) put(it model.RawItem) {
	id, ok := ItemID(it)
	if !ok {
		return
	}
	if _, seen := s.byID[id]; !seen {
		s.order = append(s.order, id)
	}
	s.byID[id] = it
}

func (s *itemSet) values() []model.RawItem {
	out := make([]model.RawItem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
