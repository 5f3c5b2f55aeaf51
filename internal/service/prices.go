package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"skinvault/internal/cache"
	"skinvault/internal/lock"
	"skinvault/internal/logger"
	"skinvault/internal/model"
	"skinvault/internal/pricing"
)

// PriceService runs the price pipeline.
type PriceService struct {
	reconciler *pricing.Reconciler
	defaults   model.PriceQuery
	runner     runner
}

// NewPriceService creates the price pipeline service. defaults fills in an empty query currency.
func NewPriceService(
	reconciler *pricing.Reconciler,
	defaults model.PriceQuery,
	locker lock.Locker,
	status *cache.StatusStore,
	lockTTL time.Duration,
	log logrus.FieldLogger,
) *PriceService {
	return &PriceService{
		reconciler: reconciler,
		defaults:   defaults,
		runner: runner{
			locker:  locker,
			status:  status,
			lockTTL: lockTTL,
			log:     logger.Component(log, "service.prices"),
			now:     time.Now,
		},
	}
}

// Defaults returns the configured query.
func (s *PriceService) Defaults() model.PriceQuery {
	return s.defaults
}

// Refresh fetches one listing and reconciles it against known definitions.
func (s *PriceService) Refresh(ctx context.Context, q model.PriceQuery) (model.PriceRefreshResult, error) {
	if q.Currency == "" {
		q.Currency = s.defaults.Currency
	}

	var result model.PriceRefreshResult
	_, err := s.runner.run(ctx, model.PipelinePrices, func(ctx context.Context, st *model.RunStatus) error {
		res, err := s.reconciler.Refresh(ctx, q)
		res.RunID = st.RunID
		result = res
		st.Prices = &result
		return err
	})
	return result, err
}
