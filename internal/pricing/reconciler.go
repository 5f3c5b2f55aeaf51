package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"skinvault/internal/logger"
	"skinvault/internal/model"
	"skinvault/internal/repository"
)

// Reconciler fetches one listing and writes it against known item definitions.
type Reconciler struct {
	fetcher Fetcher
	store   repository.PriceStore
	log     *logrus.Entry
	now     func() time.Time
}

// NewReconciler creates a reconciler for one price source.
func NewReconciler(fetcher Fetcher, store repository.PriceStore, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{
		fetcher: fetcher,
		store:   store,
		log:     logger.Component(log, "price"),
		now:     time.Now,
	}
}

// Refresh runs one reconciliation. Every row written in the run shares one captured_at.
// An empty listing writes nothing.
func (r *Reconciler) Refresh(ctx context.Context, q model.PriceQuery) (model.PriceRefreshResult, error) {
	source := r.fetcher.Source()
	result := model.PriceRefreshResult{Source: source}

	listing, err := r.fetcher.FetchPrices(ctx, q)
	if err != nil {
		return result, fmt.Errorf("failed to fetch %s prices: %w", source, err)
	}
	result.Fetched = len(listing.Records)
	if result.Fetched == 0 {
		r.log.WithField("source", source).Warn("listing returned 0 items, nothing written")
		return result, nil
	}

	capturedAt := listing.FetchedAt
	if capturedAt.IsZero() {
		capturedAt = r.now()
	}
	capturedAt = capturedAt.UTC().Truncate(time.Microsecond)
	result.CapturedAt = capturedAt

	writes, dropped := BuildWrites(listing.Records)
	if len(writes) == 0 {
		r.log.WithFields(logrus.Fields{"source": source, "dropped": dropped}).Warn("no priced records, nothing written")
		return result, nil
	}

	applied, err := r.store.ApplyPrices(ctx, source, capturedAt, writes)
	if err != nil {
		return result, fmt.Errorf("failed to apply %s prices: %w", source, err)
	}
	result.Updated = applied.Current
	result.Snapshots = applied.Snapshots

	r.log.WithFields(logrus.Fields{
		"source":    source,
		"fetched":   result.Fetched,
		"unpriced":  dropped,
		"snapshots": result.Snapshots,
		"updated":   result.Updated,
	}).Info("prices reconciled")
	return result, nil
}
