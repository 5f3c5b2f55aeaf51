package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"skinvault/internal/config"
	"skinvault/internal/logger"
	"skinvault/internal/model"
	"skinvault/internal/repository"
)

// Writer normalizes raw items and persists them in bounded, independently committed chunks.
type Writer struct {
	store         repository.ItemStore
	batchSize     int
	retireOnEmpty bool
	log           *logrus.Entry
	now           func() time.Time
}

// NewWriter creates a writer over an item store.
func NewWriter(store repository.ItemStore, cfg config.SyncConfig, log logrus.FieldLogger) *Writer {
	size := cfg.BatchSize
	if size <= 0 {
		size = 500
	}
	return &Writer{
		store:         store,
		batchSize:     size,
		retireOnEmpty: cfg.RetireOnEmpty,
		log:           logger.Component(log, "writer"),
		now:           time.Now,
	}
}

// Persist upserts every usable item with last_seen_at = seenAt, then retires rows
// that were not seen. Retirement only runs once all chunks have committed.
//
// On a chunk failure the returned result still reports the chunks committed before it.
func (w *Writer) Persist(ctx context.Context, raws []model.RawItem, seenAt time.Time) (model.WriteResult, error) {
	if seenAt.IsZero() {
		seenAt = w.now()
	}
	seenAt = seenAt.UTC().Truncate(time.Microsecond)

	items, rejected := NormalizeAll(raws)
	result := model.WriteResult{
		Total:   len(items),
		Skipped: len(rejected),
		SeenAt:  seenAt,
	}
	for _, r := range rejected {
		w.log.WithError(r).Debug("item skipped")
	}

	items = dedupeItems(items)
	for start := 0; start < len(items); start += w.batchSize {
		end := min(start+w.batchSize, len(items))
		if err := w.store.UpsertItems(ctx, items[start:end], seenAt); err != nil {
			return result, fmt.Errorf("failed to persist items %d-%d of %d: %w", start+1, end, len(items), err)
		}
		result.Upserted += end - start
		w.log.WithField("progress", fmt.Sprintf("%d/%d", end, len(items))).Debug("upserted batch")
	}

	if result.Upserted == 0 && !w.retireOnEmpty {
		w.log.Warn("no items upserted, retirement skipped")
		return result, nil
	}

	retired, err := w.store.RetireMissing(ctx, seenAt, w.now().UTC())
	if err != nil {
		return result, fmt.Errorf("failed to retire missing items: %w", err)
	}
	result.Retired = retired

	w.log.WithFields(logrus.Fields{
		"total":    result.Total,
		"upserted": result.Upserted,
		"skipped":  result.Skipped,
		"retired":  result.Retired,
	}).Info("inventory persisted")
	return result, nil
}

// dedupeItems keeps the last row per id at the position of its first occurrence,
// so one statement never touches the same key twice.
func dedupeItems(items []model.InventoryItem) []model.InventoryItem {
	pos := make(map[string]int, len(items))
	out := make([]model.InventoryItem, 0, len(items))
	for _, it := range items {
		if i, ok := pos[it.ID]; ok {
			out[i] = it
			continue
		}
		pos[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}
