package repository

import (
	"context"
	"fmt"

	"skinvault/internal/model"
)

// GetStats returns row counts, freshness and connection pool statistics.
func (s *SQLStore) GetStats(ctx context.Context) (model.StoreStats, error) {
	stats := model.StoreStats{Backend: s.dialect.String()}

	counts := []struct {
		dst   *int64
		query string
	}{
		{&stats.ItemsPresent, "SELECT COUNT(*) FROM inventory_items WHERE removed_at IS NULL"},
		{&stats.ItemsRemoved, "SELECT COUNT(*) FROM inventory_items WHERE removed_at IS NOT NULL"},
		{&stats.Definitions, "SELECT COUNT(*) FROM item_defs"},
		{&stats.CurrentPrices, "SELECT COUNT(*) FROM prices_current_defs"},
		{&stats.PriceSnapshots, "SELECT COUNT(*) FROM price_snapshots"},
		{&stats.Purchases, "SELECT COUNT(*) FROM purchases"},
	}
	for _, c := range counts {
		if err := s.queryRow(ctx, s.db, c.query).Scan(c.dst); err != nil {
			return model.StoreStats{}, fmt.Errorf("failed to get stats: %w", err)
		}
	}

	var lastSeen, lastCaptured dbTime
	if err := s.queryRow(ctx, s.db, "SELECT MAX(last_seen_at) FROM inventory_items").Scan(&lastSeen); err == nil {
		stats.LastSeenAt = lastSeen.ptr()
	}
	if err := s.queryRow(ctx, s.db, "SELECT MAX(captured_at) FROM prices_current_defs").Scan(&lastCaptured); err == nil {
		stats.LastCapturedAt = lastCaptured.ptr()
	}

	dbStats := s.db.Stats()
	stats.Connections = model.PoolStats{
		Open:    dbStats.OpenConnections,
		InUse:   dbStats.InUse,
		Idle:    dbStats.Idle,
		MaxOpen: dbStats.MaxOpenConnections,
	}
	return stats, nil
}
