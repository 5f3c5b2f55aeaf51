package repository

import (
	"context"
	"errors"
	"time"

	"skinvault/internal/model"
)

// ErrPersistence marks failures of the underlying store. The failing transaction
// has already been rolled back when it is returned.
var ErrPersistence = errors.New("persistence failure")

// ItemStore persists canonical inventory rows.
type ItemStore interface {
	// UpsertItems writes one chunk atomically. Existing rows keep first_seen_at,
	// get last_seen_at = seenAt and have removed_at cleared.
	UpsertItems(ctx context.Context, items []model.InventoryItem, seenAt time.Time) error

	// RetireMissing marks rows not seen at seenAt as removed at removedAt.
	RetireMissing(ctx context.Context, seenAt, removedAt time.Time) (int64, error)

	// ListItems returns stored items ordered by id.
	ListItems(ctx context.Context, filter model.ItemFilter) ([]model.InventoryItem, error)
}

// DefinitionStore maintains item definitions keyed by display name.
type DefinitionStore interface {
	// BackfillDefinitions creates definitions for every known item name and links items to them.
	BackfillDefinitions(ctx context.Context) (model.BackfillResult, error)
}

// PriceStore joins selected prices to definitions and writes history plus current values.
type PriceStore interface {
	// ApplyPrices runs in one transaction. Rows whose name matches no definition are dropped.
	ApplyPrices(ctx context.Context, source string, capturedAt time.Time, rows []model.PriceWrite) (model.PriceApplyResult, error)
}

// PriceReader lists current prices.
type PriceReader interface {
	ListCurrentPrices(ctx context.Context, source string, limit int) ([]model.CurrentPrice, error)
}

// PurchaseStore records what was paid for items.
type PurchaseStore interface {
	CreatePurchase(ctx context.Context, p *model.Purchase) error
	ListPurchases(ctx context.Context) ([]model.Purchase, error)
}

// Store is the full relational store used by the API and worker.
type Store interface {
	ItemStore
	DefinitionStore
	PriceStore
	PriceReader
	PurchaseStore

	GetStats(ctx context.Context) (model.StoreStats, error)
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
