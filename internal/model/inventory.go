package model

import (
	"encoding/json"
	"time"
)

// RawItem is one loosely-structured inventory record as delivered by the upstream session.
// Keys follow the upstream naming and may appear under several aliases.
type RawItem map[string]any

// InventoryItem is the canonical, persisted shape of one owned item.
type InventoryItem struct {
	ID             string   `json:"id"`
	DefIndex       int64    `json:"def_index"`
	PaintIndex     *int64   `json:"paint_index,omitempty"`
	MarketHashName string   `json:"market_hash_name"`
	PaintWear      *float64 `json:"paint_wear,omitempty"`
	Prefab         *string  `json:"prefab,omitempty"`
	ImagePath      *string  `json:"image_path,omitempty"`
	SysItemName    *string  `json:"sys_item_name,omitempty"`
	SysSkinName    *string  `json:"sys_skin_name,omitempty"`
	EnglishToken   *string  `json:"englishtoken,omitempty"`
	StickerID      *int64   `json:"sticker_id,omitempty"`
	CasketID       *string  `json:"casket_id,omitempty"`
	CustomName     *string  `json:"custom_name,omitempty"`
	Category       *string  `json:"category,omitempty"`
	SkinRarity     *string  `json:"skin_rarity,omitempty"`
	Collection     *string  `json:"collection,omitempty"`
	Currency       *string  `json:"currency,omitempty"`
	Quantity       int64    `json:"quantity"`
	Tradable       *bool    `json:"tradable,omitempty"`
	Marketable     *bool    `json:"marketable,omitempty"`

	Raw json.RawMessage `json:"raw,omitempty"`

	ItemDefID   *int64     `json:"item_def_id,omitempty"`
	FirstSeenAt time.Time  `json:"first_seen_at"`
	LastSeenAt  time.Time  `json:"last_seen_at"`
	RemovedAt   *time.Time `json:"removed_at,omitempty"`
}

// ExpansionSummary describes the result of expanding containers.
type ExpansionSummary struct {
	TotalItems        int `json:"totalItems"`
	ContainerCount    int `json:"containerCount"`
	ItemsInContainers int `json:"itemsInContainers"`
}

// Expansion is the deduplicated item set produced from a base snapshot plus container contents.
type Expansion struct {
	Items   []RawItem        `json:"items"`
	Summary ExpansionSummary `json:"summary"`

	// FailedContainers lists container ids skipped after exhausting retries.
	FailedContainers []string `json:"failed_containers,omitempty"`
}

// WriteResult is reported by the inventory upsert writer.
type WriteResult struct {
	Total    int       `json:"total"`
	Upserted int       `json:"upserted"`
	Skipped  int       `json:"skipped"`
	Retired  int64     `json:"retired"`
	SeenAt   time.Time `json:"seen_at"`
}

// InventorySyncResult combines expansion and write results for one pipeline run.
type InventorySyncResult struct {
	RunID     string           `json:"run_id"`
	Expansion ExpansionSummary `json:"expansion"`
	Write     WriteResult      `json:"write"`
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	IncludeRemoved bool
	CasketID       string
	Limit          int
	Offset         int
}

// StoreStats summarizes what the store currently holds.
type StoreStats struct {
	Backend        string     `json:"backend"`
	ItemsPresent   int64      `json:"items_present"`
	ItemsRemoved   int64      `json:"items_removed"`
	Definitions    int64      `json:"definitions"`
	CurrentPrices  int64      `json:"current_prices"`
	PriceSnapshots int64      `json:"price_snapshots"`
	Purchases      int64      `json:"purchases"`
	LastSeenAt     *time.Time `json:"last_seen_at,omitempty"`
	LastCapturedAt *time.Time `json:"last_captured_at,omitempty"`

	Connections PoolStats `json:"connections"`
}

// PoolStats mirrors the connection pool counters of the store.
type PoolStats struct {
	Open    int `json:"open"`
	InUse   int `json:"in_use"`
	Idle    int `json:"idle"`
	MaxOpen int `json:"max_open"`
}

// BackfillResult reports definitions created and items linked to them.
type BackfillResult struct {
	Created int64 `json:"created"`
	Linked  int64 `json:"linked"`
}
