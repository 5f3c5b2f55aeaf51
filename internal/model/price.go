package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuery selects which bulk listing to request from a price source.
type PriceQuery struct {
	Currency string
	Tradable bool
}

// PriceRecord is one normalized entry of a bulk price listing.
type PriceRecord struct {
	Name      string              `json:"market_hash_name"`
	Currency  string              `json:"currency"`
	Suggested decimal.NullDecimal `json:"suggested_price"`
	Min       decimal.NullDecimal `json:"min_price"`
	Max       decimal.NullDecimal `json:"max_price"`
	Mean      decimal.NullDecimal `json:"mean_price"`
	Median    decimal.NullDecimal `json:"median_price"`
	Quantity  decimal.NullDecimal `json:"quantity"`
	Volume    decimal.NullDecimal `json:"volume"`
}

// PriceListing is the normalized response of one bulk fetch.
type PriceListing struct {
	Records   []PriceRecord
	FetchedAt time.Time
}

// PriceWrite is a selected price ready to be joined against item definitions.
type PriceWrite struct {
	Name     string
	Currency string
	Price    decimal.Decimal
	Extra    json.RawMessage
}

// PriceApplyResult reports the rows written by a price store.
type PriceApplyResult struct {
	Snapshots int64
	Current   int64
}

// PriceRefreshResult is reported by the price reconciler.
type PriceRefreshResult struct {
	RunID      string    `json:"run_id,omitempty"`
	Source     string    `json:"source"`
	Fetched    int       `json:"fetched"`
	Updated    int64     `json:"updated"`
	Snapshots  int64     `json:"snapshots"`
	CapturedAt time.Time `json:"captured_at"`
}

// ItemDefinition is a distinct kind of item keyed by its canonical display name.
type ItemDefinition struct {
	ID             int64  `json:"id"`
	MarketHashName string `json:"market_hash_name"`
}

// CurrentPrice is the latest price per (definition, source, currency).
type CurrentPrice struct {
	ItemDefID  int64           `json:"item_def_id"`
	Source     string          `json:"source"`
	Currency   string          `json:"currency"`
	Price      decimal.Decimal `json:"price"`
	CapturedAt time.Time       `json:"captured_at"`
	Extra      json.RawMessage `json:"extra,omitempty"`
}
