package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Purchase scopes describe what a purchase entry's match object refers to.
const (
	PurchaseScopeID         = "id"
	PurchaseScopeDefIndex   = "defindex"
	PurchaseScopePaintIndex = "paintindex"
	PurchaseScopeName       = "name"
	PurchaseScopeCategory   = "category"
)

// Purchase records what was paid for one or more items.
type Purchase struct {
	ID           string          `json:"id"`
	Scope        string          `json:"scope"`
	Match        json.RawMessage `json:"match"`
	UnitPriceEUR decimal.Decimal `json:"unitPriceEUR"`
	Quantity     int             `json:"quantity"`
	Date         *time.Time      `json:"date"`
	Note         *string         `json:"note"`
	Source       *string         `json:"source"`
	CreatedAt    time.Time       `json:"created_at"`
}
