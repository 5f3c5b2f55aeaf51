package model

import "time"

// Pipeline names.
const (
	PipelineInventory = "inventory"
	PipelinePrices    = "prices"
)

// Run outcomes.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// RunStatus is the last known outcome of a pipeline run.
type RunStatus struct {
	RunID      string    `json:"run_id"`
	Pipeline   string    `json:"pipeline"`
	Outcome    string    `json:"outcome"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`

	Inventory *InventorySyncResult `json:"inventory,omitempty"`
	Prices    *PriceRefreshResult  `json:"prices,omitempty"`
}
