package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"skinvault/internal/logger"
	"skinvault/internal/model"
	"skinvault/internal/session"
	"skinvault/pkg/apierror"
	"skinvault/pkg/response"
)

// InventoryRunner runs the inventory pipeline.
type InventoryRunner interface {
	Expand(ctx context.Context, sess session.Session) (model.Expansion, error)
	Sync(ctx context.Context, sess session.Session) (model.InventorySyncResult, error)
}

// PriceRefresher runs the price pipeline.
type PriceRefresher interface {
	Defaults() model.PriceQuery
	Refresh(ctx context.Context, q model.PriceQuery) (model.PriceRefreshResult, error)
}

// StatusReader lists the last run of every pipeline.
type StatusReader interface {
	All(ctx context.Context) (map[string]model.RunStatus, error)
}

// SyncHandler triggers pipeline runs.
type SyncHandler struct {
	inventory InventoryRunner
	prices    PriceRefresher
	session   session.Session
	status    StatusReader
	log       *logrus.Entry
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(inv InventoryRunner, prices PriceRefresher, sess session.Session, status StatusReader, log logrus.FieldLogger) *SyncHandler {
	return &SyncHandler{
		inventory: inv,
		prices:    prices,
		session:   sess,
		status:    status,
		log:       logger.Component(log, "handler.sync"),
	}
}

// DryRunResponse is returned by an inventory sync that only expands.
type DryRunResponse struct {
	DryRun           bool                   `json:"dry_run"`
	Summary          model.ExpansionSummary `json:"summary"`
	FailedContainers []string               `json:"failed_containers,omitempty"`
}

// SyncInventory handles POST /api/v1/inventory/sync
// A run outlives the request that started it; closing the connection does not abort the write.
func (h *SyncHandler) SyncInventory(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	if dryRun {
		exp, err := h.inventory.Expand(ctx, h.session)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		response.OK(w, DryRunResponse{DryRun: true, Summary: exp.Summary, FailedContainers: exp.FailedContainers})
		return
	}

	res, err := h.inventory.Sync(ctx, h.session)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.OK(w, res)
}

type refreshRequest struct {
	Currency *string `json:"currency"`
	Tradable *bool   `json:"tradable"`
}

// RefreshPrices handles POST /api/v1/prices/refresh
// An empty body uses the configured currency and tradability.
func (h *SyncHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	q := h.prices.Defaults()

	var req refreshRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if req.Currency != nil {
		cur := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(cur) != 3 {
			response.Error(w, apierror.ValidationError("invalid request",
				apierror.FieldError{Field: "currency", Message: "must be a 3-letter currency code"}))
			return
		}
		q.Currency = cur
	}
	if req.Tradable != nil {
		q.Tradable = *req.Tradable
	}

	res, err := h.prices.Refresh(context.WithoutCancel(r.Context()), q)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.OK(w, res)
}

// GetStatus handles GET /api/v1/sync/status
func (h *SyncHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	all, err := h.status.All(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.OK(w, all)
}
