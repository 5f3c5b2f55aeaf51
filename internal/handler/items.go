package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"skinvault/internal/logger"
	"skinvault/internal/model"
	"skinvault/internal/repository"
	"skinvault/pkg/apierror"
	"skinvault/pkg/response"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// ItemHandler serves stored inventory items and current prices.
type ItemHandler struct {
	items         repository.ItemStore
	prices        repository.PriceReader
	defaultSource string
	log           *logrus.Entry
}

// NewItemHandler creates a new item handler. defaultSource is used when a
// price listing names no source.
func NewItemHandler(items repository.ItemStore, prices repository.PriceReader, defaultSource string, log logrus.FieldLogger) *ItemHandler {
	return &ItemHandler{
		items:         items,
		prices:        prices,
		defaultSource: defaultSource,
		log:           logger.Component(log, "handler.items"),
	}
}

func queryInt(r *http.Request, name string, def, lo, hi int) (int, *apierror.Error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, apierror.ValidationError("invalid query parameter",
			apierror.FieldError{Field: name, Message: "must be an integer between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi)})
	}
	return n, nil
}

// ListItems handles GET /api/v1/inventory/items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	limit, apiErr := queryInt(r, "limit", defaultPageLimit, 1, maxPageLimit)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}
	offset, apiErr := queryInt(r, "offset", 0, 0, math.MaxInt32)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}
	includeRemoved, _ := strconv.ParseBool(r.URL.Query().Get("include_removed"))

	items, err := h.items.ListItems(r.Context(), model.ItemFilter{
		IncludeRemoved: includeRemoved,
		CasketID:       strings.TrimSpace(r.URL.Query().Get("casket_id")),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSONWithMeta(w, http.StatusOK, items, response.Meta{Limit: limit, Offset: offset, Count: len(items)})
}

// ListCurrentPrices handles GET /api/v1/prices/current
func (h *ItemHandler) ListCurrentPrices(w http.ResponseWriter, r *http.Request) {
	limit, apiErr := queryInt(r, "limit", defaultPageLimit, 1, maxPageLimit)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}
	source := strings.TrimSpace(r.URL.Query().Get("source"))
	if source == "" {
		source = h.defaultSource
	}

	prices, err := h.prices.ListCurrentPrices(r.Context(), source, limit)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSONWithMeta(w, http.StatusOK, prices, response.Meta{Limit: limit, Count: len(prices)})
}
