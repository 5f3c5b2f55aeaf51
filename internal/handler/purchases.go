package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"skinvault/internal/logger"
	"skinvault/internal/model"
	"skinvault/internal/repository"
	"skinvault/pkg/apierror"
	"skinvault/pkg/response"
)

const purchasesVersion = 1

// PurchaseHandler records and lists purchase entries.
type PurchaseHandler struct {
	store    repository.PurchaseStore
	validate *validator.Validate
	log      *logrus.Entry
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(store repository.PurchaseStore, log logrus.FieldLogger) *PurchaseHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		d, ok := f.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		return d.InexactFloat64()
	}, decimal.Decimal{})

	return &PurchaseHandler{
		store:    store,
		validate: v,
		log:      logger.Component(log, "handler.purchases"),
	}
}

type purchaseEntryRequest struct {
	Scope        string          `json:"scope" validate:"oneof=id defindex paintindex name category"`
	Match        map[string]any  `json:"match" validate:"required"`
	UnitPriceEUR decimal.Decimal `json:"unitPriceEUR" validate:"gt=0"`
	Quantity     float64         `json:"quantity" validate:"gt=0"`
	Date         *string         `json:"date"`
	Note         *string         `json:"note"`
	Source       *string         `json:"source"`
}

// PurchaseEntry is the wire form of a stored purchase.
type PurchaseEntry struct {
	ID           string          `json:"id"`
	Scope        string          `json:"scope"`
	Match        json.RawMessage `json:"match"`
	UnitPriceEUR float64         `json:"unitPriceEUR"`
	Quantity     int             `json:"quantity"`
	Date         *time.Time      `json:"date"`
	Note         *string         `json:"note"`
	Source       *string         `json:"source"`
}

// PurchaseList is the body of GET /api/v1/purchases.
type PurchaseList struct {
	Version int             `json:"version"`
	Entries []PurchaseEntry `json:"entries"`
}

// validationDetails lists each failing field with the rule it broke.
func validationDetails(err error) []apierror.FieldError {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil
	}
	details := make([]apierror.FieldError, 0, len(ves))
	for _, ve := range ves {
		details = append(details, apierror.FieldError{Field: ve.Field(), Message: ve.Tag()})
	}
	return details
}

// parsePurchaseDate accepts RFC3339 timestamps and plain dates.
func parsePurchaseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func isNumeric(v any) bool {
	switch x := v.(type) {
	case json.Number:
		_, err := x.Float64()
		return err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return err == nil && !math.IsNaN(f)
	}
	return false
}

func isPresent(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	}
	return true
}

// checkMatch applies the rules each scope places on its match object.
func checkMatch(scope string, match map[string]any) *apierror.FieldError {
	switch scope {
	case model.PurchaseScopeID:
		if !isPresent(match["itemId"]) {
			return &apierror.FieldError{Field: "match.itemId", Message: "required for scope=id"}
		}
	case model.PurchaseScopeDefIndex:
		if !isNumeric(match["defIndex"]) {
			return &apierror.FieldError{Field: "match.defIndex", Message: "numeric value required for scope=defindex"}
		}
	case model.PurchaseScopePaintIndex:
		if !isNumeric(match["paintIndex"]) {
			return &apierror.FieldError{Field: "match.paintIndex", Message: "numeric value required for scope=paintindex"}
		}
		if d, ok := match["defIndex"]; ok && d != nil && !isNumeric(d) {
			return &apierror.FieldError{Field: "match.defIndex", Message: "must be numeric if provided"}
		}
	}
	return nil
}

// CreateEntry handles POST /api/v1/purchases/entry
func (h *PurchaseHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		response.Error(w, apierror.BadRequest("failed to read request body"))
		return
	}

	var req purchaseEntryRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			response.Error(w, apierror.ValidationError("invalid purchase entry",
				apierror.FieldError{Field: typeErr.Field, Message: "has the wrong type"}))
			return
		}
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	req.Scope = strings.TrimSpace(req.Scope)

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, apierror.ValidationError("invalid purchase entry", validationDetails(err)...))
		return
	}
	if req.Quantity != math.Trunc(req.Quantity) || req.Quantity > math.MaxInt32 {
		response.Error(w, apierror.ValidationError("invalid purchase entry",
			apierror.FieldError{Field: "quantity", Message: "must be a positive integer"}))
		return
	}
	if fe := checkMatch(req.Scope, req.Match); fe != nil {
		response.Error(w, apierror.ValidationError("invalid purchase entry", *fe))
		return
	}

	p := model.Purchase{
		Scope:        req.Scope,
		UnitPriceEUR: req.UnitPriceEUR,
		Quantity:     int(req.Quantity),
		Note:         req.Note,
		Source:       req.Source,
	}
	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		d, ok := parsePurchaseDate(strings.TrimSpace(*req.Date))
		if !ok {
			response.Error(w, apierror.ValidationError("invalid purchase entry",
				apierror.FieldError{Field: "date", Message: "must be an RFC3339 timestamp or YYYY-MM-DD"}))
			return
		}
		p.Date = &d
	}
	if p.Match, err = json.Marshal(req.Match); err != nil {
		response.Error(w, apierror.BadRequest("invalid match object"))
		return
	}

	if err := h.store.CreatePurchase(r.Context(), &p); err != nil {
		writeError(w, h.log, err)
		return
	}
	response.Created(w, map[string]string{"id": p.ID})
}

// ListEntries handles GET /api/v1/purchases
func (h *PurchaseHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.store.ListPurchases(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	entries := make([]PurchaseEntry, 0, len(purchases))
	for _, p := range purchases {
		entries = append(entries, PurchaseEntry{
			ID:           p.ID,
			Scope:        p.Scope,
			Match:        p.Match,
			UnitPriceEUR: p.UnitPriceEUR.InexactFloat64(),
			Quantity:     p.Quantity,
			Date:         p.Date,
			Note:         p.Note,
			Source:       p.Source,
		})
	}
	response.OK(w, PurchaseList{Version: purchasesVersion, Entries: entries})
}
