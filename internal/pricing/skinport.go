package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"skinvault/internal/config"
	"skinvault/internal/logger"
	"skinvault/internal/model"
)

const (
	// SourceSkinport is the source key written next to every Skinport price.
	SourceSkinport = "skinport"

	defaultSkinportURL = "https://api.skinport.com"
	appIDCS2           = 730
)

var (
	// ErrNotAList is returned when the listing body is not a JSON array.
	ErrNotAList = errors.New("price listing is not a list")
	// ErrFetchTimeout is returned when the listing did not arrive within the configured timeout.
	ErrFetchTimeout = errors.New("price fetch timed out")
)

// UpstreamError is a non-2xx answer from a price source.
type UpstreamError struct {
	Source     string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s responded with status %d %s", e.Source, e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetcher fetches one bulk price listing.
type Fetcher interface {
	Source() string
	FetchPrices(ctx context.Context, q model.PriceQuery) (model.PriceListing, error)
}

// SkinportClient reads the public Skinport item listing.
type SkinportClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	log     *logrus.Entry
	now     func() time.Time
}

var _ Fetcher = (*SkinportClient)(nil)

// NewSkinportClient creates a client for the configured listing endpoint.
func NewSkinportClient(cfg config.PriceConfig, log logrus.FieldLogger) (*SkinportClient, error) {
	base := strings.TrimSpace(cfg.SourceURL)
	if base == "" {
		base = defaultSkinportURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid price source URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &SkinportClient{
		baseURL: strings.TrimRight(base, "/"),
		timeout: timeout,
		client:  &http.Client{},
		log:     logger.Component(log, "price.skinport"),
		now:     time.Now,
	}, nil
}

// Source names this price source.
func (c *SkinportClient) Source() string { return SourceSkinport }

// FetchPrices downloads and normalizes the full listing for one currency and tradability filter.
// The whole call, body included, is bounded by the client timeout.
func (c *SkinportClient) FetchPrices(ctx context.Context, q model.PriceQuery) (model.PriceListing, error) {
	currency := strings.ToUpper(strings.TrimSpace(q.Currency))
	if currency == "" {
		currency = "EUR"
	}

	params := url.Values{}
	params.Set("app_id", strconv.Itoa(appIDCS2))
	params.Set("currency", currency)
	if q.Tradable {
		params.Set("tradable", "1")
	} else {
		params.Set("tradable", "0")
	}
	u := c.baseURL + "/v1/items?" + params.Encode()

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.log.WithField("url", u).Info("fetching listing")
	body, err := c.doGET(fetchCtx, u)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return model.PriceListing{}, fmt.Errorf("%w after %s", ErrFetchTimeout, c.timeout)
		}
		return model.PriceListing{}, err
	}
	fetchedAt := c.now().UTC()

	records, err := parseListing(body, currency)
	if err != nil {
		return model.PriceListing{}, err
	}
	c.log.WithField("records", len(records)).Info("listing received")
	return model.PriceListing{Records: records, FetchedAt: fetchedAt}, nil
}

func (c *SkinportClient) doGET(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	// Skinport rejects /v1/items requests that do not accept brotli.
	req.Header.Set("Accept-Encoding", "br")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, &UpstreamError{Source: SourceSkinport, StatusCode: resp.StatusCode}
	}
	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "br") {
		body = brotli.NewReader(resp.Body)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}
	return data, nil
}

var (
	nameAliases      = []string{"market_hash_name", "marketHashName"}
	suggestedAliases = []string{"suggested_price", "suggestedPrice"}
	minAliases       = []string{"min_price", "minPrice"}
	maxAliases       = []string{"max_price", "maxPrice"}
	meanAliases      = []string{"mean_price", "meanPrice", "average_price"}
	medianAliases    = []string{"median_price", "medianPrice"}
	quantityAliases  = []string{"quantity"}
	volumeAliases    = []string{"volume", "sold_last_24h"}
)

// parseListing accepts only a top-level JSON array. Entries that are not objects
// or carry no name are discarded.
func parseListing(body []byte, currency string) ([]model.PriceRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotAList
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var entries []any
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAList, err)
	}

	records := make([]model.PriceRecord, 0, len(entries))
	for _, e := range entries {
		obj, ok := e.(map[string]any)
		if !ok {
			continue
		}
		name := nameOf(obj)
		if name == "" {
			continue
		}
		cur, _ := obj["currency"].(string)
		if strings.TrimSpace(cur) == "" {
			cur = currency
		}
		records = append(records, model.PriceRecord{
			Name:      name,
			Currency:  cur,
			Suggested: amountOf(first(obj, suggestedAliases)),
			Min:       amountOf(first(obj, minAliases)),
			Max:       amountOf(first(obj, maxAliases)),
			Mean:      amountOf(first(obj, meanAliases)),
			Median:    amountOf(first(obj, medianAliases)),
			Quantity:  amountOf(first(obj, quantityAliases)),
			Volume:    amountOf(first(obj, volumeAliases)),
		})
	}
	return records, nil
}

// first returns the first alias holding a non-null value, usable or not.
func first(obj map[string]any, aliases []string) any {
	for _, k := range aliases {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func nameOf(obj map[string]any) string {
	switch v := first(obj, nameAliases).(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	}
	return ""
}

// amountOf converts a listing value to a finite decimal; anything else is null.
func amountOf(v any) decimal.NullDecimal {
	switch x := v.(type) {
	case json.Number:
		if d, err := decimal.NewFromString(x.String()); err == nil {
			return decimal.NewNullDecimal(d)
		}
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.NullDecimal{}
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return decimal.NewNullDecimal(d)
		}
	case float64:
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			return decimal.NewNullDecimal(decimal.NewFromFloat(x))
		}
	}
	return decimal.NullDecimal{}
}
