package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skinvault/internal/model"
)

// HTTPBridge reads inventory from a sidecar that holds the game coordinator session.
//
//	GET {base}/inventory        -> {"ready": bool, "items": [...]}
//	GET {base}/containers/{id}  -> [...]
type HTTPBridge struct {
	baseURL string
	client  *http.Client
}

var _ Session = (*HTTPBridge)(nil)

// NewHTTPBridge creates a bridge client. Timeout bounds each request.
func NewHTTPBridge(baseURL string, timeout time.Duration) (*HTTPBridge, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return nil, errors.New("bridge URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid bridge URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPBridge{
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type bridgeInventory struct {
	Ready bool            `json:"ready"`
	Items json.RawMessage `json:"items"`
}

// Inventory polls the bridge for the current base snapshot.
func (b *HTTPBridge) Inventory(ctx context.Context) ([]model.RawItem, bool, error) {
	body, _, err := b.get(ctx, b.baseURL+"/inventory")
	if err != nil {
		return nil, false, err
	}

	var resp bridgeInventory
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false, fmt.Errorf("failed to decode inventory response: %w", err)
	}
	if !resp.Ready || len(bytes.TrimSpace(resp.Items)) == 0 || string(bytes.TrimSpace(resp.Items)) == "null" {
		return nil, false, nil
	}

	items, err := decodeItems(resp.Items)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// ContainerContents asks the bridge to open one container.
func (b *HTTPBridge) ContainerContents(ctx context.Context, containerID string) ([]model.RawItem, error) {
	id := strings.TrimSpace(containerID)
	if id == "" {
		return nil, errors.New("container id is required")
	}

	body, status, err := b.get(ctx, b.baseURL+"/containers/"+url.PathEscape(id))
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("container %s: %w", id, ErrContainerNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeItems(body)
}

func (b *HTTPBridge) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, status, fmt.Errorf("failed to read bridge response: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, status, fmt.Errorf("bridge returned http status %d", status)
	}
	return data, status, nil
}
