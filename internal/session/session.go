// Package session adapts upstream inventory sessions to the pipeline.
// Sessions are authenticated and kept alive elsewhere; this package only reads from them.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"skinvault/internal/model"
)

// Session exposes an already authenticated upstream inventory.
type Session interface {
	// Inventory returns the current base snapshot. ok is false while the snapshot
	// has not been populated yet.
	Inventory(ctx context.Context) (items []model.RawItem, ok bool, err error)

	// ContainerContents fetches the items stored inside one container.
	ContainerContents(ctx context.Context, containerID string) ([]model.RawItem, error)
}

// ErrContainerNotFound is returned when a session knows nothing about a container.
var ErrContainerNotFound = errors.New("container not found")

// decodeItems parses a JSON array of item objects, keeping numbers exact.
func decodeItems(data []byte) ([]model.RawItem, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var items []model.RawItem
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return items, nil
}
