package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"skinvault/internal/model"
)

// FileSession replays a snapshot directory captured from a live session:
//
//	<dir>/inventory.json         base items (JSON array)
//	<dir>/containers/<id>.json   contents of one container (JSON array)
//
// A missing inventory.json means the snapshot is not populated yet.
type FileSession struct {
	dir string
}

var _ Session = (*FileSession)(nil)

// NewFileSession opens a snapshot directory.
func NewFileSession(dir string) (*FileSession, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("snapshot path %s is not a directory", dir)
	}
	return &FileSession{dir: dir}, nil
}

func (f *FileSession) Inventory(ctx context.Context) ([]model.RawItem, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(filepath.Join(f.dir, "inventory.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read inventory snapshot: %w", err)
	}
	items, err := decodeItems(data)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (f *FileSession) ContainerContents(ctx context.Context, containerID string) ([]model.RawItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(containerID)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("invalid container id %q", containerID)
	}

	data, err := os.ReadFile(filepath.Join(f.dir, "containers", id+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("container %s: %w", id, ErrContainerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read container %s: %w", id, err)
	}
	return decodeItems(data)
}
