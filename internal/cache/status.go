package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"skinvault/internal/model"
)

// StatusStore keeps the last run status of every pipeline.
type StatusStore struct {
	cache Cache
	ttl   time.Duration
}

// NewStatusStore stores statuses in c for ttl.
func NewStatusStore(c Cache, ttl time.Duration) *StatusStore {
	return &StatusStore{cache: c, ttl: ttl}
}

// StoreStatsKey caches the admin store statistics. A successful run makes it stale.
const StoreStatsKey = "admin:store_stats"

func statusKey(pipeline string) string {
	return "status:" + pipeline
}

// Put records the outcome of a run, replacing the previous one. A successful run
// also drops the cached store statistics.
func (s *StatusStore) Put(ctx context.Context, st model.RunStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode run status: %w", err)
	}
	if err := s.cache.Set(ctx, statusKey(st.Pipeline), data, s.ttl); err != nil {
		return err
	}
	if st.Outcome == model.RunSucceeded {
		if err := s.cache.Delete(ctx, StoreStatsKey); err != nil {
			return fmt.Errorf("failed to invalidate store stats: %w", err)
		}
	}
	return nil
}

// Get returns the last status of a pipeline. ok is false when no run was recorded.
func (s *StatusStore) Get(ctx context.Context, pipeline string) (model.RunStatus, bool, error) {
	data, err := s.cache.Get(ctx, statusKey(pipeline))
	if errors.Is(err, ErrCacheMiss) {
		return model.RunStatus{}, false, nil
	}
	if err != nil {
		return model.RunStatus{}, false, err
	}

	var st model.RunStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return model.RunStatus{}, false, fmt.Errorf("failed to decode run status: %w", err)
	}
	return st, true, nil
}

// All returns the last status of every known pipeline that has run.
func (s *StatusStore) All(ctx context.Context) (map[string]model.RunStatus, error) {
	out := make(map[string]model.RunStatus, 2)
	for _, p := range []string{model.PipelineInventory, model.PipelinePrices} {
		st, ok, err := s.Get(ctx, p)
		if err != nil {
			return nil, err
		}
		if ok {
			out[p] = st
		}
	}
	return out, nil
}
