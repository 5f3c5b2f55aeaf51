package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"skinvault/internal/cache"
	"skinvault/internal/logger"
	"skinvault/internal/model"
	"skinvault/pkg/response"
)

// StatsSource reports store contents.
type StatsSource interface {
	GetStats(ctx context.Context) (model.StoreStats, error)
}

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	stats     StatsSource
	cache     cache.Cache
	statsTTL  time.Duration
	startTime time.Time
	log       *logrus.Entry
}

// NewAdminHandler creates a new admin handler. Store stats are cached for statsTTL.
func NewAdminHandler(stats StatsSource, c cache.Cache, statsTTL time.Duration, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{
		stats:     stats,
		cache:     c,
		statsTTL:  statsTTL,
		startTime: time.Now(),
		log:       logger.Component(log, "handler.admin"),
	}
}

func (h *AdminHandler) storeStats(ctx context.Context) (json.RawMessage, error) {
	return h.cache.GetOrSet(ctx, cache.StoreStatsKey, h.statsTTL, func() ([]byte, error) {
		st, err := h.stats.GetStats(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(st)
	})
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]any)

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().UTC().Format(time.RFC3339)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]any{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	if st, err := h.storeStats(r.Context()); err != nil {
		h.log.WithError(err).Warn("failed to read store stats")
		stats["store"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		stats["store"] = st
	}

	stats["runtime"] = map[string]any{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}
