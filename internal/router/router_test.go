package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinvault/internal/cache"
	"skinvault/internal/config"
	"skinvault/internal/handler"
	"skinvault/internal/logger"
	"skinvault/internal/middleware"
	"skinvault/internal/model"
	"skinvault/internal/repository"
	"skinvault/internal/session"
)

type noopInventory struct{}

func (noopInventory) Expand(ctx context.Context, sess session.Session) (model.Expansion, error) {
	return model.Expansion{}, nil
}

func (noopInventory) Sync(ctx context.Context, sess session.Session) (model.InventorySyncResult, error) {
	return model.InventorySyncResult{RunID: "r"}, nil
}

type noopPrices struct{}

func (noopPrices) Defaults() model.PriceQuery { return model.PriceQuery{Currency: "EUR"} }

func (noopPrices) Refresh(ctx context.Context, q model.PriceQuery) (model.PriceRefreshResult, error) {
	return model.PriceRefreshResult{Source: "skinport"}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logger.Discard()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "router.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })

	return New(Config{
		Handler:         handler.New(store, config.AppConfig{Name: "skinvault", Version: "test"}),
		SyncHandler:     handler.NewSyncHandler(noopInventory{}, noopPrices{}, nil, cache.NewStatusStore(mem, time.Hour), log),
		ItemHandler:     handler.NewItemHandler(store, store, "skinport", log),
		PurchaseHandler: handler.NewPurchaseHandler(store, log),
		AdminHandler:    handler.NewAdminHandler(store, mem, time.Second, log),
		AuthMiddleware:  middleware.NewAuthMiddleware([]string{"k"}),
		TriggerLimit:    middleware.RateLimit(100, 100),
		Logger:          log,
	})
}

func do(h http.Handler, method, path string, authed bool) int {
	req := httptest.NewRequest(method, path, nil)
	if authed {
		req.Header.Set("X-API-Key", "k")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestPublicRoutes(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{
		"/api/status",
		"/api/v1/health",
		"/api/v1/ready",
		"/api/v1/inventory/items",
		"/api/v1/prices/current",
		"/api/v1/sync/status",
		"/api/v1/purchases",
	} {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, path, false), path)
	}
}

func TestProtectedRoutes(t *testing.T) {
	r := newTestRouter(t)
	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/inventory/sync"},
		{http.MethodPost, "/api/v1/prices/refresh"},
		{http.MethodGet, "/api/v1/admin/stats"},
	} {
		assert.Equal(t, http.StatusUnauthorized, do(r, route.method, route.path, false), route.path)
		assert.Equal(t, http.StatusOK, do(r, route.method, route.path, true), route.path)
	}
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/v1/purchases/entry", false))
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/nope", false))
}
