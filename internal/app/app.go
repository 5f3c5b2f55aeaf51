// Package app wires configuration into the stores, session and pipeline services
// shared by the API server and the worker CLI.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"skinvault/internal/cache"
	"skinvault/internal/config"
	"skinvault/internal/inventory"
	"skinvault/internal/lock"
	"skinvault/internal/model"
	"skinvault/internal/pricing"
	"skinvault/internal/repository"
	"skinvault/internal/service"
	"skinvault/internal/session"
)

// App holds everything a pipeline run needs.
type App struct {
	Config *config.Config
	Log    logrus.FieldLogger

	Store      *repository.SQLStore
	PriceStore repository.PriceStore
	Cache      cache.Cache
	Locker     lock.Locker
	Status     *cache.StatusStore
	Session    session.Session

	Inventory *service.InventoryService
	Prices    *service.PriceService

	closers []func()
}

// New opens the store and cache and builds the pipeline services.
// A Redis that cannot be reached falls back to the in-process cache and locker.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	store, err := repository.Open(cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, func() { _ = store.Close() })
	log.WithField("backend", store.Backend()).Info("store initialized")

	priceStore, closePrices, err := repository.OpenPriceStore(ctx, cfg.Store, store, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open price store: %w", err)
	}
	a.PriceStore = priceStore
	a.closers = append(a.closers, closePrices)

	a.setupCache(ctx)
	a.Status = cache.NewStatusStore(a.Cache, cfg.Cache.TTL)

	sess, err := NewSession(cfg.Session)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Session = sess

	a.Inventory = service.NewInventoryService(
		inventory.NewExpander(cfg.Sync, log),
		inventory.NewWriter(store, cfg.Sync, log),
		a.Locker, a.Status, cfg.Sync.LockTTL, log,
	)

	fetcher, err := pricing.NewSkinportClient(cfg.Price, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Prices = service.NewPriceService(
		pricing.NewReconciler(fetcher, priceStore, log),
		model.PriceQuery{Currency: cfg.Price.Currency, Tradable: cfg.Price.Tradable},
		a.Locker, a.Status, cfg.Sync.LockTTL, log,
	)

	return a, nil
}

func (a *App) setupCache(ctx context.Context) {
	cfg := a.Config.Cache
	if strings.EqualFold(cfg.Type, "redis") {
		client, err := cache.NewRedisClient(ctx, cfg)
		if err == nil {
			a.useRedis(client, cfg.KeyPrefix)
			a.Log.WithField("addr", cfg.RedisAddress()).Info("redis cache and locker initialized")
			return
		}
		a.Log.WithError(err).Warn("redis unavailable, using in-process cache and locker")
	}

	mem := cache.NewMemoryCache()
	a.Cache = mem
	a.Locker = lock.NewLocalLocker()
	a.closers = append(a.closers, func() { _ = mem.Close() })
}

func (a *App) useRedis(client *redis.Client, prefix string) {
	a.Cache = cache.NewRedisCache(client, prefix)
	a.Locker = lock.NewRedisLocker(client, prefix)
	a.closers = append(a.closers, func() { _ = client.Close() })
}

// NewSession builds the upstream session selected by SESSION_TYPE.
func NewSession(cfg config.SessionConfig) (session.Session, error) {
	switch strings.ToLower(cfg.Type) {
	case "file":
		s, err := session.NewFileSession(cfg.SnapshotDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot session: %w", err)
		}
		return s, nil
	case "http", "":
		s, err := session.NewHTTPBridge(cfg.BridgeURL, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create bridge session: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported session type %q", cfg.Type)
	}
}

// Close releases everything New opened, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
