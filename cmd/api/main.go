package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skinvault/internal/app"
	"skinvault/internal/config"
	"skinvault/internal/handler"
	"skinvault/internal/logger"
	"skinvault/internal/middleware"
	"skinvault/internal/pricing"
	"skinvault/internal/router"
)

// adminStatsTTL is how long store stats are served from cache.
const adminStatsTTL = 15 * time.Second

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.App)
	log.WithField("env", cfg.App.Environment).Infof("Starting %s %s...", cfg.App.Name, cfg.App.Version)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(ctx, cfg, log)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("failed to initialize")
	}
	defer a.Close()

	if len(cfg.Auth.APIKeys) == 0 {
		log.Warn("API_KEYS is empty, pipeline triggers are not authenticated")
	}

	r := router.New(router.Config{
		Handler:         handler.New(a.Store, cfg.App),
		SyncHandler:     handler.NewSyncHandler(a.Inventory, a.Prices, a.Session, a.Status, log),
		ItemHandler:     handler.NewItemHandler(a.Store, a.Store, pricing.SourceSkinport, log),
		PurchaseHandler: handler.NewPurchaseHandler(a.Store, log),
		AdminHandler:    handler.NewAdminHandler(a.Store, a.Cache, adminStatsTTL, log),
		AuthMiddleware:  middleware.NewAuthMiddleware(cfg.Auth.APIKeys),
		TriggerLimit:    middleware.RateLimit(cfg.RateLimit.TriggerRPS, cfg.RateLimit.TriggerBurst),
		Logger:          log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}

	log.Info("Server stopped")
}
