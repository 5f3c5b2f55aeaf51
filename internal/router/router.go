package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"skinvault/internal/handler"
	"skinvault/internal/logger"
	"skinvault/internal/middleware"
	"skinvault/pkg/apierror"
	"skinvault/pkg/response"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	SyncHandler     *handler.SyncHandler
	ItemHandler     *handler.ItemHandler
	PurchaseHandler *handler.PurchaseHandler
	AdminHandler    *handler.AdminHandler

	// AuthMiddleware guards pipeline triggers, purchase writes and admin routes.
	AuthMiddleware func(http.Handler) http.Handler
	// TriggerLimit throttles pipeline triggers.
	TriggerLimit func(http.Handler) http.Handler

	Logger logrus.FieldLogger
}

func passthrough(next http.Handler) http.Handler { return next }

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	auth := cfg.AuthMiddleware
	if auth == nil {
		auth = passthrough
	}
	limit := cfg.TriggerLimit
	if limit == nil {
		limit = passthrough
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logging(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, apierror.NotFound("route not found"))
	})

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.ItemHandler != nil {
			r.Get("/inventory/items", cfg.ItemHandler.ListItems)
			r.Get("/prices/current", cfg.ItemHandler.ListCurrentPrices)
		}

		if cfg.SyncHandler != nil {
			r.Get("/sync/status", cfg.SyncHandler.GetStatus)

			r.Group(func(r chi.Router) {
				r.Use(auth, limit)
				r.Post("/inventory/sync", cfg.SyncHandler.SyncInventory)
				r.Post("/prices/refresh", cfg.SyncHandler.RefreshPrices)
			})
		}

		if cfg.PurchaseHandler != nil {
			r.Route("/purchases", func(r chi.Router) {
				r.Get("/", cfg.PurchaseHandler.ListEntries)
				r.With(auth).Post("/entry", cfg.PurchaseHandler.CreateEntry)
			})
		}

		if cfg.AdminHandler != nil {
			r.With(auth).Get("/admin/stats", cfg.AdminHandler.GetStats)
		}
	})

	return r
}
