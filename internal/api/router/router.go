package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/queueline/queueline/internal/http/handlers"
	httpmiddleware "github.com/queueline/queueline/internal/http/middleware"
	"github.com/queueline/queueline/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	SchedulingHandler  *handlers.SchedulingHandler
	CatalogHandler     *handlers.CatalogHandler
	SlotHandler        *handlers.SlotHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Tenant-scoped API routes
	r.Group(func(tenant chi.Router) {
		tenant.Use(requireOrgID)

		if cfg.CatalogHandler != nil {
			tenant.Route("/services", func(r chi.Router) {
				r.Post("/", cfg.CatalogHandler.CreateService)
				r.Get("/{serviceID}", cfg.CatalogHandler.GetService)
				r.Delete("/{serviceID}", cfg.CatalogHandler.DeleteService)
			})
			tenant.Route("/resources", func(r chi.Router) {
				r.Post("/", cfg.CatalogHandler.CreateResource)
				r.Get("/{resourceID}", cfg.CatalogHandler.GetResource)
				r.Delete("/{resourceID}", cfg.CatalogHandler.DeleteResource)
				r.Put("/{resourceID}/services", cfg.CatalogHandler.LinkServices)
				r.Delete("/{resourceID}/services", cfg.CatalogHandler.UnlinkServices)
			})
		}

		if cfg.SlotHandler != nil {
			tenant.Route("/slots", func(r chi.Router) {
				r.Post("/", cfg.SlotHandler.Create)
				r.Get("/{slotID}", cfg.SlotHandler.Get)
				r.Delete("/{slotID}", cfg.SlotHandler.Delete)
				r.Patch("/{slotID}/capacity", cfg.SlotHandler.UpdateCapacity)
			})
		}

		if cfg.SchedulingHandler != nil {
			tenant.Route("/appointments", func(r chi.Router) {
				r.Post("/", cfg.SchedulingHandler.Book)
				r.Get("/{appointmentID}", cfg.SchedulingHandler.Get)
				r.Post("/{appointmentID}/cancel", cfg.SchedulingHandler.Cancel)
				r.Post("/{appointmentID}/status", cfg.SchedulingHandler.Transition)
			})
		}
	})

	return r
}
