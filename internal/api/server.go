package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/openrec/gympush/internal/api/handler"
	"github.com/openrec/gympush/internal/api/respond"
	"github.com/openrec/gympush/internal/config"
	"github.com/openrec/gympush/internal/notify"
	"github.com/openrec/gympush/internal/store"
	"github.com/openrec/gympush/internal/trigger"
)

// NewRouter creates and configures the Chi router with all middleware and
// routes.
func NewRouter(s store.Store, engine *notify.Engine, eval *trigger.Evaluator, cfg *config.Config, db handler.Pinger, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS. Preflights short-circuit here with 204.
	c := corslib.New(corslib.Options{
		AllowedOrigins:       cfg.CORSAllowOrigins,
		AllowedMethods:       []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:       []string{"Accept", "Content-Type", "X-Api-Key"},
		ExposedHeaders:       []string{"X-Process-Time", "Retry-After"},
		AllowCredentials:     false,
		OptionsSuccessStatus: 204,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// The cors handler only short-circuits real preflights (those carrying
	// Access-Control-Request-Method). Bare OPTIONS on any path still gets
	// its 204 instead of chi's 405/404.
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		respond.Error(w, http.StatusNotFound, "not found")
	})

	// --- Handler dependencies ---
	h := handler.New(s, engine, eval, cfg, db, logger)

	// --- Routes ---

	// Health checks
	r.Route("/healthz", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	// Subscription lifecycle
	r.Post("/subscribe", h.Subscribe)
	r.Patch("/subscription", h.UpdateSubscription)
	r.Delete("/unsubscribe", h.Unsubscribe)

	// Privileged trigger + observability
	r.Post("/notify", h.Notify)
	r.Get("/stats", h.Stats)

	// Shared sport catalog for the UI
	r.Get("/catalog", h.Catalog)

	// Anonymous occupancy self-report
	r.Post("/occupancy", h.ReportOccupancy)
	r.Get("/occupancy", h.GetOccupancy)

	return r
}
