// Package handler provides HTTP handlers for the subscription, trigger,
// stats, and occupancy endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/openrec/gympush/internal/api/respond"
	"github.com/openrec/gympush/internal/config"
	"github.com/openrec/gympush/internal/notify"
	"github.com/openrec/gympush/internal/store"
	"github.com/openrec/gympush/internal/trigger"
)

// Pinger verifies the durable store's backing connection. Nil when running
// on the in-memory store.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store  store.Store
	engine *notify.Engine
	eval   *trigger.Evaluator
	cfg    *config.Config
	logger *slog.Logger
	db     Pinger

	// Occupancy self-reports are anonymous, so they get a single global
	// bucket rather than the per-IP API limiter.
	occupancyLimiter *rate.Limiter
}

// New creates a Handler with shared dependencies. db may be nil.
func New(s store.Store, engine *notify.Engine, eval *trigger.Evaluator, cfg *config.Config, db Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		store:            s,
		engine:           engine,
		eval:             eval,
		cfg:              cfg,
		logger:           logger,
		db:               db,
		occupancyLimiter: rate.NewLimiter(rate.Every(10*time.Second), 3),
	}
}

// authorized checks the shared API key for privileged endpoints. The key
// may arrive in the X-Api-Key header or, for POST bodies, as apiKey.
func (h *Handler) authorized(r *http.Request, bodyKey string) bool {
	if h.cfg.NotifyAPIKey == "" {
		return false
	}
	if r.Header.Get("X-Api-Key") == h.cfg.NotifyAPIKey {
		return true
	}
	return bodyKey != "" && bodyKey == h.cfg.NotifyAPIKey
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"database": "in-memory",
		})
		return
	}
	if err := h.db.HealthCheck(r.Context()); err != nil {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"database": "connected",
	})
}
