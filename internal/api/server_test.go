package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrec/gympush/internal/config"
	"github.com/openrec/gympush/internal/notify"
	"github.com/openrec/gympush/internal/store"
	"github.com/openrec/gympush/internal/subscription"
	"github.com/openrec/gympush/internal/trigger"
)

type noopPusher struct{}

func (noopPusher) Push(ctx context.Context, sub subscription.Subscriber, message []byte) (int, error) {
	return http.StatusCreated, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemory()
	engine := notify.NewEngine(mem, noopPusher{}, 50, logger)

	eval, err := trigger.NewEvaluator("America/New_York", "https://gym.example")
	require.NoError(t, err)

	cfg := &config.Config{StorePageSize: 50}
	return NewRouter(mem, engine, eval, cfg, nil, logger)
}

func TestRouter_BareOptionsReturnsNoContent(t *testing.T) {
	r := newTestRouter(t)

	// Registered path without an OPTIONS handler of its own.
	req := httptest.NewRequest(http.MethodOptions, "/subscribe", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Unregistered path.
	req = httptest.NewRequest(http.MethodOptions, "/nope", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_PreflightReturnsNoContent(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/subscribe", nil)
	req.Header.Set("Origin", "https://gym.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_WrongMethodStaysMethodNotAllowed(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/subscribe", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestRouter_HealthCheck(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
