package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/openrec/gympush/internal/api/respond"
	"github.com/openrec/gympush/internal/store"
)

// occupancyTTL keeps self-reports from going stale; an unrefreshed report
// simply disappears.
const occupancyTTL = 2 * time.Hour

type occupancyReport struct {
	Level      string `json:"level"` // "quiet", "moderate", "busy"
	ReportedAt string `json:"reportedAt"`
}

var occupancyLevels = map[string]bool{"quiet": true, "moderate": true, "busy": true}

// ReportOccupancy accepts an anonymous single-value occupancy self-report.
func (h *Handler) ReportOccupancy(w http.ResponseWriter, r *http.Request) {
	if !h.occupancyLimiter.Allow() {
		w.Header().Set("Retry-After", "10")
		respond.Error(w, http.StatusTooManyRequests, "too many reports")
		return
	}

	var req struct {
		Level string `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !occupancyLevels[req.Level] {
		respond.Error(w, http.StatusBadRequest, "level must be quiet, moderate, or busy")
		return
	}

	report := occupancyReport{
		Level:      req.Level,
		ReportedAt: time.Now().UTC().Format(time.RFC3339),
	}
	raw, _ := json.Marshal(report)
	if err := h.store.Put(r.Context(), store.OccupancyKey, raw, occupancyTTL); err != nil {
		h.logger.Error("Store occupancy failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "store occupancy")
		return
	}
	respond.OK(w, http.StatusOK)
}

// GetOccupancy returns the most recent non-expired self-report.
func (h *Handler) GetOccupancy(w http.ResponseWriter, r *http.Request) {
	raw, err := h.store.Get(r.Context(), store.OccupancyKey)
	if errors.Is(err, store.ErrNotFound) {
		respond.JSON(w, http.StatusOK, map[string]interface{}{"ok": true, "occupancy": nil})
		return
	}
	if err != nil {
		h.logger.Error("Read occupancy failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "read occupancy")
		return
	}

	var report occupancyReport
	if err := json.Unmarshal(raw, &report); err != nil {
		respond.JSON(w, http.StatusOK, map[string]interface{}{"ok": true, "occupancy": nil})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"ok": true, "occupancy": report})
}
