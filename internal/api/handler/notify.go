package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/openrec/gympush/internal/api/respond"
	"github.com/openrec/gympush/internal/catalog"
	"github.com/openrec/gympush/internal/notify"
	"github.com/openrec/gympush/internal/schedule"
	"github.com/openrec/gympush/internal/trigger"
)

// notifyRequest is the external trigger body, discriminated by Type.
// Unrecognized types are rejected at the boundary.
type notifyRequest struct {
	Type        string               `json:"type"`
	APIKey      string               `json:"apiKey"`
	Activities  []trigger.Activity   `json:"activities"`
	Slots       []schedule.FreedSlot `json:"slots"`
	SportID     string               `json:"sportId"`
	SportLabel  string               `json:"sportLabel"`
	DryRun      bool                 `json:"dryRun"`
	GeneratedAt string               `json:"generatedAt"`
}

// triggerResult pairs one fan-out's idempotency key with its counts.
type triggerResult struct {
	Key string `json:"key"`
	notify.Result
}

// Notify is the external trigger path: the caller supplies pre-filtered
// activities (or a cancellation diff); this endpoint only shapes payloads
// and idempotency keys, then runs one fan-out per job.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !h.authorized(r, req.APIKey) {
		respond.Error(w, http.StatusUnauthorized, "invalid API key")
		return
	}

	var jobs []notify.Job
	now := h.eval.Now()

	switch req.Type {
	case "30min":
		if len(req.Activities) == 0 {
			respond.Error(w, http.StatusBadRequest, "activities are required")
			return
		}
		jobs = h.eval.ExternalThirtyMin(req.Activities, "", "", now)

	case "sport-30min":
		if !catalog.Valid(req.SportID) {
			respond.Error(w, http.StatusBadRequest, "unknown sportId")
			return
		}
		if len(req.Activities) == 0 {
			respond.Error(w, http.StatusBadRequest, "activities are required")
			return
		}
		jobs = h.eval.ExternalThirtyMin(req.Activities, req.SportID, req.SportLabel, now)

	case "slot-freed":
		if len(req.Slots) == 0 {
			respond.Error(w, http.StatusBadRequest, "slots are required")
			return
		}
		if req.SportID != "" && !catalog.Valid(req.SportID) {
			respond.Error(w, http.StatusBadRequest, "unknown sportId")
			return
		}
		generatedAt := req.GeneratedAt
		if generatedAt == "" {
			generatedAt = now.Format(time.RFC3339)
		}
		jobs = []notify.Job{h.eval.SlotFreed(req.Slots, req.SportID, req.SportLabel, generatedAt)}

	default:
		respond.Error(w, http.StatusBadRequest, "unknown trigger type")
		return
	}

	results := make([]triggerResult, 0, len(jobs))
	for _, job := range jobs {
		res, err := h.engine.Run(r.Context(), job, req.DryRun)
		if err != nil {
			h.logger.Error("Fan-out failed", "key", job.IdempotencyKey, "error", err)
		}
		results = append(results, triggerResult{Key: job.IdempotencyKey, Result: res})
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"dryRun":  req.DryRun,
		"results": results,
	})
}

// Stats reports subscriber counts and the preference breakdown.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r, "") {
		respond.Error(w, http.StatusUnauthorized, "invalid API key")
		return
	}

	stats, err := notify.CollectStats(r.Context(), h.store, h.cfg.StorePageSize)
	if err != nil {
		h.logger.Error("Collect stats failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "collect stats")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"ok":              true,
		"subscribers":     stats.Subscribers,
		"idempotencyKeys": stats.IdempotencyKeys,
		"byPref":          stats.ByPref,
	})
}

// Catalog serves the shared sport catalog so the UI filter list can never
// drift from the predicate and the trigger evaluator.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"sports": catalog.Sports,
	})
}
