package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/openrec/gympush/internal/api/respond"
	"github.com/openrec/gympush/internal/store"
	"github.com/openrec/gympush/internal/subscription"
)

type subscribeRequest struct {
	Endpoint string              `json:"endpoint"`
	Keys     subscription.Keys   `json:"keys"`
	Prefs    *subscription.Prefs `json:"prefs"`
}

// Subscribe creates (or overwrites) a subscription record.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		respond.Error(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	prefs := subscription.Prefs{}
	if req.Prefs != nil {
		prefs = *req.Prefs
	}
	prefs, err := subscription.Normalize(prefs)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	sub := subscription.Subscriber{
		Endpoint:     req.Endpoint,
		Keys:         req.Keys,
		Prefs:        prefs,
		SubscribedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(sub)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "encode subscription")
		return
	}

	key := subscription.DeriveKey(req.Endpoint)
	if err := h.store.Put(r.Context(), key, raw, 0); err != nil {
		h.logger.Error("Store subscription failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "store subscription")
		return
	}
	respond.OK(w, http.StatusCreated)
}

type updateRequest struct {
	Endpoint string                  `json:"endpoint"`
	Prefs    subscription.PrefsPatch `json:"prefs"`
}

// UpdateSubscription applies a partial preference update.
func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Endpoint == "" {
		respond.Error(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	key := subscription.DeriveKey(req.Endpoint)
	raw, err := h.store.Get(r.Context(), key)
	if errors.Is(err, store.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "unknown subscription")
		return
	}
	if err != nil {
		h.logger.Error("Read subscription failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "read subscription")
		return
	}

	var sub subscription.Subscriber
	if err := json.Unmarshal(raw, &sub); err != nil {
		respond.Error(w, http.StatusNotFound, "unknown subscription")
		return
	}

	sub.Prefs, err = subscription.Apply(sub.Prefs, req.Prefs)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := json.Marshal(sub)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "encode subscription")
		return
	}
	if err := h.store.Put(r.Context(), key, updated, 0); err != nil {
		h.logger.Error("Store subscription failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "store subscription")
		return
	}
	respond.OK(w, http.StatusOK)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe deletes a subscription record.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Endpoint == "" {
		respond.Error(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	key := subscription.DeriveKey(req.Endpoint)
	if _, err := h.store.Get(r.Context(), key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "unknown subscription")
			return
		}
		h.logger.Error("Read subscription failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "read subscription")
		return
	}

	if err := h.store.Delete(r.Context(), key); err != nil {
		h.logger.Error("Delete subscription failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "delete subscription")
		return
	}
	respond.OK(w, http.StatusOK)
}
