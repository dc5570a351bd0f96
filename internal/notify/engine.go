package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/openrec/gympush/internal/store"
	"github.com/openrec/gympush/internal/subscription"
)

// markerValue is what an idempotency marker stores. Only presence matters.
var markerValue = []byte(`"1"`)

// Engine runs one fan-out per Job: claim the idempotency marker, paginate
// the full subscriber population, filter by preference, deliver
// concurrently within each page, classify outcomes, and clean up dead
// endpoints. It never panics outward — every invocation returns a Result.
type Engine struct {
	store    store.Store
	pusher   Pusher
	logger   *slog.Logger
	pageSize int
}

// NewEngine wires the fan-out engine. pageSize bounds both store pagination
// and per-page delivery parallelism.
func NewEngine(s store.Store, p Pusher, pageSize int, logger *slog.Logger) *Engine {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Engine{store: s, pusher: p, logger: logger, pageSize: pageSize}
}

// Run executes one fan-out. With dryRun the matching logic still runs so
// Sent reflects how many deliveries would happen, but neither the
// idempotency marker nor the push transport is touched.
func (e *Engine) Run(ctx context.Context, job Job, dryRun bool) (Result, error) {
	if !dryRun {
		accepted, err := e.store.PutIfAbsent(ctx, job.IdempotencyKey, markerValue, MarkerTTL)
		if err != nil {
			return Result{}, fmt.Errorf("claim idempotency marker: %w", err)
		}
		if !accepted {
			// A fan-out for this exact trigger was already accepted
			// within the TTL window. True no-op, no store scan.
			e.logger.Info("Fan-out suppressed by idempotency marker",
				"key", job.IdempotencyKey, "channel", job.Channel)
			return Result{}, nil
		}
	}

	message, err := json.Marshal(job.Payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal payload: %w", err)
	}

	var (
		mu  sync.Mutex
		res Result
	)

	err = store.ForEachPage(ctx, e.store, e.pageSize, func(keys []string) error {
		var wg sync.WaitGroup
		for _, key := range keys {
			if !store.IsSubscriberKey(key) {
				continue
			}
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				outcome := e.deliver(ctx, key, job, message, dryRun)

				mu.Lock()
				switch outcome {
				case outcomeSent:
					res.Sent++
				case outcomeSkipped:
					res.Skipped++
				case outcomeCleaned:
					res.Cleaned++
				case outcomeFailed:
					res.Failed++
				}
				mu.Unlock()
			}(key)
		}
		wg.Wait()
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("scan subscribers: %w", err)
	}

	e.logger.Info("Fan-out complete",
		"key", job.IdempotencyKey, "channel", job.Channel, "dry_run", dryRun,
		"sent", res.Sent, "skipped", res.Skipped, "cleaned", res.Cleaned, "failed", res.Failed)
	return res, nil
}

type outcome int

const (
	outcomeIgnored outcome = iota // malformed or vanished record
	outcomeSent
	outcomeSkipped
	outcomeCleaned
	outcomeFailed
)

// deliver processes one subscriber key through filter → push → classify.
func (e *Engine) deliver(ctx context.Context, key string, job Job, message []byte, dryRun bool) outcome {
	raw, err := e.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.logger.Warn("Read subscriber failed", "key", key, "error", err)
		}
		return outcomeIgnored
	}

	var sub subscription.Subscriber
	if err := json.Unmarshal(raw, &sub); err != nil {
		// Corrupt record: counted neither sent nor failed.
		return outcomeIgnored
	}

	if !Allowed(sub, job.Channel, job.Context) {
		return outcomeSkipped
	}

	if dryRun {
		return outcomeSent
	}

	status, err := e.pusher.Push(ctx, sub, message)
	switch {
	case err != nil:
		e.logger.Warn("Push delivery failed", "key", key, "error", err)
		return outcomeFailed

	case status >= 200 && status < 300:
		return outcomeSent

	case statusPermanentlyGone(status):
		// Endpoint is permanently dead; drop the subscription.
		if err := e.store.Delete(ctx, key); err != nil {
			e.logger.Warn("Cleanup delete failed", "key", key, "error", err)
		}
		return outcomeCleaned

	case status == http.StatusTooManyRequests:
		// Rate limited by the push service: keep the record, try again
		// on a future trigger.
		e.logger.Info("Push rate limited", "key", key)
		return outcomeIgnored

	default:
		e.logger.Warn("Push rejected", "key", key, "status", status)
		return outcomeFailed
	}
}
