package trigger

import (
	"context"
	"log/slog"
	"time"

	"github.com/openrec/gympush/internal/notify"
	"github.com/openrec/gympush/internal/schedule"
	"github.com/openrec/gympush/internal/subscription"
)

// Runner drives periodic trigger evaluation. Blocks until ctx is cancelled.
// Intended to be called with `go`.
type Runner struct {
	eval     *Evaluator
	engine   *notify.Engine
	client   *schedule.Client
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner wires the cron evaluation loop.
func NewRunner(eval *Evaluator, engine *notify.Engine, client *schedule.Client, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		eval:     eval,
		engine:   engine,
		client:   client,
		interval: interval,
		logger:   logger,
		now:      eval.Now,
	}
}

// Start ticks until the context is cancelled.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("Trigger runner started", "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.Tick(ctx, false); err != nil {
				r.logger.Error("Trigger tick failed", "error", err)
			}
		case <-ctx.Done():
			r.logger.Info("Trigger runner stopped")
			return
		}
	}
}

// Tick runs one evaluation: schedule fetch, daily briefing, gym-hours-gated
// window scan, and one fan-out per derived job.
func (r *Runner) Tick(ctx context.Context, dryRun bool) ([]notify.Result, error) {
	now := r.now()

	// The briefing runs on its own clock: hour 7 is a selectable briefing
	// hour but falls before opening, so it must not sit behind the
	// gym-hours gate. Ticks outside both windows fetch nothing.
	withinHours := r.eval.WithinGymHours(now)
	briefingHour := subscription.ValidBriefingHour(now.In(r.eval.Location()).Hour())
	if !withinHours && !briefingHour {
		return nil, nil
	}

	doc, err := r.client.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	var jobs []notify.Job
	if briefing, ok := r.eval.Briefing(doc, now); ok {
		jobs = append(jobs, briefing)
	}
	if withinHours {
		jobs = append(jobs, r.eval.ScanThirtyMin(doc, now)...)
	}

	results := make([]notify.Result, 0, len(jobs))
	for _, job := range jobs {
		res, err := r.engine.Run(ctx, job, dryRun)
		if err != nil {
			// Partial failure stays partial: remaining jobs still run.
			r.logger.Error("Fan-out failed", "key", job.IdempotencyKey, "error", err)
		}
		results = append(results, res)
	}
	return results, nil
}
