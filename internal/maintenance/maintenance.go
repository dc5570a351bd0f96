// Package maintenance runs periodic background tasks as Go tickers.
// Expired idempotency markers stay invisible to reads from the moment they
// lapse; the purge here just reclaims the rows.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/openrec/gympush/internal/store"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	PurgeInterval time.Duration // Expired markers and stale occupancy rows
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		PurgeInterval: 30 * time.Minute,
	}
}

// Start launches the configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, pg *store.Postgres, cfg Config, logger *slog.Logger) {
	if cfg.PurgeInterval <= 0 {
		return
	}
	logger.Info("Maintenance ticker started", "purge", cfg.PurgeInterval)

	ticker := time.NewTicker(cfg.PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			purgeExpired(ctx, pg, logger)
		case <-ctx.Done():
			logger.Info("Maintenance ticker stopped")
			return
		}
	}
}

func purgeExpired(ctx context.Context, pg *store.Postgres, logger *slog.Logger) {
	n, err := pg.PurgeExpired(ctx)
	if err != nil {
		logger.Warn("Purge expired records failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("Purged expired records", "count", n)
	}
}
