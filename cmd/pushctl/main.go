// Command pushctl is the operations CLI for the gym push service.
//
// Usage:
//
//	pushctl vapid-keygen
//	pushctl notify --title "Open gym tonight" --dry-run
//	pushctl stats
//	pushctl tick --dry-run
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/openrec/gympush/internal/config"
	"github.com/openrec/gympush/internal/db"
	"github.com/openrec/gympush/internal/notify"
	"github.com/openrec/gympush/internal/schedule"
	"github.com/openrec/gympush/internal/store"
	"github.com/openrec/gympush/internal/trigger"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "pushctl",
		Short: "Gym push service operations CLI",
	}

	root.AddCommand(vapidKeygenCmd())
	root.AddCommand(notifyCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(tickCmd())
	root.AddCommand(purgeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// vapid-keygen command
// --------------------------------------------------------------------------

func vapidKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid-keygen",
		Short: "Generate a VAPID key pair for push sender identification",
		RunE: func(cmd *cobra.Command, args []string) error {
			private, public, err := webpush.GenerateVAPIDKeys()
			if err != nil {
				return fmt.Errorf("generate VAPID keys: %w", err)
			}
			fmt.Printf("VAPID_PUBLIC_KEY=%s\n", public)
			fmt.Printf("VAPID_PRIVATE_KEY=%s\n", private)
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// notify command
// --------------------------------------------------------------------------

func notifyCmd() *cobra.Command {
	var (
		title   string
		body    string
		url     string
		channel string
		sportID string
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send an ad-hoc notification to matching subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, kv store.Store) error {
				ch := notify.Channel(channel)
				switch ch {
				case notify.ChannelThirtyMin, notify.ChannelDailyBriefing, notify.ChannelSlotFreed:
				default:
					return fmt.Errorf("unknown channel %q", channel)
				}
				if !dryRun && !cfg.PushConfigured() {
					return fmt.Errorf("VAPID keys are required unless --dry-run")
				}

				pusher := notify.NewWebPush(cfg.VAPIDSubject, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushTTL)
				engine := notify.NewEngine(kv, pusher, cfg.StorePageSize, logger)

				job := notify.Job{
					Payload: notify.Payload{Title: title, Body: body, Tag: "manual", URL: url},
					Channel: ch,
					Context: notify.Context{SportID: sportID},
					// Timestamped so repeated manual sends never collide.
					IdempotencyKey: fmt.Sprintf("%smanual:%s", store.MarkerPrefix, time.Now().UTC().Format(time.RFC3339)),
				}
				res, err := engine.Run(ctx, job, dryRun)
				if err != nil {
					return err
				}
				logger.Info("Notification sent", "dry_run", dryRun,
					"sent", res.Sent, "skipped", res.Skipped,
					"cleaned", res.Cleaned, "failed", res.Failed)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "notification title")
	cmd.Flags().StringVar(&body, "body", "", "notification body")
	cmd.Flags().StringVar(&url, "url", "", "deep-link URL")
	cmd.Flags().StringVar(&channel, "channel", string(notify.ChannelThirtyMin), "target channel: thirty-min, daily-briefing, slot-freed")
	cmd.Flags().StringVar(&sportID, "sport", "", "narrow targeting to one sport id")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "match without sending")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// --------------------------------------------------------------------------
// stats command
// --------------------------------------------------------------------------

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print subscriber counts and preference breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, kv store.Store) error {
				stats, err := notify.CollectStats(ctx, kv, cfg.StorePageSize)
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(stats, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// tick command
// --------------------------------------------------------------------------

func tickCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run one cron trigger evaluation against the live schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, kv store.Store) error {
				if cfg.ScheduleURL == "" {
					return fmt.Errorf("SCHEDULE_URL is required")
				}
				if !dryRun && !cfg.PushConfigured() {
					return fmt.Errorf("VAPID keys are required unless --dry-run")
				}

				eval, err := trigger.NewEvaluator(cfg.GymTimezone, cfg.AppOrigin)
				if err != nil {
					return err
				}
				pusher := notify.NewWebPush(cfg.VAPIDSubject, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushTTL)
				engine := notify.NewEngine(kv, pusher, cfg.StorePageSize, logger)
				client := schedule.NewClient(cfg.ScheduleURL, cfg.ScheduleCacheTTL)
				runner := trigger.NewRunner(eval, engine, client, cfg.TickInterval, logger)

				results, err := runner.Tick(ctx, dryRun)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					logger.Info("No triggers fired")
					return nil
				}
				for i, res := range results {
					logger.Info("Trigger result", "index", i,
						"sent", res.Sent, "skipped", res.Skipped,
						"cleaned", res.Cleaned, "failed", res.Failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "evaluate and match without sending or writing markers")
	return cmd
}

// --------------------------------------------------------------------------
// purge command
// --------------------------------------------------------------------------

func purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired idempotency markers and stale records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, kv store.Store) error {
				pg, ok := kv.(*store.Postgres)
				if !ok {
					return fmt.Errorf("purge requires DATABASE_URL")
				}
				n, err := pg.PurgeExpired(ctx)
				if err != nil {
					return err
				}
				logger.Info("Purged expired records", "count", n)
				return nil
			})
		},
	}
}

// withStore loads config, connects the durable store, and runs fn.
func withStore(fn func(ctx context.Context, cfg *config.Config, kv store.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, cfg, store.NewPostgres(pool.Pool))
}
