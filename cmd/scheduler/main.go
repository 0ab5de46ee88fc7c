package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"coupleflow/couple"
	"coupleflow/db"
	"coupleflow/journey"
	"coupleflow/schedule"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("bootstrap logger: %v", err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("scheduler stopped", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Configuration errors are fatal before anything touches the datastore:
	// a malformed catalog or a missing template should never be deployed.
	graph := journey.Default()
	if err := graph.Validate(); err != nil {
		return err
	}
	registry, err := schedule.NewRegistry()
	if err != nil {
		return err
	}
	if err := registry.Validate(graph); err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		return err
	}
	defer pool.Close()

	couples := couple.NewRepository(pool)
	emails := schedule.NewPGRepository(pool)
	links := schedule.NewLinkSigner(
		os.Getenv("LINK_SIGNING_SECRET"),
		envOr("PORTAL_BASE_URL", "https://app.example.com"),
	)
	transport := schedule.NewSMTPTransport(
		os.Getenv("SMTP_HOST"),
		envOr("SMTP_PORT", "465"),
		os.Getenv("SMTP_USERNAME"),
		os.Getenv("SMTP_PASSWORD"),
		os.Getenv("SMTP_FROM"),
	)

	materializer := schedule.NewMaterializer(pool, graph, couples, emails, links)
	sweeper := schedule.NewSweeper(emails, registry, transport).WithLogger(logger)

	interval := envDuration("SWEEP_INTERVAL", time.Hour)
	logger.Info("scheduler started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		tick(ctx, logger, couples, materializer, sweeper)
		select {
		case <-ctx.Done():
			logger.Info("scheduler shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

// tick materializes newly observed sessions, then dispatches due emails.
// Per-session and per-sweep failures are logged and retried naturally on the
// next tick; they never stop the loop.
func tick(ctx context.Context, logger *zap.Logger, couples *couple.Repository, materializer *schedule.Materializer, sweeper *schedule.Sweeper) {
	sessions, err := couples.ListPendingSessions(ctx, 50)
	if err != nil {
		logger.Error("list pending sessions failed", zap.Error(err))
		return
	}
	for _, s := range sessions {
		res, err := materializer.SessionCreated(ctx, s.ID)
		if err != nil {
			logger.Error("materialize session failed",
				zap.String("session_id", s.ID),
				zap.String("session_type", s.SessionType),
				zap.Error(err),
			)
			continue
		}
		logger.Info("session materialized",
			zap.String("session_id", s.ID),
			zap.Int("created", res.Created),
			zap.Int("skipped", res.Skipped),
		)
	}

	if _, err := sweeper.Run(ctx); err != nil {
		logger.Error("dispatch sweep failed", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
