package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"example.com/activitytracker/internal/config"
	"example.com/activitytracker/internal/observability"
	"example.com/activitytracker/internal/outbox"
	"example.com/activitytracker/internal/platform/database"
	"example.com/activitytracker/internal/platform/logger"
)

const defaultDLQBatchSize = 50

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	lg := logger.New("activity-tracker-dlqmanager", cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.PostgresURL, database.DefaultRetryPolicy, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	manager := outbox.NewDLQManager(pool, cfg.DLQMaxRetries, cfg.DLQBaseDelay, lg)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: observability.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		lg.Info().Str("addr", cfg.MetricsAddress).Msg("dlq manager metrics listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error().Err(err).Msg("metrics server error")
		}
	}()

	lg.Info().Dur("interval", cfg.DLQPollInterval).Int("max_retries", cfg.DLQMaxRetries).Msg("dlq manager started")
	run(ctx, manager, cfg.DLQPollInterval, lg)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("metrics server shutdown")
	}
}

func run(ctx context.Context, manager *outbox.DLQManager, interval time.Duration, lg zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			lg.Info().Msg("dlq manager received shutdown signal")
			return
		case <-ticker.C:
			processed, err := manager.RunOnce(ctx, defaultDLQBatchSize)
			if err != nil {
				lg.Error().Err(err).Msg("dlq manager run failed")
			} else if processed > 0 {
				lg.Info().Int("processed", processed).Msg("dlq entries processed")
			}
		}
	}
}
