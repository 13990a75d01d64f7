package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"example.com/activitytracker/internal/api"
	"example.com/activitytracker/internal/app"
	"example.com/activitytracker/internal/auth"
	"example.com/activitytracker/internal/config"
	"example.com/activitytracker/internal/domain"
	"example.com/activitytracker/internal/outbox"
	"example.com/activitytracker/internal/persistence"
	"example.com/activitytracker/internal/platform/logger"
	"example.com/activitytracker/internal/synchronizer"
	httptransport "example.com/activitytracker/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	lg := logger.New("activity-tracker-api", cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := persistence.Open(ctx, cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("open storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			lg.Error().Err(err).Msg("close storage")
		}
	}()

	var dispatcher *outbox.Dispatcher
	if cfg.OutboxEnabled && store.Pool != nil {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(store.Pool, producer, registry, lg, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		go dispatcher.Start(ctx)
	} else if cfg.OutboxEnabled {
		lg.Warn().Str("driver", store.Driver()).Msg("outbox requires the postgres driver, dispatcher disabled")
	}

	syncService := synchronizer.NewService(store.Repository, app.Sources(cfg, lg), lg)
	handler := api.NewHandler(domain.NewService(store.Repository), syncService, lg, nil)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
	root := httptransport.Recover(lg)(
		httptransport.RequestLogger(lg)(
			httptransport.CORS(cfg.CORSOrigin)(
				authMiddleware.Wrap(router))))

	server := httptransport.NewServer(ctx, httptransport.DefaultServerConfig(cfg.HTTPAddress), root)

	go func() {
		lg.Info().Str("addr", cfg.HTTPAddress).Str("driver", store.Driver()).Msg("activity tracker listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	lg.Info().Msg("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("graceful shutdown failed")
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
}
