package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/PratikDhanave/factory-events-service/internal/clock"
	"github.com/PratikDhanave/factory-events-service/internal/config"
	"github.com/PratikDhanave/factory-events-service/internal/httpserver"
	"github.com/PratikDhanave/factory-events-service/internal/ingest"
	"github.com/PratikDhanave/factory-events-service/internal/logger"
	"github.com/PratikDhanave/factory-events-service/internal/metrics"
	"github.com/PratikDhanave/factory-events-service/internal/publish"
	"github.com/PratikDhanave/factory-events-service/internal/stats"
	"github.com/PratikDhanave/factory-events-service/internal/store"
	"github.com/PratikDhanave/factory-events-service/internal/tracing"
)

// main boots the service: config → logger → tracing → store → sinks → HTTP server.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load runtime config from environment.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(logger.Options{
		Level:       cfg.App.LogLevel,
		Service:     cfg.App.Name,
		Environment: cfg.App.Env,
		Version:     cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	traceShutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Env,
	})
	if err != nil {
		logr.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	// The in-memory store is authoritative and shared by both services.
	eventStore := store.NewEventStore(cfg.Store.Shards, clock.Wall)
	m := metrics.New(func() float64 { return float64(eventStore.Len()) })

	sinks, err := buildSinks(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("init sinks", zap.Error(err))
	}

	ingestSvc := ingest.NewService(ingest.Params{
		Store: eventStore,
		Validator: ingest.Validator{
			MaxDuration:     cfg.Ingest.MaxDuration,
			FutureTolerance: cfg.Ingest.FutureTolerance,
			Clock:           clock.Wall,
		},
		Sinks:   sinks,
		Logger:  logr,
		Metrics: m,
	})
	statsSvc := stats.NewService(stats.Params{
		Store:            eventStore,
		WarningThreshold: cfg.Stats.WarningThreshold,
		Metrics:          m,
	})

	router := httpserver.NewRouter(httpserver.Options{
		Ingest:       ingestSvc,
		Stats:        statsSvc,
		Ready:        ingestSvc.Ping,
		Metrics:      m.Handler(),
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		Logger:       logr,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      otelhttp.NewHandler(router, cfg.App.Name),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Error("http server shutdown failed", zap.Error(err))
		}
		if err := ingestSvc.Close(); err != nil {
			logr.Error("sink shutdown failed", zap.Error(err))
		}
	}()

	logr.Info("factory events service starting",
		zap.String("addr", cfg.HTTP.Addr),
		zap.Int("sinks", len(sinks)),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Fatal("http server failed", zap.Error(err))
	}
}

// buildSinks connects every downstream sink that has configuration.
func buildSinks(ctx context.Context, cfg config.Config, logr *zap.Logger) ([]ingest.Sink, error) {
	var sinks []ingest.Sink

	if cfg.Archive.DBURL != "" {
		archive, err := store.NewPostgresArchive(cfg.Archive.DBURL)
		if err != nil {
			return nil, err
		}
		// Ensure the archive table exists so `docker compose up` is enough.
		if err := archive.EnsureSchema(ctx); err != nil {
			archive.Close()
			return nil, err
		}
		sinks = append(sinks, archive)
		logr.Info("postgres archive enabled")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sinks = append(sinks, publish.NewKafkaSink(publish.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			Compression:  publish.CompressionFromString(cfg.Kafka.Compression),
			MaxAttempts:  cfg.Kafka.Retries,
		}))
		logr.Info("kafka sink enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if cfg.NATS.URL != "" {
		ns, err := publish.NewNATSSink(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			for _, s := range sinks {
				_ = s.Close()
			}
			return nil, err
		}
		sinks = append(sinks, ns)
		logr.Info("nats sink enabled", zap.String("subject", cfg.NATS.Subject))
	}

	return sinks, nil
}
