package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-forecast/api/controllers"
	"github.com/angelmondragon/packfinderz-forecast/api/routes"
	"github.com/angelmondragon/packfinderz-forecast/internal/forecast"
	"github.com/angelmondragon/packfinderz-forecast/internal/history"
	"github.com/angelmondragon/packfinderz-forecast/internal/narrative"
	"github.com/angelmondragon/packfinderz-forecast/internal/scenarios"
	"github.com/angelmondragon/packfinderz-forecast/pkg/analyticsapi"
	"github.com/angelmondragon/packfinderz-forecast/pkg/bigquery"
	"github.com/angelmondragon/packfinderz-forecast/pkg/config"
	"github.com/angelmondragon/packfinderz-forecast/pkg/db"
	"github.com/angelmondragon/packfinderz-forecast/pkg/llm"
	"github.com/angelmondragon/packfinderz-forecast/pkg/logger"
	"github.com/angelmondragon/packfinderz-forecast/pkg/metrics"
	"github.com/angelmondragon/packfinderz-forecast/pkg/migrate"
	"github.com/angelmondragon/packfinderz-forecast/pkg/redis"
	"github.com/angelmondragon/packfinderz-forecast/pkg/retry"
)

const (
	shutdownTimeout = 15 * time.Second

	narrativeSystemInstruction = "You write two or three sentence sales outlooks for cannabis retail buyers. " +
		"Use only the numbers you are given. Do not use markdown."
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	health := map[string]controllers.Pinger{
		"db":    dbClient,
		"redis": redisClient,
	}

	var warehouse history.WarehouseClient
	if cfg.Forecast.HistorySource == config.HistorySourceBigQuery {
		bq, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap bigquery", err)
			os.Exit(1)
		}
		defer func() {
			if err := bq.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery", err)
			}
		}()
		warehouse = bq
		health["bigquery"] = bq
	}

	historyProvider, err := newHistoryProvider(cfg.Forecast.HistorySource, dbClient.DB(), warehouse)
	if err != nil {
		logg.Error(ctx, "failed to create history provider", err)
		os.Exit(1)
	}

	forecastMetrics := metrics.NewForecastMetrics(prometheus.DefaultRegisterer)

	var provider narrative.TextProvider
	if cfg.Gemini.Enabled() {
		gemini, err := llm.NewGemini(ctx, llm.Config{
			APIKey:            cfg.Gemini.APIKey,
			Model:             cfg.Gemini.Model,
			Timeout:           cfg.Gemini.Timeout,
			SystemInstruction: narrativeSystemInstruction,
		})
		if err != nil {
			logg.Error(ctx, "failed to create gemini client", err)
			os.Exit(1)
		}
		provider = gemini
	} else {
		logg.Warn(ctx, "gemini api key not set, narratives use templates")
	}

	narrator := narrative.NewGenerator(narrative.GeneratorParams{
		Provider: provider,
		Policy: retry.Policy{
			MaxAttempts: cfg.Forecast.NarrativeAttempts,
			Backoff:     retry.Exponential(cfg.Forecast.NarrativeBackoff, 4*cfg.Forecast.NarrativeBackoff),
		},
		Logger:   logg,
		Recorder: forecastMetrics,
	})

	var primary forecast.PrimaryClient
	if cfg.Analytics.Enabled() {
		primary = analyticsapi.NewClient(
			cfg.Analytics.BaseURL,
			analyticsapi.WithAPIKey(cfg.Analytics.APIKey),
			analyticsapi.WithTimeout(cfg.Analytics.Timeout),
		)
	} else {
		logg.Warn(ctx, "analytics url not set, forecasts use the trend engine")
	}

	forecastService, err := forecast.NewService(forecast.ServiceParams{
		History:  historyProvider,
		Primary:  primary,
		Narrator: narrator,
		Recorder: forecastMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create forecast service", err)
		os.Exit(1)
	}

	comparator, err := scenarios.NewComparator(scenarios.ComparatorParams{
		Forecaster:     forecastService,
		Store:          scenarios.NewRedisSessionStore(redisClient, cfg.Forecast.ScenarioSessionTTL),
		Recorder:       forecastMetrics,
		Logger:         logg,
		MaxConcurrency: cfg.Forecast.MaxConcurrency,
		Timeout:        cfg.Forecast.ScenarioTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create scenario comparator", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"addr":           addr,
		"instance":       id,
		"history_source": cfg.Forecast.HistorySource,
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			Health:      health,
			RateLimiter: redisClient,
			Forecasts:   forecastService,
			Scenarios:   comparator,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "api server shutdown failed", err)
		}
	}
}

// newHistoryProvider picks where sales history is read from. warehouse is
// only consulted for the bigquery source.
func newHistoryProvider(source string, conn *gorm.DB, warehouse history.WarehouseClient) (forecast.HistoryProvider, error) {
	if source != config.HistorySourceBigQuery {
		return history.NewRepository(conn), nil
	}
	provider, err := history.NewBigQueryProvider(warehouse)
	if err != nil {
		return nil, fmt.Errorf("bigquery history provider: %w", err)
	}
	return provider, nil
}
