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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cypherlabdev/offer-catalog-service/internal/cache"
	"github.com/cypherlabdev/offer-catalog-service/internal/client"
	"github.com/cypherlabdev/offer-catalog-service/internal/config"
	httpHandler "github.com/cypherlabdev/offer-catalog-service/internal/handler/http"
	"github.com/cypherlabdev/offer-catalog-service/internal/messaging"
	"github.com/cypherlabdev/offer-catalog-service/internal/metrics"
	"github.com/cypherlabdev/offer-catalog-service/internal/poller"
	"github.com/cypherlabdev/offer-catalog-service/internal/service"
	"github.com/cypherlabdev/offer-catalog-service/pkg/catalog"
)

const defaultConfigFile = "config/config.yaml"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(configFile())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	logger.Info().Str("refresh_mode", cfg.Catalog.RefreshMode).Msg("starting offer-catalog-service")

	loc, err := cfg.Catalog.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load timezone")
	}

	// Cancel on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// Upstream clients
	feedClient := client.NewFeedClient(client.FeedClientConfig{
		BaseURL: cfg.Feed.BaseURL,
		Path:    cfg.Feed.Path,
		Timeout: cfg.Feed.Timeout,
	}, nil, logger)

	betClient := client.NewBetClient(client.BetClientConfig{
		BaseURL: cfg.Bets.BaseURL,
		Path:    cfg.Bets.Path,
		Timeout: cfg.Bets.Timeout,
	}, nil, logger)

	// Optional snapshot mirror
	var snapshotCache service.SnapshotCache
	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(
			cache.RedisCacheConfig{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
				TTL:      cfg.Redis.TTL,
				Key:      cfg.Redis.Key,
			},
			logger,
		)
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, continuing without snapshot mirror")
		} else {
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
			snapshotCache = redisCache
		}
	}

	// Catalog and selection services
	store := catalog.NewStore(feedClient, catalog.StoreOptions{
		MaxMalformedRatio: cfg.Catalog.MaxMalformedRatio,
	}, logger)
	catalogService := service.NewCatalogService(store, snapshotCache, m, logger)
	selectionService := service.NewSelectionService(catalogService, betClient, m, logger)

	if err := catalogService.Initialize(ctx); err != nil {
		logger.Warn().
			Err(err).
			Bool("ready", catalogService.Ready()).
			Msg("initial catalog load failed")
	}

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(chimiddleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	catalogHandler := httpHandler.NewCatalogHandler(catalogService, selectionService, loc, logger)
	catalogHandler.RegisterRoutes(r)
	logger.Info().Msg("API routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	switch cfg.Catalog.RefreshMode {
	case config.RefreshInterval:
		p := poller.NewPoller(catalogService, cfg.Catalog.RefreshInterval, logger)
		g.Go(func() error {
			p.Run(gctx)
			return nil
		})

	case config.RefreshKafka:
		consumer := messaging.NewKafkaConsumer(
			messaging.KafkaConsumerConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.Topic,
				GroupID: cfg.Kafka.GroupID,
			},
			catalogService,
			logger,
		)
		defer consumer.Close()

		g.Go(func() error {
			return consumer.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("service stopped with error")
		os.Exit(1)
	}

	logger.Info().Msg("shutdown complete")
}

// configFile returns the config file to read, or "" to run on defaults and env
func configFile() string {
	if path := os.Getenv("OFFER_CATALOG_CONFIG_FILE"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set format
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "offer-catalog").Logger()
}
