package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retailstack/sales-advisor/internal/api"
	"github.com/retailstack/sales-advisor/internal/cache"
	"github.com/retailstack/sales-advisor/internal/config"
	"github.com/retailstack/sales-advisor/internal/engine"
	"github.com/retailstack/sales-advisor/internal/metrics"
	"github.com/retailstack/sales-advisor/internal/repo"
	"github.com/retailstack/sales-advisor/internal/services"
	"github.com/retailstack/sales-advisor/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting sales-advisor", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewRedisProvider(cache.RedisConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("redis cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
			defer provider.Close()
		}
	}

	var (
		corpus   engine.CorpusSource
		profiles engine.ProfileSource
	)
	switch cfg.Data.Source {
	case "http":
		client := repo.NewSalesDataClient(
			cfg.Data.HTTP.BaseURL,
			cfg.Data.HTTP.SalesPath,
			cfg.Data.HTTP.StoresPath,
			cfg.Data.HTTP.Timeout,
			cacheProvider,
			cfg.Cache.ProfileTTL,
			logger,
		)
		corpus, profiles = client, client
	default:
		source := repo.NewCSVSource(cfg.Data.CSV.SalesPath, cfg.Data.CSV.StoresPath)
		corpus, profiles = source, source
	}

	pipeline := engine.NewPipeline(logger, corpus, profiles, cfg.Model.ArtifactPath, cfg.Cohort.Neighbors)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Fit in the background so the listener comes up immediately; requests
	// receive 503 until the readiness gate opens.
	go func() {
		start := time.Now()
		if err := pipeline.Fit(ctx); err != nil {
			logger.Error("pipeline fit failed", slog.Any("error", err))
			stop()
			return
		}
		metrics.ObserveFit(time.Since(start))
	}()

	advisor := services.NewAdvisorService(logger, pipeline)
	handler := api.NewHandler(logger, advisor)

	server, err := api.NewServer(cfg.Server, handler.Routes())
	if err != nil {
		logger.Error("failed to create HTTP server", slog.Any("error", err))
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("HTTP server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("sales-advisor stopped")
}
