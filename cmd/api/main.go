package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storeassist/safety-platform/cmd/mainconfig"
	"github.com/storeassist/safety-platform/internal/api/router"
	"github.com/storeassist/safety-platform/internal/app/bootstrap"
	appconfig "github.com/storeassist/safety-platform/internal/config"
	"github.com/storeassist/safety-platform/internal/http/handlers"
	"github.com/storeassist/safety-platform/internal/observability/metrics"
	"github.com/storeassist/safety-platform/internal/pipeline"
	"github.com/storeassist/safety-platform/internal/policy"
	"github.com/storeassist/safety-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting safety-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store_backend", cfg.ReportStoreBackend,
		"analyzer", cfg.AnalyzerProvider,
	)

	ctx := context.Background()
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	safetyMetrics := metrics.NewSafetyMetrics(registry)

	classifier, closeAnalyzer, err := bootstrap.BuildClassifier(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to build classifier", "error", err)
		os.Exit(1)
	}
	defer closeAnalyzer()

	engine := policy.NewEngine(policy.Resources{
		EAPPhone:          cfg.EAPPhone,
		HRPhone:           cfg.HRPhone,
		SecurityExtension: cfg.SecurityExtension,
		CrisisLine:        cfg.CrisisLine,
	})

	reportDeps, err := bootstrap.BuildReportService(ctx, cfg, awsCfg, safetyMetrics, logger)
	if err != nil {
		logger.Error("failed to build report service", "error", err)
		os.Exit(1)
	}
	defer reportDeps.Close()

	p := pipeline.New(classifier, engine, reportDeps.Service, safetyMetrics, logger)
	safetyHandler := handlers.NewSafetyHandler(p, reportDeps.Service, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		SafetyHandler:      safetyHandler,
		AccessorAuthSecret: cfg.AccessorJWTSecret,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
