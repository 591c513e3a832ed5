// The retention worker purges reports past their retention window on a
// fixed interval.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/storeassist/safety-platform/cmd/mainconfig"
	"github.com/storeassist/safety-platform/internal/app/bootstrap"
	appconfig "github.com/storeassist/safety-platform/internal/config"
	"github.com/storeassist/safety-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting safety-platform retention worker",
		"env", cfg.Env,
		"interval", cfg.PurgeInterval.String(),
		"store_backend", cfg.ReportStoreBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	reportDeps, err := bootstrap.BuildReportService(ctx, cfg, awsCfg, nil, logger)
	if err != nil {
		logger.Error("failed to build report service", "error", err)
		os.Exit(1)
	}
	defer reportDeps.Close()

	runPurge(ctx, reportDeps, logger)

	ticker := time.NewTicker(cfg.PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("retention worker stopped")
			return
		case <-ticker.C:
			runPurge(ctx, reportDeps, logger)
		}
	}
}

func runPurge(ctx context.Context, deps *bootstrap.ReportDeps, logger *logging.Logger) {
	deleted, err := deps.Service.PurgeExpired(ctx)
	if err != nil {
		logger.Error("retention purge failed", "error", err)
		return
	}
	logger.Info("retention purge completed", "deleted", deleted)
}
