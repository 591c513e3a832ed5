// The retention lambda purges expired reports when invoked on a schedule
// (EventBridge rule).
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/storeassist/safety-platform/cmd/mainconfig"
	"github.com/storeassist/safety-platform/internal/app/bootstrap"
	appconfig "github.com/storeassist/safety-platform/internal/config"
	"github.com/storeassist/safety-platform/pkg/logging"
)

type purgeResult struct {
	Deleted int `json:"deleted"`
}

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	reportDeps, err := bootstrap.BuildReportService(context.Background(), cfg, awsCfg, nil, logger)
	if err != nil {
		logger.Error("failed to build report service", "error", err)
		os.Exit(1)
	}

	lambda.Start(func(ctx context.Context) (purgeResult, error) {
		deleted, err := reportDeps.Service.PurgeExpired(ctx)
		if err != nil {
			logger.Error("retention purge failed", "error", err)
			return purgeResult{Deleted: deleted}, err
		}
		logger.Info("retention purge completed", "deleted", deleted)
		return purgeResult{Deleted: deleted}, nil
	})
}
