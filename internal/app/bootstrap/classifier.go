package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/storeassist/safety-platform/internal/config"
	"github.com/storeassist/safety-platform/internal/safety"
	"github.com/storeassist/safety-platform/pkg/logging"
)

// BuildClassifier assembles the pattern library and semantic analyzer from
// configuration. The returned cleanup func releases analyzer clients and is
// safe to call unconditionally.
func BuildClassifier(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (*safety.Classifier, func(), error) {
	lib := safety.DefaultPatternLibrary()
	if cfg.PatternBucket != "" {
		source := safety.NewS3PatternSource(s3.NewFromConfig(awsCfg), cfg.PatternBucket, cfg.PatternKey, logger)
		lib = source.Load(ctx)
	}
	logger.Info("pattern library loaded", "version", lib.Version())

	cleanup := func() {}
	var analyzer safety.SemanticAnalyzer
	switch cfg.AnalyzerProvider {
	case "bedrock":
		a, err := safety.NewBedrockAnalyzer(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
		if err != nil {
			return nil, cleanup, fmt.Errorf("bootstrap: bedrock analyzer: %w", err)
		}
		analyzer = a
	case "gemini":
		a, err := safety.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, cleanup, fmt.Errorf("bootstrap: gemini analyzer: %w", err)
		}
		analyzer = a
		cleanup = func() { _ = a.Close() }
	case "none", "":
		// Pattern-only mode.
	default:
		return nil, cleanup, fmt.Errorf("bootstrap: unknown analyzer provider %q", cfg.AnalyzerProvider)
	}

	return safety.NewClassifier(lib, analyzer, cfg.AnalyzerTimeout, logger), cleanup, nil
}
