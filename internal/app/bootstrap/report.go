// Package bootstrap builds the wired service graph the binaries share.
package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/storeassist/safety-platform/internal/config"
	"github.com/storeassist/safety-platform/internal/notify"
	"github.com/storeassist/safety-platform/internal/observability/metrics"
	"github.com/storeassist/safety-platform/internal/policy"
	"github.com/storeassist/safety-platform/internal/report"
	"github.com/storeassist/safety-platform/pkg/logging"
)

// ReportDeps is the assembled confidential-reporting stack plus the handles
// a binary needs to shut it down.
type ReportDeps struct {
	Service *report.Service
	closers []func()
}

// Close releases pools and clients in reverse construction order.
func (d *ReportDeps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// BuildReportService wires anonymization, encryption, storage, audit,
// correlation, routing, and alerting from configuration.
func BuildReportService(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, m *metrics.SafetyMetrics, logger *logging.Logger) (*ReportDeps, error) {
	if cfg.UserIDSalt == "" {
		return nil, errors.New("bootstrap: USER_ID_SALT is required")
	}
	deps := &ReportDeps{}

	// Key material: env-provided secret for development, Secrets Manager
	// otherwise. Either way the encryptor sees a TTL cache.
	var secrets report.SecretStore
	if cfg.EncryptionSecret != "" {
		secrets = report.NewStaticSecretStore(map[string]string{
			cfg.EncryptionKeyName: cfg.EncryptionSecret,
		})
	} else {
		secrets = report.NewAWSSecretStore(secretsmanager.NewFromConfig(awsCfg))
	}
	encryptor := report.NewEncryptor(
		report.NewCachedSecretStore(secrets, cfg.KeyCacheTTL),
		cfg.EncryptionKeyName,
		"v1",
	)

	store, auditor, err := buildStorage(ctx, cfg, awsCfg, deps, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}

	var correlator report.Correlator = report.NopCorrelator{}
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		deps.closers = append(deps.closers, func() { _ = client.Close() })
		correlator = report.NewRedisCorrelator(client, cfg.CorrelationScope, cfg.CorrelationTTL)
	}

	var bus report.MessageBus
	if urls := queueURLs(cfg); len(urls) > 0 {
		bus = report.NewSQSBus(sqs.NewFromConfig(awsCfg), urls)
	}

	var alerter report.Alerter
	if cfg.AlertToEmail != "" {
		sender, err := buildEmailSender(cfg, awsCfg)
		if err != nil {
			deps.Close()
			return nil, err
		}
		alerter = notify.NewEscalationAlerter(sender, cfg.AlertToEmail, logger)
	}

	deps.Service = report.NewService(report.ServiceConfig{
		Store:      store,
		Auditor:    auditor,
		Bus:        bus,
		Anonymizer: report.NewAnonymizer(cfg.UserIDSalt),
		Encryptor:  encryptor,
		Correlator: correlator,
		Alerter:    alerter,
		Retention: report.RetentionPolicy{
			Low:      cfg.RetentionLow,
			Medium:   cfg.RetentionMedium,
			High:     cfg.RetentionHigh,
			Critical: cfg.RetentionCritical,
		},
		AccessList:         cfg.ReportAccessList,
		PublishMaxAttempts: cfg.PublishMaxAttempts,
		PublishBackoffBase: cfg.PublishBackoffBase,
		Metrics:            m,
		Logger:             logger,
	})
	return deps, nil
}

func buildStorage(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, deps *ReportDeps, logger *logging.Logger) (report.Store, report.AuditSink, error) {
	switch cfg.ReportStoreBackend {
	case "memory":
		logger.Warn("using in-memory report store; reports will not survive a restart")
		return report.NewMemoryStore(), report.NewMemoryAuditor(), nil

	case "dynamo":
		store := report.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.ReportsTable)
		auditor, err := buildAuditor(cfg, deps, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, auditor, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		deps.closers = append(deps.closers, pool.Close)
		auditor, err := buildAuditor(cfg, deps, logger)
		if err != nil {
			return nil, nil, err
		}
		return report.NewPostgresStore(pool), auditor, nil

	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown report store backend %q", cfg.ReportStoreBackend)
	}
}

// buildAuditor opens the audit trail database. The trail always lives in
// Postgres, even when reports themselves live in DynamoDB.
func buildAuditor(cfg *appconfig.Config, deps *ReportDeps, logger *logging.Logger) (report.AuditSink, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; audit trail is in-memory only")
		return report.NewMemoryAuditor(), nil
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open audit db: %w", err)
	}
	deps.closers = append(deps.closers, func() { _ = db.Close() })
	return report.NewAuditor(db), nil
}

func buildEmailSender(cfg *appconfig.Config, awsCfg aws.Config) (notify.EmailSender, error) {
	switch cfg.EmailProvider {
	case "ses":
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), cfg.AlertFromEmail, cfg.AlertFromName), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, errors.New("bootstrap: SENDGRID_API_KEY is required for the sendgrid provider")
		}
		return notify.NewSendGridSender(cfg.SendGridAPIKey, cfg.AlertFromEmail, cfg.AlertFromName), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", cfg.EmailProvider)
	}
}

func queueURLs(cfg *appconfig.Config) map[string]string {
	urls := map[string]string{}
	add := func(p policy.EscalationPriority, url string) {
		if url != "" {
			urls[report.TopicForPriority(p)] = url
		}
	}
	add(policy.PriorityMedium, cfg.QueueURLMedium)
	add(policy.PriorityHigh, cfg.QueueURLHigh)
	add(policy.PriorityCritical, cfg.QueueURLCritical)
	add(policy.PriorityCriticalImmediate, cfg.QueueURLCriticalImmediate)
	return urls
}
