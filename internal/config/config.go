package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	// AWS wiring (shared by SQS, DynamoDB, S3, SES, Secrets Manager, Bedrock)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Report storage backend: "postgres", "dynamo" or "memory"
	ReportStoreBackend string
	ReportsTable       string

	// Semantic analyzer: "bedrock", "gemini" or "none"
	AnalyzerProvider string
	AnalyzerTimeout  time.Duration
	BedrockModelID   string
	GeminiAPIKey     string
	GeminiModelID    string

	// Escalation routing. Topic names safety.<priority> map onto these URLs.
	QueueURLMedium            string
	QueueURLHigh              string
	QueueURLCritical          string
	QueueURLCriticalImmediate string
	PublishMaxAttempts        int
	PublishBackoffBase        time.Duration

	// Confidential reporting
	UserIDSalt        string
	EncryptionSecret  string // development fallback; production uses Secrets Manager
	EncryptionKeyName string
	KeyCacheTTL       time.Duration
	ReportAccessList  []string
	AccessorJWTSecret string
	AdminJWTSecret    string

	// Retention windows by severity
	RetentionLow      time.Duration
	RetentionMedium   time.Duration
	RetentionHigh     time.Duration
	RetentionCritical time.Duration
	PurgeInterval     time.Duration

	// Pattern library
	PatternBucket string
	PatternKey    string

	// Repeat-report correlation
	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	CorrelationTTL   time.Duration
	CorrelationScope string

	// Support resource contacts rendered into policy templates
	EAPPhone          string
	HRPhone           string
	SecurityExtension string
	CrisisLine        string

	// Backup alerting when the bus is degraded
	EmailProvider     string
	AlertFromEmail    string
	AlertFromName     string
	AlertToEmail      string
	SendGridAPIKey    string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		ReportStoreBackend: strings.ToLower(strings.TrimSpace(getEnv("REPORT_STORE_BACKEND", "postgres"))),
		ReportsTable:       getEnv("REPORTS_TABLE", "safety_reports"),

		AnalyzerProvider: strings.ToLower(strings.TrimSpace(getEnv("ANALYZER_PROVIDER", "none"))),
		AnalyzerTimeout:  getEnvAsDuration("ANALYZER_TIMEOUT", 3*time.Second),
		BedrockModelID:   getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:    getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		QueueURLMedium:            getEnv("SAFETY_QUEUE_URL_MEDIUM", ""),
		QueueURLHigh:              getEnv("SAFETY_QUEUE_URL_HIGH", ""),
		QueueURLCritical:          getEnv("SAFETY_QUEUE_URL_CRITICAL", ""),
		QueueURLCriticalImmediate: getEnv("SAFETY_QUEUE_URL_EMERGENCY", ""),
		PublishMaxAttempts:        getEnvAsInt("PUBLISH_MAX_ATTEMPTS", 3),
		PublishBackoffBase:        getEnvAsDuration("PUBLISH_BACKOFF_BASE", 200*time.Millisecond),

		UserIDSalt:        getEnv("USER_ID_SALT", ""),
		EncryptionSecret:  getEnv("ENCRYPTION_SECRET", ""),
		EncryptionKeyName: getEnv("ENCRYPTION_KEY_NAME", "safety-encryption-key"),
		KeyCacheTTL:       getEnvAsDuration("KEY_CACHE_TTL", 5*time.Minute),
		ReportAccessList:  getEnvAsList("REPORT_ACCESS_LIST"),
		AccessorJWTSecret: getEnv("ACCESSOR_JWT_SECRET", ""),
		AdminJWTSecret:    getEnv("ADMIN_JWT_SECRET", ""),

		RetentionLow:      getEnvAsDays("RETENTION_DAYS_LOW", 30),
		RetentionMedium:   getEnvAsDays("RETENTION_DAYS_MEDIUM", 90),
		RetentionHigh:     getEnvAsDays("RETENTION_DAYS_HIGH", 180),
		RetentionCritical: getEnvAsDays("RETENTION_DAYS_CRITICAL", 365),
		PurgeInterval:     getEnvAsDuration("PURGE_INTERVAL", time.Hour),

		PatternBucket: getEnv("PATTERN_BUCKET", ""),
		PatternKey:    getEnv("PATTERN_KEY", "safety/patterns/current.json"),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		CorrelationTTL:   getEnvAsDuration("CORRELATION_TTL", 30*24*time.Hour),
		CorrelationScope: getEnv("CORRELATION_SCOPE", "safety"),

		EAPPhone:          getEnv("EAP_PHONE", "1-800-555-0199"),
		HRPhone:           getEnv("HR_PHONE", "1-800-555-0145"),
		SecurityExtension: getEnv("SECURITY_EXTENSION", "Ext. 999"),
		CrisisLine:        getEnv("CRISIS_LINE", "988"),

		EmailProvider:  strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "ses"))),
		AlertFromEmail: getEnv("ALERT_FROM_EMAIL", ""),
		AlertFromName:  getEnv("ALERT_FROM_NAME", "Safety Escalation"),
		AlertToEmail:   getEnv("ALERT_TO_EMAIL", ""),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDays reads an integer day count and returns it as a duration.
func getEnvAsDays(key string, defaultDays int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultDays)) * 24 * time.Hour
}

// getEnvAsList splits a comma-separated environment variable.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
