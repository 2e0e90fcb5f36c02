package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	CkoSecretKey           string
	CkoWebhookSecret       string
	CkoProcessingChannelID string
	CkoBaseURL             string

	CurrencyCode   string
	UnitPriceMinor int64

	MerchantName   string
	BillingCountry string
	CustomerName   string
	CustomerEmail  string
	ItemName       string
	ItemReference  string
	SuccessURL     string
	FailureURL     string

	StaticDir string

	GatewayTimeout   time.Duration
	WebhookReplayTTL time.Duration
	IdempotencyTTL   time.Duration
	MaxBodyBytes     int64
	RateLimitWindow  time.Duration
	RateLimitMax     int

	TracingEnabled     bool
	TracingExporter    string
	TracingEndpoint    string
	TracingSampleRatio float64
	MetricsBucketsCSV  string
	LogFormat          string
	LogLevel           string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CkoSecretKey:           k.String("CKO_SECRET_KEY"),
		CkoWebhookSecret:       k.String("CKO_WEBHOOK_SECRET"),
		CkoProcessingChannelID: k.String("CKO_PROCESSING_CHANNEL_ID"),
		CkoBaseURL:             valueOrDefault(k.String("CKO_BASE_URL"), "https://api.sandbox.checkout.com"),

		CurrencyCode:   valueOrDefault(k.String("CURRENCY_CODE"), "HKD"),
		UnitPriceMinor: parseInt64(k.String("UNIT_PRICE_MINOR"), 9000),

		MerchantName:   valueOrDefault(k.String("MERCHANT_NAME"), "Demo Shop"),
		BillingCountry: valueOrDefault(k.String("BILLING_COUNTRY"), "HK"),
		CustomerName:   valueOrDefault(k.String("CUSTOMER_NAME"), "Demo Customer"),
		CustomerEmail:  valueOrDefault(k.String("CUSTOMER_EMAIL"), "demo.customer@example.com"),
		ItemName:       valueOrDefault(k.String("ITEM_NAME"), "Demo Item"),
		ItemReference:  valueOrDefault(k.String("ITEM_REFERENCE"), "demo-item"),
		SuccessURL:     valueOrDefault(k.String("SUCCESS_URL"), "http://localhost:8080/?status=succeeded"),
		FailureURL:     valueOrDefault(k.String("FAILURE_URL"), "http://localhost:8080/?status=failed"),

		StaticDir: valueOrDefault(k.String("STATIC_DIR"), "./web/public"),

		GatewayTimeout:   parseDuration(k.String("GATEWAY_TIMEOUT"), "15s"),
		WebhookReplayTTL: parseDuration(k.String("WEBHOOK_REPLAY_TTL"), "24h"),
		IdempotencyTTL:   parseDuration(k.String("IDEMPOTENCY_TTL"), "10m"),
		MaxBodyBytes:     parseInt64(k.String("MAX_BODY_BYTES"), 1<<20),
		RateLimitWindow:  parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:     int(parseInt64(k.String("RATE_LIMIT_MAX"), 60)),

		TracingEnabled:     parseBool(k.String("TRACING_ENABLED")),
		TracingExporter:    valueOrDefault(k.String("TRACING_EXPORTER"), "otlp"),
		TracingEndpoint:    k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TracingSampleRatio: parseFloat(k.String("TRACING_SAMPLE_RATIO"), 1),
		MetricsBucketsCSV:  k.String("METRICS_BUCKETS_MS"),
		LogFormat:          valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), "info"),
	}

	if cfg.CkoSecretKey == "" {
		return nil, errors.New("CKO_SECRET_KEY is required")
	}
	if cfg.CkoWebhookSecret == "" {
		return nil, errors.New("CKO_WEBHOOK_SECRET is required")
	}
	if cfg.CkoProcessingChannelID == "" {
		return nil, errors.New("CKO_PROCESSING_CHANNEL_ID is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.UnitPriceMinor <= 0 {
		return nil, errors.New("UNIT_PRICE_MINOR must be a positive integer")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt64(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
