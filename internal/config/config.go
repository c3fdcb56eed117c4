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
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	CurrencyCode  string
	TaxRateBps    int
	SessionCookie string

	StripeSecretKey string
	StripeBaseURL   string
	PayPalClientID  string
	PayPalSecret    string
	PayPalBaseURL   string
	GatewayTimeout  time.Duration

	ConfirmLockTTL     time.Duration
	IdempotencyTTL     time.Duration
	CheckoutRateMax    int
	CheckoutRateWindow time.Duration

	NotifyEmailEnabled bool
	NotifyEmailFrom    string

	LogFormat string
	LogLevel  string

	OtelEnabled       bool
	OtelEndpoint      string
	OtelSamplingRatio float64

	MigrateOnStart bool
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
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CurrencyCode:  valueOrDefault(k.String("CURRENCY_CODE"), "SEK"),
		TaxRateBps:    parseInt(k.String("PRICING_TAX_RATE_BPS"), 2500),
		SessionCookie: valueOrDefault(k.String("SESSION_COOKIE_NAME"), "butik_session"),

		StripeSecretKey: k.String("STRIPE_SECRET_KEY"),
		StripeBaseURL:   k.String("STRIPE_BASE_URL"),
		PayPalClientID:  k.String("PAYPAL_CLIENT_ID"),
		PayPalSecret:    k.String("PAYPAL_SECRET"),
		PayPalBaseURL:   k.String("PAYPAL_BASE_URL"),
		GatewayTimeout:  parseDuration(k.String("GATEWAY_TIMEOUT"), "20s"),

		ConfirmLockTTL:     parseDuration(k.String("CONFIRM_LOCK_TTL"), "30s"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CheckoutRateMax:    parseInt(k.String("CHECKOUT_RATE_MAX"), 30),
		CheckoutRateWindow: parseDuration(k.String("CHECKOUT_RATE_WINDOW"), "1m"),

		NotifyEmailEnabled: parseBool(k.String("NOTIFY_EMAIL_ENABLED")),
		NotifyEmailFrom:    valueOrDefault(k.String("NOTIFY_EMAIL_FROM"), "order@butik.example"),

		LogFormat: valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:  valueOrDefault(k.String("LOG_LEVEL"), "info"),

		OtelEnabled:       parseBool(k.String("OTEL_ENABLED")),
		OtelEndpoint:      k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelSamplingRatio: parseFloat(k.String("OTEL_SAMPLING_RATIO"), 1),

		MigrateOnStart: parseBool(k.String("DB_MIGRATE_ON_START")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.TaxRateBps < 0 || cfg.TaxRateBps >= 10000 {
		return nil, fmt.Errorf("PRICING_TAX_RATE_BPS out of range: %d", cfg.TaxRateBps)
	}
	if cfg.GatewayTimeout < 10*time.Second || cfg.GatewayTimeout > 30*time.Second {
		return nil, fmt.Errorf("GATEWAY_TIMEOUT must be between 10s and 30s, got %s", cfg.GatewayTimeout)
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

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.Atoi(trimmed)
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

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without leaking state.
func LoadForTests(envs map[string]string) (*Config, error) {
	original := make(map[string]string, len(envs))
	for key := range envs {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, envs[key]); err != nil {
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
