package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	MigrateOnStart     bool

	CurrencyCode           string
	TaxDefaultRate         float64
	TaxPrimaryMarket       string
	TaxPrimaryName         string
	TaxFallbackName        string
	TaxTablePath           string
	DiscountCodesPath      string
	DefaultPricingStrategy string

	QuoteCacheTTL  time.Duration
	RateLimit      string
	BodyLimitBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
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
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		MigrateOnStart:     parseBool(k.String("MIGRATE_ON_START")),

		CurrencyCode:           strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "USD")),
		TaxPrimaryMarket:       strings.ToUpper(valueOrDefault(k.String("TAX_PRIMARY_MARKET"), "US")),
		TaxPrimaryName:         valueOrDefault(k.String("TAX_PRIMARY_NAME"), "Sales Tax"),
		TaxFallbackName:        valueOrDefault(k.String("TAX_FALLBACK_NAME"), "VAT"),
		TaxTablePath:           strings.TrimSpace(k.String("TAX_TABLE_PATH")),
		DiscountCodesPath:      strings.TrimSpace(k.String("DISCOUNT_CODES_PATH")),
		DefaultPricingStrategy: valueOrDefault(k.String("PRICING_DEFAULT_STRATEGY"), "standard"),

		QuoteCacheTTL:  parseDuration(k.String("QUOTE_CACHE_TTL"), "30s"),
		RateLimit:      valueOrDefault(k.String("RATE_LIMIT"), "120-M"),
		BodyLimitBytes: parseInt64(k.String("BODY_LIMIT_BYTES"), 1<<20),
		ReadTimeout:    parseDuration(k.String("HTTP_READ_TIMEOUT"), "10s"),
		WriteTimeout:   parseDuration(k.String("HTTP_WRITE_TIMEOUT"), "15s"),
	}

	rate, err := parseRate(k.String("TAX_DEFAULT_RATE"))
	if err != nil {
		return nil, err
	}
	cfg.TaxDefaultRate = rate

	if len(cfg.CurrencyCode) != 3 {
		return nil, fmt.Errorf("CURRENCY_CODE must be a 3-letter ISO code, got %q", cfg.CurrencyCode)
	}
	if cfg.QuoteCacheTTL < 0 {
		return nil, fmt.Errorf("QUOTE_CACHE_TTL must not be negative")
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

// parseRate accepts a fraction ("0.18"). A value above 1 is rejected so a
// percentage typed by mistake does not produce a 100× tax.
func parseRate(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("TAX_DEFAULT_RATE: %w", err)
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return 0, fmt.Errorf("TAX_DEFAULT_RATE must be a fraction in [0,1], got %s", value)
	}
	f, _ := d.Float64()
	return f, nil
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
		return strings.TrimSpace(value)
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
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
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
