package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"PORT":             "",
		"CURRENCY_CODE":    "",
		"TAX_DEFAULT_RATE": "",
		"QUOTE_CACHE_TTL":  "",
		"RATE_LIMIT":       "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "USD", cfg.CurrencyCode)
	require.Equal(t, 0.0, cfg.TaxDefaultRate)
	require.Equal(t, 30*time.Second, cfg.QuoteCacheTTL)
	require.Equal(t, "120-M", cfg.RateLimit)
	require.Equal(t, "standard", cfg.DefaultPricingStrategy)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"PORT":                 ":9000",
		"CURRENCY_CODE":        "inr",
		"TAX_DEFAULT_RATE":     "0.18",
		"TAX_PRIMARY_MARKET":   "in",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"QUOTE_CACHE_TTL":      "5s",
	})
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, "INR", cfg.CurrencyCode)
	require.Equal(t, 0.18, cfg.TaxDefaultRate)
	require.Equal(t, "IN", cfg.TaxPrimaryMarket)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 5*time.Second, cfg.QuoteCacheTTL)
}

func TestLoadRejectsPercentAsRate(t *testing.T) {
	_, err := LoadForTests(map[string]string{"TAX_DEFAULT_RATE": "18"})
	require.Error(t, err)
}

func TestLoadRejectsBadCurrency(t *testing.T) {
	_, err := LoadForTests(map[string]string{"CURRENCY_CODE": "DOLLARS"})
	require.Error(t, err)
}
