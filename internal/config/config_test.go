package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv() map[string]string {
	return map[string]string{
		"CKO_SECRET_KEY":            "sk_sbox_test",
		"CKO_WEBHOOK_SECRET":        "whsec_test",
		"CKO_PROCESSING_CHANNEL_ID": "pc_test",
		"REDIS_URL":                 "redis://localhost:6379/0",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(validEnv())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr())
	assert.Equal(t, "https://api.sandbox.checkout.com", cfg.CkoBaseURL)
	assert.Equal(t, "HKD", cfg.CurrencyCode)
	assert.Equal(t, int64(9000), cfg.UnitPriceMinor)
	assert.Equal(t, "HK", cfg.BillingCountry)
	assert.Equal(t, "./web/public", cfg.StaticDir)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Equal(t, 60, cfg.RateLimitMax)
}

func TestLoadRequiredSecrets(t *testing.T) {
	for _, key := range []string{
		"CKO_SECRET_KEY",
		"CKO_WEBHOOK_SECRET",
		"CKO_PROCESSING_CHANNEL_ID",
		"REDIS_URL",
	} {
		env := validEnv()
		env[key] = ""

		_, err := LoadForTests(env)
		require.Error(t, err, "missing %s must fail startup", key)
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoadOverrides(t *testing.T) {
	env := validEnv()
	env["PORT"] = "9090"
	env["CURRENCY_CODE"] = "USD"
	env["UNIT_PRICE_MINOR"] = "1250"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.example.com, https://b.example.com"
	env["RATE_LIMIT_MAX"] = "5"
	env["WEBHOOK_REPLAY_TTL"] = "48h"

	cfg, err := LoadForTests(env)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr())
	assert.Equal(t, "USD", cfg.CurrencyCode)
	assert.Equal(t, int64(1250), cfg.UnitPriceMinor)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5, cfg.RateLimitMax)
	assert.Equal(t, "48h0m0s", cfg.WebhookReplayTTL.String())
}

func TestLoadRejectsNonPositiveUnitPrice(t *testing.T) {
	env := validEnv()
	env["UNIT_PRICE_MINOR"] = "-1"

	_, err := LoadForTests(env)
	assert.Error(t, err)
}
