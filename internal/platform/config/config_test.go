package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("CHECKOUT_PROVIDER", "fake")
	t.Setenv("NOTIFY_DRIVER", "log")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "EUR", cfg.Checkout.Currency)
	assert.NotEmpty(t, cfg.Checkout.WebhookSigningKey, "development falls back to a dev key")
	assert.Equal(t, 5*time.Minute, cfg.Poller.Interval)
	assert.True(t, decimal.NewFromInt(3).Equal(cfg.Pricing.DefaultReductionFactor))
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PUBLIC_BASE_URL", "https://leden.example.org/")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("NOTIFY_DRIVER", "kafka")
	t.Setenv("POLL_INTERVAL", "90s")
	t.Setenv("DEFAULT_SIBLING_REDUCTION", "20")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://leden.example.org", cfg.Server.PublicBaseURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notify.KafkaBrokers)
	assert.Equal(t, 90*time.Second, cfg.Poller.Interval)
	assert.Equal(t, "20", cfg.Pricing.DefaultSiblingReduction.String())
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Run("production requires webhook signing key", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("WEBHOOK_SIGNING_KEY", "")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "WEBHOOK_SIGNING_KEY")
	})

	t.Run("malformed duration is reported", func(t *testing.T) {
		t.Setenv("POLL_INTERVAL", "soon")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "POLL_INTERVAL")
	})

	t.Run("mollie requires api key", func(t *testing.T) {
		t.Setenv("CHECKOUT_PROVIDER", "mollie")
		t.Setenv("MOLLIE_API_KEY", "")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MOLLIE_API_KEY")
	})
}
