package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "storefront")
	t.Setenv("DB_NAME", "storefront")
	t.Setenv("AUTH_JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "50", cfg.Shop.ShippingFee.String())
	assert.True(t, cfg.Shop.FreeShippingThreshold.IsZero())
	assert.Equal(t, "INR", cfg.Razorpay.Currency)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 10, cfg.OTP.MaxPerWindow)
	assert.Equal(t, cfg.Storage.Region, cfg.Notify.Region)
	assert.Equal(t, []string{"localhost:3000", "127.0.0.1:3000"}, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("SITE_URL", "https://shop.example.com/")
	t.Setenv("SHIPPING_FEE", "75.50")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "2999")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("ALLOWED_ORIGINS", " Shop.Example.com , admin.example.com,")
	t.Setenv("OTP_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://shop.example.com", cfg.SiteURL)
	assert.Equal(t, "75.5", cfg.Shop.ShippingFee.String())
	assert.Equal(t, "2999", cfg.Shop.FreeShippingThreshold.String())
	assert.Equal(t, "USD", cfg.Razorpay.Currency)
	assert.Equal(t, []string{"shop.example.com", "admin.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"negative fee", "SHIPPING_FEE", "-1"},
		{"unparsable fee", "SHIPPING_FEE", "fifty"},
		{"bad ttl", "OTP_TTL", "ten minutes"},
		{"negative interval", "OTP_CLEANUP_INTERVAL", "-5m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "AUTH_JWT_SECRET")

	setRequired(t)
	t.Setenv("DB_HOST", "")
	_, err = Load()
	assert.ErrorContains(t, err, "database configuration incomplete")
}
