package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesClassDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
app:
  env: test
`))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Auth.Window())
	assert.Equal(t, 5, cfg.RateLimit.Auth.MaxRequests)
	assert.Equal(t, "closed", cfg.RateLimit.Auth.FailPolicy)

	assert.Equal(t, time.Minute, cfg.RateLimit.API.Window())
	assert.Equal(t, 60, cfg.RateLimit.API.MaxRequests)
	assert.Equal(t, "open", cfg.RateLimit.API.FailPolicy)

	assert.Equal(t, 5*time.Minute, cfg.RateLimit.Payment.Window())
	assert.Equal(t, 10, cfg.RateLimit.Payment.MaxRequests)

	assert.Equal(t, 30, cfg.RateLimit.Cart.MaxRequests)
	assert.Equal(t, 100, cfg.RateLimit.Web.MaxRequests)

	assert.Equal(t, 15, cfg.Webhook.MaxAgeMinutes)
	assert.Equal(t, 10000, cfg.RateLimit.MaxMemoryEntries)
	assert.Equal(t, "jwt", cfg.Auth.Mode)
}

func TestLoad_OverridesKeepExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
ratelimit:
  auth:
    window_ms: 60000
    max_requests: 3
    fail_policy: "open"
`))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.RateLimit.Auth.Window())
	assert.Equal(t, 3, cfg.RateLimit.Auth.MaxRequests)
	assert.Equal(t, "open", cfg.RateLimit.Auth.FailPolicy)
	// The key prefix was not overridden, so the default fills in.
	assert.Equal(t, "auth", cfg.RateLimit.Auth.KeyPrefix)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_SECRET", "super-secret")

	cfg, err := Load(writeConfig(t, `
mercadopago:
  webhook_secret: ${TEST_WEBHOOK_SECRET}
`))
	require.NoError(t, err)

	assert.Equal(t, "super-secret", cfg.MercadoPago.WebhookSecret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
