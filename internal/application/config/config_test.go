package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_LOG_LEVEL", "APP_ENABLE_DEBUG", "HTTP_APP_METRICS_HOST",
	"AUDIT_CONCURRENCY_LIMIT", "AUDIT_TIMEOUT_SECONDS", "AUDIT_MAX_RETRIES",
	"AUDIT_BACKOFF_BASE_SECONDS", "AUDIT_CACHE_TTL", "AUDIT_INTER_REQUEST_DELAY",
	"AUDIT_MAX_JITTER", "AUDIT_BATCH_TIMEOUT", "AUDIT_MAX_BODY_BYTES",
	"AUDIT_MAX_REDIRECTS", "AUDIT_USER_AGENT", "AUDIT_RULE_HOMEPAGE_BOUNCE",
	"AUDIT_RULE_BODY_PHRASES",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestNewAppConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := NewAppConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DebugMode)
	assert.Equal(t, DefaultAuditConfig(), cfg.Audit)
}

func TestNewAppConfig_FromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.env")
	content := `APP_LOG_LEVEL=debug
APP_ENABLE_DEBUG=true
HTTP_APP_METRICS_HOST=:9090
AUDIT_CONCURRENCY_LIMIT=4
AUDIT_TIMEOUT_SECONDS=2.5
AUDIT_BACKOFF_BASE_SECONDS=0.25
AUDIT_CACHE_TTL=1h
AUDIT_INTER_REQUEST_DELAY=200ms
AUDIT_BATCH_TIMEOUT=5m
AUDIT_RULE_BODY_PHRASES=false
AUDIT_USER_AGENT=link-auditor/1.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewAppConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DebugMode)
	assert.Equal(t, ":9090", cfg.MetricsHost)
	assert.Equal(t, 4, cfg.Audit.ConcurrencyLimit)
	assert.Equal(t, 2500*time.Millisecond, cfg.Audit.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Audit.BackoffBase)
	assert.Equal(t, time.Hour, cfg.Audit.CacheTTL)
	assert.Equal(t, 200*time.Millisecond, cfg.Audit.InterRequestDelay)
	assert.Equal(t, 5*time.Minute, cfg.Audit.BatchTimeout)
	assert.False(t, cfg.Audit.BodyPhrases)
	assert.True(t, cfg.Audit.HomepageBounce)
	assert.Equal(t, "link-auditor/1.0", cfg.Audit.UserAgent)
	assert.Equal(t, 2, cfg.Audit.MaxRetries)
}

func TestNewAppConfig_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_LOG_LEVEL", "loud")
	t.Setenv("AUDIT_MAX_RETRIES", "abc")
	t.Setenv("AUDIT_CONCURRENCY_LIMIT", "0")

	_, err := NewAppConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `log level "loud" is not supported`)
	assert.Contains(t, err.Error(), `AUDIT_MAX_RETRIES`)
	assert.Contains(t, err.Error(), `AUDIT_CONCURRENCY_LIMIT must be at least 1`)
}
