package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAreValid(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, AuthModeDev, cfg.Auth.Mode)
	assert.Equal(t, 7*24*time.Hour, cfg.Shares.DefaultTTL)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
email:
  driver: resend
  api_key: from-file
outbox:
  max_attempts: 3
`), 0o600))

	t.Setenv("PETREC_EMAIL__API_KEY", "from-env")
	t.Setenv("PETREC_OUTBOX__BASE_BACKOFF", "5s")
	t.Setenv("PETREC_CORS__ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DB_DSN", "postgres://legacy")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "resend", cfg.Email.Driver)
	assert.Equal(t, "from-env", cfg.Email.APIKey)
	assert.Equal(t, 3, cfg.Outbox.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Outbox.BaseBackoff)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "postgres://legacy", cfg.Database.DSN)
}

func TestLoad_LegacyPort(t *testing.T) {
	t.Setenv("PORT", "3000")

	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	// archivo explícito inexistente => error del provider
	require.Error(t, err)

	t.Setenv(ConfigPathEnvVar, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Auth.Mode = AuthModeJWT
	cfg.Blob.Driver = "s3"
	cfg.Dedup.Driver = "redis"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")
	assert.Contains(t, err.Error(), "blob.bucket")
	assert.Contains(t, err.Error(), "dedup.redis_addr")

	cfg = Default()
	cfg.Auth.Mode = "ldap"
	assert.ErrorContains(t, cfg.Validate(), "not supported")
}
