package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
auth:
  jwt_secret: file-secret
  token_ttl: 1h
delivery:
  home_metro_fee: 2500
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	require.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, int64(2500), cfg.Delivery.HomeMetroFee)
	// Untouched settings keep their defaults.
	require.Equal(t, "memory", cfg.Storage.Backend)
	require.Equal(t, 20, cfg.Server.RateLimitRPS)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: file-secret
storage:
  backend: memory
`)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	require.Equal(t, ":7070", cfg.Server.Addr)
	require.Equal(t, 3, cfg.Storage.RedisDB)
}

func TestValidateBackendRequirements(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	path := writeConfig(t, `
storage:
  backend: postgres
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "postgres_dsn")

	path = writeConfig(t, `
storage:
  backend: supabase
`)
	_, err = Load(path)
	require.ErrorContains(t, err, "supabase_url")

	path = writeConfig(t, `
storage:
  backend: sqlite
`)
	_, err = Load(path)
	require.ErrorContains(t, err, "unknown storage backend")
}

func TestJWTSecretRequired(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":8080"
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "jwt_secret")
}

func TestLoadOrDefaultWithoutFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}
