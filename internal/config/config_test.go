package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("QUOTAGATE_CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.Equal(t, 2*time.Second, cfg.Generation.Delay)
	require.Equal(t, 0.8, cfg.Provisioning.SuccessRate)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
transport:
  mode: http
store:
  backend: redis
  redis_addr: redis:6379
quota:
  tier: PRO
generation:
  delay: 500ms
  challenge_rounds: 3
provisioning:
  success_rate: 0.5
  latency: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	t.Setenv("QUOTAGATE_CONFIG_PATH", path)
	t.Setenv("QUOTAGATE_SERVER_PORT", "9090")
	t.Setenv("QUOTAGATE_GENERATION_DELAY", "250ms")
	t.Setenv("QUOTAGATE_AUTH_ENABLED", "true")
	t.Setenv("QUOTAGATE_AUTH_TOKEN", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, "redis", cfg.Store.Backend)
	require.Equal(t, "redis:6379", cfg.Store.RedisAddr)
	require.Equal(t, "PRO", cfg.Quota.Tier)
	require.Equal(t, 3, cfg.Generation.ChallengeRounds)
	require.Equal(t, 0.5, cfg.Provisioning.SuccessRate)
	require.Equal(t, time.Second, cfg.Provisioning.Latency)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 250*time.Millisecond, cfg.Generation.Delay)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, "s3cret", cfg.Auth.Token)
	// untouched defaults survive
	require.Equal(t, "quotagate.db", cfg.DB.Path)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("QUOTAGATE_SERVER_PORT", "eighty")
	_, err := Load()
	require.ErrorContains(t, err, "QUOTAGATE_SERVER_PORT")
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"QUOTAGATE_TRANSPORT_MODE":            "carrier-pigeon",
		"QUOTAGATE_STORE_BACKEND":             "etcd",
		"QUOTAGATE_AUTH_ENABLED":              "true",
		"QUOTAGATE_PROVISIONING_SUCCESS_RATE": "1.5",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("QUOTAGATE_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.ErrorContains(t, err, "read config file")
}
