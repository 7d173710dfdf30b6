package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "listen: \":9000\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, 3000, cfg.Collector.CallTimeoutMs)
	assert.Equal(t, 5000, cfg.Collector.RoundTimeoutMs)
	assert.Equal(t, 8, cfg.Collector.Workers)
	assert.Equal(t, 95.0, cfg.Rates.RubPerUSD)
	assert.Contains(t, cfg.Cron.Cryptos, "BTC")
	assert.Equal(t, 24, cfg.Cron.MaxAgeHours)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
collector:
  call_timeout_ms: 1500
  workers: 4
rates:
  rub_per_usd: 101.5
venues: [binance, okx]
`))
	require.NoError(t, err)

	assert.Equal(t, 1500, cfg.Collector.CallTimeoutMs)
	assert.Equal(t, 4, cfg.Collector.Workers)
	assert.Equal(t, 101.5, cfg.Rates.RubPerUSD)
	assert.Equal(t, []string{"binance", "okx"}, cfg.Venues)
	assert.Equal(t, 1500*1000000, int(cfg.CallTimeout().Nanoseconds()))
}

func TestLoad_EnvWins(t *testing.T) {
	t.Setenv("ADMIN_TOKEN", "from-env")
	t.Setenv("DATABASE_URL", "postgres://env")

	cfg, err := Load(writeConfig(t, `
admin_token: from-yaml
postgres:
  dsn: postgres://yaml
`))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.AdminToken)
	assert.Equal(t, "postgres://env", cfg.Postgres.DSN)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "listen: [unclosed"))
	assert.Error(t, err)
}
