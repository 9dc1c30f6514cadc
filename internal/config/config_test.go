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
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "token-123"
api:
  base_url: "https://clinic.example/api"
  cache_ttl_seconds: 120
redis:
  address: "localhost:6379"
storage:
  sqlite_path: "`+filepath.Join(t.TempDir(), "sessions.db")+`"
payment:
  return_base_url: "http://localhost:8392"
booking:
  slot_interval_minutes: 15
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "token-123", cfg.Telegram.BotToken)
	assert.Equal(t, "https://clinic.example/api", cfg.API.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL())
	assert.Equal(t, 15*time.Minute, cfg.SlotInterval())
	assert.Equal(t, "/payment/success", cfg.Payment.SuccessMarker, "marker default applied")
	assert.Equal(t, ":8392", cfg.Payment.CallbackAddress)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Google.Timezone)
}

func TestLoad_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("CARELINE_TEST_TOKEN", "secret-from-env")
	path := writeConfig(t, `
telegram:
  bot_token: "${CARELINE_TEST_TOKEN}"
storage:
  sqlite_path: "`+filepath.Join(t.TempDir(), "sessions.db")+`"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.Telegram.BotToken)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.Chdir(dir))
	require.NoError(t, os.WriteFile(path, []byte("telegram:\n  bot_token: t\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.SlotInterval())
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.Equal(t, time.Minute, cfg.OTPResendCooldown())
	assert.Equal(t, "data/careline.db", cfg.Storage.SQLitePath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
