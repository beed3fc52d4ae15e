package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirebot/internal/common/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	viper.Reset()
	path := writeConfig(t, `
telegram:
  bot_token: test-token
database:
  redis:
    address: localhost:6379
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.APIBaseURL)
	assert.Equal(t, 8, cfg.Telegram.WorkerCount)
	assert.Equal(t, int64(20<<20), cfg.Storage.MaxFileBytes)
	assert.Equal(t, "gemini-1.5-flash", cfg.APIs.GenAI.Model)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_MissingBotTokenIsConfigurationError(t *testing.T) {
	viper.Reset()
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	path := writeConfig(t, `
database:
  redis:
    address: localhost:6379
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfiguration, errors.CodeOf(err))
}
