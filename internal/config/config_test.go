package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PIZZABOT_CONFIG", "")
	t.Setenv("PIZZABOT_PAGE_SIZE", "")
	t.Setenv("PIZZABOT_REMINDER_DELAY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 6, cfg.Bot.PageSize)
	assert.Equal(t, time.Hour, cfg.Bot.ReminderDelay)
	assert.Equal(t, "pizzerias", cfg.Bot.FlowKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PIZZABOT_CONFIG", "")
	t.Setenv("PIZZABOT_PAGE_SIZE", "9")
	t.Setenv("PIZZABOT_REMINDER_DELAY", "90s")
	t.Setenv("PIZZABOT_FEE_NEAR", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Bot.PageSize)
	assert.Equal(t, 90*time.Second, cfg.Bot.ReminderDelay)
	assert.Equal(t, int64(10000), cfg.Bot.FeeNear, "unparseable values fall back to the default")
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pizzabot.yaml")
	body := "http:\n  addr: \":9090\"\nbot:\n  page_size: 3\n  currency: EUR\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("PIZZABOT_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 3, cfg.Bot.PageSize)
	assert.Equal(t, "EUR", cfg.Bot.Currency)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr, "keys absent from the file keep env values")
}

func TestLoad_MissingOverlayFile(t *testing.T) {
	t.Setenv("PIZZABOT_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	var cfg Config
	cfg.Bot.PageSize = 6
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PIZZABOT_MAPS_API_KEY")

	cfg.Telegram.Token = "t"
	cfg.Maps.APIKey = "k"
	assert.NoError(t, cfg.Validate())
}
