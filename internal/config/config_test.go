package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "Atlanta, GA", cfg.Places.Region)
	assert.Equal(t, int64(1000), cfg.Anthropic.MaxTokens)
	assert.Equal(t, 60, cfg.Extract.TimeoutSecs)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HAPPYHOUR_SERVER_PORT", "9090")
	t.Setenv("HAPPYHOUR_PLACES_REGION", "Decatur, GA")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Decatur, GA", cfg.Places.Region)
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "not-a-level", Format: "json"})
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
