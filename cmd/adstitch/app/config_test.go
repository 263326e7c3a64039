package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDevDefaults(t *testing.T) {
	cfg, err := LoadConfig([]string{"adstitch", "--devmode"})
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Equal(t, "https://example.com", cfg.OriginURL)
	assert.Equal(t, ModeSSAI, cfg.StitchingMode)
	assert.Equal(t, ProviderAuto, cfg.AdProvider)
	assert.Equal(t, StoreMemory, cfg.SessionStore)
	assert.Equal(t, 600, cfg.SessionTTLS)
	assert.Equal(t, 30, cfg.TimeoutS)
}

func TestLoadConfigProdRequiresPort(t *testing.T) {
	_, err := LoadConfig([]string{"adstitch"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port is required")
}

func TestLoadConfigProdComplete(t *testing.T) {
	cfg, err := LoadConfig([]string{"adstitch",
		"--port", "8080",
		"--baseurl", "https://stitch.example.com",
		"--originurl", "https://origin.example.com/live/playlist.m3u8",
	})
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DevMode)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ADSTITCH_PORT", "9999")
	t.Setenv("ADSTITCH_STITCHINGMODE", "sgai")
	cfg, err := LoadConfig([]string{"adstitch", "--devmode"})
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, ModeSGAI, cfg.StitchingMode)
}

func TestLoadConfigRejectsBadEnums(t *testing.T) {
	_, err := LoadConfig([]string{"adstitch", "--devmode", "--stitchingmode", "csai"})
	assert.Error(t, err)

	_, err = LoadConfig([]string{"adstitch", "--devmode", "--adprovider", "dfp"})
	assert.Error(t, err)

	_, err = LoadConfig([]string{"adstitch", "--devmode", "--sessionstore", "redis"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redisurl")
}
