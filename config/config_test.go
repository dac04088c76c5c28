package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 8192, cfg.MaxTokens)
	assert.Equal(t, "canvas-typing", cfg.BroadcastChannel)
	assert.Equal(t, 5*time.Second, cfg.SubscribeTimeout)
	assert.Equal(t, 5*time.Minute, cfg.BuildTimeout)
	assert.Equal(t, time.Second, cfg.PhasePause)
	assert.Equal(t, 30*time.Second, cfg.PublishTimeout)
	assert.Equal(t, "buffered", cfg.PacingMode)
	assert.Empty(t, cfg.S3Endpoint)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "SERVER_ADDRESS: \":9090\"\nPACING_MODE: typing\nCACHE_SIZE: 10\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("OWNER_SECRET_KEY", "s3cret")
	t.Setenv("PHASE_PAUSE", "250ms")
	t.Setenv("CACHE_SIZE", "20")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, "typing", cfg.PacingMode)
	assert.Equal(t, "s3cret", cfg.OwnerSecretKey)
	assert.Equal(t, 250*time.Millisecond, cfg.PhasePause)
	assert.Equal(t, 20, cfg.CacheSize)
}

func TestLoadConfigRejectsBadSettings(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("PACING_MODE", "teletype")
	_, err = LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "PACING_MODE")
}
