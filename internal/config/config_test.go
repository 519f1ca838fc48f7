package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.BuildMode)
	assert.False(t, cfg.ForceProduction)
	assert.Equal(t, "memory", cfg.ProviderCacheBackend)
	assert.Equal(t, 3*time.Second, cfg.SuccessDisplayWindow)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BUILD_MODE", "Production")
	t.Setenv("FORCE_PRODUCTION", "false")
	t.Setenv("SUCCESS_DISPLAY_WINDOW", "5s")

	cfg := Load()
	assert.Equal(t, "production", cfg.BuildMode)
	assert.Equal(t, 5*time.Second, cfg.SuccessDisplayWindow)
}
