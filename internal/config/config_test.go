// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "cbombench", cfg.Logger.ServiceName)
	assert.Equal(t, 3, cfg.Orchestrator.MaxInFlight)
	assert.Equal(t, 20*time.Minute, cfg.Orchestrator.ToolTimeout)
	assert.Equal(t, "CBOMdata", cfg.Store.DataDir)
	assert.Equal(t, ProviderDeepSeek, cfg.Adapters.LLM.Provider)
	require.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	v := viper.New()
	v.Set("orchestrator.max_in_flight", 8)
	v.Set("adapters.llm.provider", ProviderGemini)
	v.Set("adapters.llm.model", "gemini-2.0-flash")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Orchestrator.MaxInFlight)
	assert.Equal(t, ProviderGemini, cfg.Adapters.LLM.Provider)
	// Untouched values keep their defaults.
	assert.Equal(t, 20*time.Minute, cfg.Orchestrator.ToolTimeout)
}

func TestValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Orchestrator.MaxInFlight = 0
	require.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Orchestrator.ToolTimeout = 0
	require.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Store.DataDir = ""
	require.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Adapters.LLM.Provider = "unsupported"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}
