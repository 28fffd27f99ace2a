package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "./data", config.Storage.Badger.Path)
	assert.Equal(t, 10, config.Credits.InitialBalance)
	assert.Equal(t, 2, config.Credits.CostPerJob)
	assert.Equal(t, 128000, config.Pipeline.AudioBitrate)
	assert.Equal(t, LLMProviderGemini, config.LLM.DefaultProvider)
	require.NoError(t, config.Validate())
}

func TestLoadFromFileMissingPath(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/narrato.toml")
	assert.Error(t, err)
}

func TestLoadFromFileEmptyPathUsesDefaults(t *testing.T) {
	config, err := LoadFromFile("")
	require.NoError(t, err)
	assert.Equal(t, 8080, config.Server.Port)
}

func TestLoadFromFileLayersOverDefaults(t *testing.T) {
	tomlContent := `
environment = "production"

[server]
port = 9090

[credits]
initial_balance = 50

[llm]
default_provider = "claude"
`
	path := filepath.Join(t.TempDir(), "narrato.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlContent), 0o644))

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, 50, config.Credits.InitialBalance)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)

	// Unset sections keep their defaults.
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 2, config.Credits.CostPerJob)
	assert.Equal(t, "15m", config.Pipeline.StaleAfter)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NARRATO_SERVER_PORT", "7070")
	t.Setenv("NARRATO_LOG_LEVEL", "debug")
	t.Setenv("NARRATO_WEBHOOK_URL", "https://example.com/hook")
	t.Setenv("NARRATO_LLM_PROVIDER", "CLAUDE")

	config, err := LoadFromFile("")
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "https://example.com/hook", config.Webhook.URL)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 3000, "0.0.0.0")
	assert.Equal(t, 3000, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)

	// Zero values leave the config untouched.
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 3000, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"zero concurrency", func(c *Config) { c.Pipeline.Concurrency = 0 }},
		{"zero bitrate", func(c *Config) { c.Pipeline.AudioBitrate = 0 }},
		{"zero job cost", func(c *Config) { c.Credits.CostPerJob = 0 }},
		{"unknown provider", func(c *Config) { c.LLM.DefaultProvider = "openai" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}
