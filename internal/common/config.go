package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Credits     CreditsConfig   `toml:"credits"`
	Webhook     WebhookConfig   `toml:"webhook"`
	TTS         TTSConfig       `toml:"tts"`
	Renderer    RendererConfig  `toml:"renderer"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger     BadgerConfig     `toml:"badger"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type FilesystemConfig struct {
	Videos string `toml:"videos"` // Directory for rendered video artifacts
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// WebSocketConfig contains configuration for the push subscription channel
type WebSocketConfig struct {
	// Throttle intervals for high-frequency events. Map of event type to duration string.
	// Example: {"progress": "250ms"}
	ThrottleIntervals map[string]string `toml:"throttle_intervals"`
}

// PipelineConfig controls background job execution
type PipelineConfig struct {
	Concurrency   int    `toml:"concurrency"`    // Number of pipeline workers
	QueueSize     int    `toml:"queue_size"`     // Buffered job queue capacity
	AudioBitrate  int    `toml:"audio_bitrate"`  // Assumed audio encoding bitrate (bits/sec) for duration calculation
	StaleAfter    string `toml:"stale_after"`    // Mark generating jobs failed after this much inactivity
	SweepSchedule string `toml:"sweep_schedule"` // Cron schedule for the stale job sweep
}

// CreditsConfig controls admission-control billing
type CreditsConfig struct {
	InitialBalance int `toml:"initial_balance"` // Balance granted to a new owner account
	CostPerJob     int `toml:"cost_per_job"`    // Fixed credit cost reserved per submission
}

// WebhookConfig controls terminal-outcome delivery to an external party
type WebhookConfig struct {
	URL     string `toml:"url"`     // Receiver endpoint; empty disables delivery
	Secret  string `toml:"secret"`  // Shared secret for payload signing
	Timeout string `toml:"timeout"` // HTTP timeout as duration string
}

// TTSConfig contains the speech synthesis collaborator configuration
type TTSConfig struct {
	Endpoint  string `toml:"endpoint"`   // Synthesis service URL
	Voice     string `toml:"voice"`      // Voice identifier sent with each request
	Timeout   string `toml:"timeout"`    // HTTP timeout as duration string
	RateLimit string `toml:"rate_limit"` // Minimum interval between synthesis calls
}

// RendererConfig contains the video rendering collaborator configuration
type RendererConfig struct {
	Endpoint string `toml:"endpoint"` // Rendering service URL
	Timeout  string `toml:"timeout"`  // HTTP timeout as duration string
}

// GeminiConfig contains Google Gemini API configuration for script interpretation
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model name (default: "gemini-2.0-flash")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration for script interpretation
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model name (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for script interpretation providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in narrato.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Filesystem: FilesystemConfig{
				Videos: "./data/videos",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		WebSocket: WebSocketConfig{
			ThrottleIntervals: map[string]string{
				"progress": "250ms",
			},
		},
		Pipeline: PipelineConfig{
			Concurrency:   8,
			QueueSize:     256,
			AudioBitrate:  128000, // 128 kbit/s, matches the synthesis service output encoding
			StaleAfter:    "15m",
			SweepSchedule: "*/1 * * * *",
		},
		Credits: CreditsConfig{
			InitialBalance: 10,
			CostPerJob:     2,
		},
		Webhook: WebhookConfig{
			Timeout: "10s",
		},
		TTS: TTSConfig{
			Voice:     "en-US-neutral",
			Timeout:   "60s",
			RateLimit: "200ms",
		},
		Renderer: RendererConfig{
			Timeout: "120s",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			Timeout:     "2m",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "2m",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
	}
}

// LoadFromFile loads configuration from a TOML file layered over defaults,
// then applies NARRATO_* environment variable overrides.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies NARRATO_* environment variables over the loaded config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("NARRATO_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("NARRATO_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("NARRATO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("NARRATO_STORAGE_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("NARRATO_WEBHOOK_URL"); v != "" {
		config.Webhook.URL = v
	}
	if v := os.Getenv("NARRATO_WEBHOOK_SECRET"); v != "" {
		config.Webhook.Secret = v
	}
	if v := os.Getenv("NARRATO_GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("NARRATO_CLAUDE_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("NARRATO_LLM_PROVIDER"); v != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(v))
	}
}

// ApplyFlagOverrides applies command-line flag values over the loaded config.
// Zero values leave the config untouched.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks cross-field constraints that TOML parsing cannot catch
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline concurrency must be positive, got %d", c.Pipeline.Concurrency)
	}
	if c.Pipeline.AudioBitrate <= 0 {
		return fmt.Errorf("pipeline audio_bitrate must be positive, got %d", c.Pipeline.AudioBitrate)
	}
	if c.Credits.CostPerJob <= 0 {
		return fmt.Errorf("credits cost_per_job must be positive, got %d", c.Credits.CostPerJob)
	}
	switch c.LLM.DefaultProvider {
	case LLMProviderGemini, LLMProviderClaude:
	default:
		return fmt.Errorf("llm default_provider must be %q or %q, got %q",
			LLMProviderGemini, LLMProviderClaude, c.LLM.DefaultProvider)
	}
	return nil
}
