package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"golang.org/x/time/rate"
)

// Client synthesizes narration audio through an external TTS service.
// Calls are rate limited so a burst of jobs cannot flood the endpoint.
type Client struct {
	config  *common.TTSConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  arbor.ILogger
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// NewClient creates a speech synthesis client
func NewClient(config *common.TTSConfig, httpClient *http.Client, logger arbor.ILogger) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("TTS endpoint is required (set tts.endpoint in config)")
	}

	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS rate limit '%s': %w", config.RateLimit, err)
	}

	var limiter *rate.Limiter
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	return &Client{
		config:  config,
		client:  httpClient,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Synthesize converts narration text into encoded audio bytes
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("narration text is empty")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}
	}

	body, err := json.Marshal(synthesizeRequest{Text: text, Voice: c.config.Voice})
	if err != nil {
		return nil, fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesis service returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis service returned empty audio")
	}

	c.logger.Debug().
		Int("text_length", len(text)).
		Int("audio_bytes", len(audio)).
		Str("duration", time.Since(startTime).String()).
		Msg("Narration synthesized")

	return audio, nil
}
