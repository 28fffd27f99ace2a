package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/models"
)

// Client renders the final video through an external rendering service
type Client struct {
	config *common.RendererConfig
	client *http.Client
	logger arbor.ILogger
}

type renderRequest struct {
	Script string         `json:"script"`
	Scenes []models.Scene `json:"scenes"`
	Audio  string         `json:"audio"` // base64-encoded narration track
}

// NewClient creates a video renderer client
func NewClient(config *common.RendererConfig, httpClient *http.Client, logger arbor.ILogger) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("renderer endpoint is required (set renderer.endpoint in config)")
	}

	return &Client{
		config: config,
		client: httpClient,
		logger: logger,
	}, nil
}

// Render composes the scene plan, highlighted snippet and narration track
// into encoded video bytes
func (c *Client) Render(ctx context.Context, plan *models.ScriptPlan, script string, audio []byte) ([]byte, error) {
	if plan == nil || len(plan.Scenes) == 0 {
		return nil, fmt.Errorf("render plan has no scenes")
	}

	body, err := json.Marshal(renderRequest{
		Script: script,
		Scenes: plan.Scenes,
		Audio:  base64.StdEncoding.EncodeToString(audio),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render service returned status %d", resp.StatusCode)
	}

	video, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered video: %w", err)
	}
	if len(video) == 0 {
		return nil, fmt.Errorf("render service returned empty video")
	}

	c.logger.Debug().
		Int("scenes", len(plan.Scenes)).
		Int("video_bytes", len(video)).
		Str("duration", time.Since(startTime).String()).
		Msg("Video rendered")

	return video, nil
}
