package interpret

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/models"
)

// ClaudeInterpreter implements ScriptInterpreter using the Anthropic Claude API
type ClaudeInterpreter struct {
	config  *common.ClaudeConfig
	logger  arbor.ILogger
	client  anthropic.Client
	timeout time.Duration
}

// NewClaudeInterpreter creates a Claude-backed script interpreter
func NewClaudeInterpreter(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeInterpreter, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set NARRATO_CLAUDE_API_KEY or claude.api_key in config)")
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid Claude timeout '%s': %w", config.Timeout, err)
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	logger.Info().
		Str("model", config.Model).
		Int("max_tokens", config.MaxTokens).
		Str("timeout", timeout.String()).
		Msg("Claude interpreter initialized")

	return &ClaudeInterpreter{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}, nil
}

// Interpret asks Claude for a narration and scene plan for the snippet
func (c *ClaudeInterpreter) Interpret(ctx context.Context, script string, kind models.JobKind) (*models.ScriptPlan, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(script, kind))),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	}
	if c.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(c.config.Temperature))
	}

	resp, err := c.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return nil, fmt.Errorf("no response generated from Claude")
	}

	plan, err := parsePlan(response.String(), kind)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("scenes", len(plan.Scenes)).
		Str("duration", time.Since(startTime).String()).
		Msg("Claude interpretation completed")

	return plan, nil
}
