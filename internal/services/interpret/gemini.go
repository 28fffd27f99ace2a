package interpret

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/models"
	"google.golang.org/genai"
)

// GeminiInterpreter implements ScriptInterpreter using the Google Gemini API
type GeminiInterpreter struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiInterpreter creates a Gemini-backed script interpreter
func NewGeminiInterpreter(config *common.GeminiConfig, logger arbor.ILogger) (*GeminiInterpreter, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set NARRATO_GEMINI_API_KEY or gemini.api_key in config)")
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid Gemini timeout '%s': %w", config.Timeout, err)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.Info().
		Str("model", config.Model).
		Str("timeout", timeout.String()).
		Msg("Gemini interpreter initialized")

	return &GeminiInterpreter{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}, nil
}

// Interpret asks Gemini for a narration and scene plan for the snippet
func (g *GeminiInterpreter) Interpret(ctx context.Context, script string, kind models.JobKind) (*models.ScriptPlan, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	startTime := time.Now()

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(buildUserPrompt(script, kind))},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(g.config.Temperature),
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(timeoutCtx, g.config.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini generation failed: %w", err)
	}

	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return nil, fmt.Errorf("no response generated from Gemini")
	}

	plan, err := parsePlan(response.String(), kind)
	if err != nil {
		return nil, err
	}

	g.logger.Debug().
		Int("scenes", len(plan.Scenes)).
		Str("duration", time.Since(startTime).String()).
		Msg("Gemini interpretation completed")

	return plan, nil
}
