package interpret

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/interfaces"
)

// NewInterpreter creates the script interpreter for the configured provider
func NewInterpreter(cfg *common.Config, logger arbor.ILogger) (interfaces.ScriptInterpreter, error) {
	provider := cfg.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderGemini
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing script interpreter")

	switch provider {
	case common.LLMProviderGemini:
		return NewGeminiInterpreter(&cfg.Gemini, logger)
	case common.LLMProviderClaude:
		return NewClaudeInterpreter(&cfg.Claude, logger)
	default:
		return nil, fmt.Errorf("unsupported interpreter provider '%s': must be '%s' or '%s'",
			provider, common.LLMProviderGemini, common.LLMProviderClaude)
	}
}
