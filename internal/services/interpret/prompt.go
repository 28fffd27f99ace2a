package interpret

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/narrato/internal/models"
)

const systemPrompt = `You are a code explainer that turns source code into a short narrated walkthrough.
Given a code snippet, produce a JSON object with this exact shape:
{
  "narration": "plain spoken-language explanation of what the code does, suitable for text-to-speech",
  "scenes": [
    {
      "heading": "short scene title",
      "lines": ["the exact snippet lines this scene highlights"],
      "caption": "one sentence shown on screen while these lines are highlighted",
      "duration": 5
    }
  ]
}
Rules:
- "lines" repeats the highlighted snippet lines verbatim, in order.
- Walk through the snippet top to bottom; cover every significant block.
- Keep the narration under 300 words and free of markdown or code fences.
- Respond with the JSON object only, no surrounding text.`

func buildUserPrompt(script string, kind models.JobKind) string {
	var b strings.Builder
	switch kind {
	case models.JobKindAnimation:
		b.WriteString("Plan an animated walkthrough of this code snippet:\n\n")
	case models.JobKindAudio:
		b.WriteString("Plan a narration-only explanation of this code snippet:\n\n")
	default:
		b.WriteString("Plan a narrated video walkthrough of this code snippet:\n\n")
	}
	b.WriteString(script)
	return b.String()
}

// parsePlan decodes the model's response into a script plan. Models sometimes
// wrap JSON in markdown fences despite instructions, so fences are stripped
// before decoding. Audio jobs only need narration; every other kind must
// also carry scenes.
func parsePlan(response string, kind models.JobKind) (*models.ScriptPlan, error) {
	cleaned := stripJSONFence(response)

	var plan models.ScriptPlan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan response: %w", err)
	}

	if strings.TrimSpace(plan.Narration) == "" {
		return nil, fmt.Errorf("plan has no narration")
	}
	if kind != models.JobKindAudio && len(plan.Scenes) == 0 {
		return nil, fmt.Errorf("plan has no scenes")
	}

	return &plan, nil
}

func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
