package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/narrato/internal/models"
)

const planJSON = `{
  "narration": "This function adds two integers and returns the sum.",
  "scenes": [
    {"heading": "Signature", "lines": ["func add(a, b int) int {"], "caption": "Two int parameters", "duration": 4},
    {"heading": "Return", "lines": ["return a + b"], "caption": "The sum", "duration": 3}
  ]
}`

func TestParsePlan(t *testing.T) {
	plan, err := parsePlan(planJSON, models.JobKindVideo)
	require.NoError(t, err)

	assert.Contains(t, plan.Narration, "adds two integers")
	require.Len(t, plan.Scenes, 2)
	assert.Equal(t, "Signature", plan.Scenes[0].Heading)
	assert.Equal(t, []string{"return a + b"}, plan.Scenes[1].Lines)
	assert.Equal(t, 3.0, plan.Scenes[1].Duration)
}

func TestParsePlanStripsFences(t *testing.T) {
	fenced := "```json\n" + planJSON + "\n```"
	plan, err := parsePlan(fenced, models.JobKindVideo)
	require.NoError(t, err)
	assert.Len(t, plan.Scenes, 2)

	bare := "```\n" + planJSON + "\n```"
	plan, err = parsePlan(bare, models.JobKindVideo)
	require.NoError(t, err)
	assert.Len(t, plan.Scenes, 2)
}

func TestParsePlanRejectsGarbage(t *testing.T) {
	_, err := parsePlan("sorry, I cannot help with that", models.JobKindVideo)
	assert.Error(t, err)

	_, err = parsePlan(`{"narration": ""}`, models.JobKindVideo)
	assert.Error(t, err)
}

func TestParsePlanSceneRequirementByKind(t *testing.T) {
	narrationOnly := `{"narration": "A spoken walkthrough with no visuals."}`

	// Video needs scenes
	_, err := parsePlan(narrationOnly, models.JobKindVideo)
	assert.Error(t, err)

	// Audio does not
	plan, err := parsePlan(narrationOnly, models.JobKindAudio)
	require.NoError(t, err)
	assert.Empty(t, plan.Scenes)
}

func TestBuildUserPromptIncludesScript(t *testing.T) {
	script := "func main() { fmt.Println(42) }"
	for _, kind := range []models.JobKind{models.JobKindVideo, models.JobKindAnimation, models.JobKindAudio} {
		prompt := buildUserPrompt(script, kind)
		assert.Contains(t, prompt, script)
	}
}
