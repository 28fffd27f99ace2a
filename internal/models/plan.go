package models

// ScriptPlan is the output of script interpretation: narration text for
// speech synthesis plus an optional structured animation plan for rendering.
// The audio kind produces narration only (Scenes is nil).
type ScriptPlan struct {
	Narration string  `json:"narration"`
	Scenes    []Scene `json:"scenes,omitempty"`
}

// Scene is one step of the animation plan
type Scene struct {
	Heading  string   `json:"heading"`
	Lines    []string `json:"lines,omitempty"`    // code lines highlighted in this scene
	Caption  string   `json:"caption,omitempty"`  // on-screen caption
	Duration float64  `json:"duration,omitempty"` // hint in seconds, renderer may override
}
