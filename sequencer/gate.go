package sequencer

// StepTemplate is a sequence step joined with its template, the unit the gate
// and the run builder reason about.
type StepTemplate struct {
	StepID    uint
	StepOrder int
	SendTime  string // HH:MM:SS
	TimeLabel string
	Content   string
	MediaURL  *string
}

// GateResult is the outcome of the manual-variable gate. When Missing is
// empty the run may proceed with Values; otherwise the caller must collect
// exactly the Missing keys (already-saved keys are pre-filled in Values and
// stay editable) and persist them before retrying.
type GateResult struct {
	Missing []string          `json:"missing"`
	Values  map[string]string `json:"values"`
}

// Proceed reports whether every manual variable has a saved value
func (g GateResult) Proceed() bool {
	return len(g.Missing) == 0
}

// PrepareRun inspects all step templates of a sequence and checks the
// workshop-scoped saved values against the union of manual keys.
func PrepareRun(steps []StepTemplate, saved map[string]string) GateResult {
	contents := make([]string, 0, len(steps))
	for _, step := range steps {
		contents = append(contents, step.Content)
	}

	result := GateResult{Values: make(map[string]string)}
	for _, key := range ExtractSequenceVariables(contents) {
		if value, ok := saved[key]; ok && value != "" {
			result.Values[key] = value
		} else {
			result.Missing = append(result.Missing, key)
		}
	}
	return result
}
