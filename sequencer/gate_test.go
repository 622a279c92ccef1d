package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrepareRun(t *testing.T) {
	steps := []StepTemplate{
		{StepID: 1, StepOrder: 1, Content: "Hi, {workshop_name} starts at {time}. Bring {guest_name}."},
		{StepID: 2, StepOrder: 2, Content: "Venue is {venue}, see you {guest_name}!"},
	}

	t.Run("NeedsInputListsOnlyUnsavedKeys", func(t *testing.T) {
		result := PrepareRun(steps, map[string]string{"venue": "Hall B"})
		assert.False(t, result.Proceed())
		assert.Equal(t, []string{"guest_name"}, result.Missing)
		// Saved keys are pre-filled and stay editable
		assert.Equal(t, "Hall B", result.Values["venue"])
	})

	t.Run("ProceedWhenAllSaved", func(t *testing.T) {
		result := PrepareRun(steps, map[string]string{"guest_name": "Priya", "venue": "Hall B"})
		assert.True(t, result.Proceed())
		assert.Equal(t, map[string]string{"guest_name": "Priya", "venue": "Hall B"}, result.Values)
	})

	t.Run("EmptySavedValueCountsAsMissing", func(t *testing.T) {
		result := PrepareRun(steps, map[string]string{"guest_name": "", "venue": "Hall B"})
		assert.Equal(t, []string{"guest_name"}, result.Missing)
	})

	t.Run("NoManualVariablesProceeds", func(t *testing.T) {
		result := PrepareRun([]StepTemplate{{Content: "{workshop_name} on {date}"}}, nil)
		assert.True(t, result.Proceed())
		assert.Empty(t, result.Missing)
	})

	// Scenario: categorization plus gate over a single template
	t.Run("AutoManualSplitFeedsGate", func(t *testing.T) {
		content := "Hi, {workshop_name} starts at {time}. Bring {guest_name}."
		auto, manual := CategorizeVariables(ExtractVariables(content))
		assert.Equal(t, []string{"workshop_name", "time"}, auto)
		assert.Equal(t, []string{"guest_name"}, manual)

		result := PrepareRun([]StepTemplate{{Content: content}}, nil)
		assert.Equal(t, []string{"guest_name"}, result.Missing)
	})
}
