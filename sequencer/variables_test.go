package sequencer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(t *testing.T) EventContext {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return EventContext{
		Name:     "Growth Masterclass",
		StartAt:  time.Date(2024, 3, 1, 3, 30, 0, 0, time.UTC), // 09:00 IST
		Location: loc,
	}
}

func TestExtractVariables(t *testing.T) {
	t.Run("UniqueFirstSeenOrder", func(t *testing.T) {
		keys := ExtractVariables("Hi {guest_name}, {workshop_name} at {time}. See you, {guest_name}!")
		assert.Equal(t, []string{"guest_name", "workshop_name", "time"}, keys)
	})

	t.Run("MalformedPlaceholdersYieldNoMatch", func(t *testing.T) {
		assert.Empty(t, ExtractVariables("unbalanced {brace and {123bad} and plain text"))
	})

	t.Run("NoPlaceholders", func(t *testing.T) {
		assert.Empty(t, ExtractVariables("just a plain message"))
	})
}

func TestCategorizeVariables(t *testing.T) {
	keys := []string{"workshop_name", "guest_name", "time", "venue"}
	auto, manual := CategorizeVariables(keys)

	assert.Equal(t, []string{"workshop_name", "time"}, auto)
	assert.Equal(t, []string{"guest_name", "venue"}, manual)

	// Partition: the two parts are disjoint and union back to the input
	assert.Len(t, append(auto, manual...), len(keys))
	for _, key := range keys {
		assert.True(t, IsAutoFilled(key) == contains(auto, key))
	}
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func TestRenderContent(t *testing.T) {
	event := testEvent(t)

	t.Run("AutoFilledSubstitution", func(t *testing.T) {
		out := RenderContent("{workshop_name} on {date} at {time}", event, nil)
		assert.Equal(t, "Growth Masterclass on 01 Mar 2024 at 09:00 AM", out)
	})

	t.Run("AutoKeysAreCaseInsensitive", func(t *testing.T) {
		out := RenderContent("{Workshop_Name} at {TIME}", event, nil)
		assert.Equal(t, "Growth Masterclass at 09:00 AM", out)
	})

	t.Run("ManualSubstitutionIsGlobal", func(t *testing.T) {
		out := RenderContent("{guest_name} and again {guest_name}", event,
			map[string]string{"guest_name": "Priya"})
		assert.Equal(t, "Priya and again Priya", out)
	})

	t.Run("EmptyManualValueLeftVerbatim", func(t *testing.T) {
		out := RenderContent("Bring {guest_name}", event, map[string]string{"guest_name": ""})
		assert.Equal(t, "Bring {guest_name}", out)
	})

	t.Run("Deterministic", func(t *testing.T) {
		values := map[string]string{"guest_name": "Priya"}
		first := RenderContent("Hi {guest_name}, {workshop_name}", event, values)
		second := RenderContent("Hi {guest_name}, {workshop_name}", event, values)
		assert.Equal(t, first, second)
	})

	t.Run("FullyRenderedOutputExtractsNothing", func(t *testing.T) {
		out := RenderContent("{workshop_name} with {guest_name}", event,
			map[string]string{"guest_name": "Priya"})
		assert.Empty(t, ExtractVariables(out))
	})
}

func TestExtractSequenceVariables(t *testing.T) {
	manual := ExtractSequenceVariables([]string{
		"Reminder: {workshop_name} at {time}",
		"Bring {guest_name} and {notebook}",
		"Last call {guest_name}!",
	})
	assert.Equal(t, []string{"guest_name", "notebook"}, manual)
}
