package sequencer

import (
	"errors"
	"testing"
	"time"

	"wanotify/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runInput(t *testing.T) RunInput {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return RunInput{
		WorkshopID: 7,
		Event: EventContext{
			Name:     "Growth Masterclass",
			StartAt:  time.Date(2024, 3, 1, 3, 30, 0, 0, time.UTC),
			Location: loc,
		},
		Steps: []StepTemplate{
			{StepID: 11, StepOrder: 1, SendTime: "09:00:00", Content: "Morning: {workshop_name} today at {time}"},
			{StepID: 12, StepOrder: 2, SendTime: "18:00:00", Content: "Starting soon!"},
		},
		GroupIDs: []uint{1, 2},
	}
}

func TestBuildSequenceRun(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	t.Run("StepTimesGroupsAndOrdering", func(t *testing.T) {
		batch, err := BuildSequenceRun(runInput(t))
		require.NoError(t, err)
		require.Len(t, batch.Messages, 4)

		morning := time.Date(2024, 3, 1, 9, 0, 0, 0, loc)
		evening := time.Date(2024, 3, 1, 18, 0, 0, 0, loc)

		// Step-major, then group-list order
		assert.True(t, batch.Messages[0].ScheduledFor.Equal(morning))
		assert.True(t, batch.Messages[1].ScheduledFor.Equal(morning))
		assert.True(t, batch.Messages[2].ScheduledFor.Equal(evening))
		assert.True(t, batch.Messages[3].ScheduledFor.Equal(evening))
		assert.Equal(t, uint(1), batch.Messages[0].GroupID)
		assert.Equal(t, uint(2), batch.Messages[1].GroupID)

		for _, m := range batch.Messages {
			assert.Equal(t, models.StatusPending, m.Status)
			assert.Equal(t, models.MessageTypeSequence, m.MessageType)
			assert.Equal(t, uint(7), m.WorkshopID)
		}
		assert.Equal(t, "Morning: Growth Masterclass today at 09:00 AM", batch.Messages[0].MessageContent)
	})

	t.Run("StepsSortedByStepOrder", func(t *testing.T) {
		in := runInput(t)
		in.Steps[0], in.Steps[1] = in.Steps[1], in.Steps[0]
		batch, err := BuildSequenceRun(in)
		require.NoError(t, err)
		assert.Equal(t, uint(11), *batch.Messages[0].StepID)
	})

	t.Run("EmptyGroupsIsExplicitError", func(t *testing.T) {
		in := runInput(t)
		in.GroupIDs = nil
		batch, err := BuildSequenceRun(in)
		assert.Nil(t, batch)
		assert.ErrorIs(t, err, ErrNothingToSchedule)
	})

	t.Run("NoStepsIsExplicitError", func(t *testing.T) {
		in := runInput(t)
		in.Steps = nil
		_, err := BuildSequenceRun(in)
		assert.ErrorIs(t, err, ErrNoSteps)
	})

	t.Run("MalformedSendTimeFailsBeforeAnyMessage", func(t *testing.T) {
		in := runInput(t)
		in.Steps[1].SendTime = "25:99"
		batch, err := BuildSequenceRun(in)
		assert.Nil(t, batch)
		assert.ErrorIs(t, err, ErrInvalidSendTime)
	})

	t.Run("RerunSkipsExistingNonCancelledSlots", func(t *testing.T) {
		in := runInput(t)
		in.Existing = map[RunSlot]bool{
			{StepID: 11, GroupID: 1}: true,
			{StepID: 12, GroupID: 2}: true,
		}
		batch, err := BuildSequenceRun(in)
		require.NoError(t, err)
		assert.Len(t, batch.Messages, 2)
		assert.ElementsMatch(t, []RunSlot{
			{StepID: 11, GroupID: 1},
			{StepID: 12, GroupID: 2},
		}, batch.Skipped)
	})

	t.Run("LeftoverReportsUnresolvedManualKeys", func(t *testing.T) {
		in := runInput(t)
		in.Steps[1].Content = "Bring {guest_name}"
		batch, err := BuildSequenceRun(in)
		require.NoError(t, err)
		assert.Equal(t, []string{"guest_name"}, batch.Leftover)
	})
}

func TestBuildAdHocMessage(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg, leftover := BuildAdHocMessage(AdHocInput{
		WorkshopID: 7,
		GroupID:    3,
		Event:      EventContext{Name: "Growth Masterclass", StartAt: now},
		Content:    "Join {workshop_name} now!",
		Now:        now,
	})

	assert.Equal(t, models.StatusPending, msg.Status)
	assert.Equal(t, models.MessageTypeAdHoc, msg.MessageType)
	assert.Nil(t, msg.StepID)
	assert.True(t, msg.ScheduledFor.Equal(now))
	assert.Equal(t, "Join Growth Masterclass now!", msg.MessageContent)
	assert.Empty(t, leftover)
}

func TestAdHocSendGate(t *testing.T) {
	// An ad-hoc send runs through the same gate as a sequence run: an unsaved
	// manual key refuses the send before any message is built.
	content := "Bring {guest_name} to {workshop_name}"

	gate := PrepareRun([]StepTemplate{{Content: content}}, nil)
	require.False(t, gate.Proceed())
	assert.Equal(t, []string{"guest_name"}, gate.Missing)

	gate = PrepareRun([]StepTemplate{{Content: content}}, map[string]string{"guest_name": "Asha"})
	require.True(t, gate.Proceed())

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg, leftover := BuildAdHocMessage(AdHocInput{
		WorkshopID: 7,
		GroupID:    3,
		Event:      EventContext{Name: "Growth Masterclass", StartAt: now},
		Content:    content,
		Values:     gate.Values,
		Now:        now,
	})
	assert.Equal(t, "Bring Asha to Growth Masterclass", msg.MessageContent)
	assert.Empty(t, leftover)
	assert.NotContains(t, msg.MessageContent, "{")
}

func TestRunPerGroup(t *testing.T) {
	// One group's failure must not prevent attempting the rest
	results := RunPerGroup([]uint{1, 2, 3}, func(groupID uint) error {
		if groupID == 2 {
			return errors.New("gateway timeout")
		}
		return nil
	})

	assert.Equal(t, []uint{1, 3}, results.Succeeded)
	assert.Equal(t, []uint{2}, results.Failed)
	assert.Equal(t, "gateway timeout", results.Errors[2])
}
