package sequencer

import (
	"testing"

	"wanotify/models"

	"github.com/stretchr/testify/assert"
)

func messagesWith(statuses map[string]int) []models.ScheduledMessage {
	var msgs []models.ScheduledMessage
	for status, n := range statuses {
		for i := 0; i < n; i++ {
			msgs = append(msgs, models.ScheduledMessage{Status: status})
		}
	}
	return msgs
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(messagesWith(map[string]int{
		models.StatusSent:      3,
		models.StatusFailed:    1,
		models.StatusPending:   2,
		models.StatusSending:   1,
		models.StatusCancelled: 2,
	}))

	assert.Equal(t, Stats{Total: 9, Sent: 3, Failed: 1, Pending: 2, Sending: 1, Cancelled: 2}, stats)
	// Counts always partition the set
	assert.Equal(t, stats.Total, stats.Sent+stats.Failed+stats.Pending+stats.Sending+stats.Cancelled)
}

func TestDerivedQuantities(t *testing.T) {
	t.Run("CancelledExcludedFromDenominator", func(t *testing.T) {
		stats := ComputeStats(messagesWith(map[string]int{
			models.StatusCancelled: 4,
			models.StatusSent:      3,
			models.StatusFailed:    3,
		}))
		assert.Equal(t, 10, stats.Total)
		assert.Equal(t, 6, stats.ActiveTotal())
		assert.Equal(t, 100, stats.PercentComplete())
		assert.True(t, stats.IsComplete())
	})

	t.Run("PercentRoundsHalfUp", func(t *testing.T) {
		stats := Stats{Total: 8, Sent: 1, Pending: 7}
		// 1/8 = 12.5 -> 13
		assert.Equal(t, 13, stats.PercentComplete())
	})

	t.Run("PercentZeroWhenNothingActive", func(t *testing.T) {
		assert.Equal(t, 0, Stats{}.PercentComplete())
		assert.Equal(t, 0, Stats{Total: 4, Cancelled: 4}.PercentComplete())
	})

	t.Run("PercentStaysInRange", func(t *testing.T) {
		cases := []Stats{
			{Total: 1, Pending: 1},
			{Total: 3, Sent: 1, Failed: 1, Pending: 1},
			{Total: 5, Sent: 5},
			{Total: 6, Sent: 2, Cancelled: 4},
		}
		for _, stats := range cases {
			pct := stats.PercentComplete()
			assert.GreaterOrEqual(t, pct, 0)
			assert.LessOrEqual(t, pct, 100)
		}
	})

	t.Run("ActivityFlags", func(t *testing.T) {
		assert.True(t, Stats{Total: 2, Pending: 1, Sent: 1}.HasActiveSequence())
		assert.False(t, Stats{Total: 2, Sent: 2}.HasActiveSequence())
		assert.True(t, Stats{Total: 2, Sent: 2}.IsComplete())
		assert.False(t, Stats{}.IsComplete())
	})
}

func TestDerivePresentation(t *testing.T) {
	complete := Stats{Total: 4, Sent: 4}
	withFailures := Stats{Total: 4, Sent: 2, Failed: 2}
	inFlight := Stats{Total: 4, Sent: 1, Pending: 3}

	cases := []struct {
		name          string
		stats         Stats
		setupComplete bool
		scheduling    bool
		want          Presentation
	}{
		{"SetupWinsOverEverything", withFailures, false, true, PresentationSetup},
		{"SchedulingBeatsRetry", withFailures, true, true, PresentationScheduling},
		{"RetryWhenCompleteWithFailures", withFailures, true, false, PresentationRetry},
		{"InProgressWhileInFlight", inFlight, true, false, PresentationInProgress},
		{"DeliveredWhenCleanlyComplete", complete, true, false, PresentationDelivered},
		{"IdleWhenNothingScheduled", Stats{}, true, false, PresentationIdle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DerivePresentation(tc.stats, tc.setupComplete, tc.scheduling))
		})
	}
}
