package sequencer

import (
	"testing"
	"time"

	"wanotify/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageKey(m models.ScheduledMessage) uint { return m.ID }

func msg(id uint, status string) models.ScheduledMessage {
	m := models.ScheduledMessage{Status: status}
	m.ID = id
	return m
}

func TestMergeByID(t *testing.T) {
	t.Run("UpdateOverlaysBaseline", func(t *testing.T) {
		merged := MergeByID(
			[]models.ScheduledMessage{msg(1, models.StatusPending)},
			[]models.ScheduledMessage{msg(1, models.StatusSent)},
			messageKey,
		)
		require.Len(t, merged, 1)
		assert.Equal(t, models.StatusSent, merged[0].Status)
	})

	t.Run("LastUpdateForSameIDWins", func(t *testing.T) {
		merged := MergeByID(
			[]models.ScheduledMessage{msg(1, models.StatusPending)},
			[]models.ScheduledMessage{msg(1, models.StatusSending), msg(1, models.StatusFailed)},
			messageKey,
		)
		require.Len(t, merged, 1)
		assert.Equal(t, models.StatusFailed, merged[0].Status)
	})

	t.Run("UnionKeepsBothSides", func(t *testing.T) {
		merged := MergeByID(
			[]models.ScheduledMessage{msg(1, models.StatusPending), msg(2, models.StatusSent)},
			[]models.ScheduledMessage{msg(3, models.StatusPending)},
			messageKey,
		)
		require.Len(t, merged, 3)
		// Baseline order preserved, new records appended
		assert.Equal(t, uint(1), merged[0].ID)
		assert.Equal(t, uint(2), merged[1].ID)
		assert.Equal(t, uint(3), merged[2].ID)
	})

	t.Run("EmptyBaseline", func(t *testing.T) {
		merged := MergeByID(nil, []models.ScheduledMessage{msg(5, models.StatusSending)}, messageKey)
		require.Len(t, merged, 1)
		assert.Equal(t, uint(5), merged[0].ID)
	})
}

func TestMergeAggregate(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	campaign := func(status string, updatedAt time.Time) *models.CallCampaign {
		c := &models.CallCampaign{Status: status}
		c.UpdatedAt = updatedAt
		return c
	}
	key := func(c *models.CallCampaign) time.Time { return c.UpdatedAt }

	t.Run("StalePushNeverRegressesLocal", func(t *testing.T) {
		local := campaign(models.CallCampaignRunning, t1)
		pushed := campaign(models.CallCampaignDraft, t0)
		assert.Same(t, local, MergeAggregate(local, pushed, key))
	})

	t.Run("NewerPushWins", func(t *testing.T) {
		local := campaign(models.CallCampaignRunning, t0)
		pushed := campaign(models.CallCampaignCompleted, t1)
		assert.Same(t, pushed, MergeAggregate(local, pushed, key))
	})

	t.Run("AbsentSideLoses", func(t *testing.T) {
		local := campaign(models.CallCampaignRunning, t0)
		assert.Same(t, local, MergeAggregate(local, nil, key))
		assert.Same(t, local, MergeAggregate(nil, local, key))
	})

	t.Run("TieKeepsLocal", func(t *testing.T) {
		local := campaign(models.CallCampaignRunning, t0)
		pushed := campaign(models.CallCampaignDraft, t0)
		assert.Same(t, local, MergeAggregate(local, pushed, key))
	})
}
