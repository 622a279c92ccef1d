package sequencer

import (
	"testing"

	"wanotify/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	valid := [][2]string{
		{models.StatusPending, models.StatusSending},
		{models.StatusPending, models.StatusCancelled},
		{models.StatusSending, models.StatusSent},
		{models.StatusSending, models.StatusFailed},
	}
	for _, pair := range valid {
		assert.True(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	invalid := [][2]string{
		{models.StatusSending, models.StatusCancelled},
		{models.StatusSent, models.StatusPending},
		{models.StatusSent, models.StatusCancelled},
		{models.StatusFailed, models.StatusSending},
		{models.StatusCancelled, models.StatusPending},
		{models.StatusPending, models.StatusSent},
	}
	for _, pair := range invalid {
		assert.False(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}
}

func TestValidateTransition(t *testing.T) {
	t.Run("CancelFromSentIsRejected", func(t *testing.T) {
		err := ValidateTransition(42, models.StatusSent, models.StatusCancelled)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidStateTransition)

		var typed *InvalidStateTransitionError
		require.ErrorAs(t, err, &typed)
		assert.Equal(t, uint(42), typed.MessageID)
		assert.Equal(t, models.StatusSent, typed.From)
		assert.Equal(t, models.StatusCancelled, typed.To)
	})

	t.Run("CancelFromPendingIsAllowed", func(t *testing.T) {
		assert.NoError(t, ValidateTransition(42, models.StatusPending, models.StatusCancelled))
	})
}

func TestCanCancel(t *testing.T) {
	assert.True(t, CanCancel(models.StatusPending))
	assert.False(t, CanCancel(models.StatusSending))
	assert.False(t, CanCancel(models.StatusSent))
	assert.False(t, CanCancel(models.StatusFailed))
	assert.False(t, CanCancel(models.StatusCancelled))
}
