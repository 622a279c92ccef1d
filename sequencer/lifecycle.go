package sequencer

import "wanotify/models"

// transitions is the full lifecycle table. Sent, failed and cancelled are
// terminal; a retry re-creates a new record rather than resurrecting one.
var transitions = map[string][]string{
	models.StatusPending: {models.StatusSending, models.StatusCancelled},
	models.StatusSending: {models.StatusSent, models.StatusFailed},
}

// CanTransition reports whether from → to is a valid lifecycle move
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a typed error for an invalid move so callers
// can refuse it loudly instead of silently succeeding.
func ValidateTransition(messageID uint, from, to string) error {
	if !CanTransition(from, to) {
		return &InvalidStateTransitionError{MessageID: messageID, From: from, To: to}
	}
	return nil
}

// CanCancel reports whether an operator cancel is valid for the current
// status. Only pending messages may be cancelled.
func CanCancel(status string) bool {
	return CanTransition(status, models.StatusCancelled)
}
