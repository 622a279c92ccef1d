// Package sequencer holds the notification sequencing core: template
// variable resolution, the manual-variable gate, sequence run
// materialization, the message lifecycle table, progress aggregation and the
// realtime merge reducers. Everything here is pure; persistence and delivery
// belong to the controllers and the dispatch worker.
package sequencer

import (
	"errors"
	"fmt"
)

var (
	ErrNothingToSchedule      = errors.New("no destination groups to schedule")
	ErrNoSteps                = errors.New("sequence has no steps")
	ErrInvalidSendTime        = errors.New("invalid step send time")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// InvalidStateTransitionError reports a rejected lifecycle transition with
// enough context for the caller to surface it.
type InvalidStateTransitionError struct {
	MessageID uint
	From      string
	To        string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("message %d: cannot transition from %s to %s", e.MessageID, e.From, e.To)
}

func (e *InvalidStateTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}
