package sequencer

import (
	"math"

	"wanotify/models"
)

// Stats holds per-status counts over one workshop's message set
type Stats struct {
	Total     int `json:"total"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
	Sending   int `json:"sending"`
	Cancelled int `json:"cancelled"`
}

// ComputeStats counts messages by status
func ComputeStats(messages []models.ScheduledMessage) Stats {
	stats := Stats{Total: len(messages)}
	for _, m := range messages {
		switch m.Status {
		case models.StatusSent:
			stats.Sent++
		case models.StatusFailed:
			stats.Failed++
		case models.StatusPending:
			stats.Pending++
		case models.StatusSending:
			stats.Sending++
		case models.StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// ActiveTotal is the progress denominator; cancelled messages never count
// toward remaining or percent complete.
func (s Stats) ActiveTotal() int {
	return s.Total - s.Cancelled
}

// ProcessedCount counts messages done regardless of outcome
func (s Stats) ProcessedCount() int {
	return s.Sent + s.Failed
}

// PercentComplete is processed over active, rounded half up, 0 when nothing
// is active.
func (s Stats) PercentComplete() int {
	active := s.ActiveTotal()
	if active <= 0 {
		return 0
	}
	return int(math.Floor(100*float64(s.ProcessedCount())/float64(active) + 0.5))
}

// HasActiveSequence reports whether any message is still in flight
func (s Stats) HasActiveSequence() bool {
	return s.Total > 0 && (s.Pending > 0 || s.Sending > 0)
}

// IsComplete reports whether every non-cancelled message has been processed
func (s Stats) IsComplete() bool {
	return s.Total > 0 && s.Pending == 0 && s.Sending == 0
}

// HasFailures reports whether any message failed
func (s Stats) HasFailures() bool {
	return s.Failed > 0
}

// Presentation is the single UI affordance derived from a workshop's
// messaging state. The derivation is a strict priority order; exactly one
// state applies at any time.
type Presentation int

const (
	PresentationSetup Presentation = iota
	PresentationScheduling
	PresentationRetry
	PresentationInProgress
	PresentationDelivered
	PresentationIdle
)

func (p Presentation) String() string {
	switch p {
	case PresentationSetup:
		return "setup"
	case PresentationScheduling:
		return "scheduling"
	case PresentationRetry:
		return "retry"
	case PresentationInProgress:
		return "in_progress"
	case PresentationDelivered:
		return "delivered"
	default:
		return "idle"
	}
}

// MarshalJSON renders the presentation as its string name
func (p Presentation) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// DerivePresentation picks the affordance to show. setupComplete means the
// workshop has a tag with a sequence and at least one linked group;
// scheduling means a run is currently being initiated, which is separate
// from message status.
func DerivePresentation(s Stats, setupComplete, scheduling bool) Presentation {
	switch {
	case !setupComplete:
		return PresentationSetup
	case scheduling:
		return PresentationScheduling
	case s.HasFailures() && s.IsComplete():
		return PresentationRetry
	case s.HasActiveSequence():
		return PresentationInProgress
	case s.IsComplete() && s.Total > 0 && !s.HasFailures():
		return PresentationDelivered
	default:
		return PresentationIdle
	}
}
