package sequencer

import (
	"fmt"
	"sort"
	"time"

	"wanotify/models"
)

// RunSlot identifies one (step, group) cell of a sequence run
type RunSlot struct {
	StepID  uint `json:"step_id"`
	GroupID uint `json:"group_id"`
}

// RunInput is everything BuildSequenceRun needs to materialize a batch
type RunInput struct {
	WorkshopID uint
	Event      EventContext
	Steps      []StepTemplate
	GroupIDs   []uint
	Values     map[string]string
	// Existing marks (step, group) pairs that already hold a non-cancelled
	// record; those slots are skipped instead of duplicated on a re-run.
	Existing map[RunSlot]bool
}

// RunBatch is the materialized result of one run-sequence action
type RunBatch struct {
	Messages []models.ScheduledMessage
	Skipped  []RunSlot
	// Leftover lists placeholder keys still unresolved after rendering.
	// The gate should make this impossible on a production path; it is
	// surfaced as a warning, never silently dropped.
	Leftover []string
}

// BuildSequenceRun materializes one pending message per step × group, steps
// in ascending StepOrder then group-list order. ScheduledFor combines the
// workshop's calendar date in the org timezone with the step's time of day.
// No persistence or delivery happens here.
func BuildSequenceRun(in RunInput) (*RunBatch, error) {
	if len(in.GroupIDs) == 0 {
		return nil, ErrNothingToSchedule
	}
	if len(in.Steps) == 0 {
		return nil, ErrNoSteps
	}

	steps := make([]StepTemplate, len(in.Steps))
	copy(steps, in.Steps)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].StepOrder < steps[j].StepOrder
	})

	loc := in.Event.Location
	if loc == nil {
		loc = time.UTC
	}

	// Validate every send time before creating anything, so a malformed step
	// leaves no partial batch behind.
	sendTimes := make([]time.Time, len(steps))
	for i, step := range steps {
		tod, err := time.Parse("15:04:05", step.SendTime)
		if err != nil {
			return nil, fmt.Errorf("step %d (order %d): %w: %q",
				step.StepID, step.StepOrder, ErrInvalidSendTime, step.SendTime)
		}
		day := in.Event.StartAt.In(loc)
		sendTimes[i] = time.Date(day.Year(), day.Month(), day.Day(),
			tod.Hour(), tod.Minute(), tod.Second(), 0, loc)
	}

	batch := &RunBatch{}
	leftoverSeen := make(map[string]bool)
	for i, step := range steps {
		content := RenderContent(step.Content, in.Event, in.Values)
		for _, key := range ExtractVariables(content) {
			if !leftoverSeen[key] {
				leftoverSeen[key] = true
				batch.Leftover = append(batch.Leftover, key)
			}
		}

		for _, groupID := range in.GroupIDs {
			slot := RunSlot{StepID: step.StepID, GroupID: groupID}
			if in.Existing[slot] {
				batch.Skipped = append(batch.Skipped, slot)
				continue
			}
			stepID := step.StepID
			batch.Messages = append(batch.Messages, models.ScheduledMessage{
				WorkshopID:     in.WorkshopID,
				GroupID:        groupID,
				StepID:         &stepID,
				MessageType:    models.MessageTypeSequence,
				MessageContent: content,
				MediaURL:       step.MediaURL,
				ScheduledFor:   sendTimes[i],
				Status:         models.StatusPending,
			})
		}
	}
	return batch, nil
}

// AdHocInput describes a single send-now message for one group
type AdHocInput struct {
	WorkshopID uint
	GroupID    uint
	Event      EventContext
	Content    string
	MediaURL   *string
	Values     map[string]string
	Now        time.Time
}

// BuildAdHocMessage materializes one pending send-now record. The leftover
// list reports unresolved placeholders the same way BuildSequenceRun does.
func BuildAdHocMessage(in AdHocInput) (models.ScheduledMessage, []string) {
	content := RenderContent(in.Content, in.Event, in.Values)
	return models.ScheduledMessage{
		WorkshopID:     in.WorkshopID,
		GroupID:        in.GroupID,
		MessageType:    models.MessageTypeAdHoc,
		MessageContent: content,
		MediaURL:       in.MediaURL,
		ScheduledFor:   in.Now,
		Status:         models.StatusPending,
	}, ExtractVariables(content)
}

// GroupResults is the per-group outcome of an ad-hoc send fanned out over
// several groups. One group's failure never aborts the rest.
type GroupResults struct {
	Succeeded []uint          `json:"succeeded"`
	Failed    []uint          `json:"failed"`
	Errors    map[uint]string `json:"errors,omitempty"`
}

// RunPerGroup applies fn to every group independently and collects a
// per-group result so the caller can report partial success.
func RunPerGroup(groupIDs []uint, fn func(groupID uint) error) GroupResults {
	results := GroupResults{Errors: make(map[uint]string)}
	for _, id := range groupIDs {
		if err := fn(id); err != nil {
			results.Failed = append(results.Failed, id)
			results.Errors[id] = err.Error()
			continue
		}
		results.Succeeded = append(results.Succeeded, id)
	}
	return results
}
