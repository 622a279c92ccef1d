package controller

import (
	"errors"
	"log"
	"time"

	"wanotify/models"
	"wanotify/realtime"
	"wanotify/sequencer"
	"wanotify/utils"
	"wanotify/worker"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MessageController owns the outreach surface of a workshop: the variable
// gate, sequence runs, ad-hoc sends, cancellation and progress.
type MessageController struct {
	DB         *gorm.DB
	Dispatcher *worker.DispatchWorker
	Logger     *log.Logger
}

func NewMessageController(db *gorm.DB, dispatcher *worker.DispatchWorker, logger *log.Logger) *MessageController {
	return &MessageController{
		DB:         db,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

// loadWorkshop fetches a workshop with its outreach wiring, enforcing
// ownership.
func (mc *MessageController) loadWorkshop(c *fiber.Ctx) (*models.Workshop, error) {
	user := c.Locals("user").(*models.User)

	var workshop models.Workshop
	err := mc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).
		Preload("Tag.Sequence.Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_steps.step_order")
		}).
		Preload("Tag.Sequence.Steps.Template").
		Preload("Groups").
		Preload("Variables").
		First(&workshop).Error
	if err != nil {
		return nil, err
	}
	return &workshop, nil
}

// stepTemplates flattens the workshop's sequence into the step/template view
// the gate and the run builder consume.
func stepTemplates(w *models.Workshop) []sequencer.StepTemplate {
	if w.Tag == nil || w.Tag.Sequence == nil {
		return nil
	}
	steps := make([]sequencer.StepTemplate, 0, len(w.Tag.Sequence.Steps))
	for _, step := range w.Tag.Sequence.Steps {
		steps = append(steps, sequencer.StepTemplate{
			StepID:    step.ID,
			StepOrder: step.StepOrder,
			SendTime:  step.SendTime,
			TimeLabel: step.TimeLabel,
			Content:   step.Template.Content,
			MediaURL:  step.Template.MediaURL,
		})
	}
	return steps
}

func savedValues(w *models.Workshop) map[string]string {
	values := make(map[string]string, len(w.Variables))
	for _, v := range w.Variables {
		values[v.Key] = v.Value
	}
	return values
}

// GetWorkshopVariables reports the variables the workshop's sequence needs:
// auto-filled keys with their derived values, manual keys with any saved
// value, and which manual keys are still missing.
func (mc *MessageController) GetWorkshopVariables(c *fiber.Ctx) error {
	workshop, err := mc.loadWorkshop(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workshop not found", nil)
	}

	steps := stepTemplates(workshop)
	contents := make([]string, 0, len(steps))
	for _, step := range steps {
		contents = append(contents, step.Content)
	}

	event := utils.EventContextFor(workshop)
	seen := make(map[string]bool)
	var autoFilled []fiber.Map
	for _, content := range contents {
		keys, _ := sequencer.CategorizeVariables(sequencer.ExtractVariables(content))
		for _, key := range keys {
			if seen[key] {
				continue
			}
			seen[key] = true
			value, _ := event.AutoValue(key)
			autoFilled = append(autoFilled, fiber.Map{"key": key, "value": value})
		}
	}

	saved := savedValues(workshop)
	var manual []fiber.Map
	for _, key := range sequencer.ExtractSequenceVariables(contents) {
		value := saved[key]
		manual = append(manual, fiber.Map{
			"key":     key,
			"value":   value,
			"missing": value == "",
		})
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"auto_filled": autoFilled,
		"manual":      manual,
	}))
}

// SaveWorkshopVariables upserts operator-supplied values for the workshop.
// Saving is idempotent; re-saving a key overwrites its previous value.
func (mc *MessageController) SaveWorkshopVariables(c *fiber.Ctx) error {
	workshop, err := mc.loadWorkshop(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workshop not found", nil)
	}

	var input struct {
		Variables map[string]string `json:"variables" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if len(input.Variables) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No variables provided", nil)
	}

	err = mc.DB.Transaction(func(tx *gorm.DB) error {
		for key, value := range input.Variables {
			if sequencer.IsAutoFilled(key) {
				continue
			}
			var existing models.WorkshopVariable
			findErr := tx.Where("workshop_id = ? AND key = ?", workshop.ID, key).First(&existing).Error
			if findErr == nil {
				existing.Value = value
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
				continue
			}
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return findErr
			}
			if err := tx.Create(&models.WorkshopVariable{
				WorkshopID: workshop.ID,
				Key:        key,
				Value:      value,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save variables", err)
	}

	var variables []models.WorkshopVariable
	if err := mc.DB.Where("workshop_id = ?", workshop.ID).Order("key").Find(&variables).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch variables", err)
	}
	return c.JSON(utils.SuccessResponse(variables))
}

// RunSequence materializes the workshop's sequence into scheduled messages,
// one per step × linked group. The manual-variable gate runs first: if any
// manual key has no saved value the run is refused with the missing keys so
// the client can collect them. Slots that already hold a live message are
// skipped, never duplicated.
func (mc *MessageController) RunSequence(c *fiber.Ctx) error {
	workshop, err := mc.loadWorkshop(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workshop not found", nil)
	}

	steps := stepTemplates(workshop)
	if len(steps) == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity,
			"Workshop has no sequence with steps; link a tag with a sequence first", nil)
	}
	if len(workshop.Groups) == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity,
			"Workshop has no linked groups; nothing to schedule", nil)
	}

	gate := sequencer.PrepareRun(steps, savedValues(workshop))
	if !gate.Proceed() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "Missing variable values",
			"missing": gate.Missing,
			"values":  gate.Values,
		})
	}

	groupIDs := make([]uint, 0, len(workshop.Groups))
	for _, g := range workshop.Groups {
		groupIDs = append(groupIDs, g.ID)
	}

	existing, err := mc.existingSlots(workshop.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check existing messages", err)
	}

	batch, err := sequencer.BuildSequenceRun(sequencer.RunInput{
		WorkshopID: workshop.ID,
		Event:      utils.EventContextFor(workshop),
		Steps:      steps,
		GroupIDs:   groupIDs,
		Values:     gate.Values,
		Existing:   existing,
	})
	if err != nil {
		switch {
		case errors.Is(err, sequencer.ErrNothingToSchedule), errors.Is(err, sequencer.ErrNoSteps):
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Nothing to schedule", err)
		case errors.Is(err, sequencer.ErrInvalidSendTime):
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Sequence has a malformed send time", err)
		default:
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build run", err)
		}
	}

	// Insert step by step, each step in its own transaction, so one failing
	// step leaves earlier steps scheduled and the response names the failure.
	byStep := make(map[uint][]models.ScheduledMessage)
	var stepOrderIDs []uint
	for _, msg := range batch.Messages {
		stepID := *msg.StepID
		if _, ok := byStep[stepID]; !ok {
			stepOrderIDs = append(stepOrderIDs, stepID)
		}
		byStep[stepID] = append(byStep[stepID], msg)
	}

	var scheduled []models.ScheduledMessage
	for _, stepID := range stepOrderIDs {
		msgs := byStep[stepID]
		err := mc.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&msgs).Error
		})
		if err != nil {
			mc.Logger.Printf("Run for workshop %d failed at step %d: %v", workshop.ID, stepID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success":        false,
				"error":          "Scheduling failed partway",
				"failed_step_id": stepID,
				"scheduled":      scheduled,
				"details":        err.Error(),
			})
		}
		scheduled = append(scheduled, msgs...)
	}

	for i := range scheduled {
		realtime.Default.Publish(realtime.Event{
			Type:       realtime.EventMessageUpdate,
			WorkshopID: workshop.ID,
			Payload:    &scheduled[i],
		})
	}

	if len(batch.Leftover) > 0 {
		mc.Logger.Printf("Run for workshop %d scheduled with unresolved placeholders: %v",
			workshop.ID, batch.Leftover)
	}
	utils.LogEvent("sequence_run", map[string]interface{}{
		"workshop_id": workshop.ID,
		"scheduled":   len(scheduled),
		"skipped":     len(batch.Skipped),
	})

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"scheduled":        scheduled,
		"skipped":          batch.Skipped,
		"unresolved_keys":  batch.Leftover,
		"scheduled_count":  len(scheduled),
		"skipped_count":    len(batch.Skipped),
	}))
}

// existingSlots maps (step, group) pairs that already hold a non-cancelled
// message for the workshop.
func (mc *MessageController) existingSlots(workshopID uint) (map[sequencer.RunSlot]bool, error) {
	var rows []models.ScheduledMessage
	err := mc.DB.Select("step_id", "group_id").
		Where("workshop_id = ? AND step_id IS NOT NULL AND status <> ?", workshopID, models.StatusCancelled).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	existing := make(map[sequencer.RunSlot]bool, len(rows))
	for _, row := range rows {
		existing[sequencer.RunSlot{StepID: *row.StepID, GroupID: row.GroupID}] = true
	}
	return existing, nil
}

// SendNow delivers an ad-hoc message to the workshop's groups immediately.
// Each group is handled independently: the response reports which groups
// succeeded and which failed, and one group's failure never aborts the rest.
func (mc *MessageController) SendNow(c *fiber.Ctx) error {
	workshop, err := mc.loadWorkshop(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workshop not found", nil)
	}

	var input struct {
		Content  string  `json:"content" validate:"required"`
		MediaURL *string `json:"media_url"`
		GroupIDs []uint  `json:"group_ids"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	linked := make(map[uint]bool, len(workshop.Groups))
	for _, g := range workshop.Groups {
		linked[g.ID] = true
	}

	groupIDs := input.GroupIDs
	if len(groupIDs) == 0 {
		for _, g := range workshop.Groups {
			groupIDs = append(groupIDs, g.ID)
		}
	} else {
		for _, id := range groupIDs {
			if !linked[id] {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Group is not linked to this workshop", nil)
			}
		}
	}
	if len(groupIDs) == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity,
			"Workshop has no linked groups; nothing to send", nil)
	}

	// The manual-variable gate binds ad-hoc sends too: an unsaved manual key
	// in the content refuses the whole request before anything is persisted.
	gate := sequencer.PrepareRun([]sequencer.StepTemplate{{Content: input.Content}}, savedValues(workshop))
	if !gate.Proceed() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "Missing variable values",
			"missing": gate.Missing,
			"values":  gate.Values,
		})
	}

	event := utils.EventContextFor(workshop)
	now := time.Now()

	results := sequencer.RunPerGroup(groupIDs, func(groupID uint) error {
		msg, leftover := sequencer.BuildAdHocMessage(sequencer.AdHocInput{
			WorkshopID: workshop.ID,
			GroupID:    groupID,
			Event:      event,
			Content:    input.Content,
			MediaURL:   input.MediaURL,
			Values:     gate.Values,
			Now:        now,
		})
		if len(leftover) > 0 {
			mc.Logger.Printf("Ad-hoc send for workshop %d group %d has unresolved placeholders: %v",
				workshop.ID, groupID, leftover)
		}
		if err := mc.DB.Create(&msg).Error; err != nil {
			return err
		}
		return mc.Dispatcher.DispatchOne(c.UserContext(), &msg)
	})

	status := fiber.StatusOK
	if len(results.Succeeded) == 0 {
		status = fiber.StatusBadGateway
	}
	utils.LogEvent("send_now", map[string]interface{}{
		"workshop_id": workshop.ID,
		"succeeded":   len(results.Succeeded),
		"failed":      len(results.Failed),
	})
	return c.Status(status).JSON(utils.SuccessResponse(results))
}

// CancelMessage cancels a still-pending message. The update is guarded on
// status so a dispatcher that already claimed the message wins the race and
// the cancel is refused instead of rewriting history.
func (mc *MessageController) CancelMessage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var msg models.ScheduledMessage
	err := mc.DB.Joins("JOIN workshops ON workshops.id = scheduled_messages.workshop_id").
		Where("scheduled_messages.id = ? AND workshops.user_id = ?", c.Params("messageId"), user.ID).
		First(&msg).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Message not found", nil)
	}

	result := mc.DB.Model(&models.ScheduledMessage{}).
		Where("id = ? AND status = ?", msg.ID, models.StatusPending).
		Update("status", models.StatusCancelled)
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to cancel message", result.Error)
	}
	if result.RowsAffected == 0 {
		// The message moved on while the request was in flight; report the
		// current state instead of pretending the cancel took.
		if err := mc.DB.First(&msg, msg.ID).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reload message", err)
		}
		details := "message is no longer pending"
		if tErr := sequencer.ValidateTransition(msg.ID, msg.Status, models.StatusCancelled); tErr != nil {
			details = tErr.Error()
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "Message can no longer be cancelled",
			"status":  msg.Status,
			"details": details,
		})
	}

	msg.Status = models.StatusCancelled
	realtime.Default.Publish(realtime.Event{
		Type:       realtime.EventMessageUpdate,
		WorkshopID: msg.WorkshopID,
		Payload:    &msg,
	})
	utils.LogEvent("message_cancelled", map[string]interface{}{
		"message_id":  msg.ID,
		"workshop_id": msg.WorkshopID,
	})
	return c.JSON(utils.SuccessResponse(msg))
}

// ListMessages returns the workshop's scheduled messages, optionally filtered
// by status, ordered by scheduled time.
func (mc *MessageController) ListMessages(c *fiber.Ctx) error {
	workshop, err := mc.loadWorkshop(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workshop not found", nil)
	}

	query := mc.DB.Where("workshop_id = ?", workshop.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var messages []models.ScheduledMessage
	if err := query.Order("scheduled_for, id").Find(&messages).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch messages", err)
	}
	return c.JSON(utils.SuccessResponse(messages))
}

// GetProgress aggregates the workshop's message counts into progress figures
// and the single presentation state the dashboard shows.
func (mc *MessageController) GetProgress(c *fiber.Ctx) error {
	workshop, err := mc.loadWorkshop(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workshop not found", nil)
	}

	var messages []models.ScheduledMessage
	if err := mc.DB.Where("workshop_id = ?", workshop.ID).Find(&messages).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch messages", err)
	}

	stats := sequencer.ComputeStats(messages)
	setupComplete := workshop.Tag != nil && workshop.Tag.Sequence != nil &&
		len(workshop.Tag.Sequence.Steps) > 0 && len(workshop.Groups) > 0
	presentation := sequencer.DerivePresentation(stats, setupComplete, false)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"stats":               stats,
		"active_total":        stats.ActiveTotal(),
		"processed":           stats.ProcessedCount(),
		"percent_complete":    stats.PercentComplete(),
		"has_active_sequence": stats.HasActiveSequence(),
		"is_complete":         stats.IsComplete(),
		"has_failures":        stats.HasFailures(),
		"presentation":        presentation,
	}))
}
