package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"wanotify/models"
	"wanotify/realtime"
	"wanotify/sequencer"
	"wanotify/utils"

	"github.com/getsentry/sentry-go"
	"gorm.io/gorm"
)

// DispatchWorker wakes on a fixed interval, claims due pending messages and
// pushes them through the gateway. Status moves pending → sending → sent or
// failed; the claim is a guarded update so two workers never race on the same
// record.
type DispatchWorker struct {
	DB       *gorm.DB
	WhatsApp *utils.WhatsAppClient
	Logger   *log.Logger
	Interval time.Duration
}

func NewDispatchWorker(db *gorm.DB, client *utils.WhatsAppClient, logger *log.Logger, interval time.Duration) *DispatchWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &DispatchWorker{
		DB:       db,
		WhatsApp: client,
		Logger:   logger,
		Interval: interval,
	}
}

func (dw *DispatchWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(5 * time.Second)

	dw.Logger.Println("Dispatch worker started")

	ticker := time.NewTicker(dw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			dw.Logger.Println("Dispatch worker shutting down...")
			return
		case <-ticker.C:
			dw.processDueMessages(ctx)
		}
	}
}

func (dw *DispatchWorker) processDueMessages(ctx context.Context) {
	var due []models.ScheduledMessage
	if err := dw.DB.Where("status = ? AND scheduled_for <= ?", models.StatusPending, time.Now()).
		Order("scheduled_for").
		Limit(100).
		Find(&due).Error; err != nil {
		dw.Logger.Printf("Error fetching due messages: %v", err)
		return
	}

	for i := range due {
		if ctx.Err() != nil {
			return
		}
		if err := dw.DispatchOne(ctx, &due[i]); err != nil {
			dw.Logger.Printf("Error dispatching message %d: %v", due[i].ID, err)
		}
	}
}

// DispatchOne claims and delivers a single message. Send-now calls this
// directly so an ad-hoc message skips the ticker wait. A message another
// worker already claimed, or a cancel that won the race, is a silent no-op.
func (dw *DispatchWorker) DispatchOne(ctx context.Context, msg *models.ScheduledMessage) error {
	if err := sequencer.ValidateTransition(msg.ID, msg.Status, models.StatusSending); err != nil {
		return err
	}

	// Guarded claim: only the row that is still pending moves to sending
	claim := dw.DB.Model(&models.ScheduledMessage{}).
		Where("id = ? AND status = ?", msg.ID, models.StatusPending).
		Update("status", models.StatusSending)
	if claim.Error != nil {
		return claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil
	}
	msg.Status = models.StatusSending

	var workshop models.Workshop
	if err := dw.DB.First(&workshop, msg.WorkshopID).Error; err != nil {
		return dw.markFailed(msg, fmt.Errorf("workshop lookup failed: %w", err))
	}
	var group models.WhatsAppGroup
	if err := dw.DB.First(&group, msg.GroupID).Error; err != nil {
		return dw.markFailed(msg, fmt.Errorf("group lookup failed: %w", err))
	}
	if workshop.WhatsAppSessionID == nil || *workshop.WhatsAppSessionID == "" {
		return dw.markFailed(msg, fmt.Errorf("workshop %d has no WhatsApp session", workshop.ID))
	}

	externalID, err := dw.WhatsApp.SendGroupMessage(ctx,
		*workshop.WhatsAppSessionID, group.ExternalID, msg.MessageContent, msg.MediaURL)
	if err != nil {
		return dw.markFailed(msg, err)
	}
	return dw.markSent(msg, externalID)
}

func (dw *DispatchWorker) markSent(msg *models.ScheduledMessage, externalID string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":        models.StatusSent,
		"sent_at":       now,
		"error_message": "",
	}
	if externalID != "" {
		updates["external_id"] = externalID
	}
	if err := dw.DB.Model(msg).Updates(updates).Error; err != nil {
		return err
	}
	msg.Status = models.StatusSent
	msg.SentAt = &now
	msg.ErrorMessage = ""
	if externalID != "" {
		msg.ExternalID = &externalID
	}

	utils.LogEvent("message_sent", map[string]interface{}{
		"message_id":  msg.ID,
		"workshop_id": msg.WorkshopID,
		"group_id":    msg.GroupID,
	})
	dw.publish(msg)
	return nil
}

func (dw *DispatchWorker) markFailed(msg *models.ScheduledMessage, cause error) error {
	updates := map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": cause.Error(),
		"retry_count":   gorm.Expr("retry_count + 1"),
	}
	if err := dw.DB.Model(msg).Updates(updates).Error; err != nil {
		return err
	}
	msg.Status = models.StatusFailed
	msg.ErrorMessage = cause.Error()
	msg.RetryCount++

	sentry.CaptureException(fmt.Errorf("dispatch failed for message %d: %w", msg.ID, cause))
	utils.LogEvent("message_failed", map[string]interface{}{
		"message_id":  msg.ID,
		"workshop_id": msg.WorkshopID,
		"group_id":    msg.GroupID,
		"error":       cause.Error(),
	})
	dw.publish(msg)
	return cause
}

func (dw *DispatchWorker) publish(msg *models.ScheduledMessage) {
	realtime.Default.Publish(realtime.Event{
		Type:       realtime.EventMessageUpdate,
		WorkshopID: msg.WorkshopID,
		Payload:    msg,
	})
}
