package controller

import (
	"fmt"
	"log"
	"time"

	"wanotify/config"
	"wanotify/models"
	"wanotify/realtime"
	"wanotify/sequencer"
	"wanotify/utils"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CallController manages voice-calling campaigns that follow up leads who
// have not converted after the message sequence.
type CallController struct {
	DB     *gorm.DB
	Voice  *utils.VoiceClient
	Logger *log.Logger
}

func NewCallController(db *gorm.DB, voice *utils.VoiceClient, logger *log.Logger) *CallController {
	return &CallController{
		DB:     db,
		Voice:  voice,
		Logger: logger,
	}
}

// CreateCallCampaign creates a draft campaign over the workshop's callable
// leads. Do-not-contact leads are excluded at creation time.
func (cc *CallController) CreateCallCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		WorkshopID uint   `json:"workshop_id" validate:"required"`
		Name       string `json:"name" validate:"required,max=100"`
		AgentID    string `json:"agent_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var workshop models.Workshop
	if err := cc.DB.Where("id = ? AND user_id = ?", input.WorkshopID, user.ID).First(&workshop).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workshop not found", nil)
	}

	var leads []models.Lead
	if err := cc.DB.Where("workshop_id = ? AND is_converted = ? AND is_do_not_contact = ?",
		workshop.ID, false, false).Find(&leads).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch leads", err)
	}
	if len(leads) == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "No callable leads for this workshop", nil)
	}

	agentID := input.AgentID
	if agentID == "" {
		agentID = config.AppConfig.Voice.AgentID
	}

	campaign := models.CallCampaign{
		UserID:     user.ID,
		WorkshopID: workshop.ID,
		Name:       input.Name,
		Status:     models.CallCampaignDraft,
		AgentID:    agentID,
		TotalCalls: len(leads),
	}

	err := cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&campaign).Error; err != nil {
			return err
		}
		records := make([]models.CallRecord, 0, len(leads))
		for _, lead := range leads {
			records = append(records, models.CallRecord{
				CampaignID: campaign.ID,
				LeadID:     lead.ID,
				Status:     "pending",
			})
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create campaign", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(campaign))
}

// StartCallCampaign hands a draft campaign to the voice provider
func (cc *CallController) StartCallCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var campaign models.CallCampaign
	if err := cc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}
	if campaign.Status != models.CallCampaignDraft {
		return utils.ErrorResponse(c, fiber.StatusConflict,
			fmt.Sprintf("Campaign is %s, only draft campaigns can be started", campaign.Status), nil)
	}
	if campaign.AgentID == "" {
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Campaign has no voice agent configured", nil)
	}

	var records []models.CallRecord
	if err := cc.DB.Where("campaign_id = ?", campaign.ID).Preload("Lead").Find(&records).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch call records", err)
	}

	recipients := make(map[string]string, len(records))
	for _, record := range records {
		if record.Lead.Phone != "" {
			recipients[record.Lead.Phone] = record.Lead.Name
		}
	}
	if len(recipients) == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Campaign has no dialable leads", nil)
	}

	externalID, err := cc.Voice.StartCampaign(c.UserContext(), campaign.AgentID, campaign.Name, recipients)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("voice campaign %d start failed: %w", campaign.ID, err))
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Voice provider refused the campaign", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      models.CallCampaignRunning,
		"external_id": externalID,
		"started_at":  now,
	}
	if err := cc.DB.Model(&campaign).Updates(updates).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update campaign", err)
	}
	campaign.Status = models.CallCampaignRunning
	campaign.ExternalID = &externalID
	campaign.StartedAt = &now

	utils.LogEvent("call_campaign_started", map[string]interface{}{
		"campaign_id": campaign.ID,
		"external_id": externalID,
		"recipients":  len(recipients),
	})
	return c.JSON(utils.SuccessResponse(campaign))
}

// GetCallCampaigns lists the user's campaigns, optionally for one workshop
func (cc *CallController) GetCallCampaigns(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	query := cc.DB.Where("user_id = ?", user.ID)
	if workshopID := c.Query("workshop_id"); workshopID != "" {
		query = query.Where("workshop_id = ?", workshopID)
	}

	var campaigns []models.CallCampaign
	if err := query.Order("created_at DESC").Find(&campaigns).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch campaigns", err)
	}
	return c.JSON(utils.SuccessResponse(campaigns))
}

// GetCallCampaign returns one campaign with its call records
func (cc *CallController) GetCallCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var campaign models.CallCampaign
	err := cc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).
		Preload("Records").
		First(&campaign).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}
	return c.JSON(utils.SuccessResponse(campaign))
}

// HandleCallWebhook receives progress pushes from the voice provider. The
// pushed snapshot is merged against the local row by updated_at, so a stale
// or out-of-order push can never regress a campaign that has already moved
// further along.
func (cc *CallController) HandleCallWebhook(c *fiber.Ctx) error {
	var input struct {
		CampaignID     string    `json:"campaign_id" validate:"required"`
		Status         string    `json:"status" validate:"required,oneof=running completed failed"`
		TotalCalls     int       `json:"total_calls"`
		CompletedCalls int       `json:"completed_calls"`
		FailedCalls    int       `json:"failed_calls"`
		UpdatedAt      time.Time `json:"updated_at" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid webhook payload", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var local models.CallCampaign
	if err := cc.DB.Where("external_id = ?", input.CampaignID).First(&local).Error; err != nil {
		// Unknown campaigns are acknowledged so the provider stops retrying
		cc.Logger.Printf("Webhook for unknown campaign %s ignored", input.CampaignID)
		return c.JSON(utils.SuccessResponse(fiber.Map{"ignored": true}))
	}

	pushed := local
	pushed.Status = input.Status
	pushed.TotalCalls = input.TotalCalls
	pushed.CompletedCalls = input.CompletedCalls
	pushed.FailedCalls = input.FailedCalls
	pushed.UpdatedAt = input.UpdatedAt
	if input.Status == models.CallCampaignCompleted && local.CompletedAt == nil {
		now := time.Now()
		pushed.CompletedAt = &now
	}

	winner := sequencer.MergeAggregate(&local, &pushed, func(cmp *models.CallCampaign) time.Time {
		return cmp.UpdatedAt
	})
	if winner == &local {
		utils.LogEvent("call_webhook_stale", map[string]interface{}{
			"campaign_id": local.ID,
			"pushed_at":   input.UpdatedAt,
			"local_at":    local.UpdatedAt,
		})
		return c.JSON(utils.SuccessResponse(fiber.Map{"stale": true}))
	}

	updates := map[string]interface{}{
		"status":          winner.Status,
		"total_calls":     winner.TotalCalls,
		"completed_calls": winner.CompletedCalls,
		"failed_calls":    winner.FailedCalls,
		"updated_at":      winner.UpdatedAt,
	}
	if winner.CompletedAt != nil {
		updates["completed_at"] = winner.CompletedAt
	}
	if err := cc.DB.Model(&local).Updates(updates).Error; err != nil {
		sentry.CaptureException(fmt.Errorf("call webhook persist failed for campaign %d: %w", local.ID, err))
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to persist webhook", err)
	}

	realtime.Default.Publish(realtime.Event{
		Type:       realtime.EventCampaignUpdate,
		WorkshopID: local.WorkshopID,
		Payload:    winner,
	})
	return c.JSON(utils.SuccessResponse(fiber.Map{"applied": true}))
}
