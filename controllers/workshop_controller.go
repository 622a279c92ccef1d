package controller

import (
	"log"
	"strconv"
	"time"

	"wanotify/models"
	"wanotify/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type WorkshopController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewWorkshopController(db *gorm.DB, logger *log.Logger) *WorkshopController {
	return &WorkshopController{
		DB:     db,
		Logger: logger,
	}
}

// CreateWorkshop creates a new workshop
func (wc *WorkshopController) CreateWorkshop(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Title             string  `json:"title" validate:"required,max=200"`
		Description       string  `json:"description"`
		StartAt           string  `json:"start_at" validate:"required"`
		TagID             *uint   `json:"tag_id"`
		WhatsAppSessionID *string `json:"whatsapp_session_id"`
		GroupIDs          []uint  `json:"group_ids"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	startAt, err := time.Parse(time.RFC3339, input.StartAt)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "start_at must be RFC3339", err)
	}

	if input.TagID != nil {
		var tag models.Tag
		if err := wc.DB.Where("id = ? AND user_id = ?", *input.TagID, user.ID).First(&tag).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Tag not found", nil)
		}
	}

	workshop := models.Workshop{
		UserID:            user.ID,
		Title:             input.Title,
		Description:       input.Description,
		StartAt:           startAt,
		TagID:             input.TagID,
		WhatsAppSessionID: input.WhatsAppSessionID,
	}

	if err := wc.DB.Create(&workshop).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create workshop", err)
	}

	if len(input.GroupIDs) > 0 {
		if err := wc.linkGroups(user.ID, &workshop, input.GroupIDs); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to link groups", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(workshop))
}

// GetWorkshops returns a paginated list of the user's workshops
func (wc *WorkshopController) GetWorkshops(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	query := wc.DB.Where("user_id = ?", user.ID)
	if upcoming := c.Query("upcoming"); upcoming == "true" {
		query = query.Where("start_at > ?", time.Now())
	}

	var total int64
	query.Model(&models.Workshop{}).Count(&total)

	var workshops []models.Workshop
	if err := query.Preload("Tag").Preload("Groups").
		Order("start_at DESC").Limit(limit).Offset(offset).
		Find(&workshops).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch workshops", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  workshops,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetWorkshop returns one workshop with its outreach wiring
func (wc *WorkshopController) GetWorkshop(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var workshop models.Workshop
	if err := wc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).
		Preload("Tag.Sequence.Steps.Template").
		Preload("Groups").
		Preload("Variables").
		First(&workshop).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workshop not found", nil)
	}

	return c.JSON(utils.SuccessResponse(workshop))
}

// UpdateWorkshop updates workshop fields and group links
func (wc *WorkshopController) UpdateWorkshop(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var workshop models.Workshop
	if err := wc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&workshop).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workshop not found", nil)
	}

	var input struct {
		Title             *string `json:"title" validate:"omitempty,max=200"`
		Description       *string `json:"description"`
		StartAt           *string `json:"start_at"`
		TagID             *uint   `json:"tag_id"`
		WhatsAppSessionID *string `json:"whatsapp_session_id"`
		GroupIDs          []uint  `json:"group_ids"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if input.Title != nil {
		workshop.Title = *input.Title
	}
	if input.Description != nil {
		workshop.Description = *input.Description
	}
	if input.StartAt != nil {
		startAt, err := time.Parse(time.RFC3339, *input.StartAt)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "start_at must be RFC3339", err)
		}
		workshop.StartAt = startAt
	}
	if input.TagID != nil {
		var tag models.Tag
		if err := wc.DB.Where("id = ? AND user_id = ?", *input.TagID, user.ID).First(&tag).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Tag not found", nil)
		}
		workshop.TagID = input.TagID
	}
	if input.WhatsAppSessionID != nil {
		workshop.WhatsAppSessionID = input.WhatsAppSessionID
	}

	if err := wc.DB.Save(&workshop).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update workshop", err)
	}

	if input.GroupIDs != nil {
		if err := wc.linkGroups(user.ID, &workshop, input.GroupIDs); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to link groups", err)
		}
	}

	return c.JSON(utils.SuccessResponse(workshop))
}

// DeleteWorkshop removes a workshop and cascades its messages and variables.
// This is the only path that deletes scheduled messages.
func (wc *WorkshopController) DeleteWorkshop(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var workshop models.Workshop
	if err := wc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&workshop).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workshop not found", nil)
	}

	err := wc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workshop_id = ?", workshop.ID).Delete(&models.ScheduledMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workshop_id = ?", workshop.ID).Delete(&models.WorkshopVariable{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workshop_id = ?", workshop.ID).Delete(&models.WorkshopGroup{}).Error; err != nil {
			return err
		}
		return tx.Delete(&workshop).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete workshop", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Workshop deleted"}))
}

func (wc *WorkshopController) linkGroups(userID uint, workshop *models.Workshop, groupIDs []uint) error {
	var groups []models.WhatsAppGroup
	if err := wc.DB.Where("id IN ? AND user_id = ?", groupIDs, userID).Find(&groups).Error; err != nil {
		return err
	}
	if len(groups) != len(groupIDs) {
		return gorm.ErrRecordNotFound
	}
	return wc.DB.Model(workshop).Association("Groups").Replace(groups)
}
