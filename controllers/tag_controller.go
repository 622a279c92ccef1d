package controller

import (
	"log"

	"wanotify/models"
	"wanotify/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TagController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTagController(db *gorm.DB, logger *log.Logger) *TagController {
	return &TagController{
		DB:     db,
		Logger: logger,
	}
}

// CreateTag creates a tag, optionally bound to a sequence
func (tc *TagController) CreateTag(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Name       string `json:"name" validate:"required,max=50"`
		Color      string `json:"color" validate:"omitempty,hexcolor"`
		SequenceID *uint  `json:"template_sequence_id"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if input.SequenceID != nil {
		var sequence models.Sequence
		if err := tc.DB.Where("id = ? AND user_id = ?", *input.SequenceID, user.ID).First(&sequence).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Sequence not found", nil)
		}
	}

	tag := models.Tag{
		UserID:     user.ID,
		Name:       input.Name,
		SequenceID: input.SequenceID,
	}
	if input.Color != "" {
		tag.Color = input.Color
	}

	if err := tc.DB.Create(&tag).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create tag", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(tag))
}

// GetTags lists the user's tags with their sequences
func (tc *TagController) GetTags(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var tags []models.Tag
	if err := tc.DB.Where("user_id = ?", user.ID).Preload("Sequence").Order("name").Find(&tags).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch tags", err)
	}

	return c.JSON(utils.SuccessResponse(tags))
}

// UpdateTag edits a tag's name, color or sequence binding
func (tc *TagController) UpdateTag(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var tag models.Tag
	if err := tc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&tag).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Tag not found", nil)
	}

	var input struct {
		Name       *string `json:"name" validate:"omitempty,max=50"`
		Color      *string `json:"color" validate:"omitempty,hexcolor"`
		SequenceID *uint   `json:"template_sequence_id"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if input.Name != nil {
		tag.Name = *input.Name
	}
	if input.Color != nil {
		tag.Color = *input.Color
	}
	if input.SequenceID != nil {
		var sequence models.Sequence
		if err := tc.DB.Where("id = ? AND user_id = ?", *input.SequenceID, user.ID).First(&sequence).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Sequence not found", nil)
		}
		tag.SequenceID = input.SequenceID
	}

	if err := tc.DB.Save(&tag).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update tag", err)
	}

	return c.JSON(utils.SuccessResponse(tag))
}

// DeleteTag removes a tag and detaches it from workshops
func (tc *TagController) DeleteTag(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var tag models.Tag
	if err := tc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&tag).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Tag not found", nil)
	}

	err := tc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Workshop{}).
			Where("tag_id = ?", tag.ID).
			Update("tag_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete tag", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Tag deleted"}))
}
