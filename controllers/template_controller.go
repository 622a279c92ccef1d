package controller

import (
	"log"

	"wanotify/models"
	"wanotify/sequencer"
	"wanotify/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TemplateController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTemplateController(db *gorm.DB, logger *log.Logger) *TemplateController {
	return &TemplateController{
		DB:     db,
		Logger: logger,
	}
}

// CreateTemplate creates a message template
func (tc *TemplateController) CreateTemplate(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Name     string  `json:"name" validate:"required,max=100"`
		Content  string  `json:"content" validate:"required"`
		MediaURL *string `json:"media_url" validate:"omitempty,url"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	template := models.Template{
		UserID:   user.ID,
		Name:     input.Name,
		Content:  input.Content,
		MediaURL: input.MediaURL,
	}

	if err := tc.DB.Create(&template).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create template", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(template))
}

// GetTemplates lists the user's templates
func (tc *TemplateController) GetTemplates(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var templates []models.Template
	if err := tc.DB.Where("user_id = ?", user.ID).Order("name").Find(&templates).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch templates", err)
	}

	return c.JSON(utils.SuccessResponse(templates))
}

// GetTemplate returns one template
func (tc *TemplateController) GetTemplate(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var template models.Template
	if err := tc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&template).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	return c.JSON(utils.SuccessResponse(template))
}

// GetTemplateVariables returns the template's placeholders split into
// auto-filled and manual, the shape the variable dialog renders.
func (tc *TemplateController) GetTemplateVariables(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var template models.Template
	if err := tc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&template).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	auto, manual := sequencer.CategorizeVariables(sequencer.ExtractVariables(template.Content))
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"auto_filled": auto,
		"manual":      manual,
	}))
}

// UpdateTemplate edits a template. Referenced templates change everywhere a
// sequence uses them; already-materialized messages keep their rendered text.
func (tc *TemplateController) UpdateTemplate(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var template models.Template
	if err := tc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&template).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	var input struct {
		Name     *string `json:"name" validate:"omitempty,max=100"`
		Content  *string `json:"content"`
		MediaURL *string `json:"media_url" validate:"omitempty,url"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if input.Name != nil {
		template.Name = *input.Name
	}
	if input.Content != nil {
		template.Content = *input.Content
	}
	if input.MediaURL != nil {
		template.MediaURL = input.MediaURL
	}

	if err := tc.DB.Save(&template).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update template", err)
	}

	return c.JSON(utils.SuccessResponse(template))
}

// DeleteTemplate removes a template unless a sequence step references it
func (tc *TemplateController) DeleteTemplate(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var template models.Template
	if err := tc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&template).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	var refs int64
	tc.DB.Model(&models.SequenceStep{}).Where("template_id = ?", template.ID).Count(&refs)
	if refs > 0 {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Template is used by a sequence step", nil)
	}

	if err := tc.DB.Delete(&template).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete template", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Template deleted"}))
}
