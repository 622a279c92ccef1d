package controller

import (
	"log"
	"time"

	"wanotify/models"
	"wanotify/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SequenceController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewSequenceController(db *gorm.DB, logger *log.Logger) *SequenceController {
	return &SequenceController{
		DB:     db,
		Logger: logger,
	}
}

// CreateSequence creates an empty sequence
func (sc *SequenceController) CreateSequence(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Name        string `json:"name" validate:"required,max=100"`
		Description string `json:"description"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	sequence := models.Sequence{
		UserID:      user.ID,
		Name:        input.Name,
		Description: input.Description,
	}

	if err := sc.DB.Create(&sequence).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create sequence", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(sequence))
}

// GetSequences lists sequences with their steps
func (sc *SequenceController) GetSequences(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var sequences []models.Sequence
	if err := sc.DB.Where("user_id = ?", user.ID).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_steps.step_order ASC")
		}).
		Preload("Steps.Template").
		Find(&sequences).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch sequences", err)
	}

	return c.JSON(utils.SuccessResponse(sequences))
}

// GetSequence returns one sequence with ordered steps
func (sc *SequenceController) GetSequence(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var sequence models.Sequence
	if err := sc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_steps.step_order ASC")
		}).
		Preload("Steps.Template").
		First(&sequence).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Sequence not found", nil)
	}

	return c.JSON(utils.SuccessResponse(sequence))
}

// AddStep appends a step to the sequence. Step orders are monotonic but not
// necessarily contiguous; the next order is max + 1.
func (sc *SequenceController) AddStep(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var sequence models.Sequence
	if err := sc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&sequence).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Sequence not found", nil)
	}

	var input struct {
		TemplateID uint   `json:"template_id" validate:"required"`
		SendTime   string `json:"send_time" validate:"required,datetime=15:04:05"`
		TimeLabel  string `json:"time_label" validate:"omitempty,max=50"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var template models.Template
	if err := sc.DB.Where("id = ? AND user_id = ?", input.TemplateID, user.ID).First(&template).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	var maxOrder *int
	sc.DB.Model(&models.SequenceStep{}).
		Where("sequence_id = ?", sequence.ID).
		Select("MAX(step_order)").Scan(&maxOrder)
	nextOrder := 1
	if maxOrder != nil {
		nextOrder = *maxOrder + 1
	}

	step := models.SequenceStep{
		SequenceID: sequence.ID,
		TemplateID: input.TemplateID,
		StepOrder:  nextOrder,
		SendTime:   input.SendTime,
		TimeLabel:  input.TimeLabel,
	}

	if err := sc.DB.Create(&step).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create step", err)
	}
	sc.touch(sequence.ID)

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(step))
}

// UpdateStep edits a step's template, time or label
func (sc *SequenceController) UpdateStep(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var step models.SequenceStep
	if err := sc.DB.Joins("JOIN sequences ON sequences.id = sequence_steps.sequence_id").
		Where("sequence_steps.id = ? AND sequences.user_id = ?", c.Params("stepId"), user.ID).
		First(&step).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Step not found", nil)
	}

	var input struct {
		TemplateID *uint   `json:"template_id"`
		SendTime   *string `json:"send_time" validate:"omitempty,datetime=15:04:05"`
		TimeLabel  *string `json:"time_label" validate:"omitempty,max=50"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if input.TemplateID != nil {
		var template models.Template
		if err := sc.DB.Where("id = ? AND user_id = ?", *input.TemplateID, user.ID).First(&template).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
		}
		step.TemplateID = *input.TemplateID
	}
	if input.SendTime != nil {
		step.SendTime = *input.SendTime
	}
	if input.TimeLabel != nil {
		step.TimeLabel = *input.TimeLabel
	}

	if err := sc.DB.Save(&step).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update step", err)
	}
	sc.touch(step.SequenceID)

	return c.JSON(utils.SuccessResponse(step))
}

// DeleteStep removes a step from a sequence
func (sc *SequenceController) DeleteStep(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var step models.SequenceStep
	if err := sc.DB.Joins("JOIN sequences ON sequences.id = sequence_steps.sequence_id").
		Where("sequence_steps.id = ? AND sequences.user_id = ?", c.Params("stepId"), user.ID).
		First(&step).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Step not found", nil)
	}

	if err := sc.DB.Delete(&step).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete step", err)
	}
	sc.touch(step.SequenceID)

	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Step deleted"}))
}

// DeleteSequence removes a sequence, its steps and any tag references
func (sc *SequenceController) DeleteSequence(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var sequence models.Sequence
	if err := sc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&sequence).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Sequence not found", nil)
	}

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Tag{}).
			Where("sequence_id = ?", sequence.ID).
			Update("sequence_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("sequence_id = ?", sequence.ID).Delete(&models.SequenceStep{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sequence).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete sequence", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Sequence deleted"}))
}

// touch updates UpdatedAt so list views resort correctly after step edits
func (sc *SequenceController) touch(sequenceID uint) {
	sc.DB.Model(&models.Sequence{}).Where("id = ?", sequenceID).
		Update("updated_at", time.Now())
}
