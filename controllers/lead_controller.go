package controller

import (
	"log"
	"strconv"
	"strings"

	"wanotify/models"
	"wanotify/utils"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LeadController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewLeadController(db *gorm.DB, logger *log.Logger) *LeadController {
	return &LeadController{
		DB:     db,
		Logger: logger,
	}
}

// CreateLead creates a new lead with validation
func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Name       string `json:"name" validate:"required,max=100"`
		Phone      string `json:"phone" validate:"required,e164"`
		Email      string `json:"email" validate:"omitempty,email"`
		WorkshopID *uint  `json:"workshop_id"`
		Source     string `json:"source" validate:"omitempty,max=50"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if input.Email != "" {
		if err := checkmail.ValidateFormat(input.Email); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", err)
		}
	}

	if input.WorkshopID != nil {
		var workshop models.Workshop
		if err := lc.DB.Where("id = ? AND user_id = ?", *input.WorkshopID, user.ID).First(&workshop).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Workshop not found", nil)
		}
	}

	// One phone number is one lead
	var existing models.Lead
	if err := lc.DB.Where("phone = ? AND user_id = ?", input.Phone, user.ID).First(&existing).Error; err == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Lead with this phone already exists", nil)
	}

	lead := models.Lead{
		UserID:     user.ID,
		WorkshopID: input.WorkshopID,
		Name:       input.Name,
		Phone:      input.Phone,
		Email:      strings.ToLower(input.Email),
		Source:     input.Source,
	}

	if err := lc.DB.Create(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create lead", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(lead))
}

// GetLeads returns paginated leads with filters
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	query := lc.DB.Where("user_id = ?", user.ID)
	if workshopID := c.Query("workshop_id"); workshopID != "" {
		query = query.Where("workshop_id = ?", workshopID)
	}
	if phone := c.Query("phone"); phone != "" {
		query = query.Where("phone LIKE ?", "%"+phone+"%")
	}
	if converted := c.Query("converted"); converted != "" {
		query = query.Where("is_converted = ?", converted == "true")
	}

	var total int64
	query.Model(&models.Lead{}).Count(&total)

	var leads []models.Lead
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&leads).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch leads", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  leads,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetLead returns one lead
func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var lead models.Lead
	if err := lc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	return c.JSON(utils.SuccessResponse(lead))
}

// UpdateLead updates lead fields
func (lc *LeadController) UpdateLead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var lead models.Lead
	if err := lc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	var input struct {
		Name           *string `json:"name" validate:"omitempty,max=100"`
		Phone          *string `json:"phone" validate:"omitempty,e164"`
		Email          *string `json:"email" validate:"omitempty,email"`
		WorkshopID     *uint   `json:"workshop_id"`
		IsConverted    *bool   `json:"is_converted"`
		IsDoNotContact *bool   `json:"is_do_not_contact"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if input.Name != nil {
		lead.Name = *input.Name
	}
	if input.Phone != nil {
		lead.Phone = *input.Phone
	}
	if input.Email != nil {
		lead.Email = strings.ToLower(*input.Email)
	}
	if input.WorkshopID != nil {
		lead.WorkshopID = input.WorkshopID
	}
	if input.IsConverted != nil {
		lead.IsConverted = *input.IsConverted
	}
	if input.IsDoNotContact != nil {
		lead.IsDoNotContact = *input.IsDoNotContact
	}

	if err := lc.DB.Save(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update lead", err)
	}

	return c.JSON(utils.SuccessResponse(lead))
}

// DeleteLead removes a lead
func (lc *LeadController) DeleteLead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var lead models.Lead
	if err := lc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	if err := lc.DB.Delete(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete lead", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Lead deleted"}))
}
