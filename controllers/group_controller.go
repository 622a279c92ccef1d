package controller

import (
	"log"

	"wanotify/models"
	"wanotify/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type GroupController struct {
	DB       *gorm.DB
	WhatsApp *utils.WhatsAppClient
	Logger   *log.Logger
}

func NewGroupController(db *gorm.DB, wa *utils.WhatsAppClient, logger *log.Logger) *GroupController {
	return &GroupController{
		DB:       db,
		WhatsApp: wa,
		Logger:   logger,
	}
}

// GetGroups lists the user's known destination groups
func (gc *GroupController) GetGroups(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var groups []models.WhatsAppGroup
	if err := gc.DB.Where("user_id = ?", user.ID).Order("name").Find(&groups).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch groups", err)
	}

	return c.JSON(utils.SuccessResponse(groups))
}

// SyncGroups pulls the group list from the gateway session and upserts the
// local table by external id.
func (gc *GroupController) SyncGroups(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		SessionID string `json:"session_id" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	remote, err := gc.WhatsApp.ListGroups(c.Context(), input.SessionID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to fetch groups from gateway", err)
	}

	synced := 0
	for _, rg := range remote {
		var group models.WhatsAppGroup
		err := gc.DB.Where("user_id = ? AND external_id = ?", user.ID, rg.ID).First(&group).Error
		if err == gorm.ErrRecordNotFound {
			group = models.WhatsAppGroup{
				UserID:      user.ID,
				Name:        rg.Name,
				ExternalID:  rg.ID,
				MemberCount: rg.MemberCount,
				IsCommunity: rg.IsCommunity,
			}
			if err := gc.DB.Create(&group).Error; err != nil {
				gc.Logger.Printf("Failed to create group %s: %v", rg.ID, err)
				continue
			}
			synced++
			continue
		}
		if err != nil {
			gc.Logger.Printf("Failed to look up group %s: %v", rg.ID, err)
			continue
		}
		group.Name = rg.Name
		group.MemberCount = rg.MemberCount
		if err := gc.DB.Save(&group).Error; err != nil {
			gc.Logger.Printf("Failed to update group %s: %v", rg.ID, err)
			continue
		}
		synced++
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"synced": synced, "remote_total": len(remote)}))
}

// CreateCommunity creates a community on the gateway and registers it locally
func (gc *GroupController) CreateCommunity(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		SessionID string `json:"session_id" validate:"required"`
		Name      string `json:"name" validate:"required,max=100"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	externalID, err := gc.WhatsApp.CreateCommunity(c.Context(), input.SessionID, input.Name)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to create community", err)
	}

	group := models.WhatsAppGroup{
		UserID:      user.ID,
		Name:        input.Name,
		ExternalID:  externalID,
		IsCommunity: true,
	}
	if err := gc.DB.Create(&group).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save community", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(group))
}

// GetSessionStatus reports whether a gateway session is connected
func (gc *GroupController) GetSessionStatus(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Session id is required", nil)
	}

	connected, err := gc.WhatsApp.SessionStatus(c.Context(), sessionID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to reach gateway", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"session_id": sessionID,
		"connected":  connected,
	}))
}

// DeleteGroup removes a local group registration
func (gc *GroupController) DeleteGroup(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var group models.WhatsAppGroup
	if err := gc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&group).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Group not found", nil)
	}

	if err := gc.DB.Delete(&group).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete group", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Group deleted"}))
}
