package controller

import (
	"strings"
	"time"

	"wanotify/config"
	"wanotify/models"
	"wanotify/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a new operator account
func Register(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Name     string `json:"name" validate:"omitempty,max=100"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	email := strings.ToLower(input.Email)

	var existing models.User
	if err := config.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Email already registered", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to hash password", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if input.Name != "" {
		user.Name = &input.Name
	}

	if err := config.DB.Create(&user).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create user", err)
	}

	access, refresh, err := issueTokens(&user)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to issue tokens", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
	}))
}

// Login authenticates an operator and returns a token pair
func Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var user models.User
	if err := config.DB.Where("email = ?", strings.ToLower(input.Email)).First(&user).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	}

	if !user.IsActive {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Account is not active", nil)
	}

	access, refresh, err := issueTokens(&user)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to issue tokens", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
	}))
}

// RefreshToken exchanges a valid refresh token for a new pair
func RefreshToken(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	var stored models.RefreshToken
	if err := config.DB.Where("token = ? AND revoked = ?", input.RefreshToken, false).First(&stored).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", nil)
	}
	if time.Now().After(stored.ExpiresAt) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Refresh token expired", nil)
	}

	access, refresh, err := utils.RefreshTokens(input.RefreshToken)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", err)
	}

	// Rotate: revoke the old token, persist the new one
	config.DB.Model(&stored).Update("revoked", true)
	config.DB.Create(&models.RefreshToken{
		UserID:    stored.UserID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	})

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
	}))
}

// Logout revokes all refresh tokens for the current user
func Logout(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if err := config.DB.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", user.ID, false).
		Update("revoked", true).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to logout", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Logged out"}))
}

// GetCurrentUser returns the authenticated operator
func GetCurrentUser(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return c.JSON(utils.SuccessResponse(user))
}

func issueTokens(user *models.User) (string, string, error) {
	access, refresh, err := utils.GenerateJWTToken(user)
	if err != nil {
		return "", "", err
	}

	if err := config.DB.Create(&models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}).Error; err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
