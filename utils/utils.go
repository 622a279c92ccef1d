package utils

import (
	"fmt"
	"strconv"

	"wanotify/config"
	"wanotify/models"
	"wanotify/sequencer"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// GenerateRateLimitKey creates a unique key for rate limiting
func GenerateRateLimitKey(userID uint, resourceID, path string) string {
	return fmt.Sprintf("rl:%d:%s:%s", userID, resourceID, path)
}

// LogEvent logs a structured event
func LogEvent(eventType string, data map[string]interface{}) {
	logrus.WithFields(logrus.Fields(data)).Info(eventType)
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}

// EventContextFor builds the substitution context for a workshop in the
// organization timezone.
func EventContextFor(w *models.Workshop) sequencer.EventContext {
	return sequencer.EventContext{
		Name:     w.Title,
		StartAt:  w.StartAt,
		Location: config.OrgLocation,
	}
}

// ErrorResponse creates a standardized error response
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	response := fiber.Map{
		"success": false,
		"error":   message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	return c.Status(status).JSON(response)
}

// SuccessResponse creates a standardized success response
func SuccessResponse(data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"data":    data,
	}
}

// ParseUint safely parses a string to uint
func ParseUint(s string) uint {
	i, _ := strconv.ParseUint(s, 10, 32)
	return uint(i)
}

// PaginatedResponse structure for paginated results
type PaginatedResponse struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}
