package controller

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"wanotify/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSessionStatusRoute(t *testing.T) {
	// Stub gateway that records the session id it was asked about
	var askedPath string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		askedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"session_id": "primary",
			"connected":  true,
		})
	}))
	defer gateway.Close()

	gc := &GroupController{
		WhatsApp: &utils.WhatsAppClient{
			BaseURL: gateway.URL,
			Token:   "test-token",
			HTTP:    &http.Client{Timeout: 5 * time.Second},
			Logger:  logrus.New(),
		},
		Logger: log.New(os.Stdout, "GROUP: ", log.LstdFlags),
	}

	app := fiber.New()
	app.Get("/api/v1/groups/session-status/:sessionId", gc.GetSessionStatus)

	t.Run("SessionIDReachesGateway", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/session-status/primary", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "/api/sessions/primary", askedPath)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var payload struct {
			Success bool `json:"success"`
			Data    struct {
				SessionID string `json:"session_id"`
				Connected bool   `json:"connected"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.True(t, payload.Success)
		assert.Equal(t, "primary", payload.Data.SessionID)
		assert.True(t, payload.Data.Connected)
	})
}
