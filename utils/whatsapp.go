package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wanotify/config"

	"github.com/sirupsen/logrus"
)

// WhatsAppClient talks to the WhatsApp gateway proxy that owns the actual
// sessions and groups. The dispatcher and controllers never touch the
// provider API directly.
type WhatsAppClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Logger  *logrus.Logger
}

func NewWhatsAppClient(cfg config.WhatsAppConfig, logger *logrus.Logger) *WhatsAppClient {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WhatsAppClient{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Logger:  logger,
	}
}

type waSendRequest struct {
	SessionID string `json:"session_id"`
	GroupID   string `json:"group_id"`
	Message   string `json:"message"`
	MediaURL  string `json:"media_url,omitempty"`
}

type waSendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// SendGroupMessage delivers one message to one group and returns the
// gateway-side message id.
func (wc *WhatsAppClient) SendGroupMessage(ctx context.Context, sessionID, groupExternalID, message string, mediaURL *string) (string, error) {
	payload := waSendRequest{
		SessionID: sessionID,
		GroupID:   groupExternalID,
		Message:   message,
	}
	if mediaURL != nil {
		payload.MediaURL = *mediaURL
	}

	var result waSendResponse
	if err := wc.post(ctx, "/api/messages/send", payload, &result); err != nil {
		return "", err
	}
	if !result.Success {
		return "", fmt.Errorf("gateway rejected message: %s", result.Error)
	}

	wc.Logger.WithFields(logrus.Fields{
		"group":      groupExternalID,
		"message_id": result.MessageID,
	}).Info("whatsapp message delivered")
	return result.MessageID, nil
}

type waSessionStatus struct {
	SessionID string `json:"session_id"`
	Connected bool   `json:"connected"`
	Phone     string `json:"phone"`
}

// SessionStatus reports whether a gateway session is connected
func (wc *WhatsAppClient) SessionStatus(ctx context.Context, sessionID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		wc.BaseURL+"/api/sessions/"+sessionID, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+wc.Token)

	resp, err := wc.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var status waSessionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false, err
	}
	return status.Connected, nil
}

type waGroup struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
	IsCommunity bool   `json:"is_community"`
}

// ListGroups fetches the groups visible to a session, used to sync the local
// WhatsAppGroup table.
func (wc *WhatsAppClient) ListGroups(ctx context.Context, sessionID string) ([]waGroup, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		wc.BaseURL+"/api/sessions/"+sessionID+"/groups", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+wc.Token)

	resp, err := wc.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var groups []waGroup
	if err := json.NewDecoder(resp.Body).Decode(&groups); err != nil {
		return nil, err
	}
	return groups, nil
}

type waCommunityRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

// CreateCommunity creates a community on the gateway and returns its id
func (wc *WhatsAppClient) CreateCommunity(ctx context.Context, sessionID, name string) (string, error) {
	var result struct {
		Success bool   `json:"success"`
		GroupID string `json:"group_id"`
		Error   string `json:"error"`
	}
	if err := wc.post(ctx, "/api/communities", waCommunityRequest{SessionID: sessionID, Name: name}, &result); err != nil {
		return "", err
	}
	if !result.Success {
		return "", fmt.Errorf("gateway rejected community: %s", result.Error)
	}
	return result.GroupID, nil
}

func (wc *WhatsAppClient) post(ctx context.Context, path string, payload, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wc.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+wc.Token)

	resp, err := wc.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
