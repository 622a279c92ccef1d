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

// VoiceClient talks to the voice-calling provider that dials leads with an
// AI agent. Call outcomes come back through the provider webhook.
type VoiceClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Logger  *logrus.Logger
}

func NewVoiceClient(cfg config.VoiceConfig, logger *logrus.Logger) *VoiceClient {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &VoiceClient{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Logger:  logger,
	}
}

type voiceRecipient struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type voiceCampaignRequest struct {
	AgentID    string           `json:"agent_id"`
	Name       string           `json:"campaign_name"`
	Recipients []voiceRecipient `json:"recipients"`
}

type voiceCampaignResponse struct {
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status"`
	Error      string `json:"error"`
}

// StartCampaign dispatches a call campaign and returns the provider-side id
func (vc *VoiceClient) StartCampaign(ctx context.Context, agentID, name string, recipients map[string]string) (string, error) {
	payload := voiceCampaignRequest{AgentID: agentID, Name: name}
	for phone, leadName := range recipients {
		payload.Recipients = append(payload.Recipients, voiceRecipient{Name: leadName, Phone: phone})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, vc.BaseURL+"/campaigns", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+vc.APIKey)

	resp, err := vc.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("voice provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	var result voiceCampaignResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("voice provider returned status %d: %s", resp.StatusCode, result.Error)
	}

	vc.Logger.WithFields(logrus.Fields{
		"campaign_id": result.CampaignID,
		"recipients":  len(payload.Recipients),
	}).Info("voice campaign dispatched")
	return result.CampaignID, nil
}
