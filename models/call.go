package models

import (
	"time"

	"gorm.io/gorm"
)

// Call campaign statuses reported by the voice provider
const (
	CallCampaignDraft     = "draft"
	CallCampaignRunning   = "running"
	CallCampaignCompleted = "completed"
	CallCampaignFailed    = "failed"
)

// CallCampaign is a voice-calling outreach run for one workshop. UpdatedAt is
// the reconciliation key when a provider webhook and a local read disagree.
type CallCampaign struct {
	gorm.Model
	UserID     uint `gorm:"not null;index" json:"user_id"`
	WorkshopID uint `gorm:"not null;index" json:"workshop_id"`

	Name    string `gorm:"not null" json:"name"`
	Status  string `gorm:"not null;default:'draft'" json:"status"`
	AgentID string `json:"agent_id"`

	// Provider-side campaign id
	ExternalID *string `gorm:"index" json:"external_id,omitempty"`

	// Denormalized progress counters
	TotalCalls     int `gorm:"default:0" json:"total_calls"`
	CompletedCalls int `gorm:"default:0" json:"completed_calls"`
	FailedCalls    int `gorm:"default:0" json:"failed_calls"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Relations
	Workshop Workshop     `json:"-"`
	Records  []CallRecord `gorm:"foreignKey:CampaignID" json:"records,omitempty"`
}

// CallRecord is one dialed lead within a call campaign
type CallRecord struct {
	gorm.Model
	CampaignID uint `gorm:"not null;index" json:"campaign_id"`
	LeadID     uint `gorm:"not null;index" json:"lead_id"`

	Status       string     `gorm:"not null;default:'pending'" json:"status"` // pending, ringing, completed, failed
	DurationSecs int        `gorm:"default:0" json:"duration_secs"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CalledAt     *time.Time `json:"called_at,omitempty"`

	// Relations
	Lead Lead `json:"-"`
}
