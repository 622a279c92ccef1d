package models

import (
	"time"

	"gorm.io/gorm"
)

// Message lifecycle statuses. The dispatcher owns pending→sending→sent/failed;
// an operator cancel is only valid from pending.
const (
	StatusPending   = "pending"
	StatusSending   = "sending"
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Message types
const (
	MessageTypeSequence = "sequence"
	MessageTypeAdHoc    = "adhoc"
)

// ScheduledMessage is one materialized message for one destination group,
// either a sequence run slot (step × group) or an ad-hoc send-now record.
type ScheduledMessage struct {
	gorm.Model
	WorkshopID uint  `gorm:"not null;index" json:"workshop_id"`
	GroupID    uint  `gorm:"not null;index" json:"group_id"`
	StepID     *uint `gorm:"index" json:"step_id,omitempty"` // nil for ad-hoc sends

	MessageType    string  `gorm:"not null;default:'sequence'" json:"message_type"`
	MessageContent string  `gorm:"type:text;not null" json:"message_content"`
	MediaURL       *string `json:"media_url,omitempty"`

	ScheduledFor time.Time  `gorm:"not null;index" json:"scheduled_for"`
	Status       string     `gorm:"not null;default:'pending';index" json:"status"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	RetryCount   int        `gorm:"default:0" json:"retry_count"`

	// Gateway-side message id once delivered
	ExternalID *string `json:"external_id,omitempty"`

	// Relations
	Workshop Workshop      `json:"-"`
	Group    WhatsAppGroup `json:"-"`
}
