package models

import (
	"time"

	"gorm.io/gorm"
)

// Workshop represents a scheduled workshop or webinar
type Workshop struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	StartAt     time.Time `gorm:"not null" json:"start_at"`

	// Outreach wiring
	TagID             *uint   `gorm:"index" json:"tag_id,omitempty"`
	WhatsAppSessionID *string `json:"whatsapp_session_id,omitempty"`

	// Relations
	Tag       *Tag              `json:"tag,omitempty"`
	Groups    []WhatsAppGroup   `gorm:"many2many:workshop_groups;" json:"groups,omitempty"`
	Variables []WorkshopVariable `gorm:"foreignKey:WorkshopID" json:"variables,omitempty"`
	Messages  []ScheduledMessage `gorm:"foreignKey:WorkshopID" json:"messages,omitempty"`
}

// WhatsAppGroup represents a destination WhatsApp group known to the gateway
type WhatsAppGroup struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name        string `gorm:"not null" json:"name"`
	ExternalID  string `gorm:"not null;index" json:"external_id"` // gateway-side JID
	MemberCount int    `gorm:"default:0" json:"member_count"`
	IsCommunity bool   `gorm:"default:false" json:"is_community"`
}

// WorkshopGroup joins workshops to their linked destination groups
type WorkshopGroup struct {
	WorkshopID      uint `gorm:"primaryKey" json:"workshop_id"`
	WhatsAppGroupID uint `gorm:"primaryKey" json:"whats_app_group_id"`
}

// WorkshopVariable is an operator-supplied template value scoped to one
// workshop. The same key in another workshop is an independent value.
type WorkshopVariable struct {
	gorm.Model
	WorkshopID uint   `gorm:"not null;uniqueIndex:idx_workshop_variable_key" json:"workshop_id"`
	Key        string `gorm:"not null;uniqueIndex:idx_workshop_variable_key" json:"key"`
	Value      string `gorm:"not null" json:"value"`
}
