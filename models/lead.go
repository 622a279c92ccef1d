package models

import (
	"time"

	"gorm.io/gorm"
)

// Lead represents a registered attendee or prospect
type Lead struct {
	gorm.Model
	UserID     uint  `gorm:"not null;index" json:"user_id"`
	WorkshopID *uint `gorm:"index" json:"workshop_id,omitempty"`

	Name  string `gorm:"not null" json:"name"`
	Phone string `gorm:"not null;index" json:"phone"`
	Email string `gorm:"index" json:"email"`

	// Status
	IsConverted    bool       `gorm:"default:false" json:"is_converted"`
	IsDoNotContact bool       `gorm:"default:false" json:"is_do_not_contact"`
	LastContact    *time.Time `json:"last_contact,omitempty"`

	// Metadata
	Source string `json:"source"` // manual, form, api

	// Relations
	Workshop *Workshop `json:"-"`
}
