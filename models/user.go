package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an operator account in the system
type User struct {
	gorm.Model

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Profile information
	Name     *string `json:"name,omitempty"`
	Timezone string  `gorm:"default:'UTC'" json:"timezone"`

	// Account status
	IsActive bool   `gorm:"default:true" json:"is_active"`
	Role     string `gorm:"default:'manager'" json:"role"` // manager, admin

	// Relations
	Workshops []Workshop `gorm:"foreignKey:UserID" json:"workshops,omitempty"`
	Leads     []Lead     `gorm:"foreignKey:UserID" json:"leads,omitempty"`
	Templates []Template `gorm:"foreignKey:UserID" json:"templates,omitempty"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// RefreshToken stores issued refresh tokens so they can be revoked
type RefreshToken struct {
	gorm.Model
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`

	// Relations
	User User `json:"-"`
}
