package models

import "gorm.io/gorm"

// Template represents a reusable message template. Content may contain
// {placeholder} variables substituted at scheduling time.
type Template struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name     string  `gorm:"not null" json:"name"`
	Content  string  `gorm:"type:text;not null" json:"content"`
	MediaURL *string `json:"media_url,omitempty"`
}

// Sequence represents an ordered notification sequence attached to a tag
type Sequence struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	// Relations
	Steps []SequenceStep `gorm:"foreignKey:SequenceID" json:"steps,omitempty"`
}

// SequenceStep represents one timed message in a sequence. StepOrder values
// are monotonic but not necessarily contiguous; the next order is max+1.
type SequenceStep struct {
	gorm.Model
	SequenceID uint `gorm:"not null;index" json:"sequence_id"`
	TemplateID uint `gorm:"not null;index" json:"template_id"`

	StepOrder int    `gorm:"not null" json:"step_order"`
	SendTime  string `gorm:"not null" json:"send_time"` // HH:MM:SS, no date
	TimeLabel string `json:"time_label"`

	// Relations
	Template Template `json:"template,omitempty"`
}

// Tag links a workshop to at most one sequence and colors it in the dashboard
type Tag struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name       string `gorm:"not null" json:"name"`
	Color      string `gorm:"default:'#25D366'" json:"color"`
	SequenceID *uint  `gorm:"index" json:"template_sequence_id,omitempty"`

	// Relations
	Sequence *Sequence `json:"sequence,omitempty"`
}
