package models

import "time"

// Feedback is a rated note left by a member.
type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Rating    int       `gorm:"not null" json:"rating"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsPublic  bool      `gorm:"not null;index" json:"is_public"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName keeps the historical singular table name.
func (Feedback) TableName() string { return "feedback" }

// PublicFeedback is what the public board shows.
type PublicFeedback struct {
	ID        uint          `json:"id"`
	Rating    int           `json:"rating"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
	Author    *PublicAuthor `json:"author,omitempty"`
}
