package models

import (
	"time"
)

// User is a registered portal member.
type User struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	Name           string  `gorm:"not null" json:"name"`
	Email          string  `gorm:"uniqueIndex;not null" json:"email"`
	Password       string  `gorm:"not null" json:"-"`
	Country        string  `gorm:"size:2;not null" json:"country"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
	IsVerified     bool    `gorm:"default:false" json:"is_verified"`
	IsAdmin        bool    `gorm:"default:false" json:"is_admin"`

	VerificationCode      *string    `gorm:"size:6" json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	ResetToken            *string    `json:"-"`
	ResetTokenExpiresAt   *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Posts        []Post         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Reactions    []PostReaction `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Comments     []Comment      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ServerGrants []ServerGrant  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Feedback     []Feedback     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// PublicAuthor is the trimmed user view attached to public listings.
type PublicAuthor struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}
