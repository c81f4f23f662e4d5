// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Reaction types accepted on posts.
const (
	ReactionLike  = "like"
	ReactionLove  = "love"
	ReactionLaugh = "laugh"
	ReactionCry   = "cry"
)

// IsValidReactionType reports whether t is one of the supported reactions.
func IsValidReactionType(t string) bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionLaugh, ReactionCry:
		return true
	}
	return false
}

// Post is a feed entry. Files, reactions and comments are removed with it.
type Post struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id,omitempty"`
	User        *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content     string `gorm:"type:text;not null" json:"content"`
	IsAnonymous bool   `gorm:"default:false" json:"is_anonymous"`

	Files     []PostFile     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"files"`
	Reactions []PostReaction `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"reactions"`
	Comments  []Comment      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedactFor hides the author of an anonymous post from everyone but the author.
func (p *Post) RedactFor(viewerID uint) {
	if !p.IsAnonymous || p.UserID == viewerID {
		return
	}
	p.UserID = 0
	p.User = nil
}

// PostFile is an attachment stored alongside a post.
type PostFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PostID       uint      `gorm:"not null;index" json:"post_id"`
	Filename     string    `gorm:"not null" json:"filename"`
	OriginalName string    `gorm:"not null" json:"original_name"`
	MimeType     string    `gorm:"not null" json:"mime_type"`
	Size         int64     `gorm:"not null" json:"size"`
	URL          string    `gorm:"not null" json:"url"`
	CreatedAt    time.Time `json:"created_at"`
}

// PostReaction is unique per (post, user, type).
type PostReaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_reaction_post_user_type" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reaction_post_user_type" json:"user_id"`
	Type      string    `gorm:"size:10;not null;uniqueIndex:idx_reaction_post_user_type" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a reply on a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
