package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a Subcircle account with native auth
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`

	// Native auth fields
	PasswordHash  *string `gorm:"type:text" json:"-"`
	EmailVerified bool    `gorm:"default:false" json:"email_verified"`

	// Site-wide admin flag; community-level moderation rights live in
	// CommunityModerator rows.
	IsAdmin bool `gorm:"default:false" json:"is_admin"`

	AvatarURL string `json:"avatar_url"`

	// Cached counters
	PostCount  int `gorm:"default:0" json:"post_count"`
	KarmaCount int `gorm:"default:0" json:"karma_count"`

	LastActiveAt *time.Time `json:"last_active_at"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PostVote records a user's vote on a post. Value is +1 or -1; a missing row
// means "none". The queue engine reads these to annotate posts with the
// requesting user's vote.
type PostVote struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_post_votes_user_post" json:"user_id"`
	PostID string `gorm:"not null;index;uniqueIndex:idx_post_votes_user_post" json:"post_id"`
	Value  int    `gorm:"not null" json:"value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Vote annotation values returned on queue and feed posts.
const (
	VoteUp   = "up"
	VoteDown = "down"
	VoteNone = "none"
)

func generateUUID() string {
	return uuid.New().String()
}

// BeforeCreate hooks for GORM
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (v *PostVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = generateUUID()
	}
	return nil
}
