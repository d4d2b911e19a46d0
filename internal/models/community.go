package models

import (
	"time"

	"gorm.io/gorm"
)

// Community is a user-created space with its own moderators, bans and
// removal reasons.
type Community struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Title       string `json:"title"`
	Description string `gorm:"type:text" json:"description"`
	CreatorID   string `gorm:"not null;index" json:"creator_id"`

	MemberCount int `gorm:"default:0" json:"member_count"`

	RemovalReasons []RemovalReason      `gorm:"foreignKey:CommunityID" json:"removal_reasons,omitempty"`
	Moderators     []CommunityModerator `gorm:"foreignKey:CommunityID" json:"moderators,omitempty"`
	BannedUsers    []CommunityBan       `gorm:"foreignKey:CommunityID" json:"banned_users,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// RemovalReason is a community-declared reason moderators pick from when
// removing or spamming an item. Transitions that carry a reason are rejected
// unless the reason title is declared here.
type RemovalReason struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	CommunityID string `gorm:"not null;index" json:"community_id"`
	Title       string `gorm:"not null" json:"removal_reason_title"`
	Message     string `gorm:"type:text" json:"removal_reason_message"`

	CreatedAt time.Time `json:"created_at"`
}

// CommunityModerator grants a user moderation rights in one community.
type CommunityModerator struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	CommunityID string `gorm:"not null;index;uniqueIndex:idx_community_moderators_unique" json:"community_id"`
	UserID      string `gorm:"not null;index;uniqueIndex:idx_community_moderators_unique" json:"user_id"`
	Role        string `gorm:"default:moderator" json:"role"` // creator, moderator

	CreatedAt time.Time `json:"created_at"`
}

// CommunityBan records a user banned from a community.
type CommunityBan struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	CommunityID string `gorm:"not null;index;uniqueIndex:idx_community_bans_unique" json:"community_id"`
	UserID      string `gorm:"not null;index;uniqueIndex:idx_community_bans_unique" json:"user_id"`
	Reason      string `json:"reason"`
	BannedBy    string `json:"banned_by"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *Community) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (r *RemovalReason) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}

func (m *CommunityModerator) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

func (b *CommunityBan) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = generateUUID()
	}
	return nil
}
