package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reply on a post. It carries the same two moderation blocks as
// Post and moves through the same transitions.
type Comment struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	PostID         string  `gorm:"not null;index" json:"post_id"`
	ParentID       *string `gorm:"index" json:"parent_id,omitempty"`
	AuthorID       string  `gorm:"not null;index" json:"author_id"`
	AuthorUsername string  `gorm:"not null;index" json:"author_username"`
	CommunityName  string  `gorm:"index" json:"community_name,omitempty"`

	Body string `gorm:"type:text;not null" json:"body"`

	UpvoteCount   int `gorm:"default:0" json:"upvote_count"`
	DownvoteCount int `gorm:"default:0" json:"downvote_count"`

	Moderation          ModeratorDetails          `gorm:"embedded;embeddedPrefix:mod_" json:"moderator_details"`
	CommunityModeration CommunityModeratorDetails `gorm:"embedded;embeddedPrefix:cmod_" json:"community_moderator_details"`

	// GORM fields
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Comment) ItemID() string                           { return c.ID }
func (c *Comment) ItemKind() string                         { return "comment" }
func (c *Comment) ItemLabel() string                        { return "Comment" }
func (c *Comment) ItemAuthorID() string                     { return c.AuthorID }
func (c *Comment) ItemAuthorUsername() string               { return c.AuthorUsername }
func (c *Comment) ItemCommunityName() string                { return c.CommunityName }
func (c *Comment) ItemBody() string                         { return c.Body }
func (c *Comment) Mod() *ModeratorDetails                   { return &c.Moderation }
func (c *Comment) CommunityMod() *CommunityModeratorDetails { return &c.CommunityModeration }

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}
