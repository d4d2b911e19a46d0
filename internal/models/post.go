package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a community submission. CommunityName is empty for site-wide
// (profile) posts.
type Post struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	AuthorID       string `gorm:"not null;index" json:"author_id"`
	AuthorUsername string `gorm:"not null;index" json:"author_username"`
	CommunityName  string `gorm:"index" json:"community_name,omitempty"`

	Title string `gorm:"not null" json:"title"`
	Body  string `gorm:"type:text" json:"body"`
	Kind  string `gorm:"default:text" json:"kind"` // text, link, image

	// Cached counters
	UpvoteCount   int `gorm:"default:0" json:"upvote_count"`
	DownvoteCount int `gorm:"default:0" json:"downvote_count"`
	CommentCount  int `gorm:"default:0" json:"comment_count"`

	Moderation          ModeratorDetails          `gorm:"embedded;embeddedPrefix:mod_" json:"moderator_details"`
	CommunityModeration CommunityModeratorDetails `gorm:"embedded;embeddedPrefix:cmod_" json:"community_moderator_details"`

	// GORM fields
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ModeratedItem is the capability shared by Post and Comment: both carry the
// same two moderation blocks and go through identical transitions, so the
// moderation engine works against this interface instead of duplicating
// logic per kind.
type ModeratedItem interface {
	ItemID() string
	ItemKind() string
	// ItemLabel is the capitalized kind used in user-facing messages.
	ItemLabel() string
	ItemAuthorID() string
	ItemAuthorUsername() string
	ItemCommunityName() string
	ItemBody() string
	Mod() *ModeratorDetails
	CommunityMod() *CommunityModeratorDetails
}

func (p *Post) ItemID() string                           { return p.ID }
func (p *Post) ItemKind() string                         { return "post" }
func (p *Post) ItemLabel() string                        { return "Post" }
func (p *Post) ItemAuthorID() string                     { return p.AuthorID }
func (p *Post) ItemAuthorUsername() string               { return p.AuthorUsername }
func (p *Post) ItemCommunityName() string                { return p.CommunityName }
func (p *Post) ItemBody() string                         { return p.Body }
func (p *Post) Mod() *ModeratorDetails                   { return &p.Moderation }
func (p *Post) CommunityMod() *CommunityModeratorDetails { return &p.CommunityModeration }

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}
