package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification types emitted by the moderation workflows.
const (
	NotificationObjectionHandled = "objection_handled"
	NotificationEditApproved     = "edit_approved"
	NotificationEditRemoved      = "edit_removed"
	NotificationItemRemoved      = "item_removed"
)

// Notification is a stored (non-real-time) notification for a user.
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	Type   string `gorm:"not null" json:"type"`

	Message  string `gorm:"type:text" json:"message"`
	ItemKind string `json:"item_kind,omitempty"`
	ItemID   string `json:"item_id,omitempty"`

	Read bool `gorm:"default:false;index" json:"read"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}
