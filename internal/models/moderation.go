package models

import (
	"time"

	"gorm.io/gorm"
)

// Moderation states recorded in the transition log and mirrored onto the
// item's flag columns.
const (
	StateApproved = "approved"
	StateRemoved  = "removed"
	StateSpammed  = "spammed"
	StateReported = "reported"
)

// ModeratorDetails is the site-wide moderation block embedded in Post and
// Comment. State is kept as independent flags with timestamps so queue
// queries can distinguish the path an item took (e.g. approved-then-removed
// vs removed outright) by comparing dates. At most one flag represents the
// current state; earlier flags stay set as history.
type ModeratorDetails struct {
	ApprovedFlag bool       `gorm:"default:false;index" json:"approved_flag"`
	ApprovedBy   string     `json:"approved_by,omitempty"`
	ApprovedDate *time.Time `json:"approved_date,omitempty"`

	RemovedFlag          bool       `gorm:"default:false;index" json:"removed_flag"`
	RemovedBy            string     `json:"removed_by,omitempty"`
	RemovedDate          *time.Time `json:"removed_date,omitempty"`
	RemovedRemovalReason string     `json:"removed_removal_reason,omitempty"`

	SpammedFlag          bool       `gorm:"default:false;index" json:"spammed_flag"`
	SpammedBy            string     `json:"spammed_by,omitempty"`
	SpammedDate          *time.Time `json:"spammed_date,omitempty"`
	SpammedRemovalReason string     `json:"spammed_removal_reason,omitempty"`

	ReportedFlag bool       `gorm:"default:false;index" json:"reported_flag"`
	ReportedBy   string     `json:"reported_by,omitempty"`
	ReportedDate *time.Time `json:"reported_date,omitempty"`
}

// ObjectionSlot holds one community-level objection (reported, spammed or
// removed). Confirmed distinguishes "objection raised" from "objection
// adjudicated by a moderator".
type ObjectionSlot struct {
	Flag      bool       `gorm:"default:false" json:"flag"`
	By        string     `json:"by,omitempty"`
	Type      string     `json:"type,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
	Confirmed bool       `gorm:"default:false" json:"confirmed"`
}

// CommunityModeratorDetails is the community-level moderation block,
// independent from the site-wide ModeratorDetails. It carries the
// unmoderated-item workflow, the three objection slots and the edit
// sub-workflow projection. Full edit history lives in EditHistoryEntry rows.
type CommunityModeratorDetails struct {
	UnmoderatedApprovedFlag bool       `gorm:"default:false" json:"unmoderated_approved_flag"`
	UnmoderatedApprovedBy   string     `json:"unmoderated_approved_by,omitempty"`
	UnmoderatedApprovedDate *time.Time `json:"unmoderated_approved_date,omitempty"`

	UnmoderatedRemovedFlag bool       `gorm:"default:false" json:"unmoderated_removed_flag"`
	UnmoderatedRemovedBy   string     `json:"unmoderated_removed_by,omitempty"`
	UnmoderatedRemovedDate *time.Time `json:"unmoderated_removed_date,omitempty"`

	// Once true the unmoderated workflow is closed for this item.
	AnyActionTaken bool `gorm:"default:false" json:"any_action_taken"`

	Reported ObjectionSlot `gorm:"embedded;embeddedPrefix:reported_" json:"reported"`
	Spammed  ObjectionSlot `gorm:"embedded;embeddedPrefix:spammed_" json:"spammed"`
	Removed  ObjectionSlot `gorm:"embedded;embeddedPrefix:removed_" json:"removed"`

	// True while the latest edit-history entry is un-adjudicated. Kept as a
	// column so the "edited" queue stays a plain predicate.
	PendingEdit  bool       `gorm:"default:false;index" json:"pending_edit"`
	LastEditedAt *time.Time `json:"last_edited_at,omitempty"`
}

// Objection returns the slot for an objection type, or nil for an unknown
// type.
func (d *CommunityModeratorDetails) Objection(objectionType string) *ObjectionSlot {
	switch objectionType {
	case StateReported:
		return &d.Reported
	case StateSpammed:
		return &d.Spammed
	case StateRemoved:
		return &d.Removed
	}
	return nil
}

// HasOpenObjection reports whether any objection slot has been raised.
func (d *CommunityModeratorDetails) HasOpenObjection() bool {
	return d.Reported.Flag || d.Spammed.Flag || d.Removed.Flag
}

// ModerationEvent is one entry of the append-only transition log. Events are
// written in the same transaction as the flag projection on the item; the
// latest event for an item is its current site-wide state.
type ModerationEvent struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	ItemKind string `gorm:"not null;index:idx_moderation_events_item" json:"item_kind"`
	ItemID   string `gorm:"not null;index:idx_moderation_events_item" json:"item_id"`
	State    string `gorm:"not null" json:"state"`
	Actor    string `gorm:"not null" json:"actor"`
	Reason   string `json:"reason,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// EditHistoryEntry is one element of an item's edit history. Only the latest
// entry per item is actionable; Body holds the content as of that edit.
type EditHistoryEntry struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	ItemKind string `gorm:"not null;index:idx_edit_history_item" json:"item_kind"`
	ItemID   string `gorm:"not null;index:idx_edit_history_item" json:"item_id"`
	Body     string `gorm:"type:text" json:"body"`

	EditedAt         time.Time `gorm:"not null;index" json:"edited_at"`
	ApprovedEditFlag bool      `gorm:"default:false" json:"approved_edit_flag"`
	RemovedEditFlag  bool      `gorm:"default:false" json:"removed_edit_flag"`
}

// Pending reports whether the entry still awaits adjudication.
func (e *EditHistoryEntry) Pending() bool {
	return !e.ApprovedEditFlag && !e.RemovedEditFlag
}

func (e *ModerationEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = generateUUID()
	}
	return nil
}

func (e *EditHistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = generateUUID()
	}
	return nil
}
