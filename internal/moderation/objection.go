package moderation

import (
	"context"
	"fmt"

	apperrors "github.com/subcircle/backend/internal/errors"
	"github.com/subcircle/backend/internal/logger"
	"github.com/subcircle/backend/internal/models"
	"gorm.io/gorm"
)

// validObjectionType reports whether t names one of the three objection
// slots.
func validObjectionType(t string) bool {
	return t == models.StateReported || t == models.StateSpammed || t == models.StateRemoved
}

func validAdjudication(action string) bool {
	return action == "approve" || action == "remove"
}

// pastTense turns an adjudication action into its past tense for messages
// ("approve" -> "approved").
func pastTense(action string) string {
	if action == "remove" {
		return "removed"
	}
	return action + "d"
}

// gerund turns an adjudication action into its -ing form for error messages.
func gerund(action string) string {
	switch action {
	case "approve":
		return "approving"
	case "remove":
		return "removing"
	}
	return action + "ing"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// ObjectItem raises a community-level objection (reported, spammed or
// removed) against a post or comment. An item with a pending edit cannot be
// objected to, and a slot that is already raised cannot be raised again.
func (s *Service) ObjectItem(ctx context.Context, itemID, itemType, objectionType, objectedBy, objectionValue, communityName string) (string, error) {
	if !validKind(itemType) {
		return "", apperrors.InvalidInput("Invalid item type, must be a post or a comment")
	}
	if !validObjectionType(objectionType) {
		return "", apperrors.InvalidInput("Invalid objection type, must be reported, spammed or removed")
	}

	// The objection value is a community removal reason for "removed" and a
	// site report reason for the other two.
	if objectionType == models.StateRemoved {
		ok, err := s.validRemovalReason(ctx, communityName, objectionValue)
		if err != nil {
			return "", apperrors.InternalError(err.Error())
		}
		if !ok {
			return "", apperrors.InvalidInput("Invalid objection type value, check the community removal reasons")
		}
	} else if !IsValidReportReason(objectionValue) {
		return "", apperrors.InvalidInput("Invalid objection type value, check the report reasons")
	}

	item, apiErr := s.loadItem(ctx, itemType, itemID)
	if apiErr != nil {
		return "", apiErr
	}
	label := item.ItemLabel()

	// An un-adjudicated edit blocks all objections until a moderator handles
	// it.
	if item.CommunityMod().PendingEdit {
		return "", apperrors.BadRequest(fmt.Sprintf("%s has been edited, no action taken on last edit, can't object", label))
	}

	if item.CommunityMod().Objection(objectionType).Flag {
		return "", apperrors.AlreadyInState(fmt.Sprintf("%s has already been %s", label, objectionType))
	}

	prefix := "cmod_" + objectionType + "_"
	updates := map[string]interface{}{
		prefix + "flag": true,
		prefix + "by":   objectedBy,
		prefix + "type": objectionValue,
		prefix + "date": s.now(),
	}
	if err := s.db.WithContext(ctx).Model(modelFor(itemType)).Where("id = ?", itemID).Updates(updates).Error; err != nil {
		return "", apperrors.InternalError(err.Error())
	}

	if s.metrics != nil {
		s.metrics.ModerationActionsTotal.WithLabelValues("object_"+objectionType, itemType).Inc()
	}
	return fmt.Sprintf("%s %s successfully", label, objectionType), nil
}

// EditItem replaces the item's body and appends a pending entry to its edit
// history. Only the author may edit, and an item with an open objection
// cannot be edited until a moderator resolves it.
func (s *Service) EditItem(ctx context.Context, itemID, itemType, newBody string, editor *models.User) (string, error) {
	if !validKind(itemType) {
		return "", apperrors.InvalidInput("Invalid item type, must be a post or a comment")
	}
	if editor == nil {
		return "", apperrors.Unauthorized("user not authenticated")
	}

	item, apiErr := s.loadItem(ctx, itemType, itemID)
	if apiErr != nil {
		return "", apiErr
	}
	label := item.ItemLabel()

	if item.ItemAuthorUsername() != editor.Username {
		return "", apperrors.Forbidden(fmt.Sprintf("Only the author can edit this %s", itemType))
	}

	if item.CommunityMod().HasOpenObjection() {
		return "", apperrors.BadRequest(fmt.Sprintf("%s has an objection, no action taken on objection, can't edit", label))
	}

	if newBody == "" {
		return "", apperrors.InvalidInput("Invalid content")
	}

	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := models.EditHistoryEntry{
			ItemKind: itemType,
			ItemID:   itemID,
			Body:     newBody,
			EditedAt: now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Model(modelFor(itemType)).Where("id = ?", itemID).Updates(map[string]interface{}{
			"body":                newBody,
			"cmod_pending_edit":   true,
			"cmod_last_edited_at": now,
		}).Error
	})
	if err != nil {
		return "", apperrors.InternalError(err.Error())
	}

	return fmt.Sprintf("%s edited successfully", label), nil
}

// HandleObjection lets a moderator adjudicate a raised objection: approve
// reverses it, remove enforces it. Either way the slot is confirmed and
// cannot be handled twice.
func (s *Service) HandleObjection(ctx context.Context, itemID, itemType, objectionType, action string) (string, error) {
	if !validKind(itemType) {
		return "", apperrors.InvalidInput("Invalid item type, must be a post or a comment")
	}
	if !validObjectionType(objectionType) {
		return "", apperrors.InvalidInput("Invalid objection type, must be reported, spammed or removed")
	}

	item, apiErr := s.loadItem(ctx, itemType, itemID)
	if apiErr != nil {
		return "", apiErr
	}

	slot := item.CommunityMod().Objection(objectionType)
	if !slot.Flag {
		return "", apperrors.BadRequest(fmt.Sprintf("No %s objection found for this %s", objectionType, itemType))
	}

	if !validAdjudication(action) {
		return "", apperrors.InvalidInput("Invalid action, must be approve or remove")
	}

	if slot.Confirmed {
		return "", apperrors.AlreadyInState(fmt.Sprintf("The objection %s cannot be %s because it has already been handled.", objectionType, pastTense(action)))
	}

	if err := s.db.WithContext(ctx).Model(modelFor(itemType)).Where("id = ?", itemID).
		Update("cmod_"+objectionType+"_confirmed", true).Error; err != nil {
		return "", apperrors.InternalError(err.Error())
	}

	s.notifyAuthor(ctx, item, models.NotificationObjectionHandled,
		fmt.Sprintf("The %s objection on your %s was %s by a moderator", objectionType, itemType, pastTense(action)))

	if s.metrics != nil {
		s.metrics.ModerationActionsTotal.WithLabelValues("handle_objection_"+action, itemType).Inc()
	}
	return fmt.Sprintf("%s objection %s successfully", capitalize(objectionType), pastTense(action)), nil
}

// HandleEdit lets a moderator adjudicate the latest edit-history entry.
// Approving or removing an edit closes the unmoderated workflow for the
// item. The item is persisted with a full save, mirroring the reference.
func (s *Service) HandleEdit(ctx context.Context, itemID, itemType, action string) (string, error) {
	if !validKind(itemType) {
		return "", apperrors.InvalidInput("Invalid item type, must be a post or a comment")
	}

	item, apiErr := s.loadItem(ctx, itemType, itemID)
	if apiErr != nil {
		if apiErr.Code == apperrors.ErrNotFound {
			return "", apperrors.NotFound("Item")
		}
		return "", apiErr
	}

	if !validAdjudication(action) {
		return "", apperrors.InvalidInput("Invalid action, must be approve or remove")
	}

	var entry models.EditHistoryEntry
	err := s.db.WithContext(ctx).
		Where("item_kind = ? AND item_id = ?", itemType, itemID).
		Order("edited_at DESC").
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", apperrors.BadRequest("Item has no edit history")
		}
		return "", apperrors.InternalError(err.Error())
	}
	if !entry.Pending() {
		return "", apperrors.AlreadyInState("last edit is already approved or removed")
	}

	if action == "approve" {
		entry.ApprovedEditFlag = true
	} else {
		entry.RemovedEditFlag = true
	}
	item.CommunityMod().AnyActionTaken = true
	item.CommunityMod().PendingEdit = false

	saveErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}
		return tx.Save(item).Error
	})
	if saveErr != nil {
		return "", apperrors.InternalError(fmt.Sprintf("Error while saving the item after %s its edit: %s", gerund(action), saveErr.Error()))
	}

	notifType := models.NotificationEditApproved
	if action == "remove" {
		notifType = models.NotificationEditRemoved
	}
	s.notifyAuthor(ctx, item, notifType,
		fmt.Sprintf("Your edit on a %s was %s by a moderator", itemType, pastTense(action)))

	return fmt.Sprintf("Edit %s successfully", pastTense(action)), nil
}

// HandleUnmoderatedItem approves or removes an item sitting in the
// community's unmoderated queue. Once any action is taken the workflow is
// closed for that item.
func (s *Service) HandleUnmoderatedItem(ctx context.Context, itemID, itemType, actorID, action string) (string, error) {
	if !validKind(itemType) {
		return "", apperrors.InvalidInput("Invalid item type, must be a post or a comment")
	}

	item, apiErr := s.loadItem(ctx, itemType, itemID)
	if apiErr != nil {
		return "", apiErr
	}
	label := item.ItemLabel()

	if !validAdjudication(action) {
		return "", apperrors.InvalidInput("Invalid action, must be approve or remove")
	}

	if item.CommunityMod().AnyActionTaken {
		return "", apperrors.AlreadyInState(fmt.Sprintf("%s is already approved or removed", label))
	}

	now := s.now()
	if action == "approve" {
		item.CommunityMod().UnmoderatedApprovedFlag = true
		item.CommunityMod().UnmoderatedApprovedBy = actorID
		item.CommunityMod().UnmoderatedApprovedDate = &now
	} else {
		item.CommunityMod().UnmoderatedRemovedFlag = true
		item.CommunityMod().UnmoderatedRemovedBy = actorID
		item.CommunityMod().UnmoderatedRemovedDate = &now
	}
	item.CommunityMod().AnyActionTaken = true

	if err := s.saveItem(ctx, item); err != nil {
		return "", apperrors.InternalError(fmt.Sprintf("Error while saving the item after %s it: %s", gerund(action), err.Error()))
	}

	if s.metrics != nil {
		s.metrics.ModerationActionsTotal.WithLabelValues("unmoderated_"+action, itemType).Inc()
	}
	return fmt.Sprintf("%s %s successfully", label, pastTense(action)), nil
}

// notifyAuthor records a stored notification for the item's author. Failures
// are logged and swallowed: notifications are best effort and must not fail
// the moderation action that triggered them.
func (s *Service) notifyAuthor(ctx context.Context, item models.ModeratedItem, notifType, message string) {
	notification := models.Notification{
		UserID:   item.ItemAuthorID(),
		Type:     notifType,
		Message:  message,
		ItemKind: item.ItemKind(),
		ItemID:   item.ItemID(),
	}
	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		logger.WarnWithFields("failed to create moderation notification", err)
	}
}
