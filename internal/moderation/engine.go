package moderation

import (
	"context"
	"fmt"

	apperrors "github.com/subcircle/backend/internal/errors"
	"github.com/subcircle/backend/internal/logger"
	"github.com/subcircle/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RemoveItem marks a post or comment as removed by a site moderator. An
// optional removal reason must be one declared by a community. Earlier flags
// are left untouched as history; queue queries disambiguate by date.
func (s *Service) RemoveItem(ctx context.Context, itemID, itemType, actorID, removalReason string) (string, error) {
	if itemID == "" || !validKind(itemType) {
		return "", apperrors.InvalidInput("Invalid item id or type")
	}

	item, apiErr := s.loadItem(ctx, itemType, itemID)
	if apiErr != nil {
		return "", apiErr
	}

	if item.Mod().RemovedFlag {
		s.guardReject("remove", itemType)
		return "", apperrors.AlreadyInState("Item is already removed")
	}

	if removalReason != "" {
		ok, err := s.validRemovalReason(ctx, item.ItemCommunityName(), removalReason)
		if err != nil {
			return "", apperrors.InternalError(err.Error())
		}
		if !ok {
			return "", apperrors.InvalidInput("Invalid removal reason, check the community removal reasons")
		}
	}

	if err := s.applyTransition(ctx, itemType, itemID, models.StateRemoved, actorID, removalReason); err != nil {
		return "", err
	}

	message := fmt.Sprintf("Your %s was removed by a moderator", itemType)
	if removalReason != "" {
		message += ": " + removalReason
	}
	s.notifyAuthor(ctx, item, models.NotificationItemRemoved, message)

	return "Item removed successfully", nil
}

// SpamItem marks a post or comment as spam. Same shape as RemoveItem with
// the spammed field set.
func (s *Service) SpamItem(ctx context.Context, itemID, itemType, actorID, removalReason string) (string, error) {
	if itemID == "" || !validKind(itemType) {
		return "", apperrors.InvalidInput("Invalid item id or type")
	}

	item, apiErr := s.loadItem(ctx, itemType, itemID)
	if apiErr != nil {
		return "", apiErr
	}

	if item.Mod().SpammedFlag {
		s.guardReject("spam", itemType)
		return "", apperrors.AlreadyInState("Item is already marked as spam")
	}

	if removalReason != "" {
		ok, err := s.validRemovalReason(ctx, item.ItemCommunityName(), removalReason)
		if err != nil {
			return "", apperrors.InternalError(err.Error())
		}
		if !ok {
			return "", apperrors.InvalidInput("Invalid removal reason, check the community removal reasons")
		}
	}

	if err := s.applyTransition(ctx, itemType, itemID, models.StateSpammed, actorID, removalReason); err != nil {
		return "", err
	}
	return "Item marked as spam successfully", nil
}

// ReportItem flags a post or comment as reported.
func (s *Service) ReportItem(ctx context.Context, itemID, itemType, actorID string) (string, error) {
	if itemID == "" || !validKind(itemType) {
		return "", apperrors.InvalidInput("Invalid item id or type")
	}

	item, apiErr := s.loadItem(ctx, itemType, itemID)
	if apiErr != nil {
		return "", apiErr
	}

	if item.Mod().ReportedFlag {
		s.guardReject("report", itemType)
		return "", apperrors.AlreadyInState("Item is already reported")
	}

	if err := s.applyTransition(ctx, itemType, itemID, models.StateReported, actorID, ""); err != nil {
		return "", err
	}
	return "Item reported successfully", nil
}

// ApproveItem marks a post or comment as approved. Unlike the reference,
// re-approving is guarded the same way the other transitions guard their
// target state.
func (s *Service) ApproveItem(ctx context.Context, itemID, itemType, actorID string) (string, error) {
	if itemID == "" || !validKind(itemType) {
		return "", apperrors.InvalidInput("Invalid item id or type")
	}

	item, apiErr := s.loadItem(ctx, itemType, itemID)
	if apiErr != nil {
		return "", apiErr
	}

	if item.Mod().ApprovedFlag {
		s.guardReject("approve", itemType)
		return "", apperrors.AlreadyInState("Item is already approved")
	}

	if err := s.applyTransition(ctx, itemType, itemID, models.StateApproved, actorID, ""); err != nil {
		return "", err
	}
	return "Item approved successfully", nil
}

// applyTransition writes the flag/by/date projection for one state and
// appends the matching transition-log event in the same transaction. The
// update is id-scoped so untouched flags keep their history values.
func (s *Service) applyTransition(ctx context.Context, itemType, itemID, state, actorID, reason string) error {
	now := s.now()

	updates := map[string]interface{}{
		"mod_" + state + "_flag": true,
		"mod_" + state + "_by":   actorID,
		"mod_" + state + "_date": now,
	}
	if state == models.StateRemoved || state == models.StateSpammed {
		updates["mod_"+state+"_removal_reason"] = reason
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(modelFor(itemType)).Where("id = ?", itemID).Updates(updates).Error; err != nil {
			return err
		}
		event := models.ModerationEvent{
			ItemKind:  itemType,
			ItemID:    itemID,
			State:     state,
			Actor:     actorID,
			Reason:    reason,
			CreatedAt: now,
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		logger.Error("moderation transition failed",
			zap.String("state", state),
			zap.String("item_type", itemType),
			zap.String("item_id", itemID),
			zap.Error(err),
		)
		return apperrors.InternalError(err.Error())
	}

	if s.metrics != nil {
		s.metrics.ModerationActionsTotal.WithLabelValues(state, itemType).Inc()
	}
	return nil
}

// ItemHistory returns the transition log for one item, oldest first. The
// latest entry is the item's current site-wide state.
func (s *Service) ItemHistory(ctx context.Context, itemID, itemType string) ([]models.ModerationEvent, error) {
	if itemID == "" || !validKind(itemType) {
		return nil, apperrors.InvalidInput("Invalid item id or type")
	}

	var events []models.ModerationEvent
	err := s.db.WithContext(ctx).
		Where("item_kind = ? AND item_id = ?", itemType, itemID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, apperrors.InternalError(err.Error())
	}
	return events, nil
}

func (s *Service) guardReject(action, itemType string) {
	if s.metrics != nil {
		s.metrics.ModerationGuardRejects.WithLabelValues(action, itemType).Inc()
	}
}
