package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/subcircle/backend/internal/cache"
	"github.com/subcircle/backend/internal/logger"
	"github.com/subcircle/backend/internal/models"
)

// ReportReasons is the fixed site-wide enumeration accepted for reported and
// spammed objections.
var ReportReasons = []string{
	"Harassment",
	"Threatening violence",
	"Hate",
	"Minor abuse or sexualization",
	"Sharing personal information",
	"Prohibited transaction",
	"Impersonation",
	"Copyright violation",
	"Trademark violation",
	"Self-harm or suicide",
	"Spam",
}

// IsValidReportReason reports whether value is one of the fixed report
// reasons. Comparison is case-insensitive.
func IsValidReportReason(value string) bool {
	for _, reason := range ReportReasons {
		if strings.EqualFold(reason, value) {
			return true
		}
	}
	return false
}

const removalReasonCacheTTL = 10 * time.Minute

func removalReasonCacheKey(communityName string) string {
	return "community:removal_reasons:" + communityName
}

// validRemovalReason reports whether title is a removal reason declared by
// the named community, or by any community when communityName is empty
// (site-wide items carry no community). Per-community lookups go through the
// Redis cache when one is wired.
func (s *Service) validRemovalReason(ctx context.Context, communityName, title string) (bool, error) {
	if title == "" {
		return false, nil
	}

	if communityName == "" {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.RemovalReason{}).
			Where("title = ?", title).
			Count(&count).Error
		return count > 0, err
	}

	titles, err := s.communityRemovalReasons(ctx, communityName)
	if err != nil {
		return false, err
	}
	for _, t := range titles {
		if t == title {
			return true, nil
		}
	}
	return false, nil
}

// communityRemovalReasons returns the reason titles declared by a community,
// cache-first.
func (s *Service) communityRemovalReasons(ctx context.Context, communityName string) ([]string, error) {
	key := removalReasonCacheKey(communityName)

	if s.cache != nil {
		titles, err := s.cache.SMembers(ctx, key)
		if err == nil && len(titles) > 0 {
			if s.metrics != nil {
				s.metrics.CacheHitsTotal.WithLabelValues("removal_reasons").Inc()
			}
			return titles, nil
		}
		if err != nil && !cache.IsNil(err) {
			// Cache trouble is not a reason to fail moderation; fall through
			// to the database.
			logger.WarnWithFields("removal reason cache read failed", err)
		}
		if s.metrics != nil {
			s.metrics.CacheMissesTotal.WithLabelValues("removal_reasons").Inc()
		}
	}

	var titles []string
	err := s.db.WithContext(ctx).Model(&models.RemovalReason{}).
		Joins("JOIN communities ON communities.id = removal_reasons.community_id").
		Where("communities.name = ?", communityName).
		Pluck("removal_reasons.title", &titles).Error
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(titles) > 0 {
		members := make([]interface{}, len(titles))
		for i, t := range titles {
			members[i] = t
		}
		if err := s.cache.SAdd(ctx, key, members...); err == nil {
			_ = s.cache.Expire(ctx, key, removalReasonCacheTTL)
		}
	}
	return titles, nil
}

// InvalidateRemovalReasons drops the cached reason titles for a community.
// Called when a community edits its removal reasons.
func (s *Service) InvalidateRemovalReasons(ctx context.Context, communityName string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, removalReasonCacheKey(communityName)); err != nil {
		logger.WarnWithFields("removal reason cache invalidation failed", err)
	}
}
