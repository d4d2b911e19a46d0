package moderation

import (
	"context"
	"sort"
	"strings"
	"time"

	apperrors "github.com/subcircle/backend/internal/errors"
	"github.com/subcircle/backend/internal/models"
	"gorm.io/gorm"
)

// Time filters accepted by the queue queries (case-insensitive).
const (
	TimeNewestFirst = "newest first"
	TimeOldestFirst = "oldest first"
)

// Item-kind selectors.
const (
	KindsPosts    = "posts"
	KindsComments = "comments"
	KindsBoth     = "posts and comments"
)

// Queue types.
const (
	QueueReported    = "reported"
	QueueRemoved     = "removed"
	QueueSpammed     = "spammed"
	QueueUnmoderated = "unmoderated"
	QueueEdited      = "edited"
)

// Community scope values meaning "no community filter".
func isAllCommunities(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all", "all communities":
		return true
	}
	return false
}

// State is recorded as boolean flags with timestamps, not a single enum, so
// "is this item in queue X" means "did one of the valid transition paths
// into X happen last". Each predicate below is an OR of mutually exclusive
// historical cases; where two flags are both set, the date comparison picks
// the path. The comparisons are part of the SQL so filtering happens in the
// store, before any document is fetched.
const (
	removedQueueSQL = `(mod_removed_flag AND NOT mod_approved_flag AND NOT mod_spammed_flag AND NOT mod_reported_flag)
		OR (mod_removed_flag AND mod_approved_flag AND NOT mod_spammed_flag AND NOT mod_reported_flag AND mod_approved_date < mod_removed_date)
		OR (mod_spammed_flag AND NOT mod_approved_flag AND NOT mod_removed_flag AND NOT mod_reported_flag)
		OR (mod_spammed_flag AND mod_approved_flag AND NOT mod_removed_flag AND NOT mod_reported_flag AND mod_approved_date < mod_spammed_date)
		OR (mod_reported_flag AND mod_removed_flag AND mod_reported_date < mod_removed_date)`

	spammedQueueSQL = `(mod_spammed_flag AND NOT mod_approved_flag AND NOT mod_removed_flag AND NOT mod_reported_flag)
		OR (mod_spammed_flag AND mod_approved_flag AND NOT mod_removed_flag AND NOT mod_reported_flag AND mod_approved_date < mod_spammed_date)`

	reportedQueueSQL = `(mod_reported_flag AND NOT mod_approved_flag AND NOT mod_removed_flag AND NOT mod_spammed_flag)
		OR (mod_reported_flag AND mod_approved_flag AND NOT mod_removed_flag AND NOT mod_spammed_flag AND mod_approved_date < mod_reported_date)`

	unmoderatedQueueSQL = `NOT mod_approved_flag AND NOT mod_removed_flag AND NOT mod_spammed_flag AND NOT mod_reported_flag`

	// Three-flag variant: reported items still count as unmoderated.
	unmoderatedLooseQueueSQL = `NOT mod_approved_flag AND NOT mod_removed_flag AND NOT mod_spammed_flag`

	editedQueueSQL = `cmod_pending_edit`
)

// QueueParams are the arguments of the unified queue query.
type QueueParams struct {
	TimeFilter    string
	Kinds         string
	QueueType     string
	CommunityName string
	// RequestingUserID drives the userVote annotation on posts; empty skips
	// it.
	RequestingUserID string
	Page             int
	PageSize         int
}

// QueueItem is one merged queue result. Exactly one of Post and Comment is
// set. UserVote is only populated on posts.
type QueueItem struct {
	Kind     string          `json:"kind"`
	Post     *models.Post    `json:"post,omitempty"`
	Comment  *models.Comment `json:"comment,omitempty"`
	UserVote string          `json:"userVote,omitempty"`

	createdAt time.Time
}

const (
	defaultQueuePageSize = 25
	maxQueuePageSize     = 100
)

// ItemsFromQueue runs the unified, parameterized queue query: validates the
// filters, fetches each requested kind with the queue predicate scoped to
// the community, merges the result sets and stable-sorts the union by
// created_at. A store failure on either kind aborts the whole call; partial
// results are never returned.
func (s *Service) ItemsFromQueue(ctx context.Context, p QueueParams) ([]QueueItem, error) {
	timeFilter := strings.ToLower(strings.TrimSpace(p.TimeFilter))
	if timeFilter != TimeNewestFirst && timeFilter != TimeOldestFirst {
		return nil, apperrors.InvalidInput("Invalid time filter, must be newest first or oldest first")
	}

	kinds := strings.ToLower(strings.TrimSpace(p.Kinds))
	if kinds != KindsPosts && kinds != KindsComments && kinds != KindsBoth {
		return nil, apperrors.InvalidInput("Invalid item kinds, must be posts, comments or posts and comments")
	}

	queueType := strings.ToLower(strings.TrimSpace(p.QueueType))
	predicate, ok := s.queuePredicate(queueType)
	if !ok {
		return nil, apperrors.InvalidInput("Invalid queue type, must be reported, removed, spammed, unmoderated or edited")
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	pageSize := p.PageSize
	if pageSize < 1 {
		pageSize = defaultQueuePageSize
	}
	if pageSize > maxQueuePageSize {
		pageSize = maxQueuePageSize
	}

	order := "created_at DESC"
	if timeFilter == TimeOldestFirst {
		order = "created_at ASC"
	}

	// Each kind is over-fetched to the end of the requested page so the
	// window can be sliced from the merged union.
	fetchLimit := page * pageSize

	started := time.Now()
	var items []QueueItem

	if kinds == KindsPosts || kinds == KindsBoth {
		var posts []models.Post
		q := s.db.WithContext(ctx).Where(predicate)
		if !isAllCommunities(p.CommunityName) {
			q = q.Where("community_name = ?", p.CommunityName)
		}
		if err := q.Order(order).Limit(fetchLimit).Find(&posts).Error; err != nil {
			return nil, apperrors.InternalError(err.Error())
		}

		votes, err := s.userVotes(ctx, p.RequestingUserID, posts)
		if err != nil {
			return nil, apperrors.InternalError(err.Error())
		}
		for i := range posts {
			post := &posts[i]
			items = append(items, QueueItem{
				Kind:      KindPost,
				Post:      post,
				UserVote:  votes[post.ID],
				createdAt: post.CreatedAt,
			})
		}
	}

	if kinds == KindsComments || kinds == KindsBoth {
		var comments []models.Comment
		q := s.db.WithContext(ctx).Where(predicate)
		if !isAllCommunities(p.CommunityName) {
			q = q.Where("community_name = ?", p.CommunityName)
		}
		if err := q.Order(order).Limit(fetchLimit).Find(&comments).Error; err != nil {
			return nil, apperrors.InternalError(err.Error())
		}
		for i := range comments {
			comment := &comments[i]
			items = append(items, QueueItem{
				Kind:      KindComment,
				Comment:   comment,
				createdAt: comment.CreatedAt,
			})
		}
	}

	// Stable: ties keep posts-before-comments arrival order.
	if timeFilter == TimeOldestFirst {
		sort.SliceStable(items, func(i, j int) bool { return items[i].createdAt.Before(items[j].createdAt) })
	} else {
		sort.SliceStable(items, func(i, j int) bool { return items[i].createdAt.After(items[j].createdAt) })
	}

	start := (page - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	items = items[start:end]

	if s.metrics != nil {
		s.metrics.QueueQueryDuration.WithLabelValues(queueType).Observe(time.Since(started).Seconds())
		s.metrics.QueueItemsReturned.WithLabelValues(queueType).Observe(float64(len(items)))
	}
	return items, nil
}

// queuePredicate returns the predicate session for a queue type.
func (s *Service) queuePredicate(queueType string) (*gorm.DB, bool) {
	switch queueType {
	case QueueRemoved:
		return s.db.Where(removedQueueSQL), true
	case QueueSpammed:
		return s.db.Where(spammedQueueSQL), true
	case QueueReported:
		return s.db.Where(reportedQueueSQL), true
	case QueueUnmoderated:
		if s.unmoderatedExcludesReported {
			return s.db.Where(unmoderatedQueueSQL), true
		}
		return s.db.Where(unmoderatedLooseQueueSQL), true
	case QueueEdited:
		return s.db.Where(editedQueueSQL), true
	}
	return nil, false
}

// userVotes resolves the requesting user's vote per post in one query.
// Posts without a row get "none"; an empty user id skips annotation.
func (s *Service) userVotes(ctx context.Context, userID string, posts []models.Post) (map[string]string, error) {
	votes := make(map[string]string, len(posts))
	if userID == "" || len(posts) == 0 {
		return votes, nil
	}

	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		votes[posts[i].ID] = models.VoteNone
	}

	var rows []models.PostVote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND post_id IN ?", userID, ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.Value > 0 {
			votes[row.PostID] = models.VoteUp
		} else if row.Value < 0 {
			votes[row.PostID] = models.VoteDown
		}
	}
	return votes, nil
}

// RemovedItems is the legacy single-purpose form of the removed queue.
func (s *Service) RemovedItems(ctx context.Context, communityName, timeFilter, kinds string) ([]QueueItem, error) {
	return s.ItemsFromQueue(ctx, QueueParams{
		TimeFilter:    timeFilter,
		Kinds:         kinds,
		QueueType:     QueueRemoved,
		CommunityName: communityName,
		PageSize:      maxQueuePageSize,
	})
}

// ReportedItems is the legacy single-purpose form of the reported queue.
func (s *Service) ReportedItems(ctx context.Context, communityName, timeFilter, kinds string) ([]QueueItem, error) {
	return s.ItemsFromQueue(ctx, QueueParams{
		TimeFilter:    timeFilter,
		Kinds:         kinds,
		QueueType:     QueueReported,
		CommunityName: communityName,
		PageSize:      maxQueuePageSize,
	})
}

// UnmoderatedItems is the legacy single-purpose form of the unmoderated
// queue.
func (s *Service) UnmoderatedItems(ctx context.Context, communityName, timeFilter, kinds string) ([]QueueItem, error) {
	return s.ItemsFromQueue(ctx, QueueParams{
		TimeFilter:    timeFilter,
		Kinds:         kinds,
		QueueType:     QueueUnmoderated,
		CommunityName: communityName,
		PageSize:      maxQueuePageSize,
	})
}
