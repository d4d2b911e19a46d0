package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/subcircle/backend/internal/database"
	"github.com/subcircle/backend/internal/logger"
	"github.com/subcircle/backend/internal/models"
	"github.com/subcircle/backend/internal/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreatePost creates a new post, optionally inside a community.
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Title         string `json:"title" binding:"required,min=1,max=300"`
		Body          string `json:"body" binding:"max=40000"`
		Kind          string `json:"kind,omitempty"`
		CommunityName string `json:"community_name,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if req.CommunityName != "" {
		var community models.Community
		if err := database.DB.First(&community, "name = ?", req.CommunityName).Error; err != nil {
			util.RespondNotFound(c, "Community")
			return
		}

		// Banned users cannot post into the community.
		var banned int64
		database.DB.Model(&models.CommunityBan{}).
			Where("community_id = ? AND user_id = ?", community.ID, user.ID).
			Count(&banned)
		if banned > 0 {
			util.RespondForbidden(c, "You are banned from this community")
			return
		}
	}

	kind := req.Kind
	if kind == "" {
		kind = "text"
	}

	post := models.Post{
		AuthorID:       user.ID,
		AuthorUsername: user.Username,
		CommunityName:  req.CommunityName,
		Title:          req.Title,
		Body:           req.Body,
		Kind:           kind,
	}
	if err := database.DB.Create(&post).Error; err != nil {
		util.RespondInternalError(c, "Failed to create post")
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", user.ID).
		UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment post count for user "+user.ID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost returns one post with its moderation blocks.
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	var post models.Post
	if err := database.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "Post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// ListPosts returns posts, newest first, optionally scoped to a community.
// GET /api/v1/posts?community=&limit=&offset=
func (h *Handlers) ListPosts(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 25, 100)
	offset := parseIntQuery(c, "offset", 0, 1<<30)

	query := database.DB.Order("created_at DESC").Limit(limit).Offset(offset)
	if community := c.Query("community"); community != "" {
		query = query.Where("community_name = ?", community)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		util.RespondInternalError(c, "Failed to get posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// DeletePost soft-deletes a post. Author only.
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "Post")
		return
	}
	if post.AuthorID != userID {
		util.RespondForbidden(c, "You do not own this post")
		return
	}

	if err := database.DB.Delete(&post).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete post")
		return
	}
	util.RespondMessage(c, "Post deleted successfully")
}

// VotePost records an up/down/none vote on a post for the requesting user.
// POST /api/v1/posts/:id/vote
func (h *Handlers) VotePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Vote string `json:"vote" binding:"required,oneof=up down none"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	postID := c.Param("id")
	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "Post")
		return
	}

	if req.Vote == models.VoteNone {
		if err := database.DB.Where("user_id = ? AND post_id = ?", userID, postID).
			Delete(&models.PostVote{}).Error; err != nil {
			util.RespondInternalError(c, "Failed to clear vote")
			return
		}
		util.RespondMessage(c, "Vote cleared successfully")
		return
	}

	value := 1
	if req.Vote == models.VoteDown {
		value = -1
	}

	vote := models.PostVote{UserID: userID, PostID: postID, Value: value}
	err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&vote).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to record vote")
		return
	}
	util.RespondMessage(c, "Vote recorded successfully")
}

// parseIntQuery reads a non-negative int query param with a default and cap.
func parseIntQuery(c *gin.Context, key string, def, max int) int {
	value := def
	if raw := c.Query(key); raw != "" {
		if parsed, err := parseNonNegativeInt(raw); err == nil {
			value = parsed
		}
	}
	if value > max {
		value = max
	}
	return value
}
