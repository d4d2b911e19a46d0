package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/subcircle/backend/internal/database"
	"github.com/subcircle/backend/internal/logger"
	"github.com/subcircle/backend/internal/models"
	"github.com/subcircle/backend/internal/util"
	"gorm.io/gorm"
)

// CreateComment creates a new comment on a post
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	postID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Body     string  `json:"body" binding:"required,min=1,max=10000"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	// Verify the post exists
	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "Post")
		return
	}

	// If replying to a comment, verify the parent exists and belongs to the
	// same post. Only one level of nesting: replies to replies attach to the
	// parent's parent.
	if req.ParentID != nil && *req.ParentID != "" {
		var parent models.Comment
		if err := database.DB.First(&parent, "id = ? AND post_id = ?", *req.ParentID, postID).Error; err != nil {
			util.RespondBadRequest(c, "Parent comment not found")
			return
		}
		if parent.ParentID != nil {
			req.ParentID = parent.ParentID
		}
	}

	comment := models.Comment{
		PostID:         postID,
		ParentID:       req.ParentID,
		AuthorID:       user.ID,
		AuthorUsername: user.Username,
		CommunityName:  post.CommunityName,
		Body:           req.Body,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to create comment")
		return
	}

	if err := database.DB.Model(&post).UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment comment count for post "+postID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetComments retrieves comments for a post with pagination
// GET /api/v1/posts/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	postID := c.Param("id")
	limit := parseIntQuery(c, "limit", 20, 100)
	offset := parseIntQuery(c, "offset", 0, 1<<30)
	parentID := c.Query("parent_id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "Post")
		return
	}

	query := database.DB.
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)

	if parentID != "" {
		query = query.Where("parent_id = ?", parentID)
	} else {
		query = query.Where("parent_id IS NULL")
	}

	var comments []models.Comment
	if err := query.Find(&comments).Error; err != nil {
		util.RespondInternalError(c, "Failed to get comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	})
}

// DeleteComment soft-deletes a comment. Author only.
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "Comment")
		return
	}
	if comment.AuthorID != userID {
		util.RespondForbidden(c, "You do not own this comment")
		return
	}

	if err := database.DB.Delete(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete comment")
		return
	}
	util.RespondMessage(c, "Comment deleted successfully")
}
