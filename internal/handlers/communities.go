package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/subcircle/backend/internal/database"
	"github.com/subcircle/backend/internal/middleware"
	"github.com/subcircle/backend/internal/models"
	"github.com/subcircle/backend/internal/util"
)

// CreateCommunity creates a community; the creator becomes its first
// moderator.
// POST /api/v1/communities
func (h *Handlers) CreateCommunity(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required,min=3,max=21,alphanum"`
		Title       string `json:"title" binding:"max=100"`
		Description string `json:"description" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var existing int64
	database.DB.Model(&models.Community{}).Where("name = ?", req.Name).Count(&existing)
	if existing > 0 {
		util.RespondBadRequest(c, "Community name is already taken")
		return
	}

	community := models.Community{
		Name:        req.Name,
		Title:       req.Title,
		Description: req.Description,
		CreatorID:   userID,
		MemberCount: 1,
	}
	if err := database.DB.Create(&community).Error; err != nil {
		util.RespondInternalError(c, "Failed to create community")
		return
	}

	moderator := models.CommunityModerator{
		CommunityID: community.ID,
		UserID:      userID,
		Role:        "creator",
	}
	if err := database.DB.Create(&moderator).Error; err != nil {
		util.RespondInternalError(c, "Failed to assign community creator")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"community": community})
}

// GetCommunity returns a community with its removal reasons and moderators.
// GET /api/v1/communities/:name
func (h *Handlers) GetCommunity(c *gin.Context) {
	var community models.Community
	err := database.DB.
		Preload("RemovalReasons").
		Preload("Moderators").
		First(&community, "name = ?", c.Param("name")).Error
	if err != nil {
		util.RespondNotFound(c, "Community")
		return
	}
	c.JSON(http.StatusOK, gin.H{"community": community})
}

// AddRemovalReason declares a removal reason moderators can pick from.
// Removal reasons gate transition validation, so only a moderator of the
// community may add one.
// POST /api/v1/mod/communities/:name/removal-reasons
func (h *Handlers) AddRemovalReason(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Title   string `json:"removal_reason_title" binding:"required,min=1,max=100"`
		Message string `json:"removal_reason_message" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	name := c.Param("name")
	var community models.Community
	if err := database.DB.First(&community, "name = ?", name).Error; err != nil {
		util.RespondNotFound(c, "Community")
		return
	}

	if !middleware.IsModeratorOf(user, name) {
		util.RespondForbidden(c, "Moderator access required")
		return
	}

	reason := models.RemovalReason{
		CommunityID: community.ID,
		Title:       req.Title,
		Message:     req.Message,
	}
	if err := database.DB.Create(&reason).Error; err != nil {
		util.RespondInternalError(c, "Failed to add removal reason")
		return
	}

	// The queue engine caches reason titles per community.
	h.moderation.InvalidateRemovalReasons(c.Request.Context(), name)

	c.JSON(http.StatusCreated, gin.H{"removal_reason": reason})
}

// BanUser bans a user from a community. Only a moderator of the community
// may issue bans.
// POST /api/v1/mod/communities/:name/bans
func (h *Handlers) BanUser(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Reason string `json:"reason" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	name := c.Param("name")
	var community models.Community
	if err := database.DB.First(&community, "name = ?", name).Error; err != nil {
		util.RespondNotFound(c, "Community")
		return
	}

	if !middleware.IsModeratorOf(user, name) {
		util.RespondForbidden(c, "Moderator access required")
		return
	}

	ban := models.CommunityBan{
		CommunityID: community.ID,
		UserID:      req.UserID,
		Reason:      req.Reason,
		BannedBy:    user.ID,
	}
	if err := database.DB.Create(&ban).Error; err != nil {
		util.RespondInternalError(c, "Failed to ban user")
		return
	}
	util.RespondMessage(c, "User banned successfully")
}
