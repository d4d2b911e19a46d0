package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/subcircle/backend/internal/util"
)

// itemActionRequest is the body shared by the four site-wide transitions.
type itemActionRequest struct {
	ItemID        string `json:"item_id" binding:"required"`
	ItemType      string `json:"item_type" binding:"required"`
	RemovalReason string `json:"removal_reason,omitempty"`
}

// RemoveItem marks a post or comment as removed.
// POST /api/v1/mod/items/remove
func (h *Handlers) RemoveItem(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req itemActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	message, err := h.moderation.RemoveItem(c.Request.Context(), req.ItemID, req.ItemType, userID, req.RemovalReason)
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	util.RespondMessage(c, message)
}

// SpamItem marks a post or comment as spam.
// POST /api/v1/mod/items/spam
func (h *Handlers) SpamItem(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req itemActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	message, err := h.moderation.SpamItem(c.Request.Context(), req.ItemID, req.ItemType, userID, req.RemovalReason)
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	util.RespondMessage(c, message)
}

// ReportItem flags a post or comment as reported.
// POST /api/v1/mod/items/report
func (h *Handlers) ReportItem(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req itemActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	message, err := h.moderation.ReportItem(c.Request.Context(), req.ItemID, req.ItemType, userID)
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	util.RespondMessage(c, message)
}

// ApproveItem marks a post or comment as approved.
// POST /api/v1/mod/items/approve
func (h *Handlers) ApproveItem(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req itemActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	message, err := h.moderation.ApproveItem(c.Request.Context(), req.ItemID, req.ItemType, userID)
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	util.RespondMessage(c, message)
}

// ObjectItem raises a community-level objection against an item.
// POST /api/v1/items/:item_type/:id/objections
func (h *Handlers) ObjectItem(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		ObjectionType  string `json:"objection_type" binding:"required"`
		ObjectionValue string `json:"objection_value" binding:"required"`
		CommunityName  string `json:"community_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	message, err := h.moderation.ObjectItem(c.Request.Context(),
		c.Param("id"), c.Param("item_type"), req.ObjectionType, userID, req.ObjectionValue, req.CommunityName)
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	util.RespondMessage(c, message)
}

// EditItem replaces an item's body, entering the edit-approval workflow.
// PUT /api/v1/items/:item_type/:id
func (h *Handlers) EditItem(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	message, err := h.moderation.EditItem(c.Request.Context(), c.Param("id"), c.Param("item_type"), req.Body, user)
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	util.RespondMessage(c, message)
}

// HandleObjection adjudicates a raised objection.
// POST /api/v1/mod/items/:item_type/:id/objections/:objection_type
func (h *Handlers) HandleObjection(c *gin.Context) {
	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	message, err := h.moderation.HandleObjection(c.Request.Context(),
		c.Param("id"), c.Param("item_type"), c.Param("objection_type"), req.Action)
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	util.RespondMessage(c, message)
}

// HandleEdit adjudicates the latest pending edit on an item.
// POST /api/v1/mod/items/:item_type/:id/edits
func (h *Handlers) HandleEdit(c *gin.Context) {
	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	message, err := h.moderation.HandleEdit(c.Request.Context(), c.Param("id"), c.Param("item_type"), req.Action)
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	util.RespondMessage(c, message)
}

// HandleUnmoderatedItem approves or removes an item in the community's
// unmoderated workflow.
// POST /api/v1/mod/items/:item_type/:id/unmoderated
func (h *Handlers) HandleUnmoderatedItem(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	message, err := h.moderation.HandleUnmoderatedItem(c.Request.Context(),
		c.Param("id"), c.Param("item_type"), userID, req.Action)
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	util.RespondMessage(c, message)
}

// ItemHistory returns the transition log for one item, oldest first.
// GET /api/v1/mod/items/:item_type/:id/history
func (h *Handlers) ItemHistory(c *gin.Context) {
	events, err := h.moderation.ItemHistory(c.Request.Context(), c.Param("id"), c.Param("item_type"))
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
