package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/subcircle/backend/internal/moderation"
	"github.com/subcircle/backend/internal/util"
)

// GetQueue runs the unified, parameterized queue query.
// GET /api/v1/mod/queue?queue_type=&time_filter=&kinds=&community=&page=&page_size=
func (h *Handlers) GetQueue(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "25"))

	items, err := h.moderation.ItemsFromQueue(c.Request.Context(), moderation.QueueParams{
		TimeFilter:       c.DefaultQuery("time_filter", moderation.TimeNewestFirst),
		Kinds:            c.DefaultQuery("kinds", moderation.KindsBoth),
		QueueType:        c.Query("queue_type"),
		CommunityName:    c.Query("community"),
		RequestingUserID: userID,
		Page:             page,
		PageSize:         pageSize,
	})
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"meta": gin.H{
			"queue_type": c.Query("queue_type"),
			"page":       page,
			"page_size":  pageSize,
		},
	})
}

// GetRemovedItems is the legacy single-purpose removed queue.
// GET /api/v1/mod/queue/removed
func (h *Handlers) GetRemovedItems(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	items, err := h.moderation.RemovedItems(c.Request.Context(),
		c.Query("community"),
		c.DefaultQuery("time_filter", moderation.TimeNewestFirst),
		c.DefaultQuery("kinds", moderation.KindsBoth))
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removedItems": items})
}

// GetReportedItems is the legacy single-purpose reported queue.
// GET /api/v1/mod/queue/reported
func (h *Handlers) GetReportedItems(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	items, err := h.moderation.ReportedItems(c.Request.Context(),
		c.Query("community"),
		c.DefaultQuery("time_filter", moderation.TimeNewestFirst),
		c.DefaultQuery("kinds", moderation.KindsBoth))
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reportedItems": items})
}

// GetUnmoderatedItems is the legacy single-purpose unmoderated queue.
// GET /api/v1/mod/queue/unmoderated
func (h *Handlers) GetUnmoderatedItems(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	items, err := h.moderation.UnmoderatedItems(c.Request.Context(),
		c.Query("community"),
		c.DefaultQuery("time_filter", moderation.TimeNewestFirst),
		c.DefaultQuery("kinds", moderation.KindsBoth))
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unmoderatedItems": items})
}
