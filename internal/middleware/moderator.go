package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/subcircle/backend/internal/database"
	"github.com/subcircle/backend/internal/models"
	"github.com/subcircle/backend/internal/util"
)

// RequireModerator ensures the request is authenticated and the user is a
// moderator of at least one community, or a site admin. It must run after
// AuthMiddleware so the user is already in the gin context. Per-community
// checks on individual items happen in the handlers; this gate keeps
// non-moderators off the /mod surface entirely.
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			c.Abort()
			return
		}

		if user.IsAdmin {
			c.Next()
			return
		}

		var count int64
		if err := database.DB.Model(&models.CommunityModerator{}).
			Where("user_id = ?", user.ID).
			Count(&count).Error; err != nil {
			util.RespondInternalError(c, "Failed to check moderator status")
			c.Abort()
			return
		}

		if count == 0 {
			util.RespondForbidden(c, "Moderator access required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// IsModeratorOf reports whether the user moderates the named community.
// Site admins moderate everything.
func IsModeratorOf(user *models.User, communityName string) bool {
	if user.IsAdmin {
		return true
	}

	var count int64
	err := database.DB.Model(&models.CommunityModerator{}).
		Joins("JOIN communities ON communities.id = community_moderators.community_id").
		Where("community_moderators.user_id = ? AND communities.name = ?", user.ID, communityName).
		Count(&count).Error
	if err != nil {
		return false
	}
	return count > 0
}
