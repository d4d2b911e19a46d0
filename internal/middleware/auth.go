package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/subcircle/backend/internal/auth"
	"github.com/subcircle/backend/internal/util"
)

// AuthMiddleware validates the bearer token and loads the requesting user
// into the gin context under "user" and "user_id".
func AuthMiddleware(authService auth.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			util.RespondUnauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header || tokenString == "" {
			util.RespondUnauthorized(c, "Bearer token required")
			c.Abort()
			return
		}

		user, err := authService.ValidateToken(tokenString)
		if err != nil {
			util.RespondUnauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}
