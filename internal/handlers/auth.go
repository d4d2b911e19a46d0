package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subcircle/backend/internal/auth"
	"github.com/subcircle/backend/internal/logger"
	"github.com/subcircle/backend/internal/util"
)

// Register creates a new account with email/password
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.RegisterUser(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists), errors.Is(err, auth.ErrUsernameExists):
			util.RespondBadRequest(c, err.Error())
		default:
			logger.ErrorWithFields("Failed to register user", err)
			util.RespondInternalError(c, "Failed to register user")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login authenticates with email/password and returns a JWT
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.LoginUser(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
			util.RespondUnauthorized(c, "Invalid email or password")
		default:
			logger.ErrorWithFields("Failed to log in user", err)
			util.RespondInternalError(c, "Failed to log in")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user's profile
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
