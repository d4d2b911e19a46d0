package handlers

import (
	"github.com/subcircle/backend/internal/auth"
	"github.com/subcircle/backend/internal/moderation"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth       auth.AuthServiceInterface
	moderation *moderation.Service
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService auth.AuthServiceInterface, moderationService *moderation.Service) *Handlers {
	return &Handlers{
		auth:       authService,
		moderation: moderationService,
	}
}
