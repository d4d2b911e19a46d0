package auth

import "github.com/subcircle/backend/internal/models"

// AuthServiceInterface defines the contract for authentication operations.
// This enables mocking for unit tests without requiring a real database.
type AuthServiceInterface interface {
	// Registration and Login
	RegisterUser(req RegisterRequest) (*AuthResponse, error)
	LoginUser(req LoginRequest) (*AuthResponse, error)

	// Token operations
	GenerateTokenForUser(user *models.User) (*AuthResponse, error)
	ValidateToken(tokenString string) (*models.User, error)
}

// Ensure Service implements AuthServiceInterface
var _ AuthServiceInterface = (*Service)(nil)
