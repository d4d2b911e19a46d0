package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/subcircle/backend/internal/models"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockAuthService is a mock implementation of AuthServiceInterface for testing.
type MockAuthService struct {
	mu sync.Mutex

	// Call tracking
	Calls []MockCall

	// Configurable function overrides
	RegisterUserFunc         func(req RegisterRequest) (*AuthResponse, error)
	LoginUserFunc            func(req LoginRequest) (*AuthResponse, error)
	GenerateTokenForUserFunc func(user *models.User) (*AuthResponse, error)
	ValidateTokenFunc        func(tokenString string) (*models.User, error)

	// Default error to return
	DefaultError error

	// Pre-configured users for testing, keyed by email
	Users map[string]*models.User
}

// NewMockAuthService creates a new mock auth service with sensible defaults
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{
		Calls: make([]MockCall, 0),
		Users: make(map[string]*models.User),
	}
}

// recordCall records a method call for later assertion
func (m *MockAuthService) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCalls returns all recorded calls (thread-safe)
func (m *MockAuthService) GetCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.Calls))
	copy(result, m.Calls)
	return result
}

// RegisterUser mocks user registration
func (m *MockAuthService) RegisterUser(req RegisterRequest) (*AuthResponse, error) {
	m.recordCall("RegisterUser", req)
	if m.RegisterUserFunc != nil {
		return m.RegisterUserFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	if _, exists := m.Users[req.Email]; exists {
		return nil, ErrUserExists
	}
	user := &models.User{
		ID:          uuid.New().String(),
		Email:       req.Email,
		Username:    req.Username,
		DisplayName: req.DisplayName,
	}
	m.Users[req.Email] = user
	return &AuthResponse{
		Token:     "mock-token-" + user.ID,
		User:      *user,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

// LoginUser mocks user login
func (m *MockAuthService) LoginUser(req LoginRequest) (*AuthResponse, error) {
	m.recordCall("LoginUser", req)
	if m.LoginUserFunc != nil {
		return m.LoginUserFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	user, exists := m.Users[req.Email]
	if !exists {
		return nil, ErrUserNotFound
	}
	return &AuthResponse{
		Token:     "mock-token-" + user.ID,
		User:      *user,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

// GenerateTokenForUser mocks token issuance
func (m *MockAuthService) GenerateTokenForUser(user *models.User) (*AuthResponse, error) {
	m.recordCall("GenerateTokenForUser", user)
	if m.GenerateTokenForUserFunc != nil {
		return m.GenerateTokenForUserFunc(user)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return &AuthResponse{
		Token:     "mock-token-" + user.ID,
		User:      *user,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

// ValidateToken mocks token validation
func (m *MockAuthService) ValidateToken(tokenString string) (*models.User, error) {
	m.recordCall("ValidateToken", tokenString)
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	for _, user := range m.Users {
		if tokenString == "mock-token-"+user.ID {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

// Ensure MockAuthService implements AuthServiceInterface
var _ AuthServiceInterface = (*MockAuthService)(nil)
