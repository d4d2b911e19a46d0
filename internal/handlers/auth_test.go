package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/subcircle/backend/internal/auth"
	"github.com/subcircle/backend/internal/logger"
	"github.com/subcircle/backend/internal/middleware"
)

// AuthHandlerTestSuite drives the auth endpoints against a mock auth service,
// so no database is involved.
type AuthHandlerTestSuite struct {
	suite.Suite
	mock   *auth.MockAuthService
	router *gin.Engine
}

func (suite *AuthHandlerTestSuite) SetupTest() {
	logger.InitializeForTests()
	suite.mock = auth.NewMockAuthService()

	h := NewHandlers(suite.mock, nil)

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	authGroup := suite.router.Group("/api/v1/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/me", middleware.AuthMiddleware(suite.mock), h.Me)
}

func (suite *AuthHandlerTestSuite) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AuthHandlerTestSuite) registerBody() gin.H {
	return gin.H{
		"email":        "alice@example.com",
		"username":     "alice",
		"password":     "password123",
		"display_name": "Alice",
	}
}

func (suite *AuthHandlerTestSuite) TestRegister() {
	w := suite.request("POST", "/api/v1/auth/register", suite.registerBody(), "")
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var resp auth.AuthResponse
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(suite.T(), "alice@example.com", resp.User.Email)
	assert.Equal(suite.T(), "mock-token-"+resp.User.ID, resp.Token)

	calls := suite.mock.GetCalls()
	require.Len(suite.T(), calls, 1)
	assert.Equal(suite.T(), "RegisterUser", calls[0].Method)
}

func (suite *AuthHandlerTestSuite) TestRegisterDuplicateEmail() {
	first := suite.request("POST", "/api/v1/auth/register", suite.registerBody(), "")
	require.Equal(suite.T(), http.StatusCreated, first.Code)

	second := suite.request("POST", "/api/v1/auth/register", suite.registerBody(), "")
	require.Equal(suite.T(), http.StatusBadRequest, second.Code)

	var resp struct {
		Err struct {
			Message string `json:"message"`
		} `json:"err"`
	}
	require.NoError(suite.T(), json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(suite.T(), "user with this email already exists", resp.Err.Message)
}

func (suite *AuthHandlerTestSuite) TestRegisterRejectsShortPassword() {
	body := suite.registerBody()
	body["password"] = "short"

	w := suite.request("POST", "/api/v1/auth/register", body, "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	// Binding fails before the service is reached
	assert.Empty(suite.T(), suite.mock.GetCalls())
}

func (suite *AuthHandlerTestSuite) TestLogin() {
	suite.request("POST", "/api/v1/auth/register", suite.registerBody(), "")

	w := suite.request("POST", "/api/v1/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	}, "")
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp auth.AuthResponse
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(suite.T(), resp.Token)
}

func (suite *AuthHandlerTestSuite) TestLoginUnknownUser() {
	w := suite.request("POST", "/api/v1/auth/login", gin.H{
		"email":    "nobody@example.com",
		"password": "password123",
	}, "")
	require.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	var resp struct {
		Err struct {
			Message string `json:"message"`
		} `json:"err"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(suite.T(), "Invalid email or password", resp.Err.Message)
}

func (suite *AuthHandlerTestSuite) TestMe() {
	reg := suite.request("POST", "/api/v1/auth/register", suite.registerBody(), "")
	var regResp auth.AuthResponse
	require.NoError(suite.T(), json.Unmarshal(reg.Body.Bytes(), &regResp))

	w := suite.request("GET", "/api/v1/auth/me", nil, regResp.Token)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp struct {
		User struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(suite.T(), regResp.User.ID, resp.User.ID)
	assert.Equal(suite.T(), "alice", resp.User.Username)
}

func (suite *AuthHandlerTestSuite) TestMeRejectsBadToken() {
	w := suite.request("GET", "/api/v1/auth/me", nil, "mock-token-unknown")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *AuthHandlerTestSuite) TestMeRequiresAuthHeader() {
	w := suite.request("GET", "/api/v1/auth/me", nil, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}
