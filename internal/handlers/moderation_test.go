package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/subcircle/backend/internal/database"
	"github.com/subcircle/backend/internal/logger"
	"github.com/subcircle/backend/internal/middleware"
	"github.com/subcircle/backend/internal/models"
	"github.com/subcircle/backend/internal/moderation"
)

// ModerationHandlerTestSuite drives the moderation endpoints end to end over
// an in-memory database.
type ModerationHandlerTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers

	moderator *models.User
	author    *models.User
	community *models.Community
	post      *models.Post
}

func (suite *ModerationHandlerTestSuite) SetupSuite() {
	logger.InitializeForTests()

	db, err := gorm.Open(sqlite.Open("file:handlers_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(suite.T(), err)
	sqlDB, err := db.DB()
	require.NoError(suite.T(), err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(suite.T(), db.AutoMigrate(
		&models.User{},
		&models.PostVote{},
		&models.Community{},
		&models.RemovalReason{},
		&models.CommunityModerator{},
		&models.CommunityBan{},
		&models.Post{},
		&models.Comment{},
		&models.ModerationEvent{},
		&models.EditHistoryEntry{},
		&models.Notification{},
	))

	suite.db = db
	database.DB = db

	suite.handlers = NewHandlers(nil, moderation.NewService(db))

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.setupRoutes()
}

// setupRoutes mirrors the server's moderation surface with a header-based
// auth stand-in.
func (suite *ModerationHandlerTestSuite) setupRoutes() {
	authMiddleware := func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		var user models.User
		if err := suite.db.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Set("user", &user)
		c.Set("user_id", user.ID)
		c.Next()
	}

	api := suite.router.Group("/api/v1")

	items := api.Group("/items")
	items.Use(authMiddleware)
	items.POST("/:item_type/:id/objections", suite.handlers.ObjectItem)
	items.PUT("/:item_type/:id", suite.handlers.EditItem)

	mod := api.Group("/mod")
	mod.Use(authMiddleware)
	mod.POST("/items/remove", suite.handlers.RemoveItem)
	mod.POST("/items/spam", suite.handlers.SpamItem)
	mod.POST("/items/report", suite.handlers.ReportItem)
	mod.POST("/items/approve", suite.handlers.ApproveItem)
	mod.POST("/items/:item_type/:id/objections/:objection_type", suite.handlers.HandleObjection)
	mod.POST("/items/:item_type/:id/edits", suite.handlers.HandleEdit)
	mod.POST("/items/:item_type/:id/unmoderated", suite.handlers.HandleUnmoderatedItem)
	mod.GET("/items/:item_type/:id/history", suite.handlers.ItemHistory)
	mod.GET("/queue", suite.handlers.GetQueue)
	mod.GET("/queue/removed", suite.handlers.GetRemovedItems)
	mod.GET("/queue/reported", suite.handlers.GetReportedItems)
	mod.GET("/queue/unmoderated", suite.handlers.GetUnmoderatedItems)

	modCommunities := api.Group("/mod/communities")
	modCommunities.Use(authMiddleware, middleware.RequireModerator())
	modCommunities.POST("/:name/removal-reasons", suite.handlers.AddRemovalReason)
	modCommunities.POST("/:name/bans", suite.handlers.BanUser)
}

func (suite *ModerationHandlerTestSuite) SetupTest() {
	for _, table := range []string{
		"notifications", "moderation_events", "edit_history_entries",
		"post_votes", "comments", "posts",
		"community_bans", "community_moderators", "removal_reasons",
		"communities", "users",
	} {
		require.NoError(suite.T(), suite.db.Exec("DELETE FROM "+table).Error)
	}

	suite.moderator = &models.User{Email: "mod@test.com", Username: "mod", DisplayName: "Mod"}
	require.NoError(suite.T(), suite.db.Create(suite.moderator).Error)

	suite.author = &models.User{Email: "author@test.com", Username: "author", DisplayName: "Author"}
	require.NoError(suite.T(), suite.db.Create(suite.author).Error)

	suite.community = &models.Community{Name: "golang", Title: "Go", CreatorID: suite.moderator.ID}
	require.NoError(suite.T(), suite.db.Create(suite.community).Error)
	require.NoError(suite.T(), suite.db.Create(&models.CommunityModerator{
		CommunityID: suite.community.ID, UserID: suite.moderator.ID, Role: "creator",
	}).Error)
	require.NoError(suite.T(), suite.db.Create(&models.RemovalReason{
		CommunityID: suite.community.ID, Title: "Off topic",
	}).Error)

	suite.post = &models.Post{
		AuthorID:       suite.author.ID,
		AuthorUsername: suite.author.Username,
		CommunityName:  suite.community.Name,
		Title:          "A post",
		Body:           "Body",
	}
	require.NoError(suite.T(), suite.db.Create(suite.post).Error)
}

// request performs an authenticated JSON request and returns the recorder.
func (suite *ModerationHandlerTestSuite) request(method, path string, body any, asUser *models.User) *httptest.ResponseRecorder {
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
	if asUser != nil {
		req.Header.Set("X-User-ID", asUser.ID)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *ModerationHandlerTestSuite) decodeMessage(w *httptest.ResponseRecorder) string {
	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Message
}

func (suite *ModerationHandlerTestSuite) decodeError(w *httptest.ResponseRecorder) (int, string) {
	var resp struct {
		Err struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"err"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Err.Status, resp.Err.Message
}

func (suite *ModerationHandlerTestSuite) TestRemoveItem() {
	w := suite.request("POST", "/api/v1/mod/items/remove", gin.H{
		"item_id":   suite.post.ID,
		"item_type": "post",
	}, suite.moderator)

	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "Item removed successfully", suite.decodeMessage(w))

	var post models.Post
	require.NoError(suite.T(), suite.db.First(&post, "id = ?", suite.post.ID).Error)
	assert.True(suite.T(), post.Moderation.RemovedFlag)
}

func (suite *ModerationHandlerTestSuite) TestRemoveItemTwiceIsRejected() {
	first := suite.request("POST", "/api/v1/mod/items/remove", gin.H{
		"item_id": suite.post.ID, "item_type": "post",
	}, suite.moderator)
	require.Equal(suite.T(), http.StatusOK, first.Code)

	second := suite.request("POST", "/api/v1/mod/items/remove", gin.H{
		"item_id": suite.post.ID, "item_type": "post",
	}, suite.moderator)
	require.Equal(suite.T(), http.StatusBadRequest, second.Code)

	status, message := suite.decodeError(second)
	assert.Equal(suite.T(), http.StatusBadRequest, status)
	assert.Equal(suite.T(), "Item is already removed", message)
}

func (suite *ModerationHandlerTestSuite) TestRemoveWithInvalidReason() {
	w := suite.request("POST", "/api/v1/mod/items/remove", gin.H{
		"item_id":        suite.post.ID,
		"item_type":      "post",
		"removal_reason": "No such reason",
	}, suite.moderator)

	require.Equal(suite.T(), http.StatusBadRequest, w.Code)
	_, message := suite.decodeError(w)
	assert.Equal(suite.T(), "Invalid removal reason, check the community removal reasons", message)
}

func (suite *ModerationHandlerTestSuite) TestRequiresAuth() {
	w := suite.request("POST", "/api/v1/mod/items/remove", gin.H{
		"item_id": suite.post.ID, "item_type": "post",
	}, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *ModerationHandlerTestSuite) TestApproveAndHistory() {
	w := suite.request("POST", "/api/v1/mod/items/approve", gin.H{
		"item_id": suite.post.ID, "item_type": "post",
	}, suite.moderator)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("GET", fmt.Sprintf("/api/v1/mod/items/post/%s/history", suite.post.ID), nil, suite.moderator)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp struct {
		Events []models.ModerationEvent `json:"events"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(suite.T(), resp.Events, 1)
	assert.Equal(suite.T(), models.StateApproved, resp.Events[0].State)
	assert.Equal(suite.T(), suite.moderator.ID, resp.Events[0].Actor)
}

func (suite *ModerationHandlerTestSuite) TestObjectionFlow() {
	// Remove, then the author objects, then the moderator adjudicates.
	w := suite.request("POST", "/api/v1/mod/items/remove", gin.H{
		"item_id": suite.post.ID, "item_type": "post",
	}, suite.moderator)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("POST", fmt.Sprintf("/api/v1/items/post/%s/objections", suite.post.ID), gin.H{
		"objection_type":  "removed",
		"objection_value": "Off topic",
		"community_name":  suite.community.Name,
	}, suite.author)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "Post removed successfully", suite.decodeMessage(w))

	w = suite.request("POST", fmt.Sprintf("/api/v1/mod/items/post/%s/objections/removed", suite.post.ID), gin.H{
		"action": "approve",
	}, suite.moderator)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "Removed objection approved successfully", suite.decodeMessage(w))
}

func (suite *ModerationHandlerTestSuite) TestEditFlow() {
	w := suite.request("PUT", fmt.Sprintf("/api/v1/items/post/%s", suite.post.ID), gin.H{
		"body": "An updated body",
	}, suite.author)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "Post edited successfully", suite.decodeMessage(w))

	w = suite.request("POST", fmt.Sprintf("/api/v1/mod/items/post/%s/edits", suite.post.ID), gin.H{
		"action": "approve",
	}, suite.moderator)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "Edit approved successfully", suite.decodeMessage(w))
}

func (suite *ModerationHandlerTestSuite) TestEditByNonAuthorForbidden() {
	w := suite.request("PUT", fmt.Sprintf("/api/v1/items/post/%s", suite.post.ID), gin.H{
		"body": "An updated body",
	}, suite.moderator)
	require.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *ModerationHandlerTestSuite) TestUnifiedQueue() {
	w := suite.request("POST", "/api/v1/mod/items/report", gin.H{
		"item_id": suite.post.ID, "item_type": "post",
	}, suite.moderator)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("GET", "/api/v1/mod/queue?queue_type=reported", nil, suite.moderator)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp struct {
		Items []struct {
			Kind string       `json:"kind"`
			Post *models.Post `json:"post"`
		} `json:"items"`
		Meta struct {
			QueueType string `json:"queue_type"`
			Page      int    `json:"page"`
		} `json:"meta"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(suite.T(), resp.Items, 1)
	assert.Equal(suite.T(), "post", resp.Items[0].Kind)
	assert.Equal(suite.T(), suite.post.ID, resp.Items[0].Post.ID)
	assert.Equal(suite.T(), "reported", resp.Meta.QueueType)
	assert.Equal(suite.T(), 1, resp.Meta.Page)
}

func (suite *ModerationHandlerTestSuite) TestQueueRejectsUnknownType() {
	w := suite.request("GET", "/api/v1/mod/queue?queue_type=archived", nil, suite.moderator)
	require.Equal(suite.T(), http.StatusBadRequest, w.Code)
	_, message := suite.decodeError(w)
	assert.Equal(suite.T(), "Invalid queue type, must be reported, removed, spammed, unmoderated or edited", message)
}

func (suite *ModerationHandlerTestSuite) TestLegacyQueueKeys() {
	w := suite.request("POST", "/api/v1/mod/items/remove", gin.H{
		"item_id": suite.post.ID, "item_type": "post",
	}, suite.moderator)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("GET", "/api/v1/mod/queue/removed", nil, suite.moderator)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp map[string]json.RawMessage
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	_, hasKey := resp["removedItems"]
	assert.True(suite.T(), hasKey)

	w = suite.request("GET", "/api/v1/mod/queue/reported", nil, suite.moderator)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	resp = map[string]json.RawMessage{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	_, hasKey = resp["reportedItems"]
	assert.True(suite.T(), hasKey)
}

func (suite *ModerationHandlerTestSuite) TestUnmoderatedWorkflow() {
	w := suite.request("POST", fmt.Sprintf("/api/v1/mod/items/post/%s/unmoderated", suite.post.ID), gin.H{
		"action": "approve",
	}, suite.moderator)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "Post approved successfully", suite.decodeMessage(w))

	// The workflow closes after the first adjudication
	w = suite.request("POST", fmt.Sprintf("/api/v1/mod/items/post/%s/unmoderated", suite.post.ID), gin.H{
		"action": "remove",
	}, suite.moderator)
	require.Equal(suite.T(), http.StatusBadRequest, w.Code)
	_, message := suite.decodeError(w)
	assert.Equal(suite.T(), "Post is already approved or removed", message)
}

func (suite *ModerationHandlerTestSuite) TestAddRemovalReasonRequiresModerator() {
	w := suite.request("POST", "/api/v1/mod/communities/golang/removal-reasons", gin.H{
		"removal_reason_title": "Spam",
	}, suite.author)

	require.Equal(suite.T(), http.StatusForbidden, w.Code)
	_, message := suite.decodeError(w)
	assert.Equal(suite.T(), "Moderator access required", message)

	var count int64
	require.NoError(suite.T(), suite.db.Model(&models.RemovalReason{}).
		Where("community_id = ? AND title = ?", suite.community.ID, "Spam").Count(&count).Error)
	assert.Zero(suite.T(), count)
}

func (suite *ModerationHandlerTestSuite) TestAddRemovalReasonChecksCommunityMembership() {
	// Moderating one community does not grant rights over another.
	other := &models.Community{Name: "rustlang", Title: "Rust", CreatorID: suite.author.ID}
	require.NoError(suite.T(), suite.db.Create(other).Error)

	w := suite.request("POST", "/api/v1/mod/communities/rustlang/removal-reasons", gin.H{
		"removal_reason_title": "Spam",
	}, suite.moderator)

	require.Equal(suite.T(), http.StatusForbidden, w.Code)
	_, message := suite.decodeError(w)
	assert.Equal(suite.T(), "Moderator access required", message)
}

func (suite *ModerationHandlerTestSuite) TestAddRemovalReasonAsModerator() {
	w := suite.request("POST", "/api/v1/mod/communities/golang/removal-reasons", gin.H{
		"removal_reason_title": "Spam",
	}, suite.moderator)

	require.Equal(suite.T(), http.StatusCreated, w.Code)

	// The new reason now validates on transitions.
	w = suite.request("POST", "/api/v1/mod/items/remove", gin.H{
		"item_id":        suite.post.ID,
		"item_type":      "post",
		"removal_reason": "Spam",
	}, suite.moderator)
	require.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *ModerationHandlerTestSuite) TestBanUserRequiresModerator() {
	w := suite.request("POST", "/api/v1/mod/communities/golang/bans", gin.H{
		"user_id": suite.moderator.ID,
	}, suite.author)

	require.Equal(suite.T(), http.StatusForbidden, w.Code)

	var count int64
	require.NoError(suite.T(), suite.db.Model(&models.CommunityBan{}).Count(&count).Error)
	assert.Zero(suite.T(), count)
}

func (suite *ModerationHandlerTestSuite) TestBanUserAsModerator() {
	w := suite.request("POST", "/api/v1/mod/communities/golang/bans", gin.H{
		"user_id": suite.author.ID,
		"reason":  "Repeated incivility",
	}, suite.moderator)

	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "User banned successfully", suite.decodeMessage(w))

	var ban models.CommunityBan
	require.NoError(suite.T(), suite.db.First(&ban, "community_id = ? AND user_id = ?",
		suite.community.ID, suite.author.ID).Error)
	assert.Equal(suite.T(), suite.moderator.ID, ban.BannedBy)
}

func (suite *ModerationHandlerTestSuite) TearDownSuite() {
	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

func TestModerationHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ModerationHandlerTestSuite))
}
