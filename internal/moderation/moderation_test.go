package moderation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/subcircle/backend/internal/logger"
	"github.com/subcircle/backend/internal/models"
)

// openTestDB opens an in-memory sqlite database with the full schema. Each
// suite gets its own named database so suites cannot see each other's rows.
func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	logger.InitializeForTests()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every session on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
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

	return db
}

// truncateAll clears every table between tests.
func truncateAll(t *testing.T, db *gorm.DB) {
	t.Helper()
	tables := []string{
		"notifications", "moderation_events", "edit_history_entries",
		"post_votes", "comments", "posts",
		"community_bans", "community_moderators", "removal_reasons",
		"communities", "users",
	}
	for _, table := range tables {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
}

// fixtures is the standard data set the suites build on: one community with
// two removal reasons, a moderator, an author, and one post and comment by
// the author in that community.
type fixtures struct {
	Moderator models.User
	Author    models.User
	Community models.Community
	Post      models.Post
	Comment   models.Comment
}

const (
	reasonOffTopic  = "Off topic"
	reasonLowEffort = "Low effort"
)

func createFixtures(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()

	moderator := models.User{Email: "mod@example.com", Username: "themod", DisplayName: "The Mod"}
	require.NoError(t, db.Create(&moderator).Error)

	author := models.User{Email: "author@example.com", Username: "theauthor", DisplayName: "The Author"}
	require.NoError(t, db.Create(&author).Error)

	community := models.Community{Name: "gophers", Title: "Gophers", CreatorID: moderator.ID}
	require.NoError(t, db.Create(&community).Error)

	for _, title := range []string{reasonOffTopic, reasonLowEffort} {
		reason := models.RemovalReason{CommunityID: community.ID, Title: title}
		require.NoError(t, db.Create(&reason).Error)
	}

	mod := models.CommunityModerator{CommunityID: community.ID, UserID: moderator.ID, Role: "creator"}
	require.NoError(t, db.Create(&mod).Error)

	post := models.Post{
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		CommunityName:  community.Name,
		Title:          "A post about gophers",
		Body:           "Gophers are great.",
	}
	require.NoError(t, db.Create(&post).Error)

	comment := models.Comment{
		PostID:         post.ID,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		CommunityName:  community.Name,
		Body:           "I agree about the gophers.",
	}
	require.NoError(t, db.Create(&comment).Error)

	return fixtures{
		Moderator: moderator,
		Author:    author,
		Community: community,
		Post:      post,
		Comment:   comment,
	}
}

// testClock is a controllable time source so transition dates are
// deterministic and strictly ordered.
type testClock struct {
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	return c.current
}

// Tick advances the clock by one minute and returns the new time.
func (c *testClock) Tick() time.Time {
	c.current = c.current.Add(time.Minute)
	return c.current
}
