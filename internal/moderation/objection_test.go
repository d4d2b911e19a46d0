package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	apperrors "github.com/subcircle/backend/internal/errors"
	"github.com/subcircle/backend/internal/models"
)

type ObjectionTestSuite struct {
	suite.Suite
	db    *gorm.DB
	svc   *Service
	clock *testClock
	fix   fixtures
	ctx   context.Context
}

func (suite *ObjectionTestSuite) SetupSuite() {
	suite.db = openTestDB(suite.T(), "objection_test")
	suite.clock = newTestClock()
	suite.svc = NewService(suite.db, WithClock(suite.clock.Now))
	suite.ctx = context.Background()
}

func (suite *ObjectionTestSuite) SetupTest() {
	truncateAll(suite.T(), suite.db)
	suite.fix = createFixtures(suite.T(), suite.db)
}

func (suite *ObjectionTestSuite) reloadPost() models.Post {
	var post models.Post
	require.NoError(suite.T(), suite.db.First(&post, "id = ?", suite.fix.Post.ID).Error)
	return post
}

func (suite *ObjectionTestSuite) objectReported() {
	_, err := suite.svc.ObjectItem(suite.ctx, suite.fix.Post.ID, KindPost,
		models.StateReported, suite.fix.Author.ID, "Spam", suite.fix.Community.Name)
	require.NoError(suite.T(), err)
}

func (suite *ObjectionTestSuite) editPost(body string) {
	_, err := suite.svc.EditItem(suite.ctx, suite.fix.Post.ID, KindPost, body, &suite.fix.Author)
	require.NoError(suite.T(), err)
}

func (suite *ObjectionTestSuite) TestObjectWithReportReason() {
	msg, err := suite.svc.ObjectItem(suite.ctx, suite.fix.Post.ID, KindPost,
		models.StateReported, suite.fix.Author.ID, "Harassment", suite.fix.Community.Name)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Post reported successfully", msg)

	post := suite.reloadPost()
	slot := post.CommunityModeration.Reported
	assert.True(suite.T(), slot.Flag)
	assert.Equal(suite.T(), suite.fix.Author.ID, slot.By)
	assert.Equal(suite.T(), "Harassment", slot.Type)
	assert.False(suite.T(), slot.Confirmed)
	require.NotNil(suite.T(), slot.Date)
}

func (suite *ObjectionTestSuite) TestObjectWithRemovalReason() {
	msg, err := suite.svc.ObjectItem(suite.ctx, suite.fix.Post.ID, KindPost,
		models.StateRemoved, suite.fix.Author.ID, reasonOffTopic, suite.fix.Community.Name)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Post removed successfully", msg)

	post := suite.reloadPost()
	assert.True(suite.T(), post.CommunityModeration.Removed.Flag)
	assert.Equal(suite.T(), reasonOffTopic, post.CommunityModeration.Removed.Type)
}

func (suite *ObjectionTestSuite) TestObjectionValueValidation() {
	// "removed" objections must carry a community removal reason
	_, err := suite.svc.ObjectItem(suite.ctx, suite.fix.Post.ID, KindPost,
		models.StateRemoved, suite.fix.Author.ID, "Harassment", suite.fix.Community.Name)
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Invalid objection type value, check the community removal reasons",
		apperrors.AsAPIError(err).Message)

	// "reported" and "spammed" objections must carry a report reason
	_, err = suite.svc.ObjectItem(suite.ctx, suite.fix.Post.ID, KindPost,
		models.StateSpammed, suite.fix.Author.ID, reasonOffTopic, suite.fix.Community.Name)
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Invalid objection type value, check the report reasons",
		apperrors.AsAPIError(err).Message)
}

func (suite *ObjectionTestSuite) TestObjectionTypeValidation() {
	_, err := suite.svc.ObjectItem(suite.ctx, suite.fix.Post.ID, KindPost,
		"deleted", suite.fix.Author.ID, "Spam", suite.fix.Community.Name)
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Invalid objection type, must be reported, spammed or removed",
		apperrors.AsAPIError(err).Message)
}

func (suite *ObjectionTestSuite) TestObjectionSlotCannotBeRaisedTwice() {
	suite.objectReported()

	_, err := suite.svc.ObjectItem(suite.ctx, suite.fix.Post.ID, KindPost,
		models.StateReported, suite.fix.Author.ID, "Hate", suite.fix.Community.Name)
	require.Error(suite.T(), err)
	apiErr := apperrors.AsAPIError(err)
	assert.Equal(suite.T(), apperrors.ErrAlreadyInState, apiErr.Code)
	assert.Equal(suite.T(), "Post has already been reported", apiErr.Message)
}

func (suite *ObjectionTestSuite) TestPendingEditBlocksObjection() {
	suite.editPost("New body, awaiting review.")

	_, err := suite.svc.ObjectItem(suite.ctx, suite.fix.Post.ID, KindPost,
		models.StateReported, suite.fix.Author.ID, "Spam", suite.fix.Community.Name)
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Post has been edited, no action taken on last edit, can't object",
		apperrors.AsAPIError(err).Message)
}

func (suite *ObjectionTestSuite) TestOpenObjectionBlocksEdit() {
	suite.objectReported()

	_, err := suite.svc.EditItem(suite.ctx, suite.fix.Post.ID, KindPost, "New body.", &suite.fix.Author)
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Post has an objection, no action taken on objection, can't edit",
		apperrors.AsAPIError(err).Message)
}

func (suite *ObjectionTestSuite) TestEditRequiresAuthor() {
	_, err := suite.svc.EditItem(suite.ctx, suite.fix.Post.ID, KindPost, "New body.", &suite.fix.Moderator)
	require.Error(suite.T(), err)
	apiErr := apperrors.AsAPIError(err)
	assert.Equal(suite.T(), apperrors.ErrForbidden, apiErr.Code)
	assert.Equal(suite.T(), "Only the author can edit this post", apiErr.Message)
}

func (suite *ObjectionTestSuite) TestEditRejectsEmptyBody() {
	_, err := suite.svc.EditItem(suite.ctx, suite.fix.Post.ID, KindPost, "", &suite.fix.Author)
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Invalid content", apperrors.AsAPIError(err).Message)
}

func (suite *ObjectionTestSuite) TestEditWritesBodyAndHistory() {
	msg, err := suite.svc.EditItem(suite.ctx, suite.fix.Post.ID, KindPost, "Rewritten body.", &suite.fix.Author)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Post edited successfully", msg)

	post := suite.reloadPost()
	assert.Equal(suite.T(), "Rewritten body.", post.Body)
	assert.True(suite.T(), post.CommunityModeration.PendingEdit)
	require.NotNil(suite.T(), post.CommunityModeration.LastEditedAt)

	var entries []models.EditHistoryEntry
	require.NoError(suite.T(), suite.db.Where("item_id = ?", post.ID).Find(&entries).Error)
	require.Len(suite.T(), entries, 1)
	assert.Equal(suite.T(), "Rewritten body.", entries[0].Body)
	assert.True(suite.T(), entries[0].Pending())
}

func (suite *ObjectionTestSuite) TestHandleObjection() {
	suite.objectReported()

	msg, err := suite.svc.HandleObjection(suite.ctx, suite.fix.Post.ID, KindPost, models.StateReported, "approve")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Reported objection approved successfully", msg)

	post := suite.reloadPost()
	assert.True(suite.T(), post.CommunityModeration.Reported.Confirmed)

	// The author is notified
	var notif models.Notification
	require.NoError(suite.T(), suite.db.Where("user_id = ?", suite.fix.Author.ID).First(&notif).Error)
	assert.Equal(suite.T(), models.NotificationObjectionHandled, notif.Type)
}

func (suite *ObjectionTestSuite) TestHandleObjectionWithoutOneRaised() {
	_, err := suite.svc.HandleObjection(suite.ctx, suite.fix.Post.ID, KindPost, models.StateSpammed, "remove")
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "No spammed objection found for this post", apperrors.AsAPIError(err).Message)
}

func (suite *ObjectionTestSuite) TestHandleObjectionOnlyOnce() {
	suite.objectReported()
	_, err := suite.svc.HandleObjection(suite.ctx, suite.fix.Post.ID, KindPost, models.StateReported, "remove")
	require.NoError(suite.T(), err)

	_, err = suite.svc.HandleObjection(suite.ctx, suite.fix.Post.ID, KindPost, models.StateReported, "remove")
	require.Error(suite.T(), err)
	assert.Equal(suite.T(),
		"The objection reported cannot be removed because it has already been handled.",
		apperrors.AsAPIError(err).Message)
}

func (suite *ObjectionTestSuite) TestHandleObjectionActionValidation() {
	suite.objectReported()

	_, err := suite.svc.HandleObjection(suite.ctx, suite.fix.Post.ID, KindPost, models.StateReported, "escalate")
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Invalid action, must be approve or remove", apperrors.AsAPIError(err).Message)
}

func (suite *ObjectionTestSuite) TestHandleEditApprove() {
	suite.editPost("Edited once.")

	msg, err := suite.svc.HandleEdit(suite.ctx, suite.fix.Post.ID, KindPost, "approve")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Edit approved successfully", msg)

	post := suite.reloadPost()
	assert.False(suite.T(), post.CommunityModeration.PendingEdit)
	assert.True(suite.T(), post.CommunityModeration.AnyActionTaken)

	var entry models.EditHistoryEntry
	require.NoError(suite.T(), suite.db.Where("item_id = ?", post.ID).First(&entry).Error)
	assert.True(suite.T(), entry.ApprovedEditFlag)
	assert.False(suite.T(), entry.Pending())
}

func (suite *ObjectionTestSuite) TestHandleEditOnlyOnce() {
	suite.editPost("Edited once.")
	_, err := suite.svc.HandleEdit(suite.ctx, suite.fix.Post.ID, KindPost, "remove")
	require.NoError(suite.T(), err)

	_, err = suite.svc.HandleEdit(suite.ctx, suite.fix.Post.ID, KindPost, "remove")
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "last edit is already approved or removed", apperrors.AsAPIError(err).Message)
}

func (suite *ObjectionTestSuite) TestHandleEditWithoutHistory() {
	_, err := suite.svc.HandleEdit(suite.ctx, suite.fix.Post.ID, KindPost, "approve")
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Item has no edit history", apperrors.AsAPIError(err).Message)
}

// The full cycle: an edit blocks objections until a moderator handles it,
// after which objections can be raised again.
func (suite *ObjectionTestSuite) TestEditThenHandleThenObject() {
	suite.editPost("Edited body.")

	_, err := suite.svc.ObjectItem(suite.ctx, suite.fix.Post.ID, KindPost,
		models.StateReported, suite.fix.Author.ID, "Spam", suite.fix.Community.Name)
	require.Error(suite.T(), err)

	_, err = suite.svc.HandleEdit(suite.ctx, suite.fix.Post.ID, KindPost, "approve")
	require.NoError(suite.T(), err)

	msg, err := suite.svc.ObjectItem(suite.ctx, suite.fix.Post.ID, KindPost,
		models.StateReported, suite.fix.Author.ID, "Spam", suite.fix.Community.Name)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Post reported successfully", msg)
}

func (suite *ObjectionTestSuite) TestHandleUnmoderatedApprove() {
	msg, err := suite.svc.HandleUnmoderatedItem(suite.ctx, suite.fix.Post.ID, KindPost, suite.fix.Moderator.ID, "approve")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Post approved successfully", msg)

	post := suite.reloadPost()
	assert.True(suite.T(), post.CommunityModeration.UnmoderatedApprovedFlag)
	assert.Equal(suite.T(), suite.fix.Moderator.ID, post.CommunityModeration.UnmoderatedApprovedBy)
	require.NotNil(suite.T(), post.CommunityModeration.UnmoderatedApprovedDate)
	assert.True(suite.T(), post.CommunityModeration.AnyActionTaken)
}

func (suite *ObjectionTestSuite) TestHandleUnmoderatedClosesWorkflow() {
	_, err := suite.svc.HandleUnmoderatedItem(suite.ctx, suite.fix.Post.ID, KindPost, suite.fix.Moderator.ID, "remove")
	require.NoError(suite.T(), err)

	_, err = suite.svc.HandleUnmoderatedItem(suite.ctx, suite.fix.Post.ID, KindPost, suite.fix.Moderator.ID, "approve")
	require.Error(suite.T(), err)
	apiErr := apperrors.AsAPIError(err)
	assert.Equal(suite.T(), apperrors.ErrAlreadyInState, apiErr.Code)
	assert.Equal(suite.T(), "Post is already approved or removed", apiErr.Message)
}

func (suite *ObjectionTestSuite) TestHandleUnmoderatedActionValidation() {
	_, err := suite.svc.HandleUnmoderatedItem(suite.ctx, suite.fix.Post.ID, KindPost, suite.fix.Moderator.ID, "escalate")
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Invalid action, must be approve or remove", apperrors.AsAPIError(err).Message)
}

func TestObjectionTestSuite(t *testing.T) {
	suite.Run(t, new(ObjectionTestSuite))
}
