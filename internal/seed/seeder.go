package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/subcircle/backend/internal/logger"
	"github.com/subcircle/backend/internal/models"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating communities...")
	communities, err := s.seedCommunities(users, 8)
	if err != nil {
		return fmt.Errorf("failed to seed communities: %w", err)
	}

	log("Creating posts...")
	posts, err := s.seedPosts(users, communities, 300)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	log("Creating comments...")
	comments, err := s.seedComments(users, posts, 800)
	if err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	log("Creating votes...")
	if err := s.seedVotes(users, posts, 1500); err != nil {
		return fmt.Errorf("failed to seed votes: %w", err)
	}

	log("Applying moderation states...")
	if err := s.seedModerationStates(users, posts, comments); err != nil {
		return fmt.Errorf("failed to seed moderation states: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with minimal, predictable data
func (s *Seeder) SeedTest() error {
	logger.Log.Info("Creating test users...")

	testUserSpecs := []struct {
		username    string
		email       string
		displayName string
		isAdmin     bool
	}{
		{"alice", "alice@example.com", "Alice Smith", true},
		{"bob", "bob@example.com", "Bob Johnson", false},
		{"charlie", "charlie@example.com", "Charlie Brown", false},
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	hashedPasswordStr := string(hashedPassword)

	var users []models.User
	for _, spec := range testUserSpecs {
		var existing models.User
		if err := s.db.Where("email = ?", spec.email).First(&existing).Error; err == nil {
			users = append(users, existing)
			continue
		}

		user := models.User{
			Email:         spec.email,
			Username:      spec.username,
			DisplayName:   spec.displayName,
			PasswordHash:  &hashedPasswordStr,
			EmailVerified: true,
			IsAdmin:       spec.isAdmin,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	logger.Log.Info("Creating test community...")
	communities, err := s.seedCommunities(users, 1)
	if err != nil {
		return fmt.Errorf("failed to seed community: %w", err)
	}

	logger.Log.Info("Creating test posts...")
	if _, err := s.seedPosts(users, communities, 10); err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	return nil
}

// Clean removes all seed data (use with caution!)
func (s *Seeder) Clean() error {
	// Delete in reverse order of dependencies
	tables := []string{
		"notifications",
		"moderation_events",
		"edit_history_entries",
		"post_votes",
		"comments",
		"posts",
		"community_bans",
		"community_moderators",
		"removal_reasons",
		"communities",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

// seedUsers creates users with realistic data
func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var users []models.User

	var seedUserCount int64
	s.db.Model(&models.User{}).Where("email LIKE '%@example.com'").Count(&seedUserCount)
	if seedUserCount >= int64(count) {
		if err := s.db.Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Infof("Found %d existing users, skipping creation", len(users))
		return users, nil
	}

	// Default password for all dev users
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashedPasswordStr := string(hashedPassword)

	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := gofakeit.Email()

		// Ensure unique username/email
		var existingUser models.User
		for {
			if err := s.db.Where("username = ? OR email = ?", username, email).First(&existingUser).Error; err == gorm.ErrRecordNotFound {
				break
			}
			username = gofakeit.Username()
			email = gofakeit.Email()
		}

		user := models.User{
			Email:         email,
			Username:      username,
			DisplayName:   gofakeit.Name(),
			Bio:           gofakeit.HipsterSentence(),
			PasswordHash:  &hashedPasswordStr,
			EmailVerified: true,
			IsAdmin:       i == 0,
			KarmaCount:    rand.Intn(5000),
			AvatarURL:     fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
		}

		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	return users, nil
}

var seedRemovalReasons = []string{
	"Off topic",
	"Low effort",
	"Duplicate post",
	"Incivility",
	"Misinformation",
}

// seedCommunities creates communities with removal reasons and a couple of
// moderators each.
func (s *Seeder) seedCommunities(users []models.User, count int) ([]models.Community, error) {
	var communities []models.Community

	for i := 0; i < count; i++ {
		name := gofakeit.Word() + fmt.Sprintf("%d", rand.Intn(1000))
		creator := users[rand.Intn(len(users))]

		community := models.Community{
			Name:        name,
			Title:       gofakeit.BookTitle(),
			Description: gofakeit.Sentence(12),
			CreatorID:   creator.ID,
			MemberCount: rand.Intn(10000),
		}
		if err := s.db.Create(&community).Error; err != nil {
			return nil, fmt.Errorf("failed to create community: %w", err)
		}

		// Creator is always a moderator, plus one random extra
		mods := []models.CommunityModerator{
			{CommunityID: community.ID, UserID: creator.ID, Role: "creator"},
		}
		extra := users[rand.Intn(len(users))]
		if extra.ID != creator.ID {
			mods = append(mods, models.CommunityModerator{CommunityID: community.ID, UserID: extra.ID, Role: "moderator"})
		}
		for i := range mods {
			if err := s.db.Create(&mods[i]).Error; err != nil {
				return nil, fmt.Errorf("failed to create moderator: %w", err)
			}
		}

		reasonCount := rand.Intn(len(seedRemovalReasons)-1) + 2
		for _, title := range seedRemovalReasons[:reasonCount] {
			reason := models.RemovalReason{
				CommunityID: community.ID,
				Title:       title,
				Message:     gofakeit.Sentence(8),
			}
			if err := s.db.Create(&reason).Error; err != nil {
				return nil, fmt.Errorf("failed to create removal reason: %w", err)
			}
		}

		communities = append(communities, community)
	}

	return communities, nil
}

// seedPosts creates text posts spread across communities
func (s *Seeder) seedPosts(users []models.User, communities []models.Community, count int) ([]models.Post, error) {
	var posts []models.Post

	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		community := communities[rand.Intn(len(communities))]

		post := models.Post{
			AuthorID:       author.ID,
			AuthorUsername: author.Username,
			CommunityName:  community.Name,
			Title:          gofakeit.Sentence(6),
			Body:           gofakeit.Paragraph(1, 3, 12, " "),
			Kind:           "text",
			UpvoteCount:    rand.Intn(500),
			DownvoteCount:  rand.Intn(100),
			CreatedAt:      gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now()),
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}

	return posts, nil
}

// seedComments creates comments with one level of nesting
func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) ([]models.Comment, error) {
	var comments []models.Comment

	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		comment := models.Comment{
			PostID:         post.ID,
			AuthorID:       author.ID,
			AuthorUsername: author.Username,
			CommunityName:  post.CommunityName,
			Body:           gofakeit.Sentence(rand.Intn(20) + 3),
			UpvoteCount:    rand.Intn(100),
			CreatedAt:      gofakeit.DateRange(post.CreatedAt, time.Now()),
		}

		// Some replies to earlier comments on the same post
		if len(comments) > 0 && rand.Float32() < 0.3 {
			parent := comments[rand.Intn(len(comments))]
			if parent.PostID == comment.PostID {
				comment.ParentID = &parent.ID
			}
		}

		if err := s.db.Create(&comment).Error; err != nil {
			return nil, fmt.Errorf("failed to create comment: %w", err)
		}
		comments = append(comments, comment)
	}

	return comments, nil
}

// seedVotes creates post votes, one per user/post pair
func (s *Seeder) seedVotes(users []models.User, posts []models.Post, count int) error {
	seen := make(map[string]bool)

	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		key := user.ID + ":" + post.ID
		if seen[key] {
			continue
		}
		seen[key] = true

		value := 1
		if rand.Float32() < 0.25 {
			value = -1
		}

		vote := models.PostVote{
			UserID: user.ID,
			PostID: post.ID,
			Value:  value,
		}
		if err := s.db.Create(&vote).Error; err != nil {
			return fmt.Errorf("failed to create vote: %w", err)
		}
	}

	return nil
}

// seedModerationStates pushes a slice of the seeded items through moderation
// transitions so the queues have content out of the box.
func (s *Seeder) seedModerationStates(users []models.User, posts []models.Post, comments []models.Comment) error {
	moderator := users[0]

	apply := func(kind, id string, state string, reason string, when time.Time) error {
		updates := map[string]any{
			"mod_" + state + "_flag": true,
			"mod_" + state + "_by":   moderator.ID,
			"mod_" + state + "_date": when,
		}
		if reason != "" {
			updates["mod_"+state+"_removal_reason"] = reason
		}

		model := any(&models.Post{})
		if kind == "comment" {
			model = &models.Comment{}
		}

		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(model).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
			event := models.ModerationEvent{
				ItemKind:  kind,
				ItemID:    id,
				State:     state,
				Actor:     moderator.ID,
				Reason:    reason,
				CreatedAt: when,
			}
			return tx.Create(&event).Error
		})
	}

	for i, post := range posts {
		when := post.CreatedAt.Add(time.Duration(rand.Intn(72)) * time.Hour)
		switch {
		case i%10 == 0:
			if err := apply("post", post.ID, models.StateRemoved, seedRemovalReasons[0], when); err != nil {
				return err
			}
		case i%10 == 1:
			if err := apply("post", post.ID, models.StateReported, "", when); err != nil {
				return err
			}
		case i%10 == 2:
			if err := apply("post", post.ID, models.StateSpammed, seedRemovalReasons[1], when); err != nil {
				return err
			}
		case i%10 < 6:
			if err := apply("post", post.ID, models.StateApproved, "", when); err != nil {
				return err
			}
		}
	}

	for i, comment := range comments {
		if i%15 != 0 {
			continue
		}
		when := comment.CreatedAt.Add(time.Duration(rand.Intn(24)) * time.Hour)
		if err := apply("comment", comment.ID, models.StateReported, "", when); err != nil {
			return err
		}
	}

	return nil
}
