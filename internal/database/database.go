package database

import (
	"fmt"
	"log"
	"time"

	"github.com/subcircle/backend/internal/config"
	"github.com/subcircle/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize(cfg *config.Config) error {
	databaseURL := cfg.DatabaseURL
	if databaseURL == "" {
		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
	}

	gormLogger := logger.Default
	if cfg.Environment == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Println("Database connected")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.AutoMigrate(
		&models.User{},
		&models.Community{},
		&models.RemovalReason{},
		&models.CommunityModerator{},
		&models.CommunityBan{},
		&models.Post{},
		&models.Comment{},
		&models.PostVote{},
		&models.ModerationEvent{},
		&models.EditHistoryEntry{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// createIndexes creates performance indexes for the moderation queues.
// Partial indexes keep queue scans cheap: most items never enter moderation.
func createIndexes() error {
	// Removed/spammed queue scans
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_mod_removed ON posts (community_name, created_at DESC) WHERE mod_removed_flag = true OR mod_spammed_flag = true")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_mod_removed ON comments (community_name, created_at DESC) WHERE mod_removed_flag = true OR mod_spammed_flag = true")

	// Reported queue scans
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_mod_reported ON posts (community_name, created_at DESC) WHERE mod_reported_flag = true")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_mod_reported ON comments (community_name, created_at DESC) WHERE mod_reported_flag = true")

	// Pending-edit (edited queue) scans
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_pending_edit ON posts (community_name, created_at DESC) WHERE cmod_pending_edit = true")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_pending_edit ON comments (community_name, created_at DESC) WHERE cmod_pending_edit = true")

	// Transition log lookups are always per item, newest last
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_moderation_events_item_created ON moderation_events (item_kind, item_id, created_at)")

	// Latest edit entry per item
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_edit_history_item_edited ON edit_history_entries (item_kind, item_id, edited_at DESC)")

	// Unread notification counts
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications (user_id, created_at DESC) WHERE read = false")

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
