package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/subcircle/backend/internal/auth"
	"github.com/subcircle/backend/internal/cache"
	"github.com/subcircle/backend/internal/config"
	"github.com/subcircle/backend/internal/database"
	"github.com/subcircle/backend/internal/handlers"
	"github.com/subcircle/backend/internal/logger"
	"github.com/subcircle/backend/internal/metrics"
	"github.com/subcircle/backend/internal/middleware"
	"github.com/subcircle/backend/internal/moderation"
	"github.com/subcircle/backend/internal/telemetry"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("Subcircle server starting")

	// Initialize database
	if err := database.Initialize(cfg); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis is optional; the moderation service falls back to the database
	// for removal-reason lookups when the cache is absent.
	var redisClient *cache.RedisClient
	if cfg.RedisHost != "" {
		rc, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("Redis unavailable, continuing without cache", zap.Error(err))
		} else {
			redisClient = rc
		}
	}

	// Tracing is enabled when an OTLP endpoint is configured
	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "subcircle-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.OTLPEndpoint != "",
		SamplingRate: 1.0,
	})
	if err != nil {
		logger.Log.Warn("Failed to initialize tracing", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		}()
	}

	metrics.Initialize()

	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}
	authService := auth.NewService(cfg.JWTSecret)

	moderationOpts := []moderation.Option{
		moderation.WithUnmoderatedExcludesReported(cfg.UnmoderatedExcludesReported),
	}
	if redisClient != nil {
		moderationOpts = append(moderationOpts, moderation.WithCache(redisClient))
	}
	moderationService := moderation.NewService(database.DB, moderationOpts...)

	h := handlers.NewHandlers(authService, moderationService)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(otelgin.Middleware("subcircle-backend"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "subcircle-backend",
		})
	})

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.AuthMiddleware(authService)

	// API routes
	api := r.Group("/api/v1")
	{
		// Authentication routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", requireAuth, h.Me)
		}

		// Post routes
		posts := api.Group("/posts")
		{
			posts.Use(requireAuth)
			posts.POST("", h.CreatePost)
			posts.GET("", h.ListPosts)
			posts.GET("/:id", h.GetPost)
			posts.DELETE("/:id", h.DeletePost)
			posts.POST("/:id/vote", h.VotePost)
			posts.POST("/:id/comments", h.CreateComment)
			posts.GET("/:id/comments", h.GetComments)
		}

		// Comment routes
		comments := api.Group("/comments")
		{
			comments.Use(requireAuth)
			comments.DELETE("/:id", h.DeleteComment)
		}

		// Community routes
		communities := api.Group("/communities")
		{
			communities.Use(requireAuth)
			communities.POST("", h.CreateCommunity)
			communities.GET("/:name", h.GetCommunity)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		{
			notifications.Use(requireAuth)
			notifications.GET("", h.GetNotifications)
			notifications.POST("/read", h.MarkNotificationsRead)
		}

		// Author-side moderation surface: raising objections and editing
		// one's own removed items needs auth but not moderator rights.
		items := api.Group("/items")
		{
			items.Use(requireAuth)
			items.POST("/:item_type/:id/objections", h.ObjectItem)
			items.PUT("/:item_type/:id", h.EditItem)
		}

		// Moderation routes, guarded by the moderator gate
		mod := api.Group("/mod")
		{
			mod.Use(requireAuth)
			mod.Use(middleware.RequireModerator())

			// State transitions
			mod.POST("/items/remove", h.RemoveItem)
			mod.POST("/items/spam", h.SpamItem)
			mod.POST("/items/report", h.ReportItem)
			mod.POST("/items/approve", h.ApproveItem)

			// Community workflows
			mod.POST("/items/:item_type/:id/objections/:objection_type", h.HandleObjection)
			mod.POST("/items/:item_type/:id/edits", h.HandleEdit)
			mod.POST("/items/:item_type/:id/unmoderated", h.HandleUnmoderatedItem)
			mod.GET("/items/:item_type/:id/history", h.ItemHistory)

			// Community management, per-community checks in the handlers
			mod.POST("/communities/:name/removal-reasons", h.AddRemovalReason)
			mod.POST("/communities/:name/bans", h.BanUser)

			// Queues
			mod.GET("/queue", h.GetQueue)
			mod.GET("/queue/removed", h.GetRemovedItems)
			mod.GET("/queue/reported", h.GetReportedItems)
			mod.GET("/queue/unmoderated", h.GetUnmoderatedItems)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info("Subcircle backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
