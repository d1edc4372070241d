// Package server contains HTTP and WebSocket handlers for the moderation API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"gatekeeper/internal/analysis"
	"gatekeeper/internal/cache"
	"gatekeeper/internal/community"
	"gatekeeper/internal/config"
	"gatekeeper/internal/database"
	"gatekeeper/internal/middleware"
	"gatekeeper/internal/models"
	"gatekeeper/internal/notifications"
	"gatekeeper/internal/queue"
	"gatekeeper/internal/repository"
	"gatekeeper/internal/screening"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	notifier *notifications.Notifier
	hub      *notifications.Hub

	screeningService *screening.ContentScreeningService
	queueService     *queue.ModerationQueueService
	communityService *community.CommunityModerationService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Initialize Redis
	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests and the bootstrap layer use this after establishing DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	// Auth middleware reads the JWT secret from this config.
	middleware.InitMiddleware(cfg)

	// Initialize repositories
	ruleRepo := repository.NewRuleRepository(db)
	resultRepo := repository.NewResultRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	reportRepo := repository.NewReportRepository(db)
	actionRepo := repository.NewActionRepository(db)
	moderatorRepo := repository.NewModeratorRepository(db)
	banRepo := repository.NewBanRepository(db)
	appealRepo := repository.NewAppealRepository(db)

	// Initialize Prometheus metrics
	prom := middleware.InitMetrics("gatekeeper-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
	}

	// Event fan-out: no-op without Redis, host systems subscribe otherwise.
	var publisher notifications.Publisher = notifications.NopPublisher{}
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub()
		publisher = server.notifier
	}

	// Analysis collaborators. Without a configured vision endpoint image
	// checks score zero rather than blocking screening.
	var imageAnalyzer analysis.ImageAnalyzer = analysis.NoopImageAnalyzer{}
	if cfg.ImageAnalysisURL != "" {
		imageAnalyzer = analysis.NewHTTPImageAnalyzer(cfg.ImageAnalysisURL, time.Duration(cfg.AnalysisTimeoutSecs)*time.Second)
	}

	screeningService, err := screening.NewContentScreeningService(
		context.Background(),
		ruleRepo,
		resultRepo,
		analysis.NewHeuristicTextAnalyzer(),
		imageAnalyzer,
		cfg,
	)
	if err != nil {
		return nil, fmt.Errorf("screening service init failed: %w", err)
	}
	screeningService.SetFileScanner(analysis.NewFileScanner(
		cfg.MaxScanFileSizeBytes,
		fmt.Sprintf("%s:%d", cfg.ClamAVHost, cfg.ClamAVPort),
	))
	server.screeningService = screeningService

	server.queueService = queue.NewModerationQueueService(queueRepo, reportRepo, resultRepo, actionRepo, publisher)
	server.communityService = community.NewCommunityModerationService(
		moderatorRepo, banRepo, appealRepo, actionRepo, reportRepo, server.queueService, publisher)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// OpenTelemetry spans per request
	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Gatekeeper Metrics Dashboard",
	}))

	protected := api.Group("", middleware.AuthRequired)

	// Screening: verdicts and rule administration
	screeningRoutes := protected.Group("/screening")
	screeningRoutes.Post("/", middleware.RateLimit(
		s.redis, 60, time.Minute, "screen_content"), s.ScreenContent)
	screeningRoutes.Get("/config", s.GetScreeningConfig)
	screeningRoutes.Put("/config", s.UpdateScreeningConfig)
	screeningRoutes.Get("/rules", s.GetRules)
	screeningRoutes.Post("/rules", s.AddRule)
	screeningRoutes.Put("/rules/:id", s.UpdateRule)
	screeningRoutes.Delete("/rules/:id", s.DeleteRule)

	// Review queue
	queueRoutes := protected.Group("/queue")
	queueRoutes.Post("/", s.AddToQueue)
	queueRoutes.Get("/", s.GetPendingItems)
	queueRoutes.Get("/stats", s.GetQueueStats)
	queueRoutes.Post("/cleanup", s.RunCleanup)
	queueRoutes.Post("/:id/assign", s.AssignToModerator)
	queueRoutes.Post("/:id/complete", s.CompleteReview)

	// User reports
	protected.Post("/reports", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "submit_report"), s.SubmitUserReport)

	// Community moderation
	communities := protected.Group("/communities/:communityId")
	communities.Get("/moderators", s.GetCommunityModerators)
	communities.Post("/moderators", s.AppointModerator)
	communities.Delete("/moderators/:userId", s.RemoveModerator)

	bans := protected.Group("/bans")
	bans.Post("/", s.BanUser)
	bans.Delete("/:id", s.UnbanUser)
	protected.Get("/users/:userId/banned", s.IsUserBanned)
	protected.Get("/users/:userId/history", s.GetUserModerationHistory)

	appeals := protected.Group("/appeals")
	appeals.Post("/", middleware.RateLimit(
		s.redis, 5, time.Hour, "submit_appeal"), s.SubmitAppeal)
	appeals.Get("/", s.GetPendingAppeals)
	appeals.Post("/:id/review", s.ReviewAppeal)

	protected.Post("/bulk-moderate", s.BulkModerate)
	protected.Get("/dashboard", s.GetModerationDashboard)

	// Moderator event stream
	ws := api.Group("/ws", middleware.WebSocketAuthRequired)
	ws.Get("/", s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Event delivery and caching need Redis; readiness degrades without it.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Gatekeeper Moderation API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Relay published moderation events to connected moderator dashboards.
	if s.notifier != nil && s.hub != nil {
		if err := s.notifier.Subscribe(s.shutdownCtx, s.relayEvent); err != nil {
			log.Printf("failed to start event relay: %v", err)
		}
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stop the event relay goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

// QueueService exposes the queue service for the bootstrap layer.
func (s *Server) QueueService() *queue.ModerationQueueService { return s.queueService }

// CommunityService exposes the community service for the bootstrap layer.
func (s *Server) CommunityService() *community.CommunityModerationService { return s.communityService }

// ScreeningService exposes the screening service for the bootstrap layer.
func (s *Server) ScreeningService() *screening.ContentScreeningService { return s.screeningService }
