// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "communityhub/docs" // swagger docs
	"communityhub/internal/config"
	"communityhub/internal/featureflags"
	"communityhub/internal/mailer"
	"communityhub/internal/middleware"
	"communityhub/internal/models"
	"communityhub/internal/notifications"
	"communityhub/internal/repository"
	"communityhub/internal/service"
	"communityhub/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// FlagRoomScopedFanout limits WebSocket relays to peers in the sender's room.
const FlagRoomScopedFanout = "room_scoped_fanout"

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	tokens          *middleware.TokenManager
	files           storage.FileStore
	mail            mailer.Mailer
	userRepo        repository.UserRepository
	hub             *notifications.Hub
	featureFlags    *featureflags.Manager
	authService     *service.AuthService
	userService     *service.UserService
	postService     *service.PostService
	reactionService *service.ReactionService
	commentService  *service.CommentService
	serverService   *service.ServerService
	feedbackService *service.FeedbackService
}

// Option overrides a dependency built by NewServerWithDeps.
type Option func(*Server)

// WithFileStore replaces the local upload directory.
func WithFileStore(fs storage.FileStore) Option {
	return func(s *Server) { s.files = fs }
}

// WithMailer replaces the mailer derived from SMTP settings.
func WithMailer(m mailer.Mailer) Option {
	return func(s *Server) { s.mail = m }
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// The bootstrap layer establishes DB/Redis; tests pass in-memory versions.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("communityhub-api"),
		tokens:         middleware.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	for _, opt := range opts {
		opt(server)
	}

	if server.files == nil {
		fs, err := storage.NewLocalFileStore(cfg.UploadDir, cfg.PublicUploadPath)
		if err != nil {
			return nil, err
		}
		server.files = fs
	}
	if server.mail == nil {
		server.mail = mailer.New(cfg)
	}

	// Initialize repositories
	server.userRepo = repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	server.authService = service.NewAuthService(server.userRepo, server.mail, server.tokens)
	server.userService = service.NewUserService(server.userRepo, server.files, cfg.AdminEmail)
	server.postService = service.NewPostService(postRepo, server.files, server.userRepo.IsAdmin)
	server.reactionService = service.NewReactionService(repository.NewReactionRepository(db))
	server.commentService = service.NewCommentService(repository.NewCommentRepository(db))
	server.serverService = service.NewServerService(repository.NewServerRepository(db))
	server.feedbackService = service.NewFeedbackService(repository.NewFeedbackRepository(db), server.mail, cfg.AdminEmail)

	server.hub = notifications.NewHub(notifications.HubConfig{
		RoomScoped: server.featureFlags.Enabled(FlagRoomScopedFanout, 0),
	})

	return server, nil
}

// Hub exposes the fan-out registry.
func (s *Server) Hub() *notifications.Hub { return s.hub }

// App builds the Fiber application with middleware and routes on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	bodyLimit := s.config.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 105
	}
	app := fiber.New(fiber.Config{
		AppName:   "Community Hub API",
		BodyLimit: bodyLimit << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers; uploads are served cross-origin to the web client.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

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
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests or probes.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || c.Path() == "/health/live"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Uploaded attachments and avatars
	if local, ok := s.files.(*storage.LocalFileStore); ok {
		app.Static(local.PublicPath, local.Root, fiber.Static{MaxAge: 3600})
	}

	// Realtime fan-out; no authentication
	app.Use("/ws", s.WebSocketUpgrade())
	app.Get("/ws", s.WebsocketHandler())

	api := app.Group("/api")

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 5, 15*time.Minute, "register"), s.Register)
	auth.Post("/verify-email", middleware.RateLimit(
		s.redis, 10, 15*time.Minute, "verify_email"), s.VerifyEmail)
	auth.Post("/resend-code", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "resend_code"), s.ResendCode)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Post("/forgot-password", middleware.RateLimit(
		s.redis, 3, 15*time.Minute, "forgot_password"), s.ForgotPassword)
	auth.Post("/reset-password", middleware.RateLimit(
		s.redis, 5, 15*time.Minute, "reset_password"), s.ResetPassword)

	// User routes
	user := api.Group("/user", s.AuthRequired())
	user.Get("/profile", s.GetProfile)
	user.Put("/profile", s.UpdateProfile)
	user.Post("/upload-profile-picture", s.UploadProfilePicture)
	user.Post("/change-password", s.ChangePassword)
	user.Delete("/account", s.DeleteAccount)
	user.Get("/servers", s.GetMyServers)

	// Post routes
	posts := api.Group("/posts", s.AuthRequired())
	posts.Get("/", s.GetPosts)
	posts.Post("/", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/react", s.AddReaction)
	posts.Delete("/:id/react/:type", s.RemoveReaction)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 30, time.Minute, "create_comment"), s.CreateComment)
	posts.Delete("/:id", s.DeletePost)

	// Free server routes
	servers := api.Group("/servers", s.AuthRequired())
	servers.Get("/", s.GetServers)
	servers.Post("/generate", s.GenerateServer)

	// Feedback: the board is public, submitting is not
	api.Get("/feedback", s.GetPublicFeedback)
	api.Post("/feedback", s.AuthRequired(), middleware.RateLimit(
		s.redis, 5, time.Hour, "feedback"), s.SubmitFeedback)

	// Admin routes
	admin := api.Group("/admin", s.AuthRequired(), s.AdminRequired())
	admin.Get("/users", s.AdminListUsers)
	admin.Delete("/users/:id", s.AdminDeleteUser)
	admin.Patch("/users/:id/toggle-admin", s.AdminToggleAdmin)
	admin.Post("/servers", s.AdminCreateServer)
	admin.Delete("/servers/:id", s.AdminDeleteServer)
	admin.Get("/feedback", s.AdminListFeedback)
	admin.Delete("/comments/:id", s.AdminDeleteComment)
	admin.Get("/feature-flags", s.GetFeatureFlags)
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
		// Redis is considered required for full readiness in this app
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
		"connections": s.hub.Len(),
		"time":        time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that the user is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok || !user.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// AuthRequired returns the authentication middleware. A missing bearer token
// is 401, a bad or revoked one is 403, and a token for a deleted user is 401.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := middleware.BearerToken(c)
		if errors.Is(err, middleware.ErrMissingToken) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Access token required"))
		}
		if err != nil {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Invalid token"))
		}

		claims, err := s.tokens.Parse(raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Invalid token"))
		}

		ctx := c.UserContext()
		revoked, err := s.authService.IsRevoked(ctx, claims.JTI)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "token revocation check failed", slog.String("error", err.Error()))
		}
		if revoked {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Token has been revoked"))
		}

		user, err := s.userRepo.GetByID(ctx, claims.UserID)
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid token"))
			}
			return s.respondAppError(c, err)
		}

		c.Locals("userID", user.ID)
		c.Locals("user", user)
		c.Locals("claims", claims)
		// Sync to UserContext for logging and downstream services
		c.SetUserContext(context.WithValue(ctx, middleware.UserIDKey, user.ID))

		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Close WebSocket connections first so their handlers return
	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
