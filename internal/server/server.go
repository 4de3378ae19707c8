// Package server contains the HTTP handlers and routing of the blog.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "quill/docs" // swagger docs
	"quill/internal/bootstrap"
	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/events"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/service"
	"quill/internal/storage"

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

// Server holds all dependencies and provides handlers
type Server struct {
	config    *config.Config
	db        *gorm.DB
	redis     *redis.Client
	app       *fiber.App
	pageCache cache.PageCache
	blobs     storage.BlobStore
	publisher events.Publisher

	userRepo    repository.UserRepository
	groupRepo   repository.GroupRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository

	authService    *service.AuthService
	groupService   *service.GroupService
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	feedService    *service.FeedService
	imageService   *service.ImageService
}

// Option overrides a dependency that NewServerWithDeps would otherwise build
// from the configuration.
type Option func(*Server)

// WithPageCache replaces the page cache.
func WithPageCache(c cache.PageCache) Option {
	return func(s *Server) { s.pageCache = c }
}

// WithBlobStore replaces the media blob store.
func WithBlobStore(b storage.BlobStore) Option {
	return func(s *Server) { s.blobs = b }
}

// WithPublisher replaces the domain event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// NewServer connects to the database and Redis and builds a server. Without
// Redis the page cache lives in process memory.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedGroups: cfg.Env == "development"})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(ctx, cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// rdb may be nil.
func NewServerWithDeps(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, opts ...Option) (*Server, error) {
	middleware.InitMiddleware(cfg)

	s := &Server{
		config:      cfg,
		db:          db,
		redis:       rdb,
		userRepo:    repository.NewUserRepository(db),
		groupRepo:   repository.NewGroupRepository(db),
		postRepo:    repository.NewPostRepository(db),
		commentRepo: repository.NewCommentRepository(db),
		followRepo:  repository.NewFollowRepository(db),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.pageCache == nil {
		s.pageCache = cache.NewPageCache(rdb, cfg.IndexCacheSize)
	}
	if s.blobs == nil {
		blobs, err := storage.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("blob store: %w", err)
		}
		s.blobs = blobs
	}
	if s.publisher == nil {
		s.publisher = events.NewPublisher(cfg, rdb)
	}

	s.imageService = service.NewImageService(s.blobs, cfg.ImageMaxUploadMB)
	s.authService = service.NewAuthService(s.userRepo)
	s.groupService = service.NewGroupService(s.groupRepo)
	s.postService = service.NewPostService(s.postRepo, s.groupRepo, s.imageService, s.publisher)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo, s.publisher)
	s.followService = service.NewFollowService(s.followRepo, s.publisher)
	s.feedService = service.NewFeedService(s.postRepo, s.groupRepo, s.userRepo, s.followRepo, s.imageService, cfg.FeedPageSize)

	return s, nil
}

// AuthService exposes account handling to tools that share the server wiring.
func (s *Server) AuthService() *service.AuthService { return s.authService }

// App builds the fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	// Multipart bodies are parsed by the form handlers so a broken upload is
	// reported against its field.
	app := fiber.New(fiber.Config{
		AppName:                      "quill",
		BodyLimit:                    (s.config.ImageMaxUploadMB + 1) * 1024 * 1024,
		ErrorHandler:                 s.errorHandler,
		DisablePreParseMultipartForm: true,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.LoadSession)
	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	middleware.InitMetrics(app, "quill")

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: !strings.Contains(origins, "*"),
		MaxAge:           86400,
	}))

	if s.config.RateLimitPerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        s.config.RateLimitPerMinute,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions || strings.HasPrefix(c.Path(), "/health")
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
					Error: "Too many requests, please try again later.",
				})
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/swagger/*", swagger.HandlerDefault)

	if local, ok := s.blobs.(*storage.LocalStore); ok {
		app.Static("/media", local.Root())
	}

	auth := app.Group("/auth")
	auth.Get("/signup/", s.SignupForm)
	auth.Post("/signup/", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	auth.Get("/login/", s.LoginForm)
	auth.Post("/login/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/logout/", s.Logout)

	app.Get("/", s.Index)
	app.Get("/group/:slug/", s.GroupPosts)

	// Specific /profile/:username/<action>/ routes before the profile itself.
	app.Get("/profile/:username/follow/", middleware.LoginRequired, s.ProfileFollow)
	app.Get("/profile/:username/unfollow/", middleware.LoginRequired, s.ProfileUnfollow)
	app.Get("/profile/:username/", s.Profile)

	app.Get("/follow/", middleware.LoginRequired, s.FollowIndex)

	app.Get("/create/", middleware.LoginRequired, s.PostCreateForm)
	app.Post("/create/", middleware.LoginRequired,
		middleware.RateLimit(s.redis, 30, time.Minute, "create_post"), s.PostCreate)

	app.Get("/posts/:id/edit/", middleware.LoginRequired, s.PostEditForm)
	app.Post("/posts/:id/edit/", middleware.LoginRequired, s.PostEdit)
	app.Post("/posts/:id/comment/", middleware.LoginRequired,
		middleware.RateLimit(s.redis, 30, time.Minute, "create_comment"), s.AddComment)
	app.Get("/posts/:id/", s.PostDetail)
}

// LivenessCheck handles liveness probe requests
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string,time=string}
// @Router /health/live [get]
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and, when configured, Redis.
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string,checks=map[string]string}
// @Failure 503 {object} object{status=string,checks=map[string]string}
// @Router /health/ready [get]
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
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

// errorHandler renders errors that handlers return instead of writing a response.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}

	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// Start serves HTTP on the configured port until Shutdown.
func (s *Server) Start() error {
	s.app = s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			middleware.Logger.Error("error closing event publisher", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
