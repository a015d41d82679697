// Package server contains the HTTP handlers for the blog API.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "scribe/docs" // swagger docs
	"scribe/internal/auth"
	"scribe/internal/bootstrap"
	"scribe/internal/config"
	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/repository"
	"scribe/internal/revocation"
	"scribe/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	credentials    *auth.Credentials
	revocations    *revocation.Store
	identity       *service.IdentityResolver
	postService    *service.PostService
	tagService     *service.TagService
	userService    *service.UserService
}

// NewServer creates a new server instance with all dependencies. Redis is
// optional: without it tokens cannot be revoked.
func NewServer(cfg *config.Config, opts bootstrap.Options) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, opts)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	creds, err := bootstrap.NewCredentials(cfg)
	if err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}

	repos := repository.NewRepositories(db)
	uow := repository.NewUnitOfWork(db)

	server := &Server{
		config:         cfg,
		db:             db,
		promMiddleware: middleware.InitMetrics("scribe-api"),
		credentials:    creds,
		postService:    service.NewPostService(repos, uow),
		tagService:     service.NewTagService(repos, uow),
		userService:    service.NewUserService(repos, uow, creds),
	}

	if redisClient != nil {
		server.revocations = revocation.NewStore(redisClient)
		server.identity = service.NewIdentityResolver(creds, repos.Users, server.revocations)
	} else {
		server.identity = service.NewIdentityResolver(creds, repos.Users, nil)
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "X-Request-ID, X-Trace-ID",
		MaxAge:        86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// User and auth routes. /me routes are declared before /:username.
	users := api.Group("/users")
	users.Post("/", s.Register)
	users.Post("/token", s.Token)
	users.Post("/logout", s.AuthRequired(), s.Logout)
	users.Get("/me", s.AuthRequired(), s.GetMe)
	users.Patch("/me/visibility", s.AuthRequired(), s.ToggleVisibility)
	users.Get("/:username/posts", s.OptionalAuth(), s.GetUserPosts)
	users.Get("/:username", s.GetUser)

	// Post routes. Reads work anonymously, writes need a token.
	posts := api.Group("/posts")
	posts.Get("/", s.OptionalAuth(), s.GetPosts)
	posts.Get("/:id", s.OptionalAuth(), s.GetPost)
	posts.Post("/", s.AuthRequired(), s.CreatePost)
	posts.Patch("/:id", s.AuthRequired(), s.UpdatePost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)

	tags := api.Group("/tags")
	tags.Get("/", s.GetTags)
	tags.Post("/", s.AuthRequired(), s.CreateTag)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so a
// missing client does not make the service unready but a failing one does.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.revocations != nil {
		redisStatus = "healthy"
		if err := s.revocations.Ping(ctx); err != nil {
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

// App returns the Fiber application, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "Scribe API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler renders errors that escape handlers, such as unknown routes
// and recovered panics.
func errorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return models.RespondWithError(c, fe.Code, &models.AppError{
			Code:    codeForStatus(fe.Code),
			Message: fe.Message,
		})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError,
		models.NewInternalError(err))
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
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
	if s.revocations != nil {
		if rerr := s.revocations.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

// AuthRequired returns the authentication middleware. It stores the caller in
// locals ("identity", "userID", "viewer") and in the user context for logging.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.identity.ResolveRequired(c.UserContext(), middleware.BearerToken(c))
		if err != nil {
			return respondServiceError(c, err)
		}

		c.Locals(localIdentity, id)
		setViewer(c, models.Authenticated(id.User))
		return c.Next()
	}
}

// OptionalAuth resolves a bearer token when one is present. Missing or bad
// tokens leave the request anonymous instead of failing it.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		setViewer(c, s.identity.ResolveOptional(c.UserContext(), middleware.BearerToken(c)))
		return c.Next()
	}
}

func setViewer(c *fiber.Ctx, viewer models.Viewer) {
	c.Locals(localViewer, viewer)
	middleware.SetViewer(c, viewer.UserID())
}
