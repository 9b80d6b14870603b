package router

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/socialnet/backend/internal/handlers"
	"github.com/anonto42/socialnet/backend/internal/middleware"
	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/anonto42/socialnet/backend/internal/repositories"
	"github.com/anonto42/socialnet/backend/internal/services"
	"github.com/anonto42/socialnet/backend/pkg/config"
	"github.com/anonto42/socialnet/backend/pkg/mailer"
	"github.com/anonto42/socialnet/backend/validators"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the collaborators the routes are built from.
// Mongo, Redis and FirebaseAuth are optional.
type Dependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	DB           *gorm.DB
	Mongo        *mongo.Database
	Redis        *redis.Client
	FirebaseAuth *auth.Client
	Mailer       mailer.Mailer
}

// Services exposes the wired services to callers outside HTTP, such as startup reconciliation.
type Services struct {
	Counter    *services.LikeCounter
	Engagement *services.EngagementService
	Auth       *services.AuthService
	Tokens     *services.TokenManager
}

// NewEcho creates the Echo instance with the validator and error handler installed
func NewEcho(logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler(logger)
	return e
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.RateLimitMiddleware(
		middleware.NewRateLimiterStore(redisClient, cfg.RateLimitPerMinute, cfg.RateLimitBurst, logger),
	))
	logger.Info("global middleware configured", zap.Bool("redis_rate_limit", redisClient != nil))
}

// SetupRoutes migrates the schema, wires repositories and services and registers every route
func SetupRoutes(e *echo.Echo, deps Dependencies) (*Services, error) {
	cfg, logger, db := deps.Config, deps.Logger, deps.DB

	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto migrate models: %w", err)
	}
	logger.Info("relational auto-migrations completed")

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db)
	postRepo := repositories.NewPostgresPostRepository(db)
	likeRepo := repositories.NewPostgresLikeRepository(db)
	followRepo := repositories.NewPostgresFollowRepository(db)
	commentRepo := repositories.NewPostgresCommentRepository(db)
	resetRepo := repositories.NewPostgresPasswordResetRepository(db)

	var activityRepo repositories.ActivityRepository = repositories.NoopActivityRepository{}
	if deps.Mongo != nil {
		mongoActivity := repositories.NewMongoActivityRepository(deps.Mongo)
		if err := mongoActivity.EnsureIndexes(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to create activity indexes: %w", err)
		}
		activityRepo = mongoActivity
	}

	// --- Initialize Services ---
	var firebaseVerifier services.FirebaseVerifier
	if deps.FirebaseAuth != nil {
		firebaseVerifier = deps.FirebaseAuth
	}

	tokens := services.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	counter := services.NewLikeCounter(db, likeRepo, postRepo, cfg.CounterRetryAttempts, cfg.ReconcileBatchSize, logger)
	engagement := services.NewEngagementService(db, likeRepo, followRepo, postRepo, userRepo, counter, activityRepo, logger)
	postService := services.NewPostService(postRepo, likeRepo, commentRepo, followRepo, userRepo, activityRepo, logger)
	commentService := services.NewCommentService(commentRepo, postRepo, activityRepo, logger)
	accountService := services.NewAccountService(db, userRepo, followRepo, likeRepo, counter, logger)
	authService := services.NewAuthService(db, userRepo, resetRepo, tokens, deps.Mailer, firebaseVerifier, cfg.PasswordResetTTL, cfg.FrontendURL, logger)

	// Health check - always accessible
	handlers.NewHealthHandler(db).RegisterHealthRoutes(e)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(authService).RegisterAuthRoutes(authGroup)

	// --- Protected routes ---
	authenticators := []middleware.TokenAuthenticator{middleware.LocalJWTAuthenticator(tokens)}
	if deps.FirebaseAuth != nil {
		authenticators = append(authenticators, middleware.FirebaseAuthenticator(deps.FirebaseAuth, authService))
	}
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(authenticators...))

	handlers.NewUserHandler(accountService, authService, postService).RegisterProfileRoutes(api)
	handlers.NewPostHandler(postService).RegisterPostRoutes(api)
	handlers.NewLikeHandler(engagement).RegisterLikeRoutes(api)
	handlers.NewFollowHandler(engagement).RegisterFollowRoutes(api)
	handlers.NewCommentHandler(commentService).RegisterCommentRoutes(api)
	handlers.NewFeedHandler(postService).RegisterFeedRoutes(api)
	handlers.NewActivityHandler(activityRepo).RegisterActivityRoutes(api)

	logger.Info("all routes configured",
		zap.Bool("firebase", deps.FirebaseAuth != nil),
		zap.Bool("activity_trail", deps.Mongo != nil),
	)

	return &Services{
		Counter:    counter,
		Engagement: engagement,
		Auth:       authService,
		Tokens:     tokens,
	}, nil
}
