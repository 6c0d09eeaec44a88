package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/pdf"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/shortlink"
	"github.com/pageza/foodgram/backend/internal/storage"
)

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	redis  *redis.Client
}

// New connects to the database, Redis and the image store and wires every
// handler. Redis is optional; without it logout and rate limiting are no-ops.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		if rdb, err = database.NewRedisClient(cfg.Redis); err != nil {
			return nil, err
		}
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image store: %w", err)
	}

	s := &Server{cfg: cfg, db: db, redis: rdb}
	s.router, err = buildRouter(cfg, db, rdb, store)
	if err != nil {
		return nil, err
	}
	s.http = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s, nil
}

func buildRouter(cfg *config.Config, db *gorm.DB, rdb *redis.Client, store storage.Store) (*gin.Engine, error) {
	var revoker service.TokenRevoker
	if rdb != nil {
		revoker = service.NewRedisTokenRevoker(rdb)
	}

	images := storage.NewImages(store, cfg.Storage.MaxImageBytes)
	encoder, err := shortlink.New(cfg.ShortLink.Alphabet, cfg.ShortLink.MinLength)
	if err != nil {
		return nil, err
	}

	authService := service.NewAuthService(db, cfg.JWT.Secret, cfg.JWT.TTL, revoker)
	userService := service.NewUserService(db, images)
	recipeService := service.NewRecipeService(db, images)
	catalogService := service.NewCatalogService(db)
	shoppingService := service.NewShoppingService(db, pdf.NewShoppingListRenderer(pdf.Options{
		Title:    cfg.PDF.Title,
		Footer:   cfg.PDF.Footer,
		FontPath: cfg.PDF.FontPath,
	}))

	checks := map[string]api.Pinger{
		"database": func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	opts := router.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodyBytes:   middleware.BodyLimitForImages(cfg.Storage.MaxImageBytes),
	}
	if local, ok := store.(*storage.LocalStore); ok {
		opts.MediaDir = local.Root()
	}

	return router.SetupRouter(router.Handlers{
		Auth:    api.NewAuthHandler(authService),
		Users:   api.NewUserHandler(authService, userService, recipeService, images),
		Catalog: api.NewCatalogHandler(catalogService),
		Recipes: api.NewRecipeHandler(authService, recipeService, userService, shoppingService, images, api.RecipeLimits{
			Create: middleware.NewRecipeCreationRateLimiter(rdb, cfg.RateLimit.RecipeCreatePerHour),
			Update: middleware.NewRecipeModificationRateLimiter(rdb, cfg.RateLimit.RecipeUpdatePerHour),
		}),
		ShortLink: api.NewShortLinkHandler(recipeService, encoder, cfg.Server.PublicURL),
		Health:    api.NewHealthHandler(checks),
	}, opts), nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Str("env", string(s.cfg.Environment)).Msg("starting server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests, then closes Redis and the database.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}
	return errors.Join(errs...)
}
