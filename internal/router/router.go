package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/storage"
)

// Handlers groups everything mounted by SetupRouter.
type Handlers struct {
	Auth      *api.AuthHandler
	Users     *api.UserHandler
	Catalog   *api.CatalogHandler
	Recipes   *api.RecipeHandler
	ShortLink *api.ShortLinkHandler
	Health    *api.HealthHandler
}

// Options control the router-level middleware and static mounts.
type Options struct {
	AllowedOrigins []string
	// MediaDir is served at /media when images are stored locally.
	MediaDir string
	// MaxBodyBytes caps request bodies; zero means no cap.
	MaxBodyBytes int64
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		metrics.GinMiddleware(),
		middleware.CORS(opts.AllowedOrigins),
		middleware.BodyLimit(opts.MaxBodyBytes),
	)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	if opts.MediaDir != "" {
		router.Static(storage.LocalURLPrefix, opts.MediaDir)
	}
	if h.Health != nil {
		h.Health.RegisterRoutes(router)
	}
	h.ShortLink.RegisterRedirect(router)

	apiGroup := router.Group("/api")
	h.Auth.RegisterRoutes(apiGroup)
	h.Users.RegisterRoutes(apiGroup)
	h.Catalog.RegisterRoutes(apiGroup)
	h.Recipes.RegisterRoutes(apiGroup)
	h.ShortLink.RegisterRoutes(apiGroup)

	return router
}
