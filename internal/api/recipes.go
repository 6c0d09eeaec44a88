package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// RecipeLimits holds the optional rate limiters for recipe writes.
type RecipeLimits struct {
	Create *middleware.RateLimiter
	Update *middleware.RateLimiter
}

type RecipeHandler struct {
	authService service.IAuthService
	recipes     service.IRecipeService
	shopping    service.IShoppingService
	present     *presenter
	limits      RecipeLimits
}

func NewRecipeHandler(
	authService service.IAuthService,
	recipes service.IRecipeService,
	users service.IUserService,
	shopping service.IShoppingService,
	images ImageURLs,
	limits RecipeLimits,
) *RecipeHandler {
	return &RecipeHandler{
		authService: authService,
		recipes:     recipes,
		shopping:    shopping,
		present:     &presenter{users: users, recipes: recipes, images: images},
		limits:      limits,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.AuthMiddleware(h.authService)
	optionalAuth := middleware.OptionalAuth(h.authService)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optionalAuth, h.ListRecipes)
		recipes.POST("", requireAuth, h.limits.Create.Middleware(middleware.PerUser), h.CreateRecipe)
		recipes.GET("/download_shopping_cart", requireAuth, h.DownloadShoppingCart)
		recipes.GET("/:id", optionalAuth, h.GetRecipe)
		recipes.PATCH("/:id", requireAuth, h.limits.Update.Middleware(middleware.PerUserAndRecipe), h.UpdateRecipe)
		recipes.DELETE("/:id", requireAuth, h.DeleteRecipe)
		recipes.POST("/:id/favorite", requireAuth, h.AddFavorite)
		recipes.DELETE("/:id/favorite", requireAuth, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", requireAuth, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", requireAuth, h.RemoveFromCart)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := recipeFilter(c)
	viewerID := middleware.UserID(c)

	recipes, total, err := h.recipes.List(c.Request.Context(), viewerID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.present.recipeList(c.Request.Context(), viewerID, recipes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageNumberPage(c, out, total, filter.Page, filter.Limit))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}
	recipe, err := h.recipes.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusCreated, recipe)
}

// UpdateRecipe replaces the recipe with the payload. The image may be omitted to
// keep the current one.
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}
	recipe, err := h.recipes.Update(c.Request.Context(), middleware.UserID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.link(c, h.recipes.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.unlink(c, h.recipes.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.link(c, h.recipes.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.unlink(c, h.recipes.RemoveFromCart)
}

// DownloadShoppingCart renders the caller's aggregated cart as a PDF attachment.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	doc, err := h.shopping.Render(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="shopping_cart.pdf"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (h *RecipeHandler) respondRecipe(c *gin.Context, status int, recipe *models.Recipe) {
	out, err := h.present.recipe(c.Request.Context(), middleware.UserID(c), recipe)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, out)
}

func (h *RecipeHandler) link(c *gin.Context, add func(ctx context.Context, userID, recipeID uint) (*models.Recipe, error)) {
	id, ok := pathID(c)
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}
	recipe, err := add(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.present.shortRecipe(*recipe))
}

func (h *RecipeHandler) unlink(c *gin.Context, remove func(ctx context.Context, userID, recipeID uint) error) {
	id, ok := pathID(c)
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}
	if err := remove(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
