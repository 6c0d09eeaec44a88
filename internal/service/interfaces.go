package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req types.LoginRequest) (string, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	SetPassword(ctx context.Context, userID uint, req types.SetPasswordRequest) error
	GenerateToken(user *models.User) (string, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// IUserService defines user lookup, avatar and subscription operations
type IUserService interface {
	Get(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, int64, error)
	SubscribedTo(ctx context.Context, viewerID uint, authorIDs []uint) (map[uint]bool, error)
	Subscribe(ctx context.Context, userID, authorID uint) (*models.User, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	Subscriptions(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error)
	RecipePreviews(ctx context.Context, authorIDs []uint, limit int) (map[uint][]models.Recipe, map[uint]int64, error)
	SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error)
	DeleteAvatar(ctx context.Context, userID uint) error
}

// ICatalogService defines read access to tags and ingredients
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	ListIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
}

// IRecipeService defines recipe authoring, listing and per-user recipe lists
type IRecipeService interface {
	Create(ctx context.Context, authorID uint, req types.RecipeRequest) (*models.Recipe, error)
	Update(ctx context.Context, userID, recipeID uint, req types.RecipeRequest) (*models.Recipe, error)
	Delete(ctx context.Context, userID, recipeID uint) error
	Get(ctx context.Context, id uint) (*models.Recipe, error)
	List(ctx context.Context, viewerID uint, filter types.RecipeFilter) ([]models.Recipe, int64, error)
	Flags(ctx context.Context, viewerID uint, recipeIDs []uint) (favorited, inCart map[uint]bool, err error)
	AddFavorite(ctx context.Context, userID, recipeID uint) (*models.Recipe, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	AddToCart(ctx context.Context, userID, recipeID uint) (*models.Recipe, error)
	RemoveFromCart(ctx context.Context, userID, recipeID uint) error
}

// IShoppingService aggregates and renders a user's shopping cart
type IShoppingService interface {
	Ingredients(ctx context.Context, userID uint) ([]types.ShoppingItem, error)
	Render(ctx context.Context, userID uint) ([]byte, error)
}

// ImageStore persists base64 data-URI images and returns their object keys.
type ImageStore interface {
	Upload(ctx context.Context, prefix, dataURI string) (string, error)
	Remove(ctx context.Context, key string) error
}
