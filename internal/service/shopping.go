package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ShoppingListRenderer turns aggregated cart rows into a document.
type ShoppingListRenderer interface {
	Render(items []types.ShoppingItem) ([]byte, error)
}

// ShoppingService sums ingredient amounts over the recipes in a user's cart
type ShoppingService struct {
	db       *gorm.DB
	renderer ShoppingListRenderer
}

var _ IShoppingService = (*ShoppingService)(nil)

func NewShoppingService(db *gorm.DB, renderer ShoppingListRenderer) *ShoppingService {
	return &ShoppingService{db: db, renderer: renderer}
}

// Ingredients groups the RecipeIngredient rows of every recipe in the user's
// cart by ingredient name and unit and sums their amounts. An empty cart
// yields an empty slice.
func (s *ShoppingService) Ingredients(ctx context.Context, userID uint) ([]types.ShoppingItem, error) {
	items := []types.ShoppingItem{}
	err := s.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total_amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.ingredient_id = ingredients.id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping cart: %w", err)
	}
	return items, nil
}

// Render aggregates the cart and renders it as a PDF.
func (s *ShoppingService) Render(ctx context.Context, userID uint) ([]byte, error) {
	items, err := s.Ingredients(ctx, userID)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Render(items)
	if err != nil {
		return nil, fmt.Errorf("failed to render shopping list: %w", err)
	}
	metrics.ShoppingListsRendered.Inc()
	return doc, nil
}
