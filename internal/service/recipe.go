package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxPage         = 1_000_000
)

// RecipeService handles recipe authoring, listing, favorites and the shopping cart
type RecipeService struct {
	db     *gorm.DB
	images ImageStore
}

var _ IRecipeService = (*RecipeService)(nil)

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images ImageStore) *RecipeService {
	return &RecipeService{db: db, images: images}
}

// Create validates the payload, uploads the image and writes the recipe with its
// ingredient rows and tag links in one transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uint, req types.RecipeRequest) (*models.Recipe, error) {
	tags, err := s.validateRecipe(ctx, req, true)
	if err != nil {
		return nil, err
	}

	key, err := s.uploadImage(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Image:       key,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return replaceAssociations(tx, &recipe, req.Ingredients, tags)
	})
	if err != nil {
		s.removeImage(ctx, key)
		return nil, err
	}

	log.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Uint("author_id", authorID).Msg("recipe created")
	return s.Get(ctx, recipe.ID)
}

// Update replaces the recipe fields, its whole ingredient set and its whole tag
// set. Only the author or a staff user may update.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID uint, req types.RecipeRequest) (*models.Recipe, error) {
	recipe, err := s.findEditable(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	tags, err := s.validateRecipe(ctx, req, false)
	if err != nil {
		return nil, err
	}

	var newKey string
	if req.Image != "" {
		if newKey, err = s.uploadImage(ctx, req.Image); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{
		"name":         req.Name,
		"text":         req.Text,
		"cooking_time": req.CookingTime,
	}
	if newKey != "" {
		updates["image"] = newKey
	}
	oldKey := recipe.Image

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Omit(clause.Associations).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		return replaceAssociations(tx, recipe, req.Ingredients, tags)
	})
	if err != nil {
		s.removeImage(ctx, newKey)
		return nil, err
	}
	if newKey != "" {
		s.removeImage(ctx, oldKey)
	}

	return s.Get(ctx, recipe.ID)
}

// Delete removes the recipe and everything that references it.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID uint) error {
	recipe, err := s.findEditable(ctx, userID, recipeID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Favorite{}).Error; err != nil {
			return fmt.Errorf("failed to delete favorites: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.ShoppingCart{}).Error; err != nil {
			return fmt.Errorf("failed to delete cart entries: %w", err)
		}
		if err := tx.Select("Ingredients", "Tags").Delete(recipe).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.removeImage(ctx, recipe.Image)
	return nil
}

// Get loads a recipe with author, tags and ingredients.
func (s *RecipeService) Get(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := preloadRecipe(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, notFound(err, "recipe")
	}
	return &recipe, nil
}

// List returns one page of recipes, newest first. The favorite and cart filters
// only apply to a signed-in viewer.
func (s *RecipeService) List(ctx context.Context, viewerID uint, filter types.RecipeFilter) ([]models.Recipe, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Recipe{})
	if filter.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		q = q.Where("recipes.id IN (?)", tagged)
	}
	if viewerID != 0 {
		q = filterByEdge(q, s.db.Model(&models.Favorite{}), viewerID, filter.IsFavorited)
		q = filterByEdge(q, s.db.Model(&models.ShoppingCart{}), viewerID, filter.IsInShoppingCart)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	recipes := []models.Recipe{}
	err := preloadRecipe(q).
		Order("recipes.created_at DESC, recipes.id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, total, nil
}

func filterByEdge(q, edges *gorm.DB, viewerID uint, want *bool) *gorm.DB {
	if want == nil {
		return q
	}
	sub := edges.Select("recipe_id").Where("user_id = ?", viewerID)
	if *want {
		return q.Where("recipes.id IN (?)", sub)
	}
	return q.Where("recipes.id NOT IN (?)", sub)
}

// Flags reports which recipes the viewer has favorited or put in the cart.
func (s *RecipeService) Flags(ctx context.Context, viewerID uint, recipeIDs []uint) (map[uint]bool, map[uint]bool, error) {
	favorited := make(map[uint]bool, len(recipeIDs))
	inCart := make(map[uint]bool, len(recipeIDs))
	if viewerID == 0 || len(recipeIDs) == 0 {
		return favorited, inCart, nil
	}

	for _, set := range []struct {
		model interface{}
		dst   map[uint]bool
	}{
		{&models.Favorite{}, favorited},
		{&models.ShoppingCart{}, inCart},
	} {
		var ids []uint
		err := s.db.WithContext(ctx).Model(set.model).
			Where("user_id = ? AND recipe_id IN ?", viewerID, recipeIDs).
			Pluck("recipe_id", &ids).Error
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load recipe flags: %w", err)
		}
		for _, id := range ids {
			set.dst[id] = true
		}
	}
	return favorited, inCart, nil
}

func (s *RecipeService) AddFavorite(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	return s.link(ctx, &models.Favorite{UserID: userID, RecipeID: recipeID}, "favorites")
}

func (s *RecipeService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.unlink(ctx, &models.Favorite{}, userID, recipeID, "favorites")
}

func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	return s.link(ctx, &models.ShoppingCart{UserID: userID, RecipeID: recipeID}, "shopping cart")
}

func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.unlink(ctx, &models.ShoppingCart{}, userID, recipeID, "shopping cart")
}

// userRecipeEdge is implemented by the favorite and cart rows.
type userRecipeEdge interface {
	Pair() (userID, recipeID uint)
}

func (s *RecipeService) link(ctx context.Context, row userRecipeEdge, list string) (*models.Recipe, error) {
	userID, recipeID := row.Pair()
	recipe, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(row).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", list, err)
	}
	if count > 0 {
		return nil, fmt.Errorf("recipe already in %s: %w", list, ErrAlreadyExists)
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("recipe already in %s: %w", list, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to add recipe to %s: %w", list, err)
	}
	return recipe, nil
}

func (s *RecipeService) unlink(ctx context.Context, model interface{}, userID, recipeID uint, list string) error {
	if _, err := s.findRecipe(ctx, recipeID); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(model)
	if res.Error != nil {
		return fmt.Errorf("failed to remove recipe from %s: %w", list, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("recipe not in %s: %w", list, ErrNotLinked)
	}
	return nil
}

func (s *RecipeService) findRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		return nil, notFound(err, "recipe")
	}
	return &recipe, nil
}

// findEditable loads the recipe and checks that userID is its author or staff.
func (s *RecipeService) findEditable(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	recipe, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID == userID {
		return recipe, nil
	}
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "is_staff").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsStaff {
		return nil, ErrForbidden
	}
	return recipe, nil
}

// validateRecipe runs the payload rules and resolves the referenced tags. Unknown
// ingredient or tag ids are reported as field errors.
func (s *RecipeService) validateRecipe(ctx context.Context, req types.RecipeRequest, requireImage bool) ([]models.Tag, error) {
	verr := validateStruct(req)
	if verr == nil {
		verr = &ValidationError{}
	}
	if requireImage && req.Image == "" {
		verr.Add("image", "This field is required.")
	}
	if !verr.Empty() {
		return nil, verr
	}

	ids := make([]uint, 0, len(req.Ingredients))
	for _, item := range req.Ingredients {
		ids = append(ids, item.ID)
	}
	var known []uint
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &known).Error; err != nil {
		return nil, fmt.Errorf("failed to check ingredients: %w", err)
	}
	for _, id := range missing(ids, known) {
		verr.Add("ingredients", fmt.Sprintf("Ingredient with id %d does not exist.", id))
	}

	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("id IN ?", req.Tags).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to check tags: %w", err)
	}
	found := make([]uint, 0, len(tags))
	for _, t := range tags {
		found = append(found, t.ID)
	}
	for _, id := range missing(req.Tags, found) {
		verr.Add("tags", fmt.Sprintf("Tag with id %d does not exist.", id))
	}

	if !verr.Empty() {
		return nil, verr
	}
	return tags, nil
}

func missing(want, have []uint) []uint {
	seen := make(map[uint]struct{}, len(have))
	for _, id := range have {
		seen[id] = struct{}{}
	}
	var out []uint
	for _, id := range want {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// replaceAssociations deletes the recipe's ingredient rows, bulk-inserts the new
// ones and replaces the tag links. It must run inside a transaction.
func replaceAssociations(tx *gorm.DB, recipe *models.Recipe, items []types.RecipeIngredientInput, tags []models.Tag) error {
	if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}

	rows := make([]models.RecipeIngredient, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipe.ID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert recipe ingredients: %w", err)
	}

	if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("failed to replace recipe tags: %w", err)
	}
	return nil
}

func preloadRecipe(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

func (s *RecipeService) uploadImage(ctx context.Context, dataURI string) (string, error) {
	key, err := s.images.Upload(ctx, "recipes", dataURI)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImage) {
			return "", newValidationError("image", err.Error())
		}
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return key, nil
}

func (s *RecipeService) removeImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Remove(ctx, key); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to remove image")
	}
}
