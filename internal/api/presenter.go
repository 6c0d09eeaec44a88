package api

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ImageURLs resolves stored object keys to public URLs.
type ImageURLs interface {
	URL(key string) string
}

// presenter turns models into API payloads, filling in the viewer-dependent
// flags with one batched query per flag.
type presenter struct {
	users   service.IUserService
	recipes service.IRecipeService
	images  ImageURLs
}

func (p *presenter) user(u models.User, subscribed bool) types.UserResponse {
	return types.UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
		Avatar:       p.images.URL(u.Avatar),
	}
}

func (p *presenter) userList(ctx context.Context, viewerID uint, users []models.User) ([]types.UserResponse, error) {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	subscribed, err := p.users.SubscribedTo(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	out := make([]types.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, p.user(u, subscribed[u.ID]))
	}
	return out, nil
}

func (p *presenter) shortRecipe(r models.Recipe) types.ShortRecipeResponse {
	return types.ShortRecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       p.images.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}

// subscriptionList presents followed authors with up to recipesLimit recipes each.
func (p *presenter) subscriptionList(ctx context.Context, users []models.User, recipesLimit int) ([]types.SubscriptionResponse, error) {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	recipes, counts, err := p.users.RecipePreviews(ctx, ids, recipesLimit)
	if err != nil {
		return nil, err
	}
	out := make([]types.SubscriptionResponse, 0, len(users))
	for _, u := range users {
		previews := make([]types.ShortRecipeResponse, 0, len(recipes[u.ID]))
		for _, r := range recipes[u.ID] {
			previews = append(previews, p.shortRecipe(r))
		}
		out = append(out, types.SubscriptionResponse{
			UserResponse: p.user(u, true),
			Recipes:      previews,
			RecipesCount: counts[u.ID],
		})
	}
	return out, nil
}

func (p *presenter) recipeList(ctx context.Context, viewerID uint, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}
	favorited, inCart, err := p.recipes.Flags(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := p.users.SubscribedTo(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		resp := types.RecipeResponse{
			ID:               r.ID,
			Tags:             make([]types.TagResponse, 0, len(r.Tags)),
			Author:           p.user(r.Author, subscribed[r.AuthorID]),
			Ingredients:      make([]types.RecipeIngredientResponse, 0, len(r.Ingredients)),
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            p.images.URL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
		for _, t := range r.Tags {
			resp.Tags = append(resp.Tags, tagResponse(t))
		}
		for _, ri := range r.Ingredients {
			resp.Ingredients = append(resp.Ingredients, types.RecipeIngredientResponse{
				ID:              ri.IngredientID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount,
			})
		}
		out = append(out, resp)
	}
	return out, nil
}

func (p *presenter) recipe(ctx context.Context, viewerID uint, r *models.Recipe) (types.RecipeResponse, error) {
	list, err := p.recipeList(ctx, viewerID, []models.Recipe{*r})
	if err != nil {
		return types.RecipeResponse{}, err
	}
	return list[0], nil
}

func tagResponse(t models.Tag) types.TagResponse {
	return types.TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

func ingredientResponse(i models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}
