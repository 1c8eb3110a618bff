// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/pdiddy/cookbook/pkg/types"
)

// RecipeRepository reads and writes locally authored recipes. Mutations take
// a LocalID, so an external reference can never reach the store.
type RecipeRepository struct {
	c *Client
}

// NewRecipeRepository returns a repository backed by c.
func NewRecipeRepository(c *Client) *RecipeRepository {
	return &RecipeRepository{c: c}
}

// ListAll returns every local recipe in store order.
func (r *RecipeRepository) ListAll(ctx context.Context) ([]types.Recipe, error) {
	var recipes []types.Recipe
	if err := r.c.do(ctx, "GET", "/recipes", nil, nil, &recipes); err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	return recipes, nil
}

// Get returns one recipe. When the item route answers 404 the collection is
// queried with ?id= before giving up, since some json-server setups only
// match ids through the filter.
func (r *RecipeRepository) Get(ctx context.Context, id types.LocalID) (types.Recipe, error) {
	if id == "" {
		return types.Recipe{}, fmt.Errorf("getting recipe: empty id: %w", types.ErrInvalid)
	}

	var recipe types.Recipe
	err := r.c.do(ctx, "GET", "/recipes/"+url.PathEscape(string(id)), nil, nil, &recipe)
	if err == nil {
		return recipe, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return types.Recipe{}, fmt.Errorf("getting recipe %s: %w", id, err)
	}

	var matches []types.Recipe
	if err := r.c.do(ctx, "GET", "/recipes", url.Values{"id": {string(id)}}, nil, &matches); err != nil {
		return types.Recipe{}, fmt.Errorf("getting recipe %s: %w", id, err)
	}
	if len(matches) == 0 {
		return types.Recipe{}, fmt.Errorf("getting recipe %s: %w", id, types.ErrNotFound)
	}
	return matches[0], nil
}

// Create stores a new recipe and returns it with its assigned id.
func (r *RecipeRepository) Create(ctx context.Context, in types.RecipeInput) (types.Recipe, error) {
	if err := in.Validate(); err != nil {
		return types.Recipe{}, err
	}
	var created types.Recipe
	if err := r.c.do(ctx, "POST", "/recipes", nil, in, &created); err != nil {
		return types.Recipe{}, fmt.Errorf("creating recipe: %w", err)
	}
	return created, nil
}

// Update replaces the recipe stored under id.
func (r *RecipeRepository) Update(ctx context.Context, id types.LocalID, in types.RecipeInput) (types.Recipe, error) {
	if id == "" {
		return types.Recipe{}, fmt.Errorf("updating recipe: empty id: %w", types.ErrInvalid)
	}
	if err := in.Validate(); err != nil {
		return types.Recipe{}, err
	}

	body := types.Recipe{
		ID:          id,
		Title:       in.Title,
		Image:       in.Image,
		Cuisine:     in.Cuisine,
		Time:        in.Time,
		Ingredients: in.Ingredients,
		Steps:       in.Steps,
		AuthorID:    in.AuthorID,
	}
	var updated types.Recipe
	if err := r.c.do(ctx, "PUT", "/recipes/"+url.PathEscape(string(id)), nil, body, &updated); err != nil {
		return types.Recipe{}, fmt.Errorf("updating recipe %s: %w", id, err)
	}
	return updated, nil
}

// Delete removes the recipe stored under id.
func (r *RecipeRepository) Delete(ctx context.Context, id types.LocalID) error {
	if id == "" {
		return fmt.Errorf("deleting recipe: empty id: %w", types.ErrInvalid)
	}
	if err := r.c.do(ctx, "DELETE", "/recipes/"+url.PathEscape(string(id)), nil, nil, nil); err != nil {
		return fmt.Errorf("deleting recipe %s: %w", id, err)
	}
	return nil
}
