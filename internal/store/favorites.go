// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pdiddy/cookbook/pkg/types"
)

// ToggleResult reports the outcome of a favorite toggle. When Removed is
// true Record is the record that was deleted.
type ToggleResult struct {
	Record  types.FavoriteRecord
	Removed bool
}

// FavoritesRegistry manages the (user, recipe) favorite relation.
type FavoritesRegistry struct {
	c *Client
}

// NewFavoritesRegistry returns a registry backed by c.
func NewFavoritesRegistry(c *Client) *FavoritesRegistry {
	return &FavoritesRegistry{c: c}
}

// ListForUser returns every favorite record owned by userID.
func (f *FavoritesRegistry) ListForUser(ctx context.Context, userID string) ([]types.FavoriteRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("listing favorites: empty user id: %w", types.ErrInvalid)
	}
	var favs []types.FavoriteRecord
	if err := f.c.do(ctx, "GET", "/favorites", url.Values{"userId": {userID}}, nil, &favs); err != nil {
		return nil, fmt.Errorf("listing favorites for %s: %w", userID, err)
	}
	return favs, nil
}

// Toggle adds the favorite when absent and removes it when present. The
// lookup and the write are separate requests, so two concurrent toggles of
// the same pair can race; callers that need set semantics serialize.
func (f *FavoritesRegistry) Toggle(ctx context.Context, userID string, ref types.RecipeRef) (ToggleResult, error) {
	if userID == "" {
		return ToggleResult{}, fmt.Errorf("toggling favorite: empty user id: %w", types.ErrInvalid)
	}
	if ref.IsZero() {
		return ToggleResult{}, fmt.Errorf("toggling favorite: empty recipe id: %w", types.ErrInvalid)
	}

	var existing []types.FavoriteRecord
	q := url.Values{"userId": {userID}, "recipeId": {ref.String()}}
	if err := f.c.do(ctx, "GET", "/favorites", q, nil, &existing); err != nil {
		return ToggleResult{}, fmt.Errorf("looking up favorite %s: %w", ref, err)
	}

	// json-server matches query values loosely; keep only exact matches.
	for _, rec := range existing {
		if rec.UserID != userID || rec.RecipeID != ref {
			continue
		}
		if err := f.c.do(ctx, "DELETE", "/favorites/"+url.PathEscape(rec.ID), nil, nil, nil); err != nil {
			return ToggleResult{}, fmt.Errorf("removing favorite %s: %w", ref, err)
		}
		return ToggleResult{Record: rec, Removed: true}, nil
	}

	var created types.FavoriteRecord
	if err := f.c.do(ctx, "POST", "/favorites", nil, favoriteBody{UserID: userID, RecipeID: ref}, &created); err != nil {
		return ToggleResult{}, fmt.Errorf("adding favorite %s: %w", ref, err)
	}
	return ToggleResult{Record: created}, nil
}

// favoriteBody omits the id so the store assigns one.
type favoriteBody struct {
	UserID   string          `json:"userId"`
	RecipeID types.RecipeRef `json:"recipeId"`
}
