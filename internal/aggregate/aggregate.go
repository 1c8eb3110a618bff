// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate merges local recipes, favorite records, and cached
// external details into the two lists a user browses: their favorites and
// the recipes they wrote. Everything here is pure; inputs are never mutated
// and outputs never share slices with them.
package aggregate

import (
	"fmt"
	"slices"

	"github.com/pdiddy/cookbook/pkg/types"
)

// Mode selects which list the book shows.
type Mode string

const (
	ModeFavorites Mode = "favorites"
	ModeMine      Mode = "mine"
)

// ParseMode accepts "favorites" or "mine".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFavorites, ModeMine:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown book mode %q (want favorites or mine): %w", s, types.ErrInvalid)
}

// Inputs is everything Build reads.
type Inputs struct {
	Recipes   []types.Recipe
	Favorites []types.FavoriteRecord
	Details   map[types.RecipeRef]types.ExternalDetail
	UserID    string
}

// Views holds the derived lists. A local recipe that is both authored and
// favorited appears in both.
type Views struct {
	Favorites []types.ViewItem
	Authored  []types.ViewItem
}

// For returns the list for mode. Unknown modes yield nil.
func (v Views) For(mode Mode) []types.ViewItem {
	switch mode {
	case ModeFavorites:
		return v.Favorites
	case ModeMine:
		return v.Authored
	}
	return nil
}

// Build derives both views. Favorite local recipes keep store order and
// precede external favorites, which keep favorite-record order. External
// favorites without a cached detail are left out.
func Build(in Inputs) Views {
	favSet := make(map[types.RecipeRef]struct{}, len(in.Favorites))
	for _, f := range in.Favorites {
		favSet[f.RecipeID] = struct{}{}
	}

	var v Views
	for _, r := range in.Recipes {
		if _, ok := favSet[r.Ref()]; ok {
			item := FromRecipe(r)
			item.Favorite = true
			item.Mine = in.UserID != "" && r.AuthorID == in.UserID
			v.Favorites = append(v.Favorites, item)
		}
	}

	for _, ref := range ExternalFavoriteRefs(in.Favorites) {
		d, ok := in.Details[ref]
		if !ok {
			continue
		}
		item := FromDetail(d)
		item.ID = ref
		item.Favorite = true
		v.Favorites = append(v.Favorites, item)
	}

	if in.UserID == "" {
		return v
	}
	for _, r := range in.Recipes {
		if r.AuthorID != in.UserID {
			continue
		}
		item := FromRecipe(r)
		item.Mine = true
		_, item.Favorite = favSet[r.Ref()]
		v.Authored = append(v.Authored, item)
	}
	return v
}

// IsFavorite reports whether ref appears in favorites.
func IsFavorite(favorites []types.FavoriteRecord, ref types.RecipeRef) bool {
	return slices.ContainsFunc(favorites, func(f types.FavoriteRecord) bool {
		return f.RecipeID == ref
	})
}

// ExternalFavoriteRefs returns the distinct external refs among favorites, in
// record order.
func ExternalFavoriteRefs(favorites []types.FavoriteRecord) []types.RecipeRef {
	var refs []types.RecipeRef
	seen := make(map[types.RecipeRef]struct{})
	for _, f := range favorites {
		if !f.RecipeID.IsExternal() {
			continue
		}
		if _, dup := seen[f.RecipeID]; dup {
			continue
		}
		seen[f.RecipeID] = struct{}{}
		refs = append(refs, f.RecipeID)
	}
	return refs
}

// FromRecipe projects a local recipe.
func FromRecipe(r types.Recipe) types.ViewItem {
	return types.ViewItem{
		ID:          r.Ref(),
		Title:       r.Title,
		Image:       r.Image,
		Cuisine:     r.Cuisine,
		Time:        r.Time,
		Ingredients: slices.Clone(r.Ingredients),
		Steps:       slices.Clone(r.Steps),
		AuthorID:    r.AuthorID,
	}
}

// FromDetail projects an external detail.
func FromDetail(d types.ExternalDetail) types.ViewItem {
	return types.ViewItem{
		ID:          d.ID,
		Title:       d.Title,
		Image:       d.Image,
		Cuisine:     d.Cuisine(),
		Time:        d.ReadyInMinutes,
		Ingredients: slices.Clone(d.Ingredients),
		Steps:       slices.Clone(d.Steps),
	}
}

// FromSummary projects a search hit. Summaries carry no ingredients, steps,
// cuisine, or time.
func FromSummary(s types.ExternalSummary) types.ViewItem {
	return types.ViewItem{ID: s.ID, Title: s.Title, Image: s.Image}
}

// Annotate returns a copy of items with Favorite set from favorites and Mine
// set for local items authored by userID.
func Annotate(items []types.ViewItem, favorites []types.FavoriteRecord, userID string) []types.ViewItem {
	out := make([]types.ViewItem, len(items))
	for i, it := range items {
		it.Favorite = IsFavorite(favorites, it.ID)
		it.Mine = userID != "" && !it.ID.IsExternal() && it.AuthorID == userID
		out[i] = it
	}
	return out
}
