// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures of the cookbook: recipes in
// both namespaces, favorite records, provider payloads, and the derived view
// items the book and listings render.
package types

import (
	"fmt"
	"strings"
)

// Recipe is a recipe held by the local store.
type Recipe struct {
	// ID is assigned by the store.
	ID LocalID `json:"id" yaml:"id"`

	Title   string `json:"title" yaml:"title"`
	Image   string `json:"image" yaml:"image"`
	Cuisine string `json:"cuisine" yaml:"cuisine"`

	// Time is the preparation time in minutes.
	Time int `json:"time" yaml:"time"`

	Ingredients []string `json:"ingredients" yaml:"ingredients"`
	Steps       []string `json:"steps" yaml:"steps"`

	// AuthorID is the id of the user who created the recipe.
	AuthorID string `json:"authorId" yaml:"authorId"`
}

// Ref returns the namespaced reference for the recipe.
func (r Recipe) Ref() RecipeRef { return LocalRef(r.ID) }

// Input returns the recipe without its id.
func (r Recipe) Input() RecipeInput {
	return RecipeInput{
		Title:       r.Title,
		Image:       r.Image,
		Cuisine:     r.Cuisine,
		Time:        r.Time,
		Ingredients: r.Ingredients,
		Steps:       r.Steps,
		AuthorID:    r.AuthorID,
	}
}

// RecipeInput is the create/update payload: a Recipe minus its id.
type RecipeInput struct {
	Title       string   `json:"title" yaml:"title"`
	Image       string   `json:"image" yaml:"image"`
	Cuisine     string   `json:"cuisine" yaml:"cuisine"`
	Time        int      `json:"time" yaml:"time"`
	Ingredients []string `json:"ingredients" yaml:"ingredients"`
	Steps       []string `json:"steps" yaml:"steps"`
	AuthorID    string   `json:"authorId" yaml:"authorId"`
}

// Validate reports malformed input.
func (in RecipeInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("recipe title is required: %w", ErrInvalid)
	}
	if in.Time < 0 {
		return fmt.Errorf("recipe time must not be negative: %w", ErrInvalid)
	}
	return nil
}

// FavoriteRecord marks a recipe, in either namespace, as a favorite of a user.
// At most one record exists per (UserID, RecipeID).
type FavoriteRecord struct {
	ID       string    `json:"id" yaml:"id"`
	UserID   string    `json:"userId" yaml:"userId"`
	RecipeID RecipeRef `json:"recipeId" yaml:"recipeId"`
}

// ExternalSummary is a provider search hit. It carries no ingredients or steps.
type ExternalSummary struct {
	ID    RecipeRef `json:"id" yaml:"id"`
	Title string    `json:"title" yaml:"title"`
	Image string    `json:"image" yaml:"image"`
}

// ExternalDetail is the full provider record for one recipe.
type ExternalDetail struct {
	ID             RecipeRef `json:"id" yaml:"id"`
	Title          string    `json:"title" yaml:"title"`
	Image          string    `json:"image" yaml:"image"`
	Cuisines       []string  `json:"cuisines" yaml:"cuisines"`
	ReadyInMinutes int       `json:"readyInMinutes" yaml:"readyInMinutes"`
	Ingredients    []string  `json:"ingredients" yaml:"ingredients"`
	Steps          []string  `json:"steps" yaml:"steps"`
}

// Cuisine returns the first listed cuisine, or "" when none is listed.
func (d ExternalDetail) Cuisine() string {
	if len(d.Cuisines) == 0 {
		return ""
	}
	return d.Cuisines[0]
}

// Summary narrows the detail to its search-hit shape.
func (d ExternalDetail) Summary() ExternalSummary {
	return ExternalSummary{ID: d.ID, Title: d.Title, Image: d.Image}
}

// ViewItem is a derived, recipe-shaped projection annotated with favorite and
// ownership flags. View items are rebuilt whenever their inputs change and are
// never mutated in place.
type ViewItem struct {
	ID          RecipeRef `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Image       string    `json:"image" yaml:"image"`
	Cuisine     string    `json:"cuisine" yaml:"cuisine"`
	Time        int       `json:"time" yaml:"time"`
	Ingredients []string  `json:"ingredients" yaml:"ingredients"`
	Steps       []string  `json:"steps" yaml:"steps"`
	AuthorID    string    `json:"authorId,omitempty" yaml:"authorId,omitempty"`
	Favorite    bool      `json:"isFavorite" yaml:"isFavorite"`
	Mine        bool      `json:"isMine" yaml:"isMine"`
}

// User is a registered cookbook user. Credentials never leave the store.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}
