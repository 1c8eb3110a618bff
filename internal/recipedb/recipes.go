// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recipedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/pdiddy/cookbook/pkg/types"
)

// RecipeFilter narrows ListRecipes. Empty fields do not filter.
type RecipeFilter struct {
	ID       types.LocalID
	AuthorID string

	// Query matches title or cuisine, case-insensitively (json-server's q=).
	Query string
}

const recipeColumns = `id, title, image, cuisine, time, ingredients, steps, author_id`

// ListRecipes returns recipes in creation order.
func (d *DB) ListRecipes(ctx context.Context, f RecipeFilter) ([]types.Recipe, error) {
	var (
		where []string
		args  []any
	)
	if f.ID != "" {
		where = append(where, "id = ?")
		args = append(args, string(f.ID))
	}
	if f.AuthorID != "" {
		where = append(where, "author_id = ?")
		args = append(args, f.AuthorID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "(title LIKE ? ESCAPE '\\' OR cuisine LIKE ? ESCAPE '\\')")
		pattern := "%" + escapeLike(q) + "%"
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying recipes: %w", err)
	}
	defer rows.Close()

	recipes := []types.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

// GetRecipe returns one recipe or ErrNotFound.
func (d *DB) GetRecipe(ctx context.Context, id types.LocalID) (types.Recipe, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, string(id))
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Recipe{}, fmt.Errorf("recipe %s: %w", id, types.ErrNotFound)
	}
	return r, err
}

// CreateRecipe stores a recipe under a new ULID.
func (d *DB) CreateRecipe(ctx context.Context, in types.RecipeInput) (types.Recipe, error) {
	if err := in.Validate(); err != nil {
		return types.Recipe{}, err
	}
	r := recipeFromInput(types.LocalID(ulid.Make().String()), in)
	if err := d.insertRecipe(ctx, d.db, r); err != nil {
		return types.Recipe{}, err
	}
	return r, nil
}

// UpdateRecipe replaces the recipe stored under id.
func (d *DB) UpdateRecipe(ctx context.Context, id types.LocalID, in types.RecipeInput) (types.Recipe, error) {
	if err := in.Validate(); err != nil {
		return types.Recipe{}, err
	}
	r := recipeFromInput(id, in)
	ingredients, steps := encodeList(r.Ingredients), encodeList(r.Steps)

	res, err := d.db.ExecContext(ctx,
		`UPDATE recipes SET title=?, image=?, cuisine=?, time=?, ingredients=?, steps=?, author_id=?
		 WHERE id = ?`,
		r.Title, r.Image, r.Cuisine, r.Time, ingredients, steps, r.AuthorID, string(id),
	)
	if err != nil {
		return types.Recipe{}, fmt.Errorf("updating recipe %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.Recipe{}, fmt.Errorf("recipe %s: %w", id, types.ErrNotFound)
	}
	return r, nil
}

// DeleteRecipe removes a recipe and every favorite pointing at it.
func (d *DB) DeleteRecipe(ctx context.Context, id types.LocalID) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("deleting recipe %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("recipe %s: %w", id, types.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE recipe_id = ?`, string(id)); err != nil {
		return fmt.Errorf("deleting favorites of recipe %s: %w", id, err)
	}
	return tx.Commit()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (d *DB) insertRecipe(ctx context.Context, ex execer, r types.Recipe) error {
	if strings.HasPrefix(string(r.ID), types.ExternalPrefix) {
		return fmt.Errorf("recipe id %q uses the external prefix: %w", r.ID, types.ErrInvalid)
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO recipes (`+recipeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, image=excluded.image, cuisine=excluded.cuisine,
			time=excluded.time, ingredients=excluded.ingredients, steps=excluded.steps,
			author_id=excluded.author_id`,
		string(r.ID), r.Title, r.Image, r.Cuisine, r.Time,
		encodeList(r.Ingredients), encodeList(r.Steps), r.AuthorID,
	)
	if err != nil {
		return fmt.Errorf("inserting recipe %s: %w", r.ID, err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner) (types.Recipe, error) {
	var (
		r                  types.Recipe
		id                 string
		ingredients, steps string
	)
	if err := s.Scan(&id, &r.Title, &r.Image, &r.Cuisine, &r.Time, &ingredients, &steps, &r.AuthorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Recipe{}, err
		}
		return types.Recipe{}, fmt.Errorf("scanning recipe: %w", err)
	}
	r.ID = types.LocalID(id)
	r.Ingredients = decodeList(ingredients)
	r.Steps = decodeList(steps)
	return r, nil
}

func recipeFromInput(id types.LocalID, in types.RecipeInput) types.Recipe {
	return types.Recipe{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Image:       in.Image,
		Cuisine:     in.Cuisine,
		Time:        in.Time,
		Ingredients: nonNil(in.Ingredients),
		Steps:       nonNil(in.Steps),
		AuthorID:    in.AuthorID,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func encodeList(s []string) string {
	data, _ := json.Marshal(nonNil(s))
	return string(data)
}

func decodeList(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
