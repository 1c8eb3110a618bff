// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recipedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pdiddy/cookbook/pkg/types"
)

// FavoriteFilter narrows ListFavorites. Empty fields do not filter.
type FavoriteFilter struct {
	UserID   string
	RecipeID types.RecipeRef
}

// ListFavorites returns favorites in creation order.
func (d *DB) ListFavorites(ctx context.Context, f FavoriteFilter) ([]types.FavoriteRecord, error) {
	query := `SELECT id, user_id, recipe_id FROM favorites WHERE 1=1`
	var args []any
	if f.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if !f.RecipeID.IsZero() {
		query += ` AND recipe_id = ?`
		args = append(args, f.RecipeID.String())
	}
	query += ` ORDER BY seq`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying favorites: %w", err)
	}
	defer rows.Close()

	favs := []types.FavoriteRecord{}
	for rows.Next() {
		rec, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		favs = append(favs, rec)
	}
	return favs, rows.Err()
}

// AddFavorite records (userID, ref). When the pair already exists the
// existing record is returned and created is false.
func (d *DB) AddFavorite(ctx context.Context, userID string, ref types.RecipeRef) (rec types.FavoriteRecord, created bool, err error) {
	if userID == "" || ref.IsZero() {
		return types.FavoriteRecord{}, false, fmt.Errorf("favorite needs a user and a recipe: %w", types.ErrInvalid)
	}
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO favorites (id, user_id, recipe_id) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, recipe_id) DO NOTHING`,
		uuid.NewString(), userID, ref.String(),
	)
	if err != nil {
		return types.FavoriteRecord{}, false, fmt.Errorf("inserting favorite: %w", err)
	}
	n, _ := res.RowsAffected()

	row := d.db.QueryRowContext(ctx,
		`SELECT id, user_id, recipe_id FROM favorites WHERE user_id = ? AND recipe_id = ?`,
		userID, ref.String())
	rec, err = scanFavorite(row)
	if err != nil {
		return types.FavoriteRecord{}, false, err
	}
	return rec, n == 1, nil
}

// DeleteFavorite removes a favorite by id.
func (d *DB) DeleteFavorite(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting favorite %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("favorite %s: %w", id, types.ErrNotFound)
	}
	return nil
}

func scanFavorite(s scanner) (types.FavoriteRecord, error) {
	var rec types.FavoriteRecord
	var recipeID string
	if err := s.Scan(&rec.ID, &rec.UserID, &recipeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.FavoriteRecord{}, fmt.Errorf("favorite: %w", types.ErrNotFound)
		}
		return types.FavoriteRecord{}, fmt.Errorf("scanning favorite: %w", err)
	}
	ref, err := types.ParseRecipeRef(recipeID)
	if err != nil {
		return types.FavoriteRecord{}, fmt.Errorf("favorite %s: %w", rec.ID, err)
	}
	rec.RecipeID = ref
	return rec, nil
}
