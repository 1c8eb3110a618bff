// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recipedb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/pdiddy/cookbook/pkg/types"
)

// Dump is the document shape read by Import and written by Export. It is a
// superset of a json-server db.json, so an existing db.json imports as-is.
type Dump struct {
	Recipes   []types.Recipe `json:"recipes" yaml:"recipes"`
	Favorites []DumpFavorite `json:"favorites" yaml:"favorites"`
	Users     []DumpUser     `json:"users" yaml:"users"`
}

// DumpFavorite is a favorite record whose ids may be numbers in the source
// document.
type DumpFavorite struct {
	ID       types.LocalID   `json:"id" yaml:"id"`
	UserID   types.LocalID   `json:"userId" yaml:"userId"`
	RecipeID types.RecipeRef `json:"recipeId" yaml:"recipeId"`
}

// DumpUser carries either a plaintext Password (seed files) or a
// PasswordHash (exports). Export never writes plaintext.
type DumpUser struct {
	ID           types.LocalID `json:"id" yaml:"id"`
	Name         string        `json:"name" yaml:"name"`
	Email        string        `json:"email" yaml:"email"`
	Password     string        `json:"password,omitempty" yaml:"password,omitempty"`
	PasswordHash string        `json:"passwordHash,omitempty" yaml:"passwordHash,omitempty"`
}

// ImportSummary counts what Import wrote.
type ImportSummary struct {
	Recipes   int
	Favorites int
	Users     int
}

// Format names a dump encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml", or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown dump format %q: %w", s, types.ErrInvalid)
}

// ImportFile reads a dump from path, choosing the decoder by extension.
func (d *DB) ImportFile(ctx context.Context, path string) (ImportSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("reading seed file: %w", err)
	}
	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}

	var dump Dump
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &dump)
	default:
		err = yaml.Unmarshal(data, &dump)
	}
	if err != nil {
		return ImportSummary{}, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return d.Import(ctx, dump)
}

// Import upserts every record of dump in one transaction. Recipes keep their
// ids; favorites and users without an id get a fresh UUID. A user whose
// email already exists is skipped.
func (d *DB) Import(ctx context.Context, dump Dump) (ImportSummary, error) {
	var sum ImportSummary

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return sum, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range dump.Recipes {
		if r.ID == "" {
			return sum, fmt.Errorf("seed recipe %q has no id: %w", r.Title, types.ErrInvalid)
		}
		if err := r.Input().Validate(); err != nil {
			return sum, fmt.Errorf("seed recipe %s: %w", r.ID, err)
		}
		r = recipeFromInput(r.ID, r.Input())
		if err := d.insertRecipe(ctx, tx, r); err != nil {
			return sum, err
		}
		sum.Recipes++
	}

	for _, u := range dump.Users {
		hash := u.PasswordHash
		if hash == "" && u.Password != "" {
			h, err := bcrypt.GenerateFromPassword([]byte(u.Password), d.bcryptCost)
			if err != nil {
				return sum, fmt.Errorf("hashing password for %s: %w", u.Email, err)
			}
			hash = string(h)
		}
		id := string(u.ID)
		if id == "" {
			id = uuid.NewString()
		}
		user := types.User{ID: id, Name: u.Name, Email: strings.TrimSpace(u.Email)}
		if err := d.insertUser(ctx, tx, user, hash); err != nil {
			if errors.Is(err, types.ErrConflict) {
				d.log.Debug("skipping existing user", slog.String("email", user.Email))
				continue
			}
			return sum, err
		}
		sum.Users++
	}

	for _, f := range dump.Favorites {
		if f.UserID == "" || f.RecipeID.IsZero() {
			return sum, fmt.Errorf("seed favorite %s needs userId and recipeId: %w", f.ID, types.ErrInvalid)
		}
		id := string(f.ID)
		if id == "" {
			id = uuid.NewString()
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO favorites (id, user_id, recipe_id) VALUES (?, ?, ?)
			 ON CONFLICT DO NOTHING`,
			id, string(f.UserID), f.RecipeID.String(),
		)
		if err != nil {
			return sum, fmt.Errorf("inserting favorite %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			sum.Favorites++
		}
	}

	if err := tx.Commit(); err != nil {
		return sum, fmt.Errorf("committing import: %w", err)
	}
	d.log.Info("imported seed data",
		slog.Int("recipes", sum.Recipes),
		slog.Int("favorites", sum.Favorites),
		slog.Int("users", sum.Users))
	return sum, nil
}

// Snapshot reads the whole database into a Dump. Users carry their password
// hash so the dump can be imported again.
func (d *DB) Snapshot(ctx context.Context) (Dump, error) {
	recipes, err := d.ListRecipes(ctx, RecipeFilter{})
	if err != nil {
		return Dump{}, err
	}
	favs, err := d.ListFavorites(ctx, FavoriteFilter{})
	if err != nil {
		return Dump{}, err
	}

	dump := Dump{Recipes: recipes, Favorites: make([]DumpFavorite, len(favs)), Users: []DumpUser{}}
	for i, f := range favs {
		dump.Favorites[i] = DumpFavorite{
			ID:       types.LocalID(f.ID),
			UserID:   types.LocalID(f.UserID),
			RecipeID: f.RecipeID,
		}
	}

	rows, err := d.db.QueryContext(ctx, `SELECT id, name, email, password_hash FROM users ORDER BY seq`)
	if err != nil {
		return Dump{}, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u DumpUser
		var id string
		if err := rows.Scan(&id, &u.Name, &u.Email, &u.PasswordHash); err != nil {
			return Dump{}, fmt.Errorf("scanning user: %w", err)
		}
		u.ID = types.LocalID(id)
		dump.Users = append(dump.Users, u)
	}
	return dump, rows.Err()
}

// Export writes the whole database to w.
func (d *DB) Export(ctx context.Context, w io.Writer, format Format) error {
	dump, err := d.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("reading database for export: %w", err)
	}

	var data []byte
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(dump, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case FormatYAML:
		data, err = yaml.Marshal(dump)
	default:
		return fmt.Errorf("unknown dump format %q: %w", format, types.ErrInvalid)
	}
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}
