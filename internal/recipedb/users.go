// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recipedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pdiddy/cookbook/pkg/types"
)

// CreateUser registers a user with a bcrypt-hashed password. A duplicate
// email yields ErrConflict.
func (d *DB) CreateUser(ctx context.Context, name, email, password string) (types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return types.User{}, fmt.Errorf("email and password are required: %w", types.ErrInvalid)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.bcryptCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hashing password: %w", err)
	}
	u := types.User{ID: uuid.NewString(), Name: strings.TrimSpace(name), Email: email}
	if err := d.insertUser(ctx, d.db, u, string(hash)); err != nil {
		return types.User{}, err
	}
	return u, nil
}

// Authenticate returns the user with email when password matches. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (d *DB) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	var (
		u    types.User
		hash string
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash FROM users WHERE email = ?`,
		strings.TrimSpace(email),
	).Scan(&u.ID, &u.Name, &u.Email, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, fmt.Errorf("invalid email or password: %w", types.ErrUnauthorized)
	}
	if err != nil {
		return types.User{}, fmt.Errorf("looking up user: %w", err)
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return types.User{}, fmt.Errorf("invalid email or password: %w", types.ErrUnauthorized)
	}
	return u, nil
}

// ListUsers returns every user without credentials.
func (d *DB) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, name, email FROM users ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (d *DB) insertUser(ctx context.Context, ex execer, u types.User, hash string) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, hash,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s already exists: %w", u.Email, types.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("inserting user %s: %w", u.Email, err)
	}
	return nil
}
