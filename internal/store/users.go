// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/cookbook/pkg/types"
)

// Credentials is the signup and login payload.
type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserDirectory registers and authenticates users against the store.
type UserDirectory struct {
	c *Client
}

// NewUserDirectory returns a directory backed by c.
func NewUserDirectory(c *Client) *UserDirectory {
	return &UserDirectory{c: c}
}

// SignUp registers a user. A duplicate email yields ErrConflict.
func (u *UserDirectory) SignUp(ctx context.Context, cred Credentials) (types.User, error) {
	cred.Email = strings.TrimSpace(cred.Email)
	if cred.Email == "" || cred.Password == "" {
		return types.User{}, fmt.Errorf("signing up: email and password are required: %w", types.ErrInvalid)
	}
	var user types.User
	if err := u.c.do(ctx, "POST", "/users", nil, cred, &user); err != nil {
		return types.User{}, fmt.Errorf("signing up %s: %w", cred.Email, err)
	}
	return user, nil
}

// Login checks credentials. Unknown users and wrong passwords both yield
// ErrUnauthorized.
func (u *UserDirectory) Login(ctx context.Context, email, password string) (types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return types.User{}, fmt.Errorf("logging in: email and password are required: %w", types.ErrInvalid)
	}
	var user types.User
	cred := Credentials{Email: email, Password: password}
	if err := u.c.do(ctx, "POST", "/login", nil, cred, &user); err != nil {
		return types.User{}, fmt.Errorf("logging in %s: %w", email, err)
	}
	return user, nil
}
