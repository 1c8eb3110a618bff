// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session holds the signed-in user. A Session is created at process
// start (Load), passed to whatever needs the current user, and written back
// with Save before exit.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cookbook/pkg/types"
)

// DefaultPath returns ~/.config/cookbook/session.yaml, or a relative
// session.yaml when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.yaml"
	}
	return filepath.Join(home, ".config", "cookbook", "session.yaml")
}

// Session is safe for concurrent use.
type Session struct {
	path string

	mu       sync.RWMutex
	user     *types.User
	signedIn time.Time
}

// file is the on-disk form.
type file struct {
	User     *types.User `yaml:"user,omitempty"`
	SignedIn time.Time   `yaml:"signed_in,omitempty"`
}

// New returns an empty session that saves to path. An empty path keeps the
// session in memory only.
func New(path string) *Session {
	return &Session{path: path}
}

// Load reads the session at path. A missing file yields an empty session.
func Load(path string) (*Session, error) {
	s := New(path)
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", path, err)
	}
	if f.User != nil && f.User.ID != "" {
		s.user = f.User
		s.signedIn = f.SignedIn
	}
	return s, nil
}

// Save writes the session. A signed-out session is written with no user so
// a later Load stays signed out.
func (s *Session) Save() error {
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	f := file{User: s.user, SignedIn: s.signedIn}
	s.mu.RUnlock()

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session %s: %w", s.path, err)
	}
	return nil
}

// Path returns where Save writes.
func (s *Session) Path() string { return s.path }

// SignIn makes u the current user.
func (s *Session) SignIn(u types.User) error {
	if u.ID == "" {
		return fmt.Errorf("signing in: user has no id: %w", types.ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
	s.signedIn = time.Now().UTC()
	return nil
}

// SignOut clears the current user.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.signedIn = time.Time{}
}

// User returns the current user and whether anyone is signed in.
func (s *Session) User() (types.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return types.User{}, false
	}
	return *s.user, true
}

// UserID returns the current user's id, or "" when signed out.
func (s *Session) UserID() string {
	u, _ := s.User()
	return u.ID
}

// SignedInAt returns when the current user signed in.
func (s *Session) SignedInAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signedIn
}
