// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package recipedb is the SQLite store behind `cookbook serve`. It holds
// recipes, favorites, and users and implements the same semantics a
// json-server db.json would, plus set semantics for favorites and hashed
// passwords for users.
package recipedb

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

const dbFile = "cookbook.db"

// DB wraps the cookbook database.
type DB struct {
	db   *sql.DB
	path string
	log  *slog.Logger

	// bcryptCost is lowered by tests.
	bcryptCost int
}

// Open opens or creates dataDir/cookbook.db and creates the schema if it
// does not exist.
func Open(dataDir string, log *slog.Logger) (*DB, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	path := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	d := &DB{db: db, path: path, log: log, bcryptCost: bcrypt.DefaultCost}
	if err := d.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	log.Debug("database open", slog.String("path", path))
	return d, nil
}

// Path returns the database file path.
func (d *DB) Path() string { return d.path }

// Close releases the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS recipes (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			cuisine TEXT NOT NULL DEFAULT '',
			time INTEGER NOT NULL DEFAULT 0,
			ingredients TEXT NOT NULL DEFAULT '[]',
			steps TEXT NOT NULL DEFAULT '[]',
			author_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recipes_author ON recipes(author_id)`,
		`CREATE TABLE IF NOT EXISTS favorites (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			recipe_id TEXT NOT NULL,
			UNIQUE(user_id, recipe_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_favorites_recipe ON favorites(recipe_id)`,
		`CREATE TABLE IF NOT EXISTS users (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, stmt := range statements {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
