// Package testutil builds throwaway SQLite databases and fixtures for tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"foodgram/pkg/database"
)

// NewDB opens a migrated database in t.TempDir and closes it on cleanup.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenAndMigrate(database.Config{Path: filepath.Join(t.TempDir(), "foodgram.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// User inserts a user whose username and email derive from id.
func User(t *testing.T, db *sql.DB, id string) string {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO users (id, username, email, password_hash) VALUES (?, ?, ?, 'x')
	`, id, "user-"+id, id+"@example.com")
	require.NoError(t, err)
	return id
}

func Ingredient(t *testing.T, db *sql.DB, name, unit string) int64 {
	t.Helper()
	res, err := db.ExecContext(context.Background(),
		`INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)`, name, unit)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func Tag(t *testing.T, db *sql.DB, name, slug string) int64 {
	t.Helper()
	res, err := db.ExecContext(context.Background(),
		`INSERT INTO tags (name, slug) VALUES (?, ?)`, name, slug)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
