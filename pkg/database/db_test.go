package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/internal/apperr"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenAndMigrate(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAndMigrate(t *testing.T) {
	db := newTestDB(t)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	var journal string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journal))
	assert.Equal(t, "wal", journal)

	tables := []string{
		"users", "ingredients", "tags", "recipes", "recipe_ingredients",
		"recipe_tags", "favorites", "shopping_list_entries", "subscriptions",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, table)
	}

	// schema is idempotent
	require.NoError(t, Migrate(db))
}

func TestCasefoldFunction(t *testing.T) {
	db := newTestDB(t)

	var got string
	require.NoError(t, db.QueryRow(`SELECT casefold('МУКА Flour')`).Scan(&got))
	assert.Equal(t, "мука flour", got)

	var builtin string
	require.NoError(t, db.QueryRow(`SELECT lower('МУКА')`).Scan(&builtin))
	assert.Equal(t, "МУКА", builtin)
}

func TestMapErrorUnique(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO tags (name, slug) VALUES ('Breakfast', 'breakfast')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO tags (name, slug) VALUES ('Morning', 'breakfast')`)
	require.Error(t, err)

	assert.True(t, IsUniqueViolation(err))
	mapped := MapError(err, "tag")
	assert.True(t, errors.Is(mapped, apperr.ErrConflict))
}

func TestMapErrorForeignKey(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
		INSERT INTO recipes (author_id, name, text, image, cooking_time, created_at, updated_at)
		VALUES ('ghost', 'Soup', 'Boil water', 'img.png', 10, ?, ?)
	`, now, now)
	require.Error(t, err)

	assert.True(t, IsForeignKeyViolation(err))
	assert.True(t, errors.Is(MapError(err, "recipe"), apperr.ErrNotFound))
}

func TestMapErrorCheck(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO users (id, username, email, password_hash) VALUES ('u', 'u', 'u@example.com', 'x')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO subscriptions (user_id, author_id, created_at) VALUES ('u', 'u', CURRENT_TIMESTAMP)`)
	require.Error(t, err)

	assert.True(t, IsCheckViolation(err))
	assert.True(t, errors.Is(MapError(err, "subscription"), apperr.ErrValidation))
}

func TestMapErrorPassthrough(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, MapError(plain, "x"))
	assert.NoError(t, MapError(nil, "x"))
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sentinel := errors.New("stop")
	err := InTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tags (name, slug) VALUES ('Lunch', 'lunch')`); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tags`).Scan(&n))
	assert.Zero(t, n)
}
