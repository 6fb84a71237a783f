package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"foodgram/internal/apperr"
	"foodgram/pkg/database"
	"foodgram/pkg/models"
)

// List names one of the two per-user recipe sets.
type List string

const (
	Favorites    List = "favorites"
	ShoppingCart List = "shopping_cart"
)

func (l List) table() string {
	if l == ShoppingCart {
		return "shopping_list_entries"
	}
	return "favorites"
}

func (l List) label() string {
	if l == ShoppingCart {
		return "shopping cart"
	}
	return "favorites"
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) recipeShort(ctx context.Context, recipeID int64) (models.RecipeShort, error) {
	var s models.RecipeShort
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, image, cooking_time FROM recipes WHERE id = ?
	`, recipeID).Scan(&s.ID, &s.Name, &s.Image, &s.CookingTime)
	if errors.Is(err, sql.ErrNoRows) {
		return s, apperr.NotFoundf("recipe %d not found", recipeID)
	}
	if err != nil {
		return s, fmt.Errorf("get recipe %d: %w", recipeID, err)
	}
	return s, nil
}

func (r *Repo) Contains(ctx context.Context, l List, userID string, recipeID int64) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM `+l.table()+` WHERE user_id = ? AND recipe_id = ?)
	`, userID, recipeID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", l, err)
	}
	return ok, nil
}

// Insert adds the pair. The primary key rejects duplicates, which surface
// as a conflict.
func (r *Repo) Insert(ctx context.Context, l List, userID string, recipeID int64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO `+l.table()+` (user_id, recipe_id, created_at) VALUES (?, ?, ?)
	`, userID, recipeID, at)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("recipe already in " + l.label()).WithCause(err)
		}
		if database.IsForeignKeyViolation(err) {
			return apperr.NotFoundf("recipe %d not found", recipeID).WithCause(err)
		}
		return fmt.Errorf("insert into %s: %w", l, err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, l List, userID string, recipeID int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM `+l.table()+` WHERE user_id = ? AND recipe_id = ?
	`, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", l, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Recipes lists the user's recipes in l, most recently added first.
func (r *Repo) Recipes(ctx context.Context, l List, userID string) ([]models.RecipeShort, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT r.id, r.name, r.image, r.cooking_time
		FROM `+l.table()+` m JOIN recipes r ON r.id = m.recipe_id
		WHERE m.user_id = ?
		ORDER BY m.created_at DESC, m.rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", l, err)
	}
	defer rows.Close()

	out := make([]models.RecipeShort, 0)
	for rows.Next() {
		var s models.RecipeShort
		if err := rows.Scan(&s.ID, &s.Name, &s.Image, &s.CookingTime); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", l, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
