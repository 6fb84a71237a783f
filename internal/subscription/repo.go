package subscription

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

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// author loads the card of one user without the recipe preview.
func (r *Repo) author(ctx context.Context, authorID string) (models.Subscription, error) {
	var s models.Subscription
	err := r.DB.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.email,
		       (SELECT COUNT(*) FROM recipes WHERE author_id = u.id)
		FROM users u WHERE u.id = ?
	`, authorID).Scan(&s.ID, &s.Username, &s.Email, &s.RecipesCount)
	if errors.Is(err, sql.ErrNoRows) {
		return s, apperr.NotFoundf("user %s not found", authorID)
	}
	if err != nil {
		return s, fmt.Errorf("get author %s: %w", authorID, err)
	}
	return s, nil
}

func (r *Repo) Contains(ctx context.Context, userID, authorID string) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM subscriptions WHERE user_id = ? AND author_id = ?)
	`, userID, authorID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return ok, nil
}

// Insert adds the pair. Duplicates are Conflict, a missing user NotFound
// and a self-subscription Validation.
func (r *Repo) Insert(ctx context.Context, userID, authorID string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, author_id, created_at) VALUES (?, ?, ?)
	`, userID, authorID, at)
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("already subscribed to this author").WithCause(err)
	}
	if mapped := database.MapError(err, "subscription"); mapped != err {
		return mapped
	}
	return fmt.Errorf("insert subscription: %w", err)
}

func (r *Repo) Delete(ctx context.Context, userID, authorID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM subscriptions WHERE user_id = ? AND author_id = ?
	`, userID, authorID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Authors returns one page of the authors userID follows, most recently
// followed first, and the total number of subscriptions.
func (r *Repo) Authors(ctx context.Context, userID string, limit, offset int) ([]models.Subscription, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT u.id, u.username, u.email,
		       (SELECT COUNT(*) FROM recipes WHERE author_id = u.id)
		FROM subscriptions s JOIN users u ON u.id = s.author_id
		WHERE s.user_id = ?
		ORDER BY s.created_at DESC, s.rowid DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	out := make([]models.Subscription, 0)
	for rows.Next() {
		s := models.Subscription{IsSubscribed: true}
		if err := rows.Scan(&s.ID, &s.Username, &s.Email, &s.RecipesCount); err != nil {
			return nil, 0, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// RecipesOf lists the author's newest recipes; limit < 0 means all.
func (r *Repo) RecipesOf(ctx context.Context, authorID string, limit int) ([]models.RecipeShort, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, image, cooking_time FROM recipes
		WHERE author_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, authorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recipes of %s: %w", authorID, err)
	}
	defer rows.Close()

	out := make([]models.RecipeShort, 0)
	for rows.Next() {
		var s models.RecipeShort
		if err := rows.Scan(&s.ID, &s.Name, &s.Image, &s.CookingTime); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
