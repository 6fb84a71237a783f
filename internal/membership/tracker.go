// Package membership tracks the two symmetric per-user recipe sets:
// favorites and the shopping cart.
package membership

import (
	"context"
	"time"

	"foodgram/internal/apperr"
	"foodgram/pkg/models"
)

type Tracker struct {
	Repo *Repo
	Kind List
	Now  func() time.Time
}

func NewTracker(repo *Repo, l List) *Tracker {
	return &Tracker{Repo: repo, Kind: l, Now: func() time.Time { return time.Now().UTC() }}
}

// Add puts the recipe in the user's set and returns its short projection.
// A missing recipe is NotFound; an existing pair is Conflict, including when
// a concurrent Add wins the insert.
func (t *Tracker) Add(ctx context.Context, userID string, recipeID int64) (models.RecipeShort, error) {
	short, err := t.Repo.recipeShort(ctx, recipeID)
	if err != nil {
		return models.RecipeShort{}, err
	}

	exists, err := t.Repo.Contains(ctx, t.Kind, userID, recipeID)
	if err != nil {
		return models.RecipeShort{}, err
	}
	if exists {
		return models.RecipeShort{}, apperr.Conflict("recipe already in " + t.Kind.label())
	}

	if err := t.Repo.Insert(ctx, t.Kind, userID, recipeID, t.Now()); err != nil {
		return models.RecipeShort{}, err
	}
	return short, nil
}

func (t *Tracker) Remove(ctx context.Context, userID string, recipeID int64) error {
	ok, err := t.Repo.Delete(ctx, t.Kind, userID, recipeID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("recipe not in " + t.Kind.label())
	}
	return nil
}

func (t *Tracker) List(ctx context.Context, userID string) ([]models.RecipeShort, error) {
	return t.Repo.Recipes(ctx, t.Kind, userID)
}

func (t *Tracker) Contains(ctx context.Context, userID string, recipeID int64) (bool, error) {
	return t.Repo.Contains(ctx, t.Kind, userID, recipeID)
}
