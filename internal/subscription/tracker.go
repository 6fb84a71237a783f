// Package subscription tracks which authors a user follows.
package subscription

import (
	"context"
	"time"

	"foodgram/internal/apperr"
	"foodgram/pkg/models"
)

// AllRecipes disables the per-author recipe preview limit.
const AllRecipes = -1

type Tracker struct {
	Repo *Repo
	Now  func() time.Time
}

func NewTracker(repo *Repo) *Tracker {
	return &Tracker{Repo: repo, Now: func() time.Time { return time.Now().UTC() }}
}

// Subscribe makes userID follow authorID and returns the author's card.
// Checks run in order: unknown author NotFound, self Validation, existing
// pair Conflict.
func (t *Tracker) Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (models.Subscription, error) {
	card, err := t.Repo.author(ctx, authorID)
	if err != nil {
		return models.Subscription{}, err
	}
	if userID == authorID {
		return models.Subscription{}, apperr.Validation("cannot subscribe to yourself")
	}

	exists, err := t.Repo.Contains(ctx, userID, authorID)
	if err != nil {
		return models.Subscription{}, err
	}
	if exists {
		return models.Subscription{}, apperr.Conflict("already subscribed to this author")
	}

	if err := t.Repo.Insert(ctx, userID, authorID, t.Now()); err != nil {
		return models.Subscription{}, err
	}

	card.IsSubscribed = true
	if card.Recipes, err = t.Repo.RecipesOf(ctx, authorID, recipesLimit); err != nil {
		return models.Subscription{}, err
	}
	return card, nil
}

// Unsubscribe removes the pair; an unknown author or an absent pair is
// NotFound.
func (t *Tracker) Unsubscribe(ctx context.Context, userID, authorID string) error {
	if _, err := t.Repo.author(ctx, authorID); err != nil {
		return err
	}
	ok, err := t.Repo.Delete(ctx, userID, authorID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("not subscribed to this author")
	}
	return nil
}

// List returns one page of followed authors, each with up to recipesLimit
// of their newest recipes, and the total subscription count.
func (t *Tracker) List(ctx context.Context, userID string, limit, offset, recipesLimit int) ([]models.Subscription, int, error) {
	authors, total, err := t.Repo.Authors(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for i := range authors {
		if authors[i].Recipes, err = t.Repo.RecipesOf(ctx, authors[i].ID, recipesLimit); err != nil {
			return nil, 0, err
		}
	}
	return authors, total, nil
}

func (t *Tracker) IsSubscribed(ctx context.Context, userID, authorID string) (bool, error) {
	return t.Repo.Contains(ctx, userID, authorID)
}
