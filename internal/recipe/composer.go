package recipe

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"foodgram/internal/apperr"
	"foodgram/internal/validation"
	"foodgram/pkg/database"
	"foodgram/pkg/models"
)

// Composer owns every recipe write. Each call validates first, then runs all
// reference checks and writes in a single transaction, so a failed call
// leaves no trace.
type Composer struct {
	Repo      *Repo
	Validator *validation.Validator
	Now       func() time.Time
}

func NewComposer(repo *Repo, v *validation.Validator) *Composer {
	return &Composer{Repo: repo, Validator: v, Now: func() time.Time { return time.Now().UTC() }}
}

// Create stores a new recipe authored by authorID and returns its full
// projection.
func (c *Composer) Create(ctx context.Context, authorID string, in RecipeInput) (*models.Recipe, error) {
	in = in.normalized()
	if err := c.Validator.Validate(in); err != nil {
		return nil, err
	}

	var out *models.Recipe
	err := database.InTx(ctx, c.Repo.DB, func(tx *sql.Tx) error {
		if err := checkReferences(ctx, tx, in); err != nil {
			return err
		}

		id, err := insertRecipe(ctx, tx, authorID, in, c.Now())
		if err != nil {
			return err
		}
		if err := replaceIngredients(ctx, tx, id, in.Ingredients); err != nil {
			return err
		}
		if err := replaceTags(ctx, tx, id, in.Tags); err != nil {
			return err
		}

		out, err = c.Repo.get(ctx, tx, id, authorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update merges upd onto the stored recipe and replaces its ingredient and
// tag sets. Only the author may update.
func (c *Composer) Update(ctx context.Context, recipeID int64, editorID string, upd RecipeUpdate) (*models.Recipe, error) {
	var out *models.Recipe
	err := database.InTx(ctx, c.Repo.DB, func(tx *sql.Tx) error {
		cur, err := loadFields(ctx, tx, recipeID)
		if err != nil {
			return err
		}
		if cur.AuthorID != editorID {
			return apperr.Forbidden("only the author can edit this recipe")
		}

		in := upd.merge(cur)
		if err := c.Validator.Validate(in); err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, in); err != nil {
			return err
		}

		if err := updateRecipe(ctx, tx, recipeID, in, c.Now()); err != nil {
			return err
		}
		if err := replaceIngredients(ctx, tx, recipeID, in.Ingredients); err != nil {
			return err
		}
		if err := replaceTags(ctx, tx, recipeID, in.Tags); err != nil {
			return err
		}

		out, err = c.Repo.get(ctx, tx, recipeID, editorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the recipe and, through cascades, its ingredient lines, tag
// links, favorites and shopping list entries. Only the author may delete.
func (c *Composer) Delete(ctx context.Context, recipeID int64, requesterID string) error {
	return database.InTx(ctx, c.Repo.DB, func(tx *sql.Tx) error {
		cur, err := loadFields(ctx, tx, recipeID)
		if err != nil {
			return err
		}
		if cur.AuthorID != requesterID {
			return apperr.Forbidden("only the author can delete this recipe")
		}
		return deleteRecipe(ctx, tx, recipeID)
	})
}

// checkReferences reports every unknown ingredient and tag id at once.
func checkReferences(ctx context.Context, q database.Querier, in RecipeInput) error {
	details := map[string]string{}

	missing, err := missingIDs(ctx, q, "ingredients", ingredientIDs(in.Ingredients))
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		details["ingredients"] = "unknown ingredient id(s): " + joinIDs(missing)
	}

	missing, err = missingIDs(ctx, q, "tags", in.Tags)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		details["tags"] = "unknown tag id(s): " + joinIDs(missing)
	}

	if len(details) > 0 {
		return apperr.ValidationWithDetails("validation failed", details)
	}
	return nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
