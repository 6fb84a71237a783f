package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodgram/internal/apperr"
	"foodgram/pkg/database"
	"foodgram/pkg/models"
)

// ListQuery filters the recipe feed. Membership filters apply only when
// ViewerID is set; anonymous viewers get the unfiltered feed.
type ListQuery struct {
	AuthorID         string
	TagSlugs         []string
	IsFavorited      *bool
	IsInShoppingCart *bool
	ViewerID         string
	Limit            int
	Offset           int
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const recipeColumns = `
	r.id, r.author_id, u.username, r.name, r.text, r.image, r.cooking_time,
	r.created_at, r.updated_at,
	EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?),
	EXISTS (SELECT 1 FROM shopping_list_entries s WHERE s.recipe_id = r.id AND s.user_id = ?),
	EXISTS (SELECT 1 FROM subscriptions sub WHERE sub.author_id = r.author_id AND sub.user_id = ?)
`

// Get loads the full projection of a recipe as seen by viewerID ("" for
// anonymous).
func (r *Repo) Get(ctx context.Context, id int64, viewerID string) (*models.Recipe, error) {
	return r.get(ctx, r.DB, id, viewerID)
}

func (r *Repo) get(ctx context.Context, q database.Querier, id int64, viewerID string) (*models.Recipe, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+recipeColumns+`
		FROM recipes r JOIN users u ON u.id = r.author_id
		WHERE r.id = ?
	`, viewerID, viewerID, viewerID, id)

	rec, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("recipe %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe %d: %w", id, err)
	}

	if err := loadDetails(ctx, q, []*models.Recipe{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns one page of the feed, newest first, and the total number of
// matching recipes.
func (r *Repo) List(ctx context.Context, lq ListQuery) ([]models.Recipe, int, error) {
	where, args := lq.where()

	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes r WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	pageArgs := append([]any{lq.ViewerID, lq.ViewerID, lq.ViewerID}, args...)
	pageArgs = append(pageArgs, lq.Limit, lq.Offset)
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+recipeColumns+`
		FROM recipes r JOIN users u ON u.id = r.author_id
		WHERE `+where+`
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ? OFFSET ?
	`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var ptrs []*models.Recipe
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan recipe: %w", err)
		}
		ptrs = append(ptrs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := loadDetails(ctx, r.DB, ptrs); err != nil {
		return nil, 0, err
	}

	out := make([]models.Recipe, 0, len(ptrs))
	for _, p := range ptrs {
		out = append(out, *p)
	}
	return out, total, nil
}

func (lq ListQuery) where() (string, []any) {
	clauses := []string{"1 = 1"}
	var args []any

	if lq.AuthorID != "" {
		clauses = append(clauses, "r.author_id = ?")
		args = append(args, lq.AuthorID)
	}
	if len(lq.TagSlugs) > 0 {
		clauses = append(clauses, `EXISTS (
			SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug IN (`+placeholders(len(lq.TagSlugs))+`))`)
		for _, s := range lq.TagSlugs {
			args = append(args, s)
		}
	}
	if lq.ViewerID != "" {
		if c := membershipClause("favorites", lq.IsFavorited); c != "" {
			clauses = append(clauses, c)
			args = append(args, lq.ViewerID)
		}
		if c := membershipClause("shopping_list_entries", lq.IsInShoppingCart); c != "" {
			clauses = append(clauses, c)
			args = append(args, lq.ViewerID)
		}
	}
	return strings.Join(clauses, " AND "), args
}

func membershipClause(table string, want *bool) string {
	if want == nil {
		return ""
	}
	exists := "EXISTS (SELECT 1 FROM " + table + " m WHERE m.recipe_id = r.id AND m.user_id = ?)"
	if *want {
		return exists
	}
	return "NOT " + exists
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner) (*models.Recipe, error) {
	var rec models.Recipe
	err := s.Scan(
		&rec.ID, &rec.Author.ID, &rec.Author.Username, &rec.Name, &rec.Text, &rec.Image,
		&rec.CookingTime, &rec.CreatedAt, &rec.UpdatedAt, &rec.IsFavorited, &rec.IsInShoppingCart,
		&rec.Author.IsSubscribed,
	)
	if err != nil {
		return nil, err
	}
	rec.Tags = []models.Tag{}
	rec.Ingredients = []models.RecipeIngredient{}
	return &rec, nil
}

// loadDetails fills ingredients (in write order) and tags for a batch of
// recipes with one query each.
func loadDetails(ctx context.Context, q database.Querier, recs []*models.Recipe) error {
	if len(recs) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Recipe, len(recs))
	ids := make([]any, 0, len(recs))
	for _, rec := range recs {
		byID[rec.ID] = rec
		ids = append(ids, rec.ID)
	}
	in := placeholders(len(ids))

	rows, err := q.QueryContext(ctx, `
		SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id IN (`+in+`)
		ORDER BY ri.recipe_id, ri.position
	`, ids...)
	if err != nil {
		return fmt.Errorf("load recipe ingredients: %w", err)
	}
	for rows.Next() {
		var recipeID int64
		var ri models.RecipeIngredient
		if err := rows.Scan(&recipeID, &ri.ID, &ri.Name, &ri.MeasurementUnit, &ri.Amount); err != nil {
			rows.Close()
			return fmt.Errorf("scan recipe ingredient: %w", err)
		}
		byID[recipeID].Ingredients = append(byID[recipeID].Ingredients, ri)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.QueryContext(ctx, `
		SELECT rt.recipe_id, t.id, t.name, t.slug
		FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id IN (`+in+`)
		ORDER BY rt.recipe_id, t.id
	`, ids...)
	if err != nil {
		return fmt.Errorf("load recipe tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var recipeID int64
		var t models.Tag
		if err := rows.Scan(&recipeID, &t.ID, &t.Name, &t.Slug); err != nil {
			return fmt.Errorf("scan recipe tag: %w", err)
		}
		byID[recipeID].Tags = append(byID[recipeID].Tags, t)
	}
	return rows.Err()
}

// fields is the scalar part of a recipe row.
type fields struct {
	AuthorID    string
	Name        string
	Text        string
	Image       string
	CookingTime int
}

func loadFields(ctx context.Context, q database.Querier, id int64) (*fields, error) {
	var f fields
	err := q.QueryRowContext(ctx, `
		SELECT author_id, name, text, image, cooking_time FROM recipes WHERE id = ?
	`, id).Scan(&f.AuthorID, &f.Name, &f.Text, &f.Image, &f.CookingTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("recipe %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load recipe %d: %w", id, err)
	}
	return &f, nil
}

func insertRecipe(ctx context.Context, q database.Querier, authorID string, in RecipeInput, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO recipes (author_id, name, text, image, cooking_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, authorID, in.Name, in.Text, in.Image, in.CookingTime, now, now)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return 0, apperr.NotFoundf("author %s not found", authorID)
		}
		return 0, fmt.Errorf("insert recipe: %w", database.MapError(err, "recipe"))
	}
	return res.LastInsertId()
}

func updateRecipe(ctx context.Context, q database.Querier, id int64, in RecipeInput, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE recipes SET name = ?, text = ?, image = ?, cooking_time = ?, updated_at = ?
		WHERE id = ?
	`, in.Name, in.Text, in.Image, in.CookingTime, now, id)
	if err != nil {
		return fmt.Errorf("update recipe %d: %w", id, err)
	}
	return nil
}

// replaceIngredients drops every line of the recipe and bulk-inserts lines
// through one prepared statement, keeping their order in position.
func replaceIngredients(ctx context.Context, tx *sql.Tx, recipeID int64, lines []models.IngredientLine) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipeID); err != nil {
		return fmt.Errorf("clear recipe ingredients: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount, position)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare recipe ingredient insert: %w", err)
	}
	defer stmt.Close()

	for i, l := range lines {
		if _, err := stmt.ExecContext(ctx, recipeID, l.ID, l.Amount, i); err != nil {
			return fmt.Errorf("insert recipe ingredient %d: %w", l.ID, database.MapError(err, "recipe ingredient"))
		}
	}
	return nil
}

func replaceTags(ctx context.Context, tx *sql.Tx, recipeID int64, tagIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, recipeID); err != nil {
		return fmt.Errorf("clear recipe tags: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare recipe tag insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range tagIDs {
		if _, err := stmt.ExecContext(ctx, recipeID, id); err != nil {
			return fmt.Errorf("insert recipe tag %d: %w", id, database.MapError(err, "recipe tag"))
		}
	}
	return nil
}

func deleteRecipe(ctx context.Context, q database.Querier, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete recipe %d: %w", id, err)
	}
	return nil
}

// missingIDs returns the ids not present in table, in input order.
func missingIDs(ctx context.Context, q database.Querier, table string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id FROM `+table+` WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", table, err)
	}
	defer rows.Close()

	found := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
