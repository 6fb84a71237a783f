package ingredient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"foodgram/internal/apperr"
	"foodgram/pkg/database"
	"foodgram/pkg/models"
)

// Input is a new catalog entry.
type Input struct {
	Name            string `json:"name" validate:"required,max=256"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=64"`
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Get(ctx context.Context, id int64) (*models.Ingredient, error) {
	var ing models.Ingredient
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, measurement_unit FROM ingredients WHERE id = ?
	`, id).Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("ingredient %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get ingredient %d: %w", id, err)
	}
	return &ing, nil
}

// Search returns ingredients whose name starts with prefix, ignoring case
// (Unicode-aware, so "мука" finds "Мука"), ordered by name. An empty prefix
// lists the whole catalog.
func (r *Repo) Search(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, measurement_unit
		FROM ingredients
		WHERE casefold(name) LIKE ? ESCAPE '\'
		ORDER BY name, measurement_unit, id
	`, escapeLike(SearchKey(prefix))+"%")
	if err != nil {
		return nil, fmt.Errorf("search ingredients: %w", err)
	}
	defer rows.Close()

	out := make([]models.Ingredient, 0)
	for rows.Next() {
		var ing models.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

// GetOrCreate inserts the ingredient unless the (name, unit) pair exists and
// returns the stored row. created reports whether a row was inserted.
func (r *Repo) GetOrCreate(ctx context.Context, in Input) (ing *models.Ingredient, created bool, err error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)
		ON CONFLICT (name, measurement_unit) DO NOTHING
	`, in.Name, in.MeasurementUnit)
	if err != nil {
		return nil, false, fmt.Errorf("insert ingredient: %w", database.MapError(err, "ingredient"))
	}
	n, _ := res.RowsAffected()

	var out models.Ingredient
	err = r.DB.QueryRowContext(ctx, `
		SELECT id, name, measurement_unit FROM ingredients
		WHERE name = ? AND measurement_unit = ?
	`, in.Name, in.MeasurementUnit).Scan(&out.ID, &out.Name, &out.MeasurementUnit)
	if err != nil {
		return nil, false, fmt.Errorf("load ingredient: %w", err)
	}
	return &out, n > 0, nil
}

// SearchKey is the normalized form of a search prefix. Prefixes with the same
// key return the same rows.
func SearchKey(prefix string) string {
	return strings.ToLower(prefix)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
