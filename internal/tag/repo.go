package tag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"foodgram/internal/apperr"
	"foodgram/pkg/database"
	"foodgram/pkg/models"
)

// Input is an administratively created tag.
type Input struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, slug FROM tags ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := make([]models.Tag, 0)
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (*models.Tag, error) {
	var t models.Tag
	err := r.DB.QueryRowContext(ctx, `SELECT id, name, slug FROM tags WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("tag %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get tag %d: %w", id, err)
	}
	return &t, nil
}

// Create inserts a tag. A duplicate name or slug is a conflict.
func (r *Repo) Create(ctx context.Context, in Input) (*models.Tag, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO tags (name, slug) VALUES (?, ?)`, in.Name, in.Slug)
	if err != nil {
		return nil, database.MapError(err, "tag")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("tag id: %w", err)
	}
	return &models.Tag{ID: id, Name: in.Name, Slug: in.Slug}, nil
}
