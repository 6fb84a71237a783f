// Package shoppinglist folds the ingredient lines of every recipe in a
// user's shopping cart into one summed list and renders it for download.
package shoppinglist

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"foodgram/pkg/models"
)

// Line is one recipe ingredient row reachable from a shopping cart.
type Line struct {
	IngredientID    int64
	Name            string
	MeasurementUnit string
	Amount          int
}

type Aggregator struct {
	DB *sql.DB
}

func NewAggregator(db *sql.DB) *Aggregator {
	return &Aggregator{DB: db}
}

// Aggregate returns the user's summed shopping list. An empty cart yields an
// empty, non-nil slice.
func (a *Aggregator) Aggregate(ctx context.Context, userID string) ([]models.ShoppingItem, error) {
	lines, err := a.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Fold(lines), nil
}

// Lines reads every ingredient row of every recipe in the user's cart in a
// single statement.
func (a *Aggregator) Lines(ctx context.Context, userID string) ([]Line, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT i.id, i.name, i.measurement_unit, ri.amount
		FROM shopping_list_entries s
		JOIN recipe_ingredients ri ON ri.recipe_id = s.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE s.user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load shopping list lines: %w", err)
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.IngredientID, &l.Name, &l.MeasurementUnit, &l.Amount); err != nil {
			return nil, fmt.Errorf("scan shopping list line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Fold sums amounts per ingredient id and orders the result by name, then
// unit, then id. Names compare byte-wise.
func Fold(lines []Line) []models.ShoppingItem {
	type acc struct {
		id   int64
		item models.ShoppingItem
	}
	byID := make(map[int64]*acc)
	for _, l := range lines {
		a, ok := byID[l.IngredientID]
		if !ok {
			a = &acc{id: l.IngredientID, item: models.ShoppingItem{Name: l.Name, MeasurementUnit: l.MeasurementUnit}}
			byID[l.IngredientID] = a
		}
		a.item.TotalAmount += int64(l.Amount)
	}

	accs := make([]*acc, 0, len(byID))
	for _, a := range byID {
		accs = append(accs, a)
	}
	sort.Slice(accs, func(i, j int) bool {
		x, y := accs[i], accs[j]
		if x.item.Name != y.item.Name {
			return x.item.Name < y.item.Name
		}
		if x.item.MeasurementUnit != y.item.MeasurementUnit {
			return x.item.MeasurementUnit < y.item.MeasurementUnit
		}
		return x.id < y.id
	})

	out := make([]models.ShoppingItem, len(accs))
	for i, a := range accs {
		out[i] = a.item
	}
	return out
}
