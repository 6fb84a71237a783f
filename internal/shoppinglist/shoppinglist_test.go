package shoppinglist

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/internal/apperr"
	"foodgram/internal/auth"
	"foodgram/internal/testutil"
	"foodgram/pkg/models"
)

type cart struct {
	db     *sql.DB
	user   string
	flour  int64
	egg    int64
	author string
}

func newCart(t *testing.T) *cart {
	t.Helper()
	db := testutil.NewDB(t)
	return &cart{
		db:     db,
		user:   testutil.User(t, db, "shopper"),
		author: testutil.User(t, db, "author"),
		flour:  testutil.Ingredient(t, db, "flour", "g"),
		egg:    testutil.Ingredient(t, db, "egg", "pcs"),
	}
}

// recipe inserts a recipe with the given ingredient amounts and puts it in
// the shopper's cart when inCart is set.
func (c *cart) recipe(t *testing.T, inCart bool, amounts map[int64]int) int64 {
	t.Helper()
	now := time.Now().UTC()
	res, err := c.db.Exec(`
		INSERT INTO recipes (author_id, name, text, image, cooking_time, created_at, updated_at)
		VALUES (?, 'r', 't', 'i', 5, ?, ?)
	`, c.author, now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	pos := 0
	for ing, amount := range amounts {
		_, err := c.db.Exec(`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount, position) VALUES (?, ?, ?, ?)`,
			id, ing, amount, pos)
		require.NoError(t, err)
		pos++
	}
	if inCart {
		_, err := c.db.Exec(`INSERT INTO shopping_list_entries (user_id, recipe_id, created_at) VALUES (?, ?, ?)`,
			c.user, id, now)
		require.NoError(t, err)
	}
	return id
}

func TestAggregate(t *testing.T) {
	c := newCart(t)
	c.recipe(t, true, map[int64]int{c.flour: 200})
	c.recipe(t, true, map[int64]int{c.flour: 100, c.egg: 2})
	c.recipe(t, false, map[int64]int{c.flour: 5000})

	a := NewAggregator(c.db)
	got, err := a.Aggregate(context.Background(), c.user)
	require.NoError(t, err)
	assert.Equal(t, []models.ShoppingItem{
		{Name: "egg", MeasurementUnit: "pcs", TotalAmount: 2},
		{Name: "flour", MeasurementUnit: "g", TotalAmount: 300},
	}, got)

	again, err := a.Aggregate(context.Background(), c.user)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestAggregateEmpty(t *testing.T) {
	c := newCart(t)
	got, err := NewAggregator(c.db).Aggregate(context.Background(), c.user)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFoldOrderingAndOverflow(t *testing.T) {
	lines := []Line{
		{IngredientID: 3, Name: "salt", MeasurementUnit: "g", Amount: 1},
		{IngredientID: 2, Name: "salt", MeasurementUnit: "pinch", Amount: 2},
		{IngredientID: 1, Name: "Salt", MeasurementUnit: "g", Amount: 3},
		{IngredientID: 4, Name: "salt", MeasurementUnit: "g", Amount: 4},
		{IngredientID: 3, Name: "salt", MeasurementUnit: "g", Amount: 10},
	}
	got := Fold(lines)
	assert.Equal(t, []models.ShoppingItem{
		{Name: "Salt", MeasurementUnit: "g", TotalAmount: 3},
		{Name: "salt", MeasurementUnit: "g", TotalAmount: 11},
		{Name: "salt", MeasurementUnit: "g", TotalAmount: 4},
		{Name: "salt", MeasurementUnit: "pinch", TotalAmount: 2},
	}, got)

	// sums beyond the per-line bound do not overflow
	big := make([]Line, 100000)
	for i := range big {
		big[i] = Line{IngredientID: 1, Name: "water", MeasurementUnit: "ml", Amount: 32000}
	}
	assert.Equal(t, int64(3_200_000_000), Fold(big)[0].TotalAmount)

	assert.Empty(t, Fold(nil))
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, []models.ShoppingItem{
		{Name: "egg", MeasurementUnit: "pcs", TotalAmount: 2},
		{Name: "flour", MeasurementUnit: "g", TotalAmount: 300},
	}))
	assert.Equal(t, "egg — 2\nflour — 300\n", buf.String())
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCSV(&buf, []models.ShoppingItem{{Name: "milk, whole", MeasurementUnit: "ml", TotalAmount: 750}}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"name", "measurement_unit", "total_amount"},
		{"milk, whole", "ml", "750"},
	}, records)
}

func TestRenderPDF(t *testing.T) {
	for _, items := range [][]models.ShoppingItem{nil, {{Name: "crème", MeasurementUnit: "ml", TotalAmount: 1}}} {
		var buf bytes.Buffer
		require.NoError(t, RenderPDF(&buf, items))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TXT": FormatText, "csv": FormatCSV, "pdf": FormatPDF} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xlsx")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newCart(t)
	c.recipe(t, true, map[int64]int{c.flour: 200, c.egg: 1})

	r := gin.New()
	NewHandler(NewAggregator(c.db)).RegisterRoutes(r.Group("/api", func(ctx *gin.Context) {
		ctx.Set(auth.CtxClaimsKey, &auth.Claims{UserID: c.user})
		ctx.Next()
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/recipes/download_shopping_cart", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "egg — 1\nflour — 200\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "shopping_cart.txt")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/recipes/download_shopping_cart?format=csv", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/recipes/download_shopping_cart?format=doc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
