package subscription

import (
	"context"
	"database/sql"
	"encoding/json"
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

func insertRecipe(t *testing.T, db *sql.DB, author, name string, at time.Time) int64 {
	t.Helper()
	res, err := db.Exec(`
		INSERT INTO recipes (author_id, name, text, image, cooking_time, created_at, updated_at)
		VALUES (?, ?, 'text', 'img.png', 15, ?, ?)
	`, author, name, at, at)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func TestSubscribeUnsubscribe(t *testing.T) {
	db := testutil.NewDB(t)
	reader := testutil.User(t, db, "reader")
	chef := testutil.User(t, db, "chef")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	insertRecipe(t, db, chef, "Borscht", base)
	newest := insertRecipe(t, db, chef, "Pelmeni", base.Add(time.Hour))

	tr := NewTracker(NewRepo(db))
	ctx := context.Background()

	card, err := tr.Subscribe(ctx, reader, chef, 1)
	require.NoError(t, err)
	assert.Equal(t, "user-chef", card.Username)
	assert.True(t, card.IsSubscribed)
	assert.Equal(t, 2, card.RecipesCount)
	require.Len(t, card.Recipes, 1)
	assert.Equal(t, newest, card.Recipes[0].ID)

	ok, err := tr.IsSubscribed(ctx, reader, chef)
	require.NoError(t, err)
	assert.True(t, ok)

	// following is one-way
	ok, err = tr.IsSubscribed(ctx, chef, reader)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = tr.Subscribe(ctx, reader, chef, AllRecipes)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, tr.Unsubscribe(ctx, reader, chef))
	err = tr.Unsubscribe(ctx, reader, chef)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSubscribeRejections(t *testing.T) {
	db := testutil.NewDB(t)
	reader := testutil.User(t, db, "reader")
	tr := NewTracker(NewRepo(db))
	ctx := context.Background()

	_, err := tr.Subscribe(ctx, reader, reader, AllRecipes)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = tr.Subscribe(ctx, reader, "ghost", AllRecipes)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = tr.Unsubscribe(ctx, reader, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM subscriptions`).Scan(&n))
	assert.Zero(t, n)
}

func TestInsertMapsConstraints(t *testing.T) {
	db := testutil.NewDB(t)
	reader := testutil.User(t, db, "reader")
	chef := testutil.User(t, db, "chef")
	repo := NewRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Insert(ctx, reader, chef, now))
	assert.ErrorIs(t, repo.Insert(ctx, reader, chef, now), apperr.ErrConflict)
	assert.ErrorIs(t, repo.Insert(ctx, reader, reader, now), apperr.ErrValidation)
	assert.ErrorIs(t, repo.Insert(ctx, reader, "ghost", now), apperr.ErrNotFound)
}

func TestListNewestFirstWithPreview(t *testing.T) {
	db := testutil.NewDB(t)
	reader := testutil.User(t, db, "reader")
	chefs := []string{testutil.User(t, db, "a"), testutil.User(t, db, "b"), testutil.User(t, db, "c")}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		insertRecipe(t, db, chefs[0], "dish", base.Add(time.Duration(i)*time.Minute))
	}

	tr := NewTracker(NewRepo(db))
	clock := base
	tr.Now = func() time.Time { clock = clock.Add(time.Second); return clock }
	ctx := context.Background()
	for _, c := range chefs {
		_, err := tr.Subscribe(ctx, reader, c, 0)
		require.NoError(t, err)
	}

	got, total, err := tr.List(ctx, reader, 2, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Empty(t, got[0].Recipes)

	got, _, err = tr.List(ctx, reader, 2, 2, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, 3, got[0].RecipesCount)
	assert.Len(t, got[0].Recipes, 2)

	got, _, err = tr.List(ctx, reader, 10, 0, AllRecipes)
	require.NoError(t, err)
	assert.Len(t, got[2].Recipes, 3)
}

func TestDeletingAuthorDropsSubscription(t *testing.T) {
	db := testutil.NewDB(t)
	reader := testutil.User(t, db, "reader")
	chef := testutil.User(t, db, "chef")
	tr := NewTracker(NewRepo(db))
	ctx := context.Background()

	_, err := tr.Subscribe(ctx, reader, chef, AllRecipes)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM users WHERE id = ?`, chef)
	require.NoError(t, err)

	got, total, err := tr.List(ctx, reader, 10, 0, AllRecipes)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, got)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	reader := testutil.User(t, db, "reader")
	chef := testutil.User(t, db, "chef")
	insertRecipe(t, db, chef, "Borscht", time.Now().UTC())

	r := gin.New()
	protected := r.Group("/api", func(c *gin.Context) {
		c.Set(auth.CtxClaimsKey, &auth.Claims{UserID: reader})
		c.Next()
	})
	NewHandler(NewRepo(db), nil).RegisterRoutes(protected)

	do := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	w := do(http.MethodPost, "/api/users/chef/subscribe?recipes_limit=x")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(http.MethodPost, "/api/users/chef/subscribe")
	require.Equal(t, http.StatusCreated, w.Code)
	var card models.Subscription
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	assert.Equal(t, "chef", card.ID)
	assert.Equal(t, 1, card.RecipesCount)
	assert.Len(t, card.Recipes, 1)

	w = do(http.MethodPost, "/api/users/chef/subscribe")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(http.MethodPost, "/api/users/reader/subscribe")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(http.MethodPost, "/api/users/ghost/subscribe")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(http.MethodGet, "/api/users/subscriptions?recipes_limit=0")
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Count   int                   `json:"count"`
		Results []models.Subscription `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Count)
	require.Len(t, page.Results, 1)
	assert.Empty(t, page.Results[0].Recipes)
	assert.True(t, page.Results[0].IsSubscribed)

	w = do(http.MethodDelete, "/api/users/chef/subscribe")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(http.MethodDelete, "/api/users/chef/subscribe")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
