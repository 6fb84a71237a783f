package tag

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/internal/apperr"
	"foodgram/internal/testutil"
	"foodgram/internal/validation"
)

func TestCreateAndList(t *testing.T) {
	repo := NewRepo(testutil.NewDB(t))
	ctx := context.Background()

	lunch, err := repo.Create(ctx, Input{Name: "Lunch", Slug: "lunch"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, Input{Name: "Breakfast", Slug: "breakfast"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, Input{Name: "Lunch", Slug: "lunch-2"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = repo.Create(ctx, Input{Name: "Other", Slug: "lunch"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	tags, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Breakfast", tags[0].Name)

	got, err := repo.Get(ctx, lunch.ID)
	require.NoError(t, err)
	assert.Equal(t, "lunch", got.Slug)

	_, err = repo.Get(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInputValidation(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(Input{Name: "Dinner", Slug: "dinner_2-a"}))

	err := v.Validate(Input{Name: "Dinner", Slug: "din ner"})
	require.Error(t, err)
	assert.Contains(t, apperr.Details(err), "slug")

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'a'
	}
	err = v.Validate(Input{Name: "x", Slug: string(long)})
	assert.Contains(t, apperr.Details(err), "slug")
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	testutil.Tag(t, db, "Vegan", "vegan")

	r := gin.New()
	NewHandler(NewRepo(db)).RegisterRoutes(r.Group("/api"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tags", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Vegan","slug":"vegan"}]`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tags/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tags/2", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
