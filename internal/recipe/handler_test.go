package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/internal/apperr"
	"foodgram/internal/auth"
	"foodgram/pkg/models"
)

// asUser stands in for the auth middleware; X-User selects the actor.
func asUser(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader("X-User"); id != "" {
			c.Set(auth.CtxClaimsKey, &auth.Claims{UserID: id})
		} else if required {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func newRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	h := NewHandler(f.composer.Repo, f.composer, nil, "https://foodgram.example/")
	h.RegisterRoutes(api.Group("", asUser(false)), api.Group("", asUser(true)))
	return r
}

func call(r http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type page struct {
	Count   int             `json:"count"`
	Results []models.Recipe `json:"results"`
}

func TestHandlerCreateGetDelete(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)

	w := call(r, http.MethodPost, "/api/recipes", f.author, f.input())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rec models.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))

	w = call(r, http.MethodGet, "/api/recipes/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"measurement_unit":"g"`)
	assert.Contains(t, w.Body.String(), `"is_favorited":false`)

	w = call(r, http.MethodDelete, "/api/recipes/1", f.other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(r, http.MethodDelete, "/api/recipes/1", f.author, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = call(r, http.MethodGet, "/api/recipes/1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerValidationBody(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)

	in := f.input()
	in.CookingTime = 0
	w := call(r, http.MethodPost, "/api/recipes", f.author, in)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Code    apperr.Code       `json:"code"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperr.CodeValidation, body.Code)
	assert.Contains(t, body.Details, "cooking_time")

	w = call(r, http.MethodPost, "/api/recipes", "", in)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandlerPatch(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)
	_, err := f.composer.Create(context.Background(), f.author, f.input())
	require.NoError(t, err)

	w := call(r, http.MethodPatch, "/api/recipes/1", f.author, gin.H{
		"name":        "Waffles",
		"ingredients": []gin.H{{"id": f.egg, "amount": 3}},
		"tags":        []int64{f.dinner},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rec models.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Waffles", rec.Name)
	assert.Equal(t, "images/pancakes.png", rec.Image)
	require.Len(t, rec.Ingredients, 1)
	assert.Equal(t, 3, rec.Ingredients[0].Amount)

	w = call(r, http.MethodPatch, "/api/recipes/1", f.author, gin.H{"name": "No sets"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerListFilters(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)
	ctx := context.Background()

	a, err := f.composer.Create(ctx, f.author, f.input())
	require.NoError(t, err)
	in := f.input()
	in.Name = "Omelette"
	in.Tags = []int64{f.dinner}
	b, err := f.composer.Create(ctx, f.other, in)
	require.NoError(t, err)

	_, err = f.db.Exec(`INSERT INTO favorites (user_id, recipe_id, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)`, f.other, a.ID)
	require.NoError(t, err)

	list := func(query, user string) page {
		t.Helper()
		w := call(r, http.MethodGet, "/api/recipes"+query, user, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var p page
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		return p
	}

	p := list("", "")
	assert.Equal(t, 2, p.Count)
	// newest first
	assert.Equal(t, b.ID, p.Results[0].ID)

	p = list("?author="+f.author, "")
	require.Equal(t, 1, p.Count)
	assert.Equal(t, a.ID, p.Results[0].ID)

	p = list("?tags=dinner", "")
	require.Equal(t, 1, p.Count)
	assert.Equal(t, b.ID, p.Results[0].ID)

	p = list("?tags=dinner,lunch", "")
	assert.Equal(t, 2, p.Count)

	p = list("?is_favorited=1", f.other)
	require.Equal(t, 1, p.Count)
	assert.Equal(t, a.ID, p.Results[0].ID)
	assert.True(t, p.Results[0].IsFavorited)

	p = list("?is_favorited=false", f.other)
	require.Equal(t, 1, p.Count)
	assert.Equal(t, b.ID, p.Results[0].ID)

	// anonymous viewers are not filtered by membership
	p = list("?is_favorited=1", "")
	assert.Equal(t, 2, p.Count)

	p = list("?is_in_shopping_cart=true", f.other)
	assert.Equal(t, 0, p.Count)
	assert.Empty(t, p.Results)

	p = list("?limit=1&offset=1", "")
	assert.Equal(t, 2, p.Count)
	require.Len(t, p.Results, 1)
	assert.Equal(t, a.ID, p.Results[0].ID)

	w := call(r, http.MethodGet, "/api/recipes?is_favorited=maybe", f.other, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerShortLinkAndQR(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)
	_, err := f.composer.Create(context.Background(), f.author, f.input())
	require.NoError(t, err)

	w := call(r, http.MethodGet, "/api/recipes/1/get-link", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"short-link":"https://foodgram.example/recipes/1"}`, w.Body.String())

	w = call(r, http.MethodGet, "/api/recipes/1/qr", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = call(r, http.MethodGet, "/api/recipes/2/get-link", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestParseFlag(t *testing.T) {
	for _, raw := range []string{"1", "true", "TRUE"} {
		v, err := ParseFlag(raw, "f")
		require.NoError(t, err)
		assert.True(t, *v)
	}
	for _, raw := range []string{"0", "false"} {
		v, err := ParseFlag(raw, "f")
		require.NoError(t, err)
		assert.False(t, *v)
	}
	v, err := ParseFlag("", "f")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseFlag("yes", "is_favorited")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, apperr.Details(err), "is_favorited")
}
