package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/internal/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, Slice(items, Page{Limit: 2, Offset: 0}))
	assert.Equal(t, []int{5}, Slice(items, Page{Limit: 2, Offset: 4}))
	assert.Equal(t, []int{}, Slice(items, Page{Limit: 2, Offset: 10}))
}

func TestPageFromQuery(t *testing.T) {
	cases := []struct {
		query string
		want  Page
	}{
		{"", Page{Limit: DefaultLimit, Offset: 0}},
		{"limit=10&offset=20", Page{Limit: 10, Offset: 20}},
		{"limit=10&page=3", Page{Limit: 10, Offset: 20}},
		{"limit=1000", Page{Limit: DefaultLimit, Offset: 0}},
		{"offset=-4", Page{Limit: DefaultLimit, Offset: 0}},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		assert.Equal(t, tc.want, PageFromQuery(c), tc.query)
	}
}

func TestErrorDomain(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Error(c, apperr.FieldError("tags", "is required"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION", body["code"])
	assert.Equal(t, map[string]any{"tags": "is required"}, body["details"])
}

func TestErrorHidesInternal(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Error(c, errors.New("sql: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
