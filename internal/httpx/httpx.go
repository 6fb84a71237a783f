// Package httpx holds the small gin helpers shared by every handler.
package httpx

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"foodgram/internal/apperr"
	"foodgram/internal/logging"
)

// Error writes err as a JSON body with the status its code maps to.
// Non-domain errors become a 500 and are logged; their text is not exposed.
func Error(c *gin.Context, err error) {
	var de *apperr.Error
	if !errors.As(err, &de) {
		logging.Ctx(c.Request.Context()).Error().Err(err).
			Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal error",
			"code":  apperr.CodeInternal,
		})
		return
	}

	body := gin.H{"error": de.Message, "code": de.Code}
	if de.Details != nil {
		body["details"] = de.Details
	}
	if de.Code == apperr.CodeInternal {
		logging.Ctx(c.Request.Context()).Error().Err(err).
			Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(de.Code.HTTPStatus(), body)
}

// AbortError is Error followed by c.Abort, for middleware.
func AbortError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// ParseInt returns def when s is empty or not a number.
func ParseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ParamID parses a positive int64 path parameter.
func ParamID(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.FieldError(name, "must be a positive integer")
	}
	return id, nil
}

// Page is the limit/offset window requested by a client.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultLimit = 6
	MaxLimit     = 100
)

// PageFromQuery reads ?limit=&offset= (or ?page= with limit) with defaults.
func PageFromQuery(c *gin.Context) Page {
	limit := ParseInt(c.Query("limit"), DefaultLimit)
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	offset := ParseInt(c.Query("offset"), 0)
	if page := ParseInt(c.Query("page"), 0); page > 0 && c.Query("offset") == "" {
		offset = (page - 1) * limit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

// Slice applies the page window to an in-memory result.
func Slice[T any](items []T, p Page) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

// Paged writes the list envelope used by every collection endpoint.
func Paged(c *gin.Context, total int, p Page, items any) {
	c.JSON(http.StatusOK, gin.H{
		"count":   total,
		"limit":   p.Limit,
		"offset":  p.Offset,
		"results": items,
	})
}
