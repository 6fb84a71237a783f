package shoppinglist

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodgram/internal/apperr"
	"foodgram/internal/auth"
	"foodgram/internal/httpx"
	"foodgram/internal/metrics"
)

type Handler struct {
	Aggregator *Aggregator
}

func NewHandler(a *Aggregator) *Handler {
	return &Handler{Aggregator: a}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/recipes/download_shopping_cart", h.download)
}

func (h *Handler) download(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		httpx.Error(c, apperr.Unauthorized("unauthorized"))
		return
	}
	format, err := ParseFormat(c.Query("format"))
	if err != nil {
		httpx.Error(c, err)
		return
	}

	items, err := h.Aggregator.Aggregate(c.Request.Context(), claims.UserID)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	// render fully before writing headers so a failure is still a clean 500
	var buf bytes.Buffer
	if err := Render(&buf, format, items); err != nil {
		httpx.Error(c, err)
		return
	}
	metrics.RecordShoppingListExport(string(format), len(items))

	c.Header("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
