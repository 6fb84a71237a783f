package ingredient

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"foodgram/internal/httpx"
)

type Handler struct {
	Catalog *Catalog
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{Catalog: catalog}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ingredients", h.search)
	rg.GET("/ingredients/:id", h.get)
}

// search is unpaginated; clients filter with ?name= while typing.
func (h *Handler) search(c *gin.Context) {
	items, err := h.Catalog.Search(c.Request.Context(), strings.TrimSpace(c.Query("name")))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) get(c *gin.Context) {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	ing, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, ing)
}
