package recipe

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"foodgram/internal/apperr"
	"foodgram/internal/auth"
	"foodgram/internal/httpx"
	"foodgram/internal/metrics"
	"foodgram/internal/sync"
)

const qrSize = 256

type Handler struct {
	Repo     *Repo
	Composer *Composer
	Hub      *sync.Hub
	// BaseURL prefixes short links, e.g. "https://foodgram.example".
	BaseURL string
}

func NewHandler(repo *Repo, composer *Composer, hub *sync.Hub, baseURL string) *Handler {
	return &Handler{Repo: repo, Composer: composer, Hub: hub, BaseURL: strings.TrimRight(baseURL, "/")}
}

// RegisterRoutes mounts reads on public (optional auth) and writes on
// protected (auth required).
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/recipes", h.list)
	public.GET("/recipes/:id", h.get)
	public.GET("/recipes/:id/get-link", h.getLink)
	public.GET("/recipes/:id/qr", h.qr)

	protected.POST("/recipes", h.create)
	protected.PATCH("/recipes/:id", h.update)
	protected.PUT("/recipes/:id", h.update)
	protected.DELETE("/recipes/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	fav, err := ParseFlag(c.Query("is_favorited"), "is_favorited")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	cart, err := ParseFlag(c.Query("is_in_shopping_cart"), "is_in_shopping_cart")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	page := httpx.PageFromQuery(c)
	items, total, err := h.Repo.List(c.Request.Context(), ListQuery{
		AuthorID:         strings.TrimSpace(c.Query("author")),
		TagSlugs:         splitQuery(c.QueryArray("tags")),
		IsFavorited:      fav,
		IsInShoppingCart: cart,
		ViewerID:         auth.ViewerID(c),
		Limit:            page.Limit,
		Offset:           page.Offset,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.Paged(c, total, page, items)
}

func (h *Handler) get(c *gin.Context) {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	rec, err := h.Repo.Get(c.Request.Context(), id, auth.ViewerID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		httpx.Error(c, apperr.Unauthorized("unauthorized"))
		return
	}

	var in RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpx.Error(c, apperr.Validation("invalid json"))
		return
	}

	rec, err := h.Composer.Create(c.Request.Context(), claims.UserID, in)
	metrics.RecordRecipeWrite("create", err)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	h.Hub.Publish(sync.NewEvent(sync.RecipeCreated, claims.UserID, rec.ID, rec.Name))
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) update(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		httpx.Error(c, apperr.Unauthorized("unauthorized"))
		return
	}
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	var upd RecipeUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		httpx.Error(c, apperr.Validation("invalid json"))
		return
	}

	rec, err := h.Composer.Update(c.Request.Context(), id, claims.UserID, upd)
	metrics.RecordRecipeWrite("update", err)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	h.Hub.Publish(sync.NewEvent(sync.RecipeUpdated, claims.UserID, rec.ID, rec.Name))
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) delete(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		httpx.Error(c, apperr.Unauthorized("unauthorized"))
		return
	}
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	err = h.Composer.Delete(c.Request.Context(), id, claims.UserID)
	metrics.RecordRecipeWrite("delete", err)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	h.Hub.Publish(sync.NewEvent(sync.RecipeDeleted, claims.UserID, id, ""))
	c.Status(http.StatusNoContent)
}

func (h *Handler) getLink(c *gin.Context) {
	link, ok := h.shortLink(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"short-link": link})
}

func (h *Handler) qr(c *gin.Context) {
	link, ok := h.shortLink(c)
	if !ok {
		return
	}
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// shortLink writes the error response itself and reports false on failure.
func (h *Handler) shortLink(c *gin.Context) (string, bool) {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return "", false
	}
	if _, err := h.Repo.Get(c.Request.Context(), id, ""); err != nil {
		httpx.Error(c, err)
		return "", false
	}
	return h.BaseURL + "/recipes/" + strconv.FormatInt(id, 10), true
}

// ParseFlag reads a membership filter: "1"/"true" keeps only members,
// "0"/"false" excludes them, "" means no filter. Anything else is a
// validation error on field.
func ParseFlag(raw, field string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return nil, nil
	case "1", "true":
		v := true
		return &v, nil
	case "0", "false":
		v := false
		return &v, nil
	default:
		return nil, apperr.FieldError(field, "must be one of: 0, 1, true, false")
	}
}

// splitQuery accepts both ?tags=a&tags=b and ?tags=a,b.
func splitQuery(values []string) []string {
	var out []string
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
