package membership

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodgram/internal/apperr"
	"foodgram/internal/auth"
	"foodgram/internal/httpx"
	"foodgram/internal/metrics"
	"foodgram/internal/sync"
)

type Handler struct {
	Favorites *Tracker
	Cart      *Tracker
	Hub       *sync.Hub
}

func NewHandler(repo *Repo, hub *sync.Hub) *Handler {
	return &Handler{
		Favorites: NewTracker(repo, Favorites),
		Cart:      NewTracker(repo, ShoppingCart),
		Hub:       hub,
	}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	fav := routes{tracker: h.Favorites, hub: h.Hub, added: sync.FavoriteAdded, removed: sync.FavoriteRemoved}
	cart := routes{tracker: h.Cart, hub: h.Hub, added: sync.ShoppingCartAdded, removed: sync.ShoppingCartRemoved}

	protected.POST("/recipes/:id/favorite", fav.add)
	protected.DELETE("/recipes/:id/favorite", fav.remove)
	protected.GET("/users/favorites", fav.list)

	protected.POST("/recipes/:id/shopping_cart", cart.add)
	protected.DELETE("/recipes/:id/shopping_cart", cart.remove)
	protected.GET("/users/shopping_cart", cart.list)
}

// routes binds the add/remove/list endpoints of one set.
type routes struct {
	tracker *Tracker
	hub     *sync.Hub
	added   string
	removed string
}

func (r routes) add(c *gin.Context) {
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

	short, err := r.tracker.Add(c.Request.Context(), claims.UserID, id)
	metrics.RecordMembershipChange(string(r.tracker.Kind), "add", err)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	r.hub.Publish(sync.NewEvent(r.added, claims.UserID, id, short.Name))
	c.JSON(http.StatusCreated, short)
}

func (r routes) remove(c *gin.Context) {
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

	err = r.tracker.Remove(c.Request.Context(), claims.UserID, id)
	metrics.RecordMembershipChange(string(r.tracker.Kind), "remove", err)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	r.hub.Publish(sync.NewEvent(r.removed, claims.UserID, id, ""))
	c.Status(http.StatusNoContent)
}

func (r routes) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		httpx.Error(c, apperr.Unauthorized("unauthorized"))
		return
	}

	items, err := r.tracker.List(c.Request.Context(), claims.UserID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	page := httpx.PageFromQuery(c)
	httpx.Paged(c, len(items), page, httpx.Slice(items, page))
}
