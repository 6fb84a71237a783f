package subscription

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"foodgram/internal/apperr"
	"foodgram/internal/auth"
	"foodgram/internal/httpx"
	"foodgram/internal/metrics"
	"foodgram/internal/sync"
)

const metricsList = "subscriptions"

type Handler struct {
	Tracker *Tracker
	Hub     *sync.Hub
}

func NewHandler(repo *Repo, hub *sync.Hub) *Handler {
	return &Handler{Tracker: NewTracker(repo), Hub: hub}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.POST("/users/:id/subscribe", h.subscribe)
	protected.DELETE("/users/:id/subscribe", h.unsubscribe)
	protected.GET("/users/subscriptions", h.list)
}

func (h *Handler) subscribe(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		httpx.Error(c, apperr.Unauthorized("unauthorized"))
		return
	}
	limit, err := recipesLimit(c)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	authorID := c.Param("id")
	card, err := h.Tracker.Subscribe(c.Request.Context(), claims.UserID, authorID, limit)
	metrics.RecordMembershipChange(metricsList, "add", err)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	h.Hub.Publish(sync.NewAuthorEvent(sync.SubscriptionAdded, claims.UserID, authorID, card.Username))
	c.JSON(http.StatusCreated, card)
}

func (h *Handler) unsubscribe(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		httpx.Error(c, apperr.Unauthorized("unauthorized"))
		return
	}

	authorID := c.Param("id")
	err := h.Tracker.Unsubscribe(c.Request.Context(), claims.UserID, authorID)
	metrics.RecordMembershipChange(metricsList, "remove", err)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	h.Hub.Publish(sync.NewAuthorEvent(sync.SubscriptionRemoved, claims.UserID, authorID, ""))
	c.Status(http.StatusNoContent)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		httpx.Error(c, apperr.Unauthorized("unauthorized"))
		return
	}
	limit, err := recipesLimit(c)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	page := httpx.PageFromQuery(c)
	authors, total, err := h.Tracker.List(c.Request.Context(), claims.UserID, page.Limit, page.Offset, limit)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.Paged(c, total, page, authors)
}

// recipesLimit reads ?recipes_limit=; absent means every recipe.
func recipesLimit(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("recipes_limit"))
	if raw == "" {
		return AllRecipes, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.FieldError("recipes_limit", "must be a non-negative integer")
	}
	return n, nil
}
