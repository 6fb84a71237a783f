package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"foodgram/internal/auth"
	"foodgram/internal/cache"
	"foodgram/internal/ingredient"
	"foodgram/internal/membership"
	"foodgram/internal/metrics"
	"foodgram/internal/middleware"
	"foodgram/internal/recipe"
	"foodgram/internal/shoppinglist"
	"foodgram/internal/subscription"
	synchub "foodgram/internal/sync"
	"foodgram/internal/tag"
	"foodgram/internal/validation"
	"foodgram/pkg/utils"
)

type deps struct {
	cfg     utils.Config
	db      *sql.DB
	hub     *synchub.Hub
	cache   cache.Cache
	limiter *middleware.RateLimiter
}

// newRouter wires every feature onto one gin engine and wraps it in CORS.
func newRouter(d deps) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), metrics.Middleware())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/ws", synchub.WSHandler(d.hub, originChecker(d.cfg.Server.CORSOrigins)))
	router.GET("/metrics", metrics.Handler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := d.hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := d.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	v := validation.New()
	tokenSvc := auth.TokenService{
		Secret:   []byte(d.cfg.Auth.JWTSecret),
		Issuer:   d.cfg.Auth.JWTIssuer,
		Duration: d.cfg.Auth.JWTDuration(),
	}
	authRepo := auth.NewRepo(d.db)

	api := router.Group("/api")
	if d.limiter != nil {
		api.Use(d.limiter.Middleware())
	}
	public := api.Group("", auth.OptionalAuth(tokenSvc, authRepo))
	protected := api.Group("", auth.AuthMiddleware(tokenSvc, authRepo))

	authHandler := auth.NewHandler(authRepo, tokenSvc, v)
	authHandler.RegisterRoutes(api.Group("/auth"))
	authHandler.RegisterMe(protected.Group("/users"))

	ingredient.NewHandler(ingredient.NewCatalog(ingredient.NewRepo(d.db), d.cache)).RegisterRoutes(public)
	tag.NewHandler(tag.NewRepo(d.db)).RegisterRoutes(public)

	recipeRepo := recipe.NewRepo(d.db)
	recipe.NewHandler(recipeRepo, recipe.NewComposer(recipeRepo, v), d.hub, d.cfg.Server.BaseURL).
		RegisterRoutes(public, protected)
	membership.NewHandler(membership.NewRepo(d.db), d.hub).RegisterRoutes(protected)
	subscription.NewHandler(subscription.NewRepo(d.db), d.hub).RegisterRoutes(protected)
	shoppinglist.NewHandler(shoppinglist.NewAggregator(d.db)).RegisterRoutes(protected)

	return cors.New(cors.Options{
		AllowedOrigins: d.cfg.Server.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
	}).Handler(router)
}

// originChecker mirrors the CORS allow-list for WebSocket upgrades.
func originChecker(origins []string) func(string) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return nil
		}
		allowed[o] = true
	}
	return func(origin string) bool {
		return origin == "" || allowed[origin]
	}
}
