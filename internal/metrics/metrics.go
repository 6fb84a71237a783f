// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodgram/internal/apperr"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foodgram_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	// RecipeWrites counts composer calls by operation and outcome code.
	RecipeWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipe_writes_total",
			Help: "Recipe create/update/delete calls by outcome",
		},
		[]string{"operation", "outcome"},
	)

	MembershipChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_membership_changes_total",
			Help: "Favorite, shopping cart and subscription add/remove calls by outcome",
		},
		[]string{"list", "operation", "outcome"},
	)

	ShoppingListExports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_exports_total",
			Help: "Shopping list downloads by format",
		},
		[]string{"format"},
	)

	ShoppingListItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodgram_shopping_list_items",
			Help:    "Aggregated lines per shopping list export",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	SyncClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "foodgram_sync_clients",
			Help: "Connected event listeners by transport",
		},
		[]string{"transport"},
	)
)

// Outcome labels an error by its domain code; nil is "ok".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.CodeOf(err))
}

func RecordRecipeWrite(op string, err error) {
	RecipeWrites.WithLabelValues(op, Outcome(err)).Inc()
}

func RecordMembershipChange(list, op string, err error) {
	MembershipChanges.WithLabelValues(list, op, Outcome(err)).Inc()
}

func RecordShoppingListExport(format string, items int) {
	ShoppingListExports.WithLabelValues(format).Inc()
	ShoppingListItems.Observe(float64(items))
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
