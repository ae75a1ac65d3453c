// Package metrics provides Prometheus metrics for the blog API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blog",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// CacheResults counts response cache lookups by prefix and result.
	CacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "response_cache_total",
			Help:      "Response cache lookups (hit, miss, bypass, error)",
		},
		[]string{"prefix", "result"},
	)

	// CacheInvalidatedKeys counts keys removed by wildcard invalidation.
	CacheInvalidatedKeys = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "response_cache_invalidated_keys_total",
			Help:      "Keys deleted by cache invalidation",
		},
	)

	// RateLimited counts rejected requests by rule.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by rate limiting",
		},
		[]string{"rule"},
	)

	// AIFallbacks counts generate calls answered with mock text.
	AIFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "ai_fallback_total",
			Help:      "AI generate calls answered by the mock generator",
		},
		[]string{"reason"},
	)
)

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
