package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status", "service"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	domainEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_events_total",
			Help: "Total number of state transitions by engine and event",
		},
		[]string{"engine", "event"},
	)
)

// Metrics records request counts and latencies per route template.
func Metrics(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status, service).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, service).Observe(time.Since(start).Seconds())
	}
}

// RecordEvent counts a successful engine transition such as guild.join.
func RecordEvent(engine, event string) {
	domainEventsTotal.WithLabelValues(engine, event).Inc()
}
