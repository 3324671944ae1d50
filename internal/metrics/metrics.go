// Package metrics holds the Prometheus collectors shared by the API and the worker.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "travelbuddy"

// Price sources.
const (
	SourceLive      = "live"
	SourceGenerated = "generated"
)

var (
	PricesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prices_recorded_total",
			Help:      "Prices appended to the history ledger, by source.",
		},
		[]string{"source"},
	)
	PayloadsBuilt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trmnl_payloads_total",
			Help:      "TRMNL payloads built, by validation outcome.",
		},
		[]string{"valid"},
	)
	QuoteCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_cache_total",
			Help:      "Live quote cache lookups, by result.",
		},
		[]string{"result"},
	)
	QuoteErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_fetch_errors_total",
			Help:      "Failed live quote fetches.",
		},
	)
	WebhookPushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trmnl_webhook_pushes_total",
			Help:      "TRMNL webhook deliveries, by outcome.",
		},
		[]string{"outcome"},
	)
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		},
		[]string{"route", "method", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request durations in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			PricesRecorded,
			PayloadsBuilt,
			QuoteCache,
			QuoteErrors,
			WebhookPushes,
			requestsTotal,
			requestDuration,
		)
	})
}

// Middleware records request counts and latencies per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		requestsTotal.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
