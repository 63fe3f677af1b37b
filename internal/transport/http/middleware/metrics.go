package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsPath = "/metrics"

var (
	requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "causebridge",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route template, method and status.",
	}, []string{"route", "method", "status"})
	latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "causebridge",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route template.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method"})
	inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "causebridge",
		Subsystem: "http",
		Name:      "in_flight_requests",
		Help:      "Requests currently being served.",
	})
)

func init() { prometheus.MustRegister(requests, latency, inFlight) }

// Metrics records every request except scrapes of the exposition endpoint.
// Unmatched paths share one route label.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == metricsPath {
			c.Next()
			return
		}
		inFlight.Inc()
		start := time.Now()
		defer inFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		latency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
