package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// Provider metrics
	ProviderOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kolaboree_provider_operations_total",
			Help: "Total number of provider operations by provider, operation and result",
		},
		[]string{"provider", "operation", "result"},
	)

	ProviderOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kolaboree_provider_operation_duration_seconds",
			Help:    "Provider operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	ConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kolaboree_cloud_connections_active",
			Help: "Number of live cloud connections by provider",
		},
		[]string{"provider"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kolaboree_api_requests_total",
			Help: "Total number of API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kolaboree_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(ProviderOperationsTotal)
	prometheus.MustRegister(ProviderOperationDuration)
	prometheus.MustRegister(ConnectionsActive)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// ObserveProviderOperation records one provider call started at start.
func ObserveProviderOperation(provider, operation string, start time.Time, ok bool) {
	result := ResultSuccess
	if !ok {
		result = ResultFailure
	}
	ProviderOperationsTotal.WithLabelValues(provider, operation, result).Inc()
	ProviderOperationDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		APIRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		APIRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
