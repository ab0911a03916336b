package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shishobooks/catalog/pkg/errcodes"
)

var (
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	// DroppedCriteria counts query parameters that named a known criterion but
	// carried a value that couldn't be parsed.
	DroppedCriteria = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_query_dropped_criteria_total",
			Help: "Total number of malformed query criteria ignored",
		},
		[]string{"entity", "key"},
	)
)

// Middleware records RequestTotal and RequestDuration for every request,
// labelled by the matched route template rather than the raw path.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = statusOf(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			RequestTotal.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			RequestDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// statusOf mirrors the status the error handler will write for err.
func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	var ce *errcodes.Error
	if errors.As(err, &ce) {
		return ce.HTTPCode
	}
	return http.StatusInternalServerError
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
