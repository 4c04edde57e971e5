package middleware

import (
	"errors"
	"myStyleFit/pkg/metrics"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Metrics records latency and outcome per route template.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			route := c.Path()
			metrics.RecommendLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
			metrics.RecommendRequests.WithLabelValues(route, outcome(status)).Inc()
			return err
		}
	}
}

func outcome(status int) string {
	switch {
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status >= 500:
		return "error"
	case status >= 400:
		return "client_error"
	default:
		return "ok"
	}
}
