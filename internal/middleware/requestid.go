package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/logger"
	"github.com/iliyamo/venue-reservation/internal/metrics"
)

const requestIDHeader = echo.HeaderXRequestID

// RequestID propagates X-Request-ID, generating one when the client sent
// none, and stores it on the request context for logging.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(requestIDHeader)
			if id == "" || len(id) > 128 {
				id = logger.NewRequestID()
			}
			r := c.Request()
			c.SetRequest(r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
			c.Response().Header().Set(requestIDHeader, id)
			return next(c)
		}
	}
}

// AccessLog writes one structured line per request and records the HTTP
// metrics.  Errors are passed to Echo first so the logged status is the
// one the client receives.
func AccessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			elapsed := time.Since(start)
			metrics.HTTPRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			metrics.HTTPDuration.WithLabelValues(c.Request().Method, route).Observe(elapsed.Seconds())

			log := logger.WithContext(c.Request().Context())
			args := []any{
				"method", c.Request().Method,
				"route", route,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
				"remote_ip", c.RealIP(),
			}
			switch {
			case status >= 500:
				log.Error("request", append(args, "err", err)...)
			case status >= 400:
				log.Warn("request", args...)
			default:
				log.Info("request", args...)
			}
			return nil
		}
	}
}
