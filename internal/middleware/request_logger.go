package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/internal/metrics"
	"github.com/rs/zerolog"
)

// RequestLogger logs each request with zerolog and records it in the HTTP metrics.
// The matched route template is used as the metric label to keep cardinality bounded.
func RequestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			elapsed := time.Since(start)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordHTTPRequest(req.Method, route, status, elapsed)

			event := logger.Info()
			if status >= 500 {
				event = logger.Error().Err(err)
			} else if status >= 400 {
				event = logger.Warn()
			}
			event.
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("route", route).
				Int("status", status).
				Dur("latency", elapsed).
				Int32("workspace_id", GetWorkspaceID(c)).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
