// Package middleware holds the echo middleware shared by all HTTP routes.
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/briefly/internal/logging"
)

// HeaderRequestID is echoed back on every response.
const HeaderRequestID = echo.HeaderXRequestID

// RequestLogger assigns a request id, stores a request-scoped logger in the
// request context and logs one line per request.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(HeaderRequestID)
			if id == "" || len(id) > 64 {
				id = shortuuid.New()
			}
			c.Response().Header().Set(HeaderRequestID, id)

			logger := slog.Default().With("request_id", id)
			c.SetRequest(req.WithContext(logging.ToContext(req.Context(), logger)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			level := slog.LevelInfo
			if c.Response().Status >= 500 {
				level = slog.LevelError
			}
			logger.Log(req.Context(), level, "http request",
				"method", req.Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
	}
}
