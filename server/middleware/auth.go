package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/briefly/internal/logging"
	"github.com/hrygo/briefly/server/auth"
)

// Auth rejects requests without a valid session token and stores the caller's
// claims in the request context.
func Auth(authenticator *auth.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			claims, err := authenticator.Authenticate(req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				logging.FromContext(req.Context()).Debug("authentication failed", "error", err)
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}

			ctx := auth.SetUserClaimsInContext(req.Context(), claims)
			ctx = logging.ToContext(ctx, logging.FromContext(ctx).With("user_id", claims.UserID))
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// RequireAdmin rejects authenticated callers without the admin role.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !auth.GetUserClaims(c.Request().Context()).IsAdmin() {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden"})
			}
			return next(c)
		}
	}
}
