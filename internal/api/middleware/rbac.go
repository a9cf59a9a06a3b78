package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

// RequireRole admits callers whose principal holds one of roles. It must run
// after Auth. A caller with another role gets domain.ErrNotAuthorized.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := c.Get(KeyPrincipal).(*domain.Principal)
			if !ok || principal == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !slices.Contains(roles, principal.Role) {
				return domain.ErrNotAuthorized
			}
			return next(c)
		}
	}
}
