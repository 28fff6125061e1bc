package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAdmin runs after RequireAuth: missing identity is an authentication
// failure, a present non-admin identity is an authorization one.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := UserIDFromContext(c); !ok {
			return writeAuthError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		}
		if !IsAdminFromContext(c) {
			return writeAuthError(c, http.StatusForbidden, "FORBIDDEN", "Admin privileges required")
		}
		return next(c)
	}
}
