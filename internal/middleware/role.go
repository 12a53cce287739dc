package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/jmforte/bonsai-registry/internal/auth"
)

// RequireAdmin aborts the request with 403 unless the authenticated caller
// carries the admin role.  It assumes JWTAuth ran earlier in the chain.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentUser(c)
			if !ok || !id.IsAdmin() {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
			}
			return next(c)
		}
	}
}

// BlockModeratorWrites rejects requests from moderators with 403.  It wraps
// every create/update route: moderators may browse and clean up but never
// author domain data.
func BlockModeratorWrites() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id, ok := CurrentUser(c); ok && id.Role == auth.RoleModerator {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "action not allowed for moderators"})
			}
			return next(c)
		}
	}
}
