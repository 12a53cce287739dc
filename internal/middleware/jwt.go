package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/jmforte/bonsai-registry/internal/auth"
)

// identityKey is the context key under which the authenticated identity is
// stored.  Handlers retrieve it through CurrentUser.
const identityKey = "identity"

// JWTAuth returns an Echo middleware that validates a Bearer token and
// injects the caller's identity into the request context.  A missing or
// malformed Authorization header yields 401; a token that fails signature,
// expiry or claim checks yields 403.  The provided secret must match the one
// used when issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			id, err := auth.VerifyToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// CurrentUser extracts the identity stored by JWTAuth.  The second return is
// false when the middleware did not run (unprotected route).
func CurrentUser(c echo.Context) (auth.Identity, bool) {
	id, ok := c.Get(identityKey).(auth.Identity)
	return id, ok
}
