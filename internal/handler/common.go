package handler // handler defines the HTTP layer over the repositories

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/auth"
	"github.com/jmforte/bonsai-registry/internal/middleware"
)

// dbTimeout bounds every database round trip started from a handler.
const dbTimeout = 5 * time.Second

// reqCtx derives a bounded context from the incoming request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// identity returns the authenticated caller.  Routes behind JWTAuth always
// have one; the guard exists for misconfigured route tables.
func identity(c echo.Context) (auth.Identity, error) {
	id, ok := middleware.CurrentUser(c)
	if !ok {
		return auth.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}
	return id, nil
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return n, nil
}

// formStr reads a multipart/urlencoded form field, trimmed; empty fields
// come back as nil so they map to SQL NULL.
func formStr(c echo.Context, name string) *string {
	v := strings.TrimSpace(c.FormValue(name))
	if v == "" {
		return nil
	}
	return &v
}

// formUint parses an optional numeric form field.
func formUint(c echo.Context, name string) (*uint64, error) {
	v := strings.TrimSpace(c.FormValue(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &n, nil
}

// formFile returns the uploaded file under name, or nil when the field is
// absent.  Other multipart errors surface as 400.
func formFile(c echo.Context, name string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(name)
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid upload")
	}
	return fh, nil
}
