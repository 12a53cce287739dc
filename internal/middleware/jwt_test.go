package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmforte/bonsai-registry/internal/auth"
)

func runProtected(t *testing.T, header string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/bonsais", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, JWTAuth("secret")(next)(c))
	return rec
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec := runProtected(t, "", func(c echo.Context) error {
		t.Fatal("next should not run")
		return nil
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing bearer token")
}

func TestJWTAuthInvalidToken(t *testing.T) {
	rec := runProtected(t, "Bearer garbage", func(c echo.Context) error {
		t.Fatal("next should not run")
		return nil
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestJWTAuthInjectsIdentity(t *testing.T) {
	raw, err := auth.NewToken("secret", 9, "ana@example.com", auth.RoleUser, nil)
	require.NoError(t, err)

	called := false
	rec := runProtected(t, "Bearer "+raw, func(c echo.Context) error {
		called = true
		id, ok := CurrentUser(c)
		require.True(t, ok)
		assert.Equal(t, uint64(9), id.ID)
		assert.Equal(t, auth.RoleUser, id.Role)
		return c.NoContent(http.StatusOK)
	})
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoleGuards(t *testing.T) {
	e := echo.New()

	run := func(mw echo.MiddlewareFunc, id auth.Identity) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(identityKey, id)
		require.NoError(t, mw(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})(c))
		return rec
	}

	assert.Equal(t, http.StatusOK, run(RequireAdmin(), auth.Identity{Role: auth.RoleAdmin}).Code)
	assert.Equal(t, http.StatusForbidden, run(RequireAdmin(), auth.Identity{Role: auth.RoleModerator}).Code)
	assert.Equal(t, http.StatusForbidden, run(BlockModeratorWrites(), auth.Identity{Role: auth.RoleModerator}).Code)
	assert.Equal(t, http.StatusOK, run(BlockModeratorWrites(), auth.Identity{Role: auth.RoleUser}).Code)
	assert.Equal(t, http.StatusOK, run(BlockModeratorWrites(), auth.Identity{Role: auth.RoleAdmin}).Code)
}
