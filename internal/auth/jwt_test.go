package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	photo := "/uploads/abc123.jpg"
	raw, err := NewToken("s3cret", 42, "ana@example.com", RoleModerator, &photo)
	require.NoError(t, err)

	id, err := VerifyToken("s3cret", raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id.ID)
	assert.Equal(t, "ana@example.com", id.Email)
	assert.Equal(t, RoleModerator, id.Role)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	raw, err := NewToken("right", 1, "a@b.c", RoleUser, nil)
	require.NoError(t, err)

	_, err = VerifyToken("wrong", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenGarbage(t *testing.T) {
	_, err := VerifyToken("s", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenUnknownRole(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  float64(5),
		"role": "superuser",
	})
	raw, err := tok.SignedString([]byte("s"))
	require.NoError(t, err)

	_, err = VerifyToken("s", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenExpired(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  float64(5),
		"role": RoleUser,
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte("s"))
	require.NoError(t, err)

	_, err = VerifyToken("s", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsUnsigned(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  float64(5),
		"role": RoleAdmin,
	})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = VerifyToken("s", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
}
