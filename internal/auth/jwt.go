package auth // package auth provides token issuing, verification and password hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// tokenTTL is how long an issued token stays valid.  The frontend expects a
// fresh login every day, so there is no refresh flow.
const tokenTTL = 24 * time.Hour

// ErrInvalidToken is returned by VerifyToken for any token that fails
// signature, expiry or claim checks.  Callers map it to 403.
var ErrInvalidToken = errors.New("invalid token")

// NewToken builds and signs an HS256 JWT for a user.  The claims carry the
// user id (sub), email, role and profile photo path so the frontend can
// render the session without an extra round trip.  Tokens expire after one
// day.
func NewToken(secret string, id uint64, email, role string, photo *string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   id,
		"email": email,
		"role":  role,
		"exp":   now.Add(tokenTTL).Unix(),
		"iat":   now.Unix(),
	}
	if photo != nil {
		claims["foto_perfil"] = *photo
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// VerifyToken parses a signed token and extracts the caller identity.  Only
// HMAC-signed tokens are accepted; anything else (wrong algorithm, bad
// signature, expired, malformed claims) yields ErrInvalidToken.
func VerifyToken(secret, raw string) (Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	var id Identity
	switch sub := claims["sub"].(type) {
	case float64:
		// JWT numeric values decode as float64; convert to uint64.
		id.ID = uint64(sub)
	case string:
		n, err := strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return Identity{}, ErrInvalidToken
		}
		id.ID = n
	default:
		return Identity{}, ErrInvalidToken
	}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	role, ok := claims["role"].(string)
	if !ok || !ValidRole(role) {
		return Identity{}, ErrInvalidToken
	}
	id.Role = role
	return id, nil
}
