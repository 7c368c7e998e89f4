// Package token issues and verifies the signed session credential
// binding a user id and role.
package token

import (
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/counselink/server/internal/model"
)

// ErrBadToken covers every verification failure; callers treat the
// session as absent rather than distinguishing causes.
var ErrBadToken = errors.New("invalid token")

// Claims carries the authenticated identity.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs an HS256 token for the user, valid for ttl.
func Issue(userID uuid.UUID, role model.Role, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

// Parse verifies the token and returns the user id and role.
func Parse(raw string, secret []byte) (uuid.UUID, model.Role, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return secret, nil
	})
	if err != nil {
		return uuid.Nil, "", ErrBadToken
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || !c.Role.Valid() {
		return uuid.Nil, "", ErrBadToken
	}
	uid, err := uuid.FromString(c.Subject)
	if err != nil {
		return uuid.Nil, "", ErrBadToken
	}
	return uid, c.Role, nil
}
