package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned for tokens that do not parse as a JWT.
var ErrNotJWT = errors.New("token is not a jwt")

// Claims is the subset of registered claims the client cares about.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasExpiry reports whether the token carried an exp claim.
func (c Claims) HasExpiry() bool {
	return !c.ExpiresAt.IsZero()
}

// Inspector reads unverified claims from access tokens.
//
// Inspector is safe for concurrent use.
type Inspector struct {
	parser *jwt.Parser
	now    func() time.Time
}

// NewInspector creates an [Inspector]. A nil clock uses time.Now.
func NewInspector(now func() time.Time) *Inspector {
	if now == nil {
		now = time.Now
	}
	return &Inspector{
		parser: jwt.NewParser(),
		now:    now,
	}
}

// Inspect decodes the registered claims of token without verifying its signature.
func (i *Inspector) Inspect(token string) (Claims, error) {
	var registered jwt.RegisteredClaims
	if _, _, err := i.parser.ParseUnverified(token, &registered); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}

	claims := Claims{Subject: registered.Subject}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}

// ExpiresWithin reports whether token expires within window from now. Opaque tokens,
// tokens without exp, and a non-positive window all report false.
func (i *Inspector) ExpiresWithin(token string, window time.Duration) bool {
	if i == nil || window <= 0 {
		return false
	}
	claims, err := i.Inspect(token)
	if err != nil || !claims.HasExpiry() {
		return false
	}
	return !claims.ExpiresAt.After(i.now().Add(window))
}
