package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestInspectReadsRegisteredClaims(t *testing.T) {
	now := time.Unix(1700000000, 0)
	token := signedToken(t, jwt.RegisteredClaims{
		Subject:   "user-7",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
	})

	claims, err := NewInspector(nil).Inspect(token)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.Subject != "user-7" || !claims.IssuedAt.Equal(now) || !claims.ExpiresAt.Equal(now.Add(5*time.Minute)) {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestInspectIgnoresSignatureAndExpiry(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	token := signedToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(past)})

	if _, err := NewInspector(nil).Inspect(token); err != nil {
		t.Fatalf("expired token should still inspect, got %v", err)
	}
}

func TestInspectOpaqueToken(t *testing.T) {
	if _, err := NewInspector(nil).Inspect("opaque-access-token"); !errors.Is(err, ErrNotJWT) {
		t.Fatalf("expected ErrNotJWT, got %v", err)
	}
}

func TestExpiresWithin(t *testing.T) {
	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }
	inspector := NewInspector(clock)

	soon := signedToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Second))})
	later := signedToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute))})
	noExp := signedToken(t, jwt.RegisteredClaims{Subject: "x"})

	if !inspector.ExpiresWithin(soon, 30*time.Second) {
		t.Fatalf("expected token expiring in 10s to be within 30s window")
	}
	if inspector.ExpiresWithin(later, 30*time.Second) {
		t.Fatalf("expected token expiring in 10m to be outside 30s window")
	}
	if inspector.ExpiresWithin(noExp, time.Hour) {
		t.Fatalf("token without exp must never be treated as expiring")
	}
	if inspector.ExpiresWithin("opaque", time.Hour) {
		t.Fatalf("opaque token must never be treated as expiring")
	}
	if inspector.ExpiresWithin(soon, 0) {
		t.Fatalf("zero window disables the check")
	}
}
