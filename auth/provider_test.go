package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func TestStaticToken(t *testing.T) {
	h, err := StaticToken("abc").AuthorizationHeader(context.Background())
	if err != nil {
		t.Fatalf("AuthorizationHeader() error = %v", err)
	}
	if got := h.Get("Authorization"); got != "Bearer abc" {
		t.Errorf("Authorization = %q, want Bearer abc", got)
	}

	h, _ = StaticToken("").AuthorizationHeader(context.Background())
	if len(h) != 0 {
		t.Errorf("empty token should send no headers, got %v", h)
	}
}

func TestSignedToken_RoundTrip(t *testing.T) {
	s := &SignedToken{Key: testSigningKey, Issuer: "dicomjson", Subject: "viewer", Audience: "uploads", TTL: time.Minute}

	h, err := s.AuthorizationHeader(context.Background())
	if err != nil {
		t.Fatalf("AuthorizationHeader() error = %v", err)
	}
	token, ok := strings.CutPrefix(h.Get("Authorization"), "Bearer ")
	if !ok {
		t.Fatalf("Authorization = %q, want bearer token", h.Get("Authorization"))
	}

	claims, err := JWTConfig{Issuer: "dicomjson", Audience: "uploads", SigningKey: testSigningKey}.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.Subject != "viewer" {
		t.Errorf("Subject = %q, want viewer", claims.Subject)
	}
	if claims.ID == "" {
		t.Error("token should carry a unique id")
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}
}

func TestSignedToken_UniquePerRequest(t *testing.T) {
	s := &SignedToken{Key: testSigningKey}
	a, _ := s.Sign()
	b, _ := s.Sign()
	if a == b {
		t.Error("two signed tokens should differ")
	}
}

func TestSignedToken_NoKey(t *testing.T) {
	_, err := (&SignedToken{}).AuthorizationHeader(context.Background())
	if !errors.Is(err, ErrNoSigningKey) {
		t.Errorf("error = %v, want ErrNoSigningKey", err)
	}
}

func TestSignedToken_Expired(t *testing.T) {
	s := &SignedToken{
		Key: testSigningKey,
		TTL: time.Minute,
		now: func() time.Time { return time.Now().Add(-time.Hour) },
	}
	token, err := s.Sign()
	if err != nil {
		t.Fatal(err)
	}

	_, err = JWTConfig{SigningKey: testSigningKey}.Parse(token)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("Parse() error = %v, want expired", err)
	}
}
