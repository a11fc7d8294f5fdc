// Package auth supplies authorization headers for outbound requests and
// validates bearer tokens on the HTTP surface.
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of a SignedToken when none is configured.
const DefaultTokenTTL = 5 * time.Minute

// ErrNoSigningKey is returned by a SignedToken without a secret.
var ErrNoSigningKey = errors.New("auth: signing key not configured")

// StaticToken sends a fixed bearer token. The zero value sends no header.
type StaticToken string

// AuthorizationHeader implements interfaces.AuthHeaderProvider.
func (t StaticToken) AuthorizationHeader(ctx context.Context) (http.Header, error) {
	h := http.Header{}
	if t != "" {
		h.Set("Authorization", "Bearer "+string(t))
	}
	return h, nil
}

// SignedToken mints a short-lived HS256 token for every request.
type SignedToken struct {
	Key      []byte
	Issuer   string
	Subject  string
	Audience string
	TTL      time.Duration

	now func() time.Time
}

// AuthorizationHeader implements interfaces.AuthHeaderProvider.
func (s *SignedToken) AuthorizationHeader(ctx context.Context) (http.Header, error) {
	token, err := s.Sign()
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h, nil
}

// Sign returns a freshly signed token string.
func (s *SignedToken) Sign() (string, error) {
	if len(s.Key) == 0 {
		return "", ErrNoSigningKey
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	issued := now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.Issuer,
		Subject:   s.Subject,
		IssuedAt:  jwt.NewNumericDate(issued),
		NotBefore: jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
	}
	if s.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.Audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Key)
}
