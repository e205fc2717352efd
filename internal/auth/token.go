package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("auth: not signed in")
	ErrTokenExpired = errors.New("auth: session expired, sign in again")
	ErrInvalidToken = errors.New("auth: invalid credential")
)

// TokenProvider hands out the bearer token for API calls. Implementations
// report a missing or unusable credential as an error rather than an empty token.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken is a fixed bearer token, checked on every use.
type StaticToken string

func (s StaticToken) Token(ctx context.Context) (string, error) {
	raw := strings.TrimSpace(string(s))
	if err := CheckToken(raw, time.Now()); err != nil {
		return "", err
	}
	return raw, nil
}

// CheckToken validates a bearer token locally. JWTs are parsed without
// verifying the signature (the client does not hold the key) and rejected
// once `exp` has passed. Opaque tokens are accepted as-is.
func CheckToken(raw string, now time.Time) error {
	if raw == "" {
		return ErrNoToken
	}
	if strings.Count(raw, ".") != 2 {
		return nil
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return ErrInvalidToken
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return ErrTokenExpired
	}
	return nil
}

// ExpiresAt returns the `exp` claim of a JWT, or the zero time.
func ExpiresAt(raw string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
