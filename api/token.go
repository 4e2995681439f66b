package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed API token.
type StaticToken string

// Token returns t.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// JWTConfig configures a JWTSource.
type JWTConfig struct {
	// Secret is the HS256 signing key. Required.
	Secret []byte

	// Issuer is the iss claim.
	Issuer string

	// Subject is the sub claim, usually the service name.
	Subject string

	// Audience is the aud claim.
	Audience string

	// TTL is the token lifetime.
	// Default: 5m
	TTL time.Duration

	// Now overrides time.Now.
	Now func() time.Time
}

// JWTSource mints short-lived HS256 service tokens and reuses each one
// until the last fifth of its lifetime.
type JWTSource struct {
	config JWTConfig

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewJWTSource creates a JWTSource.
func NewJWTSource(config JWTConfig) (*JWTSource, error) {
	if len(config.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &JWTSource{config: config}, nil
}

// Token returns a valid signed token, minting a new one when needed.
func (s *JWTSource) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.config.Now()
	if s.token != "" && now.Before(s.expires.Add(-s.config.TTL/5)) {
		return s.token, nil
	}

	expires := now.Add(s.config.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    s.config.Issuer,
		Subject:   s.config.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		ID:        uuid.NewString(),
	}
	if s.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	s.token = signed
	s.expires = expires
	return signed, nil
}
