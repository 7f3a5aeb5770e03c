// Package auth issues and checks the bearer tokens that protect the grocery
// API, and hashes user passwords.
//
// FLOW:
//  1. POST /login verifies the bcrypt hash and calls TokenService.Generate.
//  2. The client sends the token back as "Authorization: Bearer <jwt>".
//  3. RequireAuth validates it and puts the user id in the request context.
//
// Tokens are HS256 JWTs. The "sub" claim holds the numeric user id as a
// decimal string (RFC 7519 requires sub to be a string).
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "grocery-tracker"

	// DefaultTokenTTL is how long an access token stays valid.
	DefaultTokenTTL = 15 * time.Minute
)

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// A ttl of zero means DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source used for issuing and validating tokens.
// Tests use it to move past the expiry without sleeping.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate creates and signs a new access token for userID.
func (s *TokenService) Generate(userID int64) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration creates a token with a custom lifetime. Negative
// durations produce an already-expired token, which is handy in tests.
func (s *TokenService) GenerateWithDuration(userID int64, d time.Duration) (string, error) {
	now := s.now()

	c := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// ErrTokenExpired is returned by Validate for a well-formed token past its exp.
var ErrTokenExpired = errors.New("auth: token expired")

// Validate parses and verifies a JWT string and returns the user id in "sub".
//
// jwt.WithValidMethods pins HS256 so a token claiming "alg":"none" (or an
// RSA/HMAC confusion) is rejected before the key func runs.
func (s *TokenService) Validate(tokenStr string) (int64, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return 0, errors.New("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("auth: token subject %q is not a user id", c.Subject)
	}
	return userID, nil
}
