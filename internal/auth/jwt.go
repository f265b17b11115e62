// Package auth provides the authentication building blocks: JWT issuing and
// validation, bcrypt password hashing, and the two request-side gates
// (Authorization header and session cookie) that share one validation core.
//
// Tokens are stateless. A token encodes {subject: username, expiry} signed
// with a process-wide HMAC secret, so validating one needs no server-side
// session state. Rotating the secret invalidates every outstanding token,
// which is the only revocation mechanism this app has.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is wrapped by every validation failure: bad signature,
// malformed structure, missing subject claim, or expiry in the past. The
// cookie gate relies on this sentinel to tell "re-authenticate" apart from
// real infrastructure errors.
var ErrInvalidToken = errors.New("auth: invalid token")

const (
	issuer = "ayyam-calendar"

	// DefaultTokenTTL applies when no explicit lifetime is requested —
	// the dashboard login path. The /token endpoint passes its own
	// 30-minute TTL explicitly.
	DefaultTokenTTL = 15 * time.Minute
)

// TokenService issues and validates signed access tokens.
// It holds the HMAC secret used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production,
// e.g. JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims embeds jwt.RegisteredClaims; the username travels in "sub".
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates a signed token for username with the default lifetime.
func (s *TokenService) Generate(username string) (string, error) {
	return s.GenerateWithDuration(username, DefaultTokenTTL)
}

// GenerateWithDuration creates a signed HS256 token for username that
// expires after d.
func (s *TokenService) GenerateWithDuration(username string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns the username it
// was issued for. Every failure mode wraps ErrInvalidToken.
//
// jwt.WithValidMethods pins the algorithm to HS256 so a token signed with
// "none" (or any other scheme) is rejected outright.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: bad claims", ErrInvalidToken)
	}

	if c.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return c.Subject, nil
}
