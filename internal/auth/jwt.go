// Package auth issues and checks the credentials of the listing API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client POSTs email + password to /api/v1/auth/login
//  2. The auth service verifies the bcrypt hash and asks TokenService for a JWT
//  3. The JWT carries the user id ("sub") and the admin flag ("is_admin")
//  4. On later calls the middleware validates the token and puts a
//     *policy.Actor into the request context
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<user id>","is_admin":false,"exp":...,"jti":"<uuid>"}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The admin flag is read from the token, not the database, so a role change
// takes effect when the user next logs in.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sakif/listings/internal/policy"
)

const (
	issuer = "listings-api"

	// DefaultTokenTTL is used when NewTokenService gets a zero ttl.
	DefaultTokenTTL = time.Hour
)

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. The secret should be at least 32 bytes of random data in
// production: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime of tokens issued by Generate.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload. "sub" holds the user id.
type claims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// Generate creates and signs an access token for the user.
func (s *TokenService) Generate(userID string, isAdmin bool) (string, error) {
	return s.GenerateWithDuration(userID, isAdmin, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Tests use it to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, isAdmin bool, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
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

// Validate parses and verifies a JWT string and returns the actor it names.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid
//   - Token is not expired, and carries an expiry at all
//   - Issuer matches
//   - Algorithm is HS256 (prevents "alg":"none" and key-confusion attacks)
func (s *TokenService) Validate(tokenStr string) (*policy.Actor, error) {
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
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}

	return &policy.Actor{ID: c.Subject, IsAdmin: c.IsAdmin}, nil
}
