// Package resettoken issues and validates the short-lived signed tokens
// backing the password-reset flow.
package resettoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "betengine/pkg/domainerrors"
)

const issuer = "betengine-auth"

// DefaultTTL is how long a reset link stays usable.
const DefaultTTL = 30 * time.Minute

// Service creates and validates HS256 reset tokens.
type Service struct {
	signingKey []byte
}

func New(signingKey string) (*Service, error) {
	if signingKey == "" {
		return nil, dErrors.New(dErrors.CodeNotConfigured, "reset token signing key is not configured")
	}
	return &Service{signingKey: []byte(signingKey)}, nil
}

// Generate issues a token bound to the account email.
func (s *Service) Generate(email string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   email,
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ID:        uuid.NewString(),
	})
	return token.SignedString(s.signingKey)
}

// Validate checks signature, issuer and expiry, returning the bound email.
func (s *Service) Validate(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "reset token has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid reset token")
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid reset token")
	}
	return claims.Subject, nil
}
