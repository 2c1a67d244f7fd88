package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing the admin API's bearer tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT for the given subject, typically an
	// operator or automation identity. Returns the token string or an error
	// if signing fails.
	GenerateToken(ctx context.Context, subject string) (string, error)

	// ValidateToken validates the provided token string and extracts the
	// claims. Returns an error if validation fails (expired, invalid
	// signature, malformed).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of an admin token.
type Claims struct {
	// Subject is the identity the token was issued to.
	Subject string `json:"sub,omitempty"`

	// Standard registered JWT claims
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
