package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the ID token claims the client cares about
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ParseClaims decodes the token's claims without verifying the signature.
// Verification is the backend's job; the client only displays them.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}
