// Package auth provides authentication and authorization for the gateway:
// password-based credential verification, symmetric-key token issuance and
// verification, and role-checked admin operations.
package auth

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims are the fields embedded in an issued AuthToken: subject, role, and
// expiry. They are opaque to clients — only the gateway ever parses them.
type Claims struct {
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies tokens with a single symmetric secret. The
// secret is configured once at startup (GatewayConfig.TokenSecret); there is
// no JWKS fetch or external issuer to trust, because the gateway is its own
// authority for these tokens.
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenIssuer builds a TokenIssuer. secret must be non-empty.
func NewTokenIssuer(secret string, lifetime time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret must not be empty")
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive")
	}
	return &TokenIssuer{secret: []byte(secret), lifetime: lifetime}, nil
}

// Issue signs a new token for the given subject and role, valid for the
// issuer's configured lifetime from now.
func (t *TokenIssuer) Issue(subject, role string, now time.Time) (string, error) {
	expires := now.Add(t.lifetime)

	token, err := jwt.NewBuilder().
		Subject(subject).
		Claim("role", role).
		IssuedAt(now).
		Expiration(expires).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, t.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Verify parses and validates a signed token string, rejecting expired or
// tampered tokens, and returns the embedded Claims.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.Parse([]byte(tokenString), jwt.WithKey(jwa.HS256, t.secret), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	role, _ := parsed.Get("role")
	roleStr, _ := role.(string)

	return &Claims{
		Subject:   parsed.Subject(),
		Role:      roleStr,
		IssuedAt:  parsed.IssuedAt(),
		ExpiresAt: parsed.Expiration(),
	}, nil
}
