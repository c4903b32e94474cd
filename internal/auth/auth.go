// Package auth verifies bearer tokens issued by the external identity
// provider against its published JWKS.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a raw bearer token and returns its subject.
type Verifier interface {
	Verify(tokenString string) (subject string, err error)
}

// JWKSVerifier checks RS256 signatures against the IdP's key set, plus
// issuer and audience when configured.
type JWKSVerifier struct {
	keys     keyfunc.Keyfunc
	issuer   string
	audience string
}

// NewJWKSVerifier fetches the JWKS from jwksURL and keeps it refreshed in
// the background for the lifetime of ctx.
func NewJWKSVerifier(ctx context.Context, jwksURL, issuer, audience string) (*JWKSVerifier, error) {
	keys, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
	}
	return &JWKSVerifier{keys: keys, issuer: issuer, audience: audience}, nil
}

func (v *JWKSVerifier) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse(tokenString, v.keys.Keyfunc, opts...)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errors.New("invalid subject claim")
	}
	return subject, nil
}

// AllowAll accepts any non-empty token. Development only, behind
// AUTH_DISABLED.
type AllowAll struct{}

func (AllowAll) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.New("empty token")
	}
	return "dev", nil
}
