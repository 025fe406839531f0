// Package oidc provides the bearer-token verifiers used by the auth middleware.
package oidc

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/paperfix/paperfix/backend/go-services/pkg/middleware"
)

// IssuerURL builds the Keycloak realm issuer from a base URL and realm name.
// Without a realm the base URL is already the issuer and is returned as is.
func IssuerURL(baseURL, realm string) string {
	if realm == "" {
		return baseURL
	}
	return strings.TrimRight(baseURL, "/") + "/realms/" + realm
}

// Verifier wraps the OIDC provider and token verifier
type Verifier struct {
	issuer   string
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the provider at issuer and verifies tokens issued for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &Verifier{issuer: issuer, provider: provider, verifier: verifier}, nil
}

// Verify checks signature, issuer, audience and expiry of a raw ID token.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}

// Ping re-runs discovery to confirm the provider is reachable.
func (v *Verifier) Ping(ctx context.Context) error {
	_, err := oidc.NewProvider(ctx, v.issuer)
	return err
}
