package auth

import (
	"context"
	"errors"
	"go-news-portal/internal/config"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Authenticator is a struct that holds the OIDC provider, OAuth2 config, and ID token verifier.
type Authenticator struct {
	*oidc.Provider
	*oauth2.Config
	*oidc.IDTokenVerifier
}

// Claims are the identity fields read from an ID token.
type Claims struct {
	Subject           string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
}

// NewAuthenticator creates a new Authenticator by setting up the OIDC provider
// and OAuth2 configuration based on the application's config.
func NewAuthenticator(ctx context.Context, cfg config.OIDCConfig) (*Authenticator, error) {
	// Use the OIDC discovery endpoint to get the provider configuration.
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, err
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &Authenticator{
		Provider:        provider,
		Config:          oauth2Config,
		IDTokenVerifier: verifier,
	}, nil
}

// Exchange trades an authorization code for a verified ID token and returns its claims.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*Claims, error) {
	token, err := a.Config.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("no id_token field in oauth2 token")
	}
	idToken, err := a.IDTokenVerifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}
	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	return &claims, nil
}
