package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/reqstly/reqstly/model"
	"golang.org/x/oauth2"
)

// AzureConfig holds the Azure AD OIDC application settings.
type AzureConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// AzureManager drives the Azure AD authorization-code flow. Discovery,
// token exchange and ID token verification go through go-oidc; the verified
// claim set is handed to the resolver for link-or-create.
type AzureManager struct {
	resolver *Resolver
	provider *oidc.Provider
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

func NewAzureManager(ctx context.Context, cfg AzureConfig, resolver *Resolver) (*AzureManager, error) {
	issuer := fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0", cfg.TenantID)
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("azure: failed to discover provider: %w", err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &AzureManager{
		resolver: resolver,
		provider: provider,
		oauth:    oauthConfig,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// AuthCodeURL builds the redirect URL that starts the login flow. The state
// and nonce are caller-generated and verified on callback.
func (m *AzureManager) AuthCodeURL(state, nonce string) string {
	return m.oauth.AuthCodeURL(state, oidc.Nonce(nonce))
}

// HandleCallback exchanges the authorization code, verifies the ID token and
// its nonce, and resolves the claims to a user.
func (m *AzureManager) HandleCallback(ctx context.Context, code, nonce string) (*model.User, *model.ExternalIdentity, error) {
	token, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("azure: token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, nil, errors.New("azure: no id_token in token response")
	}

	idToken, err := m.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, nil, fmt.Errorf("azure: id token verification failed: %w", err)
	}
	if idToken.Nonce != nonce {
		return nil, nil, errors.New("azure: nonce mismatch")
	}

	var claims struct {
		Subject           string `json:"sub"`
		Email             string `json:"email"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, nil, fmt.Errorf("azure: failed to parse claims: %w", err)
	}

	// Azure AD omits the email claim for some account types; the UPN is the
	// usual fallback and is an address for directory accounts.
	email := claims.Email
	if email == "" {
		email = claims.PreferredUsername
	}

	return m.resolver.ResolveExternalIdentity(ctx, model.ProviderAzureAD, claims.Subject, email, claims.Name)
}
