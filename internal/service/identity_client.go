package service

import (
	"context"
	"fmt"
	"time"

	"familytree/internal/config"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Identity the authenticated principal extracted from a verified ID token.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// IdentityClient talks to the external identity provider: discovery, the
// authorization-code exchange, ID-token verification, and token revocation
// on logout. Authentication itself is entirely the provider's business.
type IdentityClient struct {
	oauth              oauth2.Config
	verifier           *oidc.IDTokenVerifier
	httpClient         *resty.Client
	revocationEndpoint string
	logger             *zap.Logger
}

// providerClaims the discovery-document fields we need beyond what
// go-oidc surfaces directly.
type providerClaims struct {
	RevocationEndpoint string `json:"revocation_endpoint"`
}

func NewIdentityClient(ctx context.Context, cfg config.AuthConfig, logger *zap.Logger) (*IdentityClient, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover identity provider: %w", err)
	}

	var claims providerClaims
	if err := provider.Claims(&claims); err != nil {
		logger.Warn("failed to read provider discovery claims", zap.Error(err))
	}

	httpClient := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &IdentityClient{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier:           provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		httpClient:         httpClient,
		revocationEndpoint: claims.RevocationEndpoint,
		logger:             logger,
	}, nil
}

// AuthCodeURL the provider challenge URL for the given anti-replay state.
func (c *IdentityClient) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades the callback code for tokens and verifies the ID token.
// Returns the identity plus the raw access token (kept for revocation).
func (c *IdentityClient) Exchange(ctx context.Context, code string) (*Identity, string, error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, "", fmt.Errorf("token response contains no id_token")
	}
	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify id_token: %w", err)
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, "", fmt.Errorf("failed to parse id_token claims: %w", err)
	}

	return &Identity{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}, token.AccessToken, nil
}

// Revoke invalidates the access token at the provider. Best effort: a
// provider without a revocation endpoint just ends the local session.
func (c *IdentityClient) Revoke(ctx context.Context, accessToken string) error {
	if c.revocationEndpoint == "" || accessToken == "" {
		return nil
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBasicAuth(c.oauth.ClientID, c.oauth.ClientSecret).
		SetFormData(map[string]string{
			"token":           accessToken,
			"token_type_hint": "access_token",
		}).
		Post(c.revocationEndpoint)
	if err != nil {
		return fmt.Errorf("failed to call revocation endpoint: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("revocation endpoint returned status %d", resp.StatusCode())
	}
	return nil
}
