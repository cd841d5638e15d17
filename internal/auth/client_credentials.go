// Package auth acquires app-only bearer tokens for the notebook API.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

// GraphScope requests every application permission granted to the app
// registration on Microsoft Graph.
const GraphScope = "https://graph.microsoft.com/.default"

type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	// TokenURL overrides the Azure AD token endpoint derived from TenantID.
	TokenURL string
}

// ClientCredentials exchanges a client id and secret for bearer tokens.
// Tokens are cached in memory and only re-acquired once they expire, which
// is the "try silent, then acquire" behaviour of the identity provider SDKs.
type ClientCredentials struct {
	ts oauth2.TokenSource
}

// NewClientCredentials returns a token source bound to ctx. ctx must outlive
// every request made with the returned source.
func NewClientCredentials(ctx context.Context, cfg Config) (*ClientCredentials, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("auth: client id and secret are required")
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		if cfg.TenantID == "" {
			return nil, fmt.Errorf("auth: tenant id is required")
		}
		tokenURL = microsoft.AzureADEndpoint(cfg.TenantID).TokenURL
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{GraphScope}
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: 30 * time.Second})

	// clientcredentials already wraps its source in oauth2.ReuseTokenSource.
	return &ClientCredentials{ts: cc.TokenSource(ctx)}, nil
}

// Token returns a valid bearer token, acquiring a new one only when the
// cached token has expired.
func (c *ClientCredentials) Token() (*oauth2.Token, error) {
	tok, err := c.ts.Token()
	if err != nil {
		return nil, fmt.Errorf("auth: acquire token: %w", err)
	}
	return tok, nil
}

// HTTPClient returns a client that adds the bearer token to every request.
// Token failures surface through the request error.
func (c *ClientCredentials) HTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: c,
			Base:   http.DefaultTransport,
		},
	}
}
