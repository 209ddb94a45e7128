package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Sentinel errors for OAuth client configuration.
var (
	ErrClientConfigNotFound = errors.New("OAuth client file not found")
	ErrInvalidClientConfig  = errors.New("invalid OAuth client file")
)

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, cred *Credential) (*Credential, error)
}

// Authorizer runs an interactive consent flow and returns a fresh credential
// bound to the requested scopes.
type Authorizer interface {
	Authorize(ctx context.Context, scopes []string) (*Credential, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, cred *Credential) (*Credential, error)

// Refresh calls f.
func (f RefresherFunc) Refresh(ctx context.Context, cred *Credential) (*Credential, error) {
	return f(ctx, cred)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, scopes []string) (*Credential, error)

// Authorize calls f.
func (f AuthorizerFunc) Authorize(ctx context.Context, scopes []string) (*Credential, error) {
	return f(ctx, scopes)
}

// LoadClientConfig reads a Google OAuth client file ("Desktop application"
// credentials downloaded from the Cloud console).
func LoadClientConfig(path string, scopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrClientConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read OAuth client file: %w", err)
	}
	return ClientConfigFromJSON(data, scopes...)
}

// ClientConfigFromJSON parses a Google OAuth client descriptor.
func ClientConfigFromJSON(data []byte, scopes ...string) (*oauth2.Config, error) {
	if len(scopes) == 0 {
		scopes = []string{ReadOnlyScope}
	}
	config, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClientConfig, err)
	}
	return config, nil
}

// OAuthRefresher refreshes credentials against the provider's token endpoint.
type OAuthRefresher struct {
	config *oauth2.Config
	logger *slog.Logger
}

// NewOAuthRefresher creates a new OAuthRefresher.
func NewOAuthRefresher(config *oauth2.Config, logger *slog.Logger) *OAuthRefresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &OAuthRefresher{config: config, logger: logger}
}

// Refresh refreshes an access token using the credential's refresh token.
func (r *OAuthRefresher) Refresh(ctx context.Context, cred *Credential) (*Credential, error) {
	if cred == nil || cred.RefreshToken == "" {
		return nil, errors.New("no refresh token")
	}

	token := &oauth2.Token{
		RefreshToken: cred.RefreshToken,
	}
	tokenSource := r.config.TokenSource(ctx, token)
	refreshed, err := tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	fresh := credentialFromToken(refreshed, cred.Scopes)
	if fresh.RefreshToken == "" {
		// Google usually omits the refresh token on refresh responses.
		fresh.RefreshToken = cred.RefreshToken
	}

	r.logger.Info("OAuth2 token refreshed",
		slog.Time("expiry", fresh.Expiry),
	)
	return fresh, nil
}

// Ensure OAuthRefresher implements Refresher.
var _ Refresher = (*OAuthRefresher)(nil)
