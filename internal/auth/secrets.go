package auth

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"golang.org/x/oauth2"
)

// SecretLoader loads secrets from Google Secret Manager.
type SecretLoader struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretLoader creates a new SecretLoader.
func NewSecretLoader(ctx context.Context, projectID string) (*SecretLoader, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}

	return &SecretLoader{
		client:    client,
		projectID: projectID,
	}, nil
}

// Close closes the secret manager client.
func (l *SecretLoader) Close() error {
	return l.client.Close()
}

// GetSecret retrieves the latest version of a secret.
func (l *SecretLoader) GetSecret(ctx context.Context, secretID string) ([]byte, error) {
	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretVersionName(l.projectID, secretID),
	}

	result, err := l.client.AccessSecretVersion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to access secret %s: %w", secretID, err)
	}

	return result.Payload.Data, nil
}

// LoadClientConfig loads an OAuth client descriptor stored as a secret. The
// secret payload is the same JSON as the client file on disk.
func (l *SecretLoader) LoadClientConfig(ctx context.Context, secretID string, scopes ...string) (*oauth2.Config, error) {
	data, err := l.GetSecret(ctx, secretID)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client: %w", err)
	}
	return ClientConfigFromJSON(data, scopes...)
}

func secretVersionName(projectID, secretID string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretID)
}
