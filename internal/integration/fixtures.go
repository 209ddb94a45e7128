package integration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/smorand/slides-checker/internal/auth"
	"github.com/smorand/slides-checker/internal/content"
	"github.com/smorand/slides-checker/internal/document"
	"github.com/smorand/slides-checker/internal/output"
	"github.com/smorand/slides-checker/internal/session"
)

// Environment variable names for integration tests.
const (
	EnvIntegrationTest    = "INTEGRATION_TEST"
	EnvGoogleClientID     = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
	EnvGoogleRefreshToken = "GOOGLE_REFRESH_TOKEN"
	EnvTestPresentationID = "TEST_PRESENTATION_ID"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	TestPresentationID string
}

// SkipIfNoIntegration skips the test if integration tests are not enabled.
func SkipIfNoIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv(EnvIntegrationTest) != "1" {
		t.Skip("Integration tests are disabled. Set INTEGRATION_TEST=1 to enable.")
	}
}

// LoadConfig loads test configuration from environment variables.
func LoadConfig(t *testing.T) *TestConfig {
	t.Helper()

	cfg := &TestConfig{
		ClientID:           os.Getenv(EnvGoogleClientID),
		ClientSecret:       os.Getenv(EnvGoogleClientSecret),
		RefreshToken:       os.Getenv(EnvGoogleRefreshToken),
		TestPresentationID: os.Getenv(EnvTestPresentationID),
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" || cfg.TestPresentationID == "" {
		t.Skipf("Missing required environment variables (%s, %s, %s, %s)",
			EnvGoogleClientID, EnvGoogleClientSecret, EnvGoogleRefreshToken, EnvTestPresentationID)
	}
	return cfg
}

// Fixtures wires a controller against the live API. The stored credential
// starts expired so the first command exercises the refresh path.
type Fixtures struct {
	Config     *TestConfig
	OAuth      *oauth2.Config
	Store      *auth.MockStore
	Manager    *auth.Manager
	Client     *document.SlidesClient
	Controller *session.Controller
	OutputDir  string
}

// NewFixtures creates the wired fixtures for one test.
func NewFixtures(t *testing.T, cfg *TestConfig) *Fixtures {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{auth.ReadOnlyScope},
	}

	store := auth.NewMockStore(&auth.Credential{
		RefreshToken: cfg.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Hour),
		Scopes:       []string{auth.ReadOnlyScope},
	})

	ctx, cancel := TestTimeout(t)
	defer cancel()

	manager, err := auth.NewManager(ctx, auth.ManagerConfig{
		Store:     store,
		Refresher: auth.NewOAuthRefresher(oauthConfig, logger),
		Authorizer: auth.AuthorizerFunc(func(context.Context, []string) (*auth.Credential, error) {
			t.Fatal("integration tests must not start a consent flow")
			return nil, nil
		}),
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("Failed to create credential manager: %v", err)
	}

	client := document.NewSlidesClient(document.SlidesClientConfig{Logger: logger}, nil)

	outputDir := t.TempDir()
	writer, err := output.New(outputDir, logger)
	if err != nil {
		t.Fatalf("Failed to create output writer: %v", err)
	}

	controller := session.New(session.Config{Logger: logger}, manager, client,
		content.NewExtractor(content.DefaultExtractorConfig()), writer)

	return &Fixtures{
		Config:     cfg,
		OAuth:      oauthConfig,
		Store:      store,
		Manager:    manager,
		Client:     client,
		Controller: controller,
		OutputDir:  outputDir,
	}
}

// TestTimeout returns a context with a standard timeout for integration tests.
func TestTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 60*time.Second)
}
