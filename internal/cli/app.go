package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/smorand/slides-checker/internal/auth"
	"github.com/smorand/slides-checker/internal/config"
	"github.com/smorand/slides-checker/internal/content"
	"github.com/smorand/slides-checker/internal/document"
	"github.com/smorand/slides-checker/internal/output"
	"github.com/smorand/slides-checker/internal/retry"
	"github.com/smorand/slides-checker/internal/session"
)

// slidesFactory is replaced in tests.
var slidesFactory document.SlidesServiceFactory

// app is the wired dependency graph for one command invocation.
type app struct {
	controller *session.Controller
	logger     *slog.Logger
	closers    []io.Closer
}

func newApp(ctx context.Context, cmd *cobra.Command) (_ *app, err error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Log, cmd.ErrOrStderr()).With(slog.String("session_id", uuid.NewString()))
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	oauthConfig, err := loadClientConfig(ctx, cfg)
	if err != nil {
		if errors.Is(err, auth.ErrClientConfigNotFound) {
			printSetupInstructions(cmd.ErrOrStderr(), cfg.CredentialsFile)
		}
		return nil, err
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store)

	var openBrowser func(string) error
	if cfg.Auth.OpenBrowser {
		openBrowser = auth.OpenBrowser
	}

	manager, err := auth.NewManager(ctx, auth.ManagerConfig{
		Store:     store,
		Refresher: auth.NewOAuthRefresher(oauthConfig, logger),
		Authorizer: auth.NewLoopbackAuthorizer(auth.LoopbackConfig{
			OAuth:       oauthConfig,
			OpenBrowser: openBrowser,
			Prompt:      cmd.ErrOrStderr(),
			Timeout:     cfg.Auth.Timeout,
			Logger:      logger,
		}),
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	client := document.NewSlidesClient(document.SlidesClientConfig{
		Retry: retry.Config{
			MaxRetries:   cfg.Fetch.MaxRetries,
			InitialDelay: cfg.Fetch.InitialDelay,
			MaxDelay:     cfg.Fetch.MaxDelay,
			Logger:       logger,
		},
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		Burst:             cfg.Fetch.Burst,
		Timeout:           cfg.Fetch.Timeout,
		Logger:            logger,
	}, slidesFactory)

	writer, err := output.New(cfg.OutputDir, logger)
	if err != nil {
		return nil, err
	}

	extractor := content.NewExtractor(content.ExtractorConfig{
		NotesPlaceholders: cfg.NotesPlaceholders,
	})

	a.controller = session.New(session.Config{Logger: logger}, manager, client, extractor, writer)
	return a, nil
}

// Close releases store clients.
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("failed to close", slog.Any("error", err))
		}
	}
	a.closers = nil
}

func loadClientConfig(ctx context.Context, cfg *config.Config) (*oauth2.Config, error) {
	switch cfg.Auth.ClientSource {
	case config.ClientSourceSecretManager:
		loader, err := auth.NewSecretLoader(ctx, cfg.Auth.ProjectID)
		if err != nil {
			return nil, err
		}
		defer loader.Close()
		return loader.LoadClientConfig(ctx, cfg.Auth.ClientSecretID, auth.ReadOnlyScope)
	default:
		return auth.LoadClientConfig(cfg.CredentialsFile, auth.ReadOnlyScope)
	}
}

func newStore(ctx context.Context, cfg *config.Config) (auth.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendFirestore:
		fs := cfg.Store.Firestore
		return auth.NewFirestoreStore(ctx, fs.ProjectID, fs.Collection, fs.Document)
	default:
		return auth.NewFileStore(cfg.TokenFile), nil
	}
}

func printSetupInstructions(w io.Writer, path string) {
	fmt.Fprintf(w, "OAuth client file %q not found.\n\n", path)
	fmt.Fprintln(w, "To create it:")
	fmt.Fprintln(w, "  1. Go to https://console.cloud.google.com")
	fmt.Fprintln(w, "  2. Create a new project or select an existing one")
	fmt.Fprintln(w, "  3. Enable the Google Slides API")
	fmt.Fprintln(w, "  4. Open Credentials, then Create Credentials > OAuth client ID")
	fmt.Fprintln(w, "  5. Choose \"Desktop app\"")
	fmt.Fprintf(w, "  6. Download the JSON file and save it as %s\n", path)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Set credentials_file or SLIDES_CHECKER_CREDENTIALS_FILE to use another location.")
}
