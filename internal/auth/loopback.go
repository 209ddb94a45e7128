package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultAuthTimeout = 5 * time.Minute
	callbackPath       = "/callback"
	stateLength        = 32
)

// ErrAuthTimeout is returned when the user does not complete consent in time.
var ErrAuthTimeout = errors.New("timed out waiting for authorization")

// LoopbackConfig configures the interactive authorization flow.
type LoopbackConfig struct {
	OAuth *oauth2.Config
	// OpenBrowser opens the consent URL. Nil disables opening a browser;
	// the URL is always written to Prompt.
	OpenBrowser func(url string) error
	Prompt      io.Writer
	Timeout     time.Duration
	Logger      *slog.Logger
}

// LoopbackAuthorizer implements the installed-app flow: it listens on a
// loopback port, sends the user to the consent page and exchanges the
// returned code (with PKCE) for tokens.
type LoopbackAuthorizer struct {
	config LoopbackConfig
}

// NewLoopbackAuthorizer creates a new LoopbackAuthorizer.
func NewLoopbackAuthorizer(config LoopbackConfig) *LoopbackAuthorizer {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultAuthTimeout
	}
	if config.Prompt == nil {
		config.Prompt = io.Discard
	}
	return &LoopbackAuthorizer{config: config}
}

// Authorize runs the consent flow for scopes.
func (a *LoopbackAuthorizer) Authorize(ctx context.Context, scopes []string) (*Credential, error) {
	if a.config.OAuth == nil {
		return nil, errors.New("OAuth client is not configured")
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen for OAuth callback: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	config := *a.config.OAuth
	config.Scopes = scopes
	config.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d%s", port, callbackPath)

	state, err := generateState()
	if err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	callback := newCallbackHandler(state, a.config.Logger)
	mux := http.NewServeMux()
	mux.Handle(callbackPath, callback)
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			callback.deliver("", fmt.Errorf("OAuth callback server failed: %w", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	a.config.Logger.Info("OAuth2 flow initiated",
		slog.String("redirect_uri", config.RedirectURL),
	)

	fmt.Fprintf(a.config.Prompt, "Open this URL in your browser to authorize read-only access:\n\n  %s\n\n", authURL)
	if a.config.OpenBrowser != nil {
		if err := a.config.OpenBrowser(authURL); err != nil {
			a.config.Logger.Warn("failed to open browser", slog.Any("error", err))
		}
	}

	code, err := a.wait(ctx, callback)
	if err != nil {
		return nil, err
	}

	token, err := config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	a.config.Logger.Info("OAuth2 token obtained",
		slog.Bool("has_refresh_token", token.RefreshToken != ""),
		slog.Time("expiry", token.Expiry),
	)
	return credentialFromToken(token, scopes), nil
}

func (a *LoopbackAuthorizer) wait(ctx context.Context, callback *callbackHandler) (string, error) {
	timer := time.NewTimer(a.config.Timeout)
	defer timer.Stop()

	select {
	case result := <-callback.result:
		return result.code, result.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", ErrAuthTimeout
	}
}

type callbackResult struct {
	code string
	err  error
}

// callbackHandler receives the provider redirect. The state is single-use;
// requests with a missing or unknown state are rejected without ending the flow.
type callbackHandler struct {
	state  string
	logger *slog.Logger
	result chan callbackResult
	mu     sync.Mutex
	done   bool
}

func newCallbackHandler(state string, logger *slog.Logger) *callbackHandler {
	return &callbackHandler{
		state:  state,
		logger: logger,
		result: make(chan callbackResult, 1),
	}
}

func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writePage(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	query := r.URL.Query()
	if query.Get("state") != h.state || h.isDone() {
		h.writePage(w, http.StatusBadRequest, "Invalid state parameter.")
		return
	}

	if errParam := query.Get("error"); errParam != "" {
		errDesc := query.Get("error_description")
		h.logger.Error("OAuth2 error from provider",
			slog.String("error", errParam),
			slog.String("description", errDesc),
		)
		h.deliver("", fmt.Errorf("OAuth2 error: %s - %s", errParam, errDesc))
		h.writePage(w, http.StatusBadRequest, "Authorization failed. You can close this window.")
		return
	}

	code := query.Get("code")
	if code == "" {
		h.deliver("", errors.New("missing authorization code"))
		h.writePage(w, http.StatusBadRequest, "Missing authorization code.")
		return
	}

	h.deliver(code, nil)
	h.writePage(w, http.StatusOK, "Authorization complete. You can close this window.")
}

func (h *callbackHandler) isDone() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

// deliver reports the first outcome; later ones are dropped.
func (h *callbackHandler) deliver(code string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.done {
		return
	}
	h.done = true
	h.result <- callbackResult{code: code, err: err}
}

func (h *callbackHandler) writePage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintln(w, message)
}

// Ensure LoopbackAuthorizer implements Authorizer.
var _ Authorizer = (*LoopbackAuthorizer)(nil)

// generateState returns the anti-forgery value echoed back on the callback.
func generateState() (string, error) {
	b := make([]byte, stateLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
