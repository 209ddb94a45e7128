package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// State is a position in the credential lifecycle.
type State int

const (
	// StateUnauthenticated means no usable credential exists.
	StateUnauthenticated State = iota
	// StateAuthorizing means the interactive consent flow is running.
	StateAuthorizing
	// StateValid means the credential can be used as is.
	StateValid
	// StateExpired means the access token expired but a refresh token exists.
	StateExpired
	// StateRefreshing means a refresh request is in flight.
	StateRefreshing
)

// String returns a human-readable string for the state.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthorizing:
		return "authorizing"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Sentinel errors for the credential manager.
var (
	ErrAuthorizationFailed = errors.New("authorization failed")
	ErrScopeNotGranted     = errors.New("required scope was not granted")
)

var errPersist = errors.New("failed to persist credential")

// ManagerConfig holds configuration for the credential manager.
type ManagerConfig struct {
	Store      Store
	Refresher  Refresher
	Authorizer Authorizer
	// RequiredScope defaults to ReadOnlyScope.
	RequiredScope string
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Manager owns the credential and drives it through its lifecycle.
// Every transition into StateValid is persisted before EnsureValid returns.
type Manager struct {
	config ManagerConfig
	logger *slog.Logger
	mu     sync.Mutex
	state  State
	cred   *Credential
}

// NewManager loads the persisted credential and derives the initial state.
func NewManager(ctx context.Context, config ManagerConfig) (*Manager, error) {
	if config.Store == nil {
		return nil, errors.New("credential store is required")
	}
	if config.Refresher == nil {
		return nil, errors.New("refresher is required")
	}
	if config.Authorizer == nil {
		return nil, errors.New("authorizer is required")
	}
	if config.RequiredScope == "" {
		config.RequiredScope = ReadOnlyScope
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	m := &Manager{
		config: config,
		logger: config.Logger,
	}
	m.load(ctx)
	return m, nil
}

func (m *Manager) load(ctx context.Context) {
	cred, err := m.config.Store.Load(ctx)
	switch {
	case errors.Is(err, ErrCredentialNotFound):
		m.logger.Info("no stored credential")
		m.state = StateUnauthenticated
	case err != nil:
		m.logger.Warn("ignoring unreadable stored credential", slog.Any("error", err))
		m.state = StateUnauthenticated
	case !cred.HasScope(m.config.RequiredScope):
		m.logger.Warn("stored credential lacks required scope",
			slog.String("scope", m.config.RequiredScope),
		)
		m.state = StateUnauthenticated
	case cred.Valid(m.config.Now()):
		m.cred = cred
		m.state = StateValid
	case cred.RefreshToken != "":
		m.cred = cred
		m.state = StateExpired
	default:
		m.state = StateUnauthenticated
	}

	m.logger.Debug("credential manager initialized",
		slog.String("state", m.state.String()),
	)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// EnsureValid returns a usable credential, refreshing or re-authorizing as
// needed. A Valid credential is returned without I/O. The returned value is
// a copy owned by the caller.
func (m *Manager) EnsureValid(ctx context.Context) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateValid && !m.cred.Valid(m.config.Now()) {
		if m.cred.RefreshToken != "" {
			m.transition(StateExpired)
		} else {
			m.transition(StateUnauthenticated)
		}
	}

	if m.state == StateValid {
		return m.cred.Clone(), nil
	}

	var refreshErr error
	if m.state == StateExpired {
		cred, err := m.refresh(ctx)
		if err == nil {
			return cred, nil
		}
		if m.state != StateUnauthenticated {
			return nil, fmt.Errorf("%w: %w", ErrAuthorizationFailed, err)
		}
		refreshErr = err
	}

	cred, err := m.authorize(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthorizationFailed, errors.Join(refreshErr, err))
	}
	return cred, nil
}

// refresh runs Expired -> Refreshing -> Valid. Only a rejected refresh token
// moves to Unauthenticated; any other failure, including a persist failure,
// moves back to Expired and keeps the credential for the next attempt.
func (m *Manager) refresh(ctx context.Context) (*Credential, error) {
	m.transition(StateRefreshing)
	m.logger.Info("refreshing expired token")

	fresh, err := m.config.Refresher.Refresh(ctx, m.cred.Clone())
	if err == nil && !fresh.HasScope(m.config.RequiredScope) {
		err = ErrScopeNotGranted
	}
	if err != nil {
		if !refreshRejected(err) {
			m.logger.Warn("token refresh failed", slog.Any("error", err))
			m.transition(StateExpired)
			return nil, fmt.Errorf("refresh: %w", err)
		}
		m.logger.Warn("refresh token rejected, re-authorization required", slog.Any("error", err))
		m.cred = nil
		m.transition(StateUnauthenticated)
		return nil, fmt.Errorf("refresh: %w", err)
	}

	if err := m.config.Store.Save(ctx, fresh); err != nil {
		m.transition(StateExpired)
		return nil, fmt.Errorf("%w: %w", errPersist, err)
	}

	m.cred = fresh
	m.transition(StateValid)
	return fresh.Clone(), nil
}

// authorize runs Unauthenticated -> Authorizing -> Valid.
func (m *Manager) authorize(ctx context.Context) (*Credential, error) {
	m.transition(StateAuthorizing)
	m.logger.Info("starting OAuth2 authorization")

	fresh, err := m.config.Authorizer.Authorize(ctx, []string{m.config.RequiredScope})
	if err == nil && !fresh.HasScope(m.config.RequiredScope) {
		err = ErrScopeNotGranted
	}
	if err != nil {
		m.transition(StateUnauthenticated)
		return nil, fmt.Errorf("authorize: %w", err)
	}

	if err := m.config.Store.Save(ctx, fresh); err != nil {
		m.transition(StateUnauthenticated)
		return nil, fmt.Errorf("%w: %w", errPersist, err)
	}

	m.cred = fresh
	m.transition(StateValid)
	m.logger.Info("credentials saved")
	return fresh.Clone(), nil
}

// refreshRejected reports whether the token endpoint refused the refresh
// token itself, as opposed to a transient or local failure.
func refreshRejected(err error) bool {
	if errors.Is(err, ErrScopeNotGranted) {
		return true
	}
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return false
	}
	if retrieveErr.ErrorCode == "invalid_grant" {
		return true
	}
	if retrieveErr.Response == nil {
		return false
	}
	code := retrieveErr.Response.StatusCode
	return code == http.StatusBadRequest || code == http.StatusUnauthorized
}

func (m *Manager) transition(to State) {
	m.logger.Debug("credential state transition",
		slog.String("from", m.state.String()),
		slog.String("to", to.String()),
	)
	m.state = to
}
