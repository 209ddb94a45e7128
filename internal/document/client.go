// Package document fetches presentations from the Google Slides API and
// decodes them into content.Document trees.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/slides/v1"

	"github.com/smorand/slides-checker/internal/auth"
	"github.com/smorand/slides-checker/internal/content"
	"github.com/smorand/slides-checker/internal/locator"
	"github.com/smorand/slides-checker/internal/retry"
)

// Sentinel errors for fetch failures.
var (
	ErrNotFound  = errors.New("presentation not found")
	ErrForbidden = errors.New("access denied to presentation")
	// ErrTransport covers failures without an HTTP status: network errors,
	// timeouts and cancellation.
	ErrTransport = errors.New("slides API unreachable")
)

// StatusError is a fetch failure with an HTTP status other than 403 or 404.
type StatusError struct {
	Code int
	Err  error
}

// Error returns the error message.
func (e *StatusError) Error() string {
	return fmt.Sprintf("slides API returned status %d: %v", e.Code, e.Err)
}

// Unwrap returns the underlying error.
func (e *StatusError) Unwrap() error {
	return e.Err
}

// Client retrieves a presentation with a caller-supplied credential.
type Client interface {
	Fetch(ctx context.Context, id locator.ID, cred *auth.Credential) (*content.Document, error)
}

// SlidesService abstracts the Google Slides API for testing.
type SlidesService interface {
	GetPresentation(ctx context.Context, presentationID string) (*slides.Presentation, error)
}

// SlidesServiceFactory creates a Slides service from a token source.
type SlidesServiceFactory func(ctx context.Context, tokenSource oauth2.TokenSource) (SlidesService, error)

type realSlidesService struct {
	service *slides.Service
}

func (s *realSlidesService) GetPresentation(ctx context.Context, presentationID string) (*slides.Presentation, error) {
	return s.service.Presentations.Get(presentationID).Context(ctx).Do()
}

// NewRealSlidesServiceFactory returns a factory that creates real Slides services.
func NewRealSlidesServiceFactory(opts ...option.ClientOption) SlidesServiceFactory {
	return func(ctx context.Context, tokenSource oauth2.TokenSource) (SlidesService, error) {
		clientOpts := append([]option.ClientOption{option.WithTokenSource(tokenSource)}, opts...)
		service, err := slides.NewService(ctx, clientOpts...)
		if err != nil {
			return nil, err
		}
		return &realSlidesService{service: service}, nil
	}
}

// SlidesClientConfig holds configuration for SlidesClient.
type SlidesClientConfig struct {
	Retry retry.Config
	// RequestsPerSecond throttles outgoing requests; zero or less disables throttling.
	RequestsPerSecond float64
	Burst             int
	// Timeout bounds a single Fetch including retries; zero means no bound.
	Timeout time.Duration
	Logger  *slog.Logger
}

// DefaultSlidesClientConfig returns default configuration.
func DefaultSlidesClientConfig() SlidesClientConfig {
	return SlidesClientConfig{
		Retry:             retry.DefaultConfig(),
		RequestsPerSecond: 5,
		Burst:             5,
		Logger:            slog.Default(),
	}
}

// SlidesClient is the Client backed by the Google Slides API. It throttles
// requests and retries 429 and 5xx responses; every other failure is
// returned on the first attempt.
type SlidesClient struct {
	config  SlidesClientConfig
	factory SlidesServiceFactory
	retryer *retry.Retryer
	limiter *rate.Limiter
}

// NewSlidesClient creates a new SlidesClient.
func NewSlidesClient(config SlidesClientConfig, factory SlidesServiceFactory) *SlidesClient {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Retry.Logger == nil {
		config.Retry.Logger = config.Logger
	}
	if factory == nil {
		factory = NewRealSlidesServiceFactory()
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	burst := max(config.Burst, 1)

	return &SlidesClient{
		config:  config,
		factory: factory,
		retryer: retry.New(config.Retry),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Fetch retrieves the presentation id using cred. Failures are classified as
// ErrNotFound, ErrForbidden, ErrTransport or *StatusError.
func (c *SlidesClient) Fetch(ctx context.Context, id locator.ID, cred *auth.Credential) (*content.Document, error) {
	if cred == nil {
		return nil, errors.New("credential is required")
	}
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	logger := c.config.Logger.With(slog.String("presentation_id", id.String()))
	logger.Info("fetching presentation")

	service, err := c.factory(ctx, oauth2.StaticTokenSource(cred.Token()))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create slides service: %w", ErrTransport, err)
	}

	presentation, err := retry.Do(ctx, c.retryer, func(ctx context.Context) (*slides.Presentation, int, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
		p, err := service.GetPresentation(ctx, id.String())
		return p, statusCode(err), err
	})
	if err != nil {
		classified := classify(err)
		logger.Warn("fetch failed", slog.Any("error", classified))
		return nil, classified
	}
	if presentation == nil {
		return nil, fmt.Errorf("%w: empty response", ErrTransport)
	}

	doc := Decode(presentation, id)
	logger.Info("presentation fetched",
		slog.String("title", doc.Title),
		slog.Int("slides", len(doc.Slides)),
	)
	return doc, nil
}

func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// classify maps a fetch failure onto the package's error kinds.
func classify(err error) error {
	switch code := statusCode(err); code {
	case 0:
		return fmt.Errorf("%w: %w", ErrTransport, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	default:
		return &StatusError{Code: code, Err: err}
	}
}

// Ensure SlidesClient implements Client.
var _ Client = (*SlidesClient)(nil)
