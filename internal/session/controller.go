// Package session drives one operator session: resolve a locator, make sure
// a credential is valid, fetch and flatten the presentation, and write the
// result when asked.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/smorand/slides-checker/internal/auth"
	"github.com/smorand/slides-checker/internal/content"
	"github.com/smorand/slides-checker/internal/document"
	"github.com/smorand/slides-checker/internal/locator"
)

const defaultPreviewLength = 100

// CredentialSource hands out a usable credential.
type CredentialSource interface {
	EnsureValid(ctx context.Context) (*auth.Credential, error)
}

// ArtifactWriter persists an extraction result and returns where it went.
type ArtifactWriter interface {
	Write(result *content.Result) (string, error)
}

// Config holds configuration for the controller.
type Config struct {
	// PreviewLength is the maximum number of characters of first-slide text
	// shown after a successful check (default: 100).
	PreviewLength int
	Logger        *slog.Logger
}

// Controller orchestrates the per-command flow. It holds no document state
// between commands.
type Controller struct {
	config    Config
	creds     CredentialSource
	client    document.Client
	extractor *content.Extractor
	writer    ArtifactWriter
}

// New creates a new Controller.
func New(config Config, creds CredentialSource, client document.Client, extractor *content.Extractor, writer ArtifactWriter) *Controller {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.PreviewLength <= 0 {
		config.PreviewLength = defaultPreviewLength
	}
	if extractor == nil {
		extractor = content.NewExtractor(content.DefaultExtractorConfig())
	}
	return &Controller{
		config:    config,
		creds:     creds,
		client:    client,
		extractor: extractor,
		writer:    writer,
	}
}

// Verdict is a successful access check.
type Verdict struct {
	ID     locator.ID
	Result *content.Result
	// Preview is the first text on the first slide, truncated.
	Preview string
}

// Extraction is a written artifact.
type Extraction struct {
	Path    string
	Summary content.Summary
}

// Check resolves raw, fetches the presentation and flattens it. Nothing is
// written.
func (c *Controller) Check(ctx context.Context, raw string) (*Verdict, error) {
	id, err := locator.Resolve(raw)
	if err != nil {
		return nil, err
	}

	logger := c.config.Logger.With(slog.String("presentation_id", id.String()))
	logger.Debug("checking access")

	cred, err := c.creds.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := c.client.Fetch(ctx, id, cred)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", id, err)
	}

	result := c.extractor.Extract(doc)
	logger.Info("access verified", slog.Int("slides", len(result.Slides)))

	return &Verdict{
		ID:      id,
		Result:  result,
		Preview: preview(result, c.config.PreviewLength),
	}, nil
}

// Save writes the verdict's extraction.
func (c *Controller) Save(v *Verdict) (*Extraction, error) {
	if v == nil || v.Result == nil {
		return nil, errors.New("no extraction to save")
	}
	if c.writer == nil {
		return nil, errors.New("no output writer configured")
	}

	path, err := c.writer.Write(v.Result)
	if err != nil {
		return nil, fmt.Errorf("saving %s: %w", v.ID, err)
	}
	return &Extraction{Path: path, Summary: v.Result.Summary()}, nil
}

// Extract checks raw and writes the extraction.
func (c *Controller) Extract(ctx context.Context, raw string) (*Verdict, *Extraction, error) {
	v, err := c.Check(ctx, raw)
	if err != nil {
		return nil, nil, err
	}
	extraction, err := c.Save(v)
	if err != nil {
		return v, nil, err
	}
	return v, extraction, nil
}

func preview(result *content.Result, limit int) string {
	if len(result.Slides) == 0 || len(result.Slides[0].TextBlocks) == 0 {
		return ""
	}
	text := result.Slides[0].TextBlocks[0].Text
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + "..."
}
