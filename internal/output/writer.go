// Package output writes extraction results to disk.
// File names derive from the presentation ID (slides_content_<id>.json) so
// successive extractions of one document overwrite the same file and can be
// diffed over time.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/smorand/slides-checker/internal/content"
	"github.com/smorand/slides-checker/internal/fsutil"
)

const (
	filePrefix = "slides_content_"
	fileExt    = ".json"
)

// Writer writes results into a directory.
type Writer struct {
	OutputDir string
	logger    *slog.Logger
}

// New creates a Writer targeting outputDir. The directory is created on the
// first Write, so a writer that never writes leaves no trace.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	return &Writer{OutputDir: outputDir, logger: logger}, nil
}

// FileName returns the artifact name for a presentation ID.
func FileName(id string) string {
	return filePrefix + sanitize(id) + fileExt
}

// Path returns the full artifact path for a presentation ID.
func (w *Writer) Path(id string) string {
	return filepath.Join(w.OutputDir, FileName(id))
}

// Write serializes result and atomically replaces its artifact. It returns
// the path written.
func (w *Writer) Write(result *content.Result) (string, error) {
	if result == nil {
		return "", errors.New("nothing to write")
	}

	data, err := Encode(result)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := w.Path(result.DocumentID)
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", err
	}

	w.logger.Info("extraction written",
		slog.String("path", path),
		slog.Int("bytes", len(data)),
	)
	return path, nil
}

// Encode renders result as indented JSON. Non-ASCII text and HTML
// characters are written verbatim.
func Encode(result *content.Result) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitize keeps ID characters and replaces anything else with underscores.
func sanitize(s string) string {
	if s == "" {
		return "untitled"
	}
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_' {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
