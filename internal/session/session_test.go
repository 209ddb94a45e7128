package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/smorand/slides-checker/internal/auth"
	"github.com/smorand/slides-checker/internal/content"
	"github.com/smorand/slides-checker/internal/document"
	"github.com/smorand/slides-checker/internal/locator"
	"github.com/smorand/slides-checker/internal/output"
)

type fakeCredentials struct {
	err   error
	calls int
}

func (f *fakeCredentials) EnsureValid(ctx context.Context) (*auth.Credential, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &auth.Credential{AccessToken: "token", Scopes: []string{auth.ReadOnlyScope}}, nil
}

type fakeClient struct {
	docs    map[locator.ID]*content.Document
	err     error
	fetched []locator.ID
}

func (f *fakeClient) Fetch(ctx context.Context, id locator.ID, cred *auth.Credential) (*content.Document, error) {
	f.fetched = append(f.fetched, id)
	if f.err != nil {
		return nil, f.err
	}
	if doc, ok := f.docs[id]; ok {
		return doc, nil
	}
	return nil, document.ErrNotFound
}

func sampleDocument() *content.Document {
	return &content.Document{
		ID:    "ABC123",
		Title: "Quarterly Review",
		Slides: []content.Slide{
			{
				ID: "s1",
				Elements: []content.PageElement{
					content.TextShape{ID: "t1", Runs: []string{"Welcome"}},
					content.Image{ID: "i1", ContentURL: "https://example.com/a.png"},
				},
				Notes: &content.NotesPage{Elements: []content.PageElement{
					content.TextShape{ID: "n1", Runs: []string{"Greet everyone"}},
				}},
			},
			{
				ID: "s2",
				Elements: []content.PageElement{
					content.Image{ID: "i2", ContentURL: "https://example.com/b.png"},
				},
			},
		},
	}
}

type harness struct {
	creds      *fakeCredentials
	client     *fakeClient
	writer     *output.Writer
	controller *Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	writer, err := output.New(t.TempDir(), quietLogger())
	require.NoError(t, err)

	h := &harness{
		creds:  &fakeCredentials{},
		client: &fakeClient{docs: map[locator.ID]*content.Document{"ABC123": sampleDocument()}},
		writer: writer,
	}
	h.controller = New(Config{Logger: quietLogger()}, h.creds, h.client, nil, writer)
	return h
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func artifacts(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		expected Command
	}{
		{"", Command{Kind: CommandSkip}},
		{"   \t", Command{Kind: CommandSkip}},
		{"quit", Command{Kind: CommandQuit}},
		{"EXIT", Command{Kind: CommandQuit}},
		{" Q ", Command{Kind: CommandQuit}},
		{"quitter", Command{Kind: CommandLocator, Locator: "quitter"}},
		{" ABC123 ", Command{Kind: CommandLocator, Locator: "ABC123"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseCommand(tt.input), "input %q", tt.input)
	}
}

func TestCheck_Success(t *testing.T) {
	h := newHarness(t)

	v, err := h.controller.Check(context.Background(), "https://docs.google.com/presentation/d/ABC123/edit")
	require.NoError(t, err)

	assert.Equal(t, locator.ID("ABC123"), v.ID)
	assert.Equal(t, "Quarterly Review", v.Result.Title)
	assert.Equal(t, "Welcome", v.Preview)
	assert.Empty(t, artifacts(t, h.writer.OutputDir), "check never writes")
}

func TestCheck_InvalidLocatorSkipsAuthorization(t *testing.T) {
	h := newHarness(t)

	_, err := h.controller.Check(context.Background(), "not a url!")

	assert.ErrorIs(t, err, locator.ErrInvalidLocator)
	assert.Equal(t, 0, h.creds.calls)
	assert.Empty(t, h.client.fetched)
}

func TestCheck_AuthorizationFailureSkipsFetch(t *testing.T) {
	h := newHarness(t)
	h.creds.err = auth.ErrAuthorizationFailed

	_, err := h.controller.Check(context.Background(), "ABC123")

	assert.ErrorIs(t, err, auth.ErrAuthorizationFailed)
	assert.Empty(t, h.client.fetched)
}

func TestExtract_ForbiddenWritesNothing(t *testing.T) {
	h := newHarness(t)
	h.client.err = document.ErrForbidden

	v, extraction, err := h.controller.Extract(context.Background(), "ABC123")

	assert.ErrorIs(t, err, document.ErrForbidden)
	assert.Nil(t, v)
	assert.Nil(t, extraction)
	assert.Empty(t, artifacts(t, h.writer.OutputDir))
}

func TestExtract_WritesArtifact(t *testing.T) {
	h := newHarness(t)

	_, extraction, err := h.controller.Extract(context.Background(), "ABC123")
	require.NoError(t, err)

	assert.Equal(t, []string{"slides_content_ABC123.json"}, artifacts(t, h.writer.OutputDir))
	assert.Equal(t, content.Summary{Slides: 2, TextBlocks: 1, Images: 2, SlidesWithNotes: 1}, extraction.Summary)
}

func TestSave_RequiresVerdict(t *testing.T) {
	h := newHarness(t)

	_, err := h.controller.Save(nil)
	assert.Error(t, err)
}

func TestPreview_Truncates(t *testing.T) {
	long := strings.Repeat("é", 150)
	result := &content.Result{Slides: []content.ExtractedSlide{
		{TextBlocks: []content.TextBlock{{Text: long}}},
	}}

	got := preview(result, 100)

	assert.Equal(t, strings.Repeat("é", 100)+"...", got)
	assert.Equal(t, "short", preview(&content.Result{Slides: []content.ExtractedSlide{
		{TextBlocks: []content.TextBlock{{Text: "short"}}},
	}}, 100))
	assert.Empty(t, preview(&content.Result{}, 100))
}

func TestGuidance(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"invalid locator", locator.ErrInvalidLocator, "PRESENTATION_ID"},
		{"forbidden", document.ErrForbidden, "Access denied (403)"},
		{"not found", document.ErrNotFound, "Presentation not found (404)"},
		{"status", &document.StatusError{Code: 500, Err: &googleapi.Error{Code: 500, Message: "backend error"}}, "HTTP error 500"},
		{"authorization", auth.ErrAuthorizationFailed, "Authorization failed"},
		{"transport", document.ErrTransport, "Could not reach"},
		{"unexpected", errors.New("boom"), "Unexpected error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, strings.Join(Guidance(tt.err), "\n"), tt.contains)
		})
	}
}

func TestRun_ExtractOnYes(t *testing.T) {
	h := newHarness(t)
	var out strings.Builder

	err := h.controller.Run(context.Background(), LoopConfig{
		In:      strings.NewReader("\nABC123\ny\nquit\n"),
		Out:     &out,
		Prompts: true,
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Successfully accessed presentation")
	assert.Contains(t, text, "Title:  Quarterly Review")
	assert.Contains(t, text, "Text: Welcome")
	assert.Contains(t, text, "Do you want to extract full content? (y/n)")
	assert.Contains(t, text, "Full content saved to:")
	assert.Contains(t, text, "Goodbye.")
	assert.Equal(t, []locator.ID{"ABC123"}, h.client.fetched, "blank line is ignored and extraction reuses the fetch")
	assert.Len(t, artifacts(t, h.writer.OutputDir), 1)
}

func TestRun_DeclineExtraction(t *testing.T) {
	h := newHarness(t)
	var out strings.Builder

	err := h.controller.Run(context.Background(), LoopConfig{
		In:  strings.NewReader("ABC123\nn\nexit\n"),
		Out: &out,
	})
	require.NoError(t, err)

	assert.Empty(t, artifacts(t, h.writer.OutputDir))
	assert.NotContains(t, out.String(), "(y/n)", "prompts are suppressed")
}

func TestRun_FailuresDoNotEndLoop(t *testing.T) {
	h := newHarness(t)
	var out strings.Builder

	err := h.controller.Run(context.Background(), LoopConfig{
		In:  strings.NewReader("bad locator!\nMISSING\nABC123\nno\n"),
		Out: &out,
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Invalid URL or ID format")
	assert.Contains(t, text, "Presentation not found (404)")
	assert.Contains(t, text, "Successfully accessed presentation")
	assert.Equal(t, []locator.ID{"MISSING", "ABC123"}, h.client.fetched)
}

func TestRun_EndOfInput(t *testing.T) {
	h := newHarness(t)

	err := h.controller.Run(context.Background(), LoopConfig{
		In:  strings.NewReader(""),
		Out: io.Discard,
	})
	assert.NoError(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.controller.Run(ctx, LoopConfig{
		In:  strings.NewReader("ABC123\n"),
		Out: io.Discard,
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.client.fetched)
}
