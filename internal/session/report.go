package session

import (
	"errors"
	"fmt"
	"io"

	"github.com/smorand/slides-checker/internal/auth"
	"github.com/smorand/slides-checker/internal/document"
	"github.com/smorand/slides-checker/internal/locator"
)

// Guidance returns operator-facing lines explaining err.
func Guidance(err error) []string {
	var statusErr *document.StatusError

	switch {
	case errors.Is(err, locator.ErrInvalidLocator):
		lines := []string{"Invalid URL or ID format", "Expected formats:"}
		for _, format := range locator.ExpectedFormats {
			lines = append(lines, "  - "+format)
		}
		return lines
	case errors.Is(err, document.ErrForbidden):
		return []string{
			"Access denied (403)",
			"Possible reasons:",
			"  - No permission to view this presentation",
			"  - Presentation is private",
			"  - It needs to be shared with your Google account",
		}
	case errors.Is(err, document.ErrNotFound):
		return []string{
			"Presentation not found (404)",
			"Possible reasons:",
			"  - Incorrect presentation ID",
			"  - Presentation was deleted",
			"  - URL is malformed",
		}
	case errors.As(err, &statusErr):
		return []string{fmt.Sprintf("HTTP error %d: %v", statusErr.Code, statusErr.Err)}
	case errors.Is(err, auth.ErrAuthorizationFailed):
		return []string{
			"Authorization failed: " + err.Error(),
			"Run the command again to restart the consent flow.",
		}
	case errors.Is(err, document.ErrTransport):
		return []string{"Could not reach the Slides API: " + err.Error()}
	default:
		return []string{"Unexpected error: " + err.Error()}
	}
}

// PrintFailure writes the guidance for err.
func PrintFailure(w io.Writer, err error) {
	for i, line := range Guidance(err) {
		if i == 0 {
			fmt.Fprintln(w, "✗ "+line)
			continue
		}
		fmt.Fprintln(w, "  "+line)
	}
}

// PrintVerdict writes the access verdict and a sample of the content.
func PrintVerdict(w io.Writer, v *Verdict) {
	summary := v.Result.Summary()

	fmt.Fprintln(w, "✓ Successfully accessed presentation")
	fmt.Fprintf(w, "  Title:  %s\n", v.Result.Title)
	fmt.Fprintf(w, "  Slides: %d\n", summary.Slides)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sample content:")
	if summary.Slides == 0 {
		fmt.Fprintln(w, "  No slides found")
		return
	}
	fmt.Fprintf(w, "  First slide (ID: %s)\n", v.Result.Slides[0].ID)
	if v.Preview != "" {
		fmt.Fprintf(w, "    Text: %s\n", v.Preview)
	} else {
		fmt.Fprintln(w, "    No text content found in first slide")
	}
	fmt.Fprintf(w, "  Total images:      %d\n", summary.Images)
	fmt.Fprintf(w, "  Slides with notes: %d\n", summary.SlidesWithNotes)
}

// PrintExtraction writes where the artifact went and its summary.
func PrintExtraction(w io.Writer, e *Extraction) {
	fmt.Fprintf(w, "✓ Full content saved to: %s\n", e.Path)
	fmt.Fprintln(w, "Extraction summary:")
	fmt.Fprintf(w, "  Total slides:      %d\n", e.Summary.Slides)
	fmt.Fprintf(w, "  Text blocks:       %d\n", e.Summary.TextBlocks)
	fmt.Fprintf(w, "  Images:            %d\n", e.Summary.Images)
	fmt.Fprintf(w, "  Slides with notes: %d\n", e.Summary.SlidesWithNotes)
}
