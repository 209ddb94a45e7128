// Package locator turns user-supplied presentation URLs or bare IDs into
// canonical presentation identifiers.
package locator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidLocator is returned when the input matches none of the recognized forms.
var ErrInvalidLocator = errors.New("invalid presentation URL or ID")

// ID is a validated presentation identifier.
type ID string

// String returns the identifier as a plain string.
func (id ID) String() string {
	return string(id)
}

// Patterns are tried in order; the first match wins. A URL such as
// ".../presentation/d/A/edit?id=B" must resolve to A.
var (
	pathPattern  = regexp.MustCompile(`/presentation/d/([a-zA-Z0-9_-]+)`)
	queryPattern = regexp.MustCompile(`id=([a-zA-Z0-9_-]+)`)
	barePattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ExpectedFormats lists the locator forms accepted by Resolve, for help output.
var ExpectedFormats = []string{
	"https://docs.google.com/presentation/d/PRESENTATION_ID/edit",
	"https://drive.google.com/open?id=PRESENTATION_ID",
	"PRESENTATION_ID",
}

// Resolve extracts a presentation ID from a URL or accepts a bare ID.
func Resolve(locator string) (ID, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidLocator)
	}

	for _, pattern := range []*regexp.Regexp{pathPattern, queryPattern} {
		if m := pattern.FindStringSubmatch(locator); m != nil {
			return ID(m[1]), nil
		}
	}

	if barePattern.MatchString(locator) {
		return ID(locator), nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
}
