package content

import "strings"

// DefaultNotesPlaceholder is the text Google Slides shows in an empty notes box.
const DefaultNotesPlaceholder = "Click to add speaker notes"

// UntitledTitle replaces an empty presentation title.
const UntitledTitle = "Untitled"

// ExtractorConfig holds configuration for the extractor.
type ExtractorConfig struct {
	// NotesPlaceholders are exact strings that mark an empty notes box.
	// Localized editors use different phrases.
	NotesPlaceholders []string
}

// DefaultExtractorConfig returns default configuration.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		NotesPlaceholders: []string{DefaultNotesPlaceholder},
	}
}

// Extractor flattens documents into Results. It holds no state besides its
// configuration and is safe for concurrent use.
type Extractor struct {
	placeholders map[string]struct{}
}

// NewExtractor creates a new Extractor.
func NewExtractor(config ExtractorConfig) *Extractor {
	placeholders := make(map[string]struct{}, len(config.NotesPlaceholders))
	for _, p := range config.NotesPlaceholders {
		placeholders[p] = struct{}{}
	}
	return &Extractor{placeholders: placeholders}
}

// Extract flattens doc. Missing sub-structures yield empty fields, never errors.
func (x *Extractor) Extract(doc *Document) *Result {
	result := &Result{Slides: []ExtractedSlide{}}
	if doc == nil {
		return result
	}

	result.DocumentID = doc.ID
	result.Title = doc.Title
	if strings.TrimSpace(result.Title) == "" {
		result.Title = UntitledTitle
	}
	result.Slides = make([]ExtractedSlide, len(doc.Slides))
	for i, slide := range doc.Slides {
		result.Slides[i] = x.extractSlide(i+1, slide)
	}
	return result
}

func (x *Extractor) extractSlide(number int, slide Slide) ExtractedSlide {
	out := ExtractedSlide{
		Number:     number,
		ID:         slide.ID,
		TextBlocks: []TextBlock{},
		Images:     []ImageRef{},
	}

	walkElements(slide.Elements, func(element PageElement) {
		switch e := element.(type) {
		case TextShape:
			if text := shapeText(e); text != "" {
				out.TextBlocks = append(out.TextBlocks, TextBlock{ElementID: e.ID, Text: text})
			}
		case Image:
			out.Images = append(out.Images, ImageRef{ElementID: e.ID, ContentURL: e.ContentURL})
		}
	})

	if slide.Notes != nil {
		out.SpeakerNotes = x.speakerNotes(slide.Notes)
	}
	return out
}

// speakerNotes returns the first non-empty notes text that is not a placeholder.
func (x *Extractor) speakerNotes(notes *NotesPage) string {
	var found string
	walkElements(notes.Elements, func(element PageElement) {
		shape, ok := element.(TextShape)
		if !ok || found != "" {
			return
		}
		text := shapeText(shape)
		if text == "" {
			return
		}
		if _, placeholder := x.placeholders[text]; placeholder {
			return
		}
		found = text
	})
	return found
}

// walkElements visits elements depth-first in source order, descending into groups.
func walkElements(elements []PageElement, visit func(PageElement)) {
	for _, element := range elements {
		if element == nil {
			continue
		}
		if group, ok := element.(Group); ok {
			walkElements(group.Children, visit)
			continue
		}
		visit(element)
	}
}

// shapeText concatenates all runs and trims the result once. Individual runs
// are never trimmed.
func shapeText(shape TextShape) string {
	var builder strings.Builder
	for _, run := range shape.Runs {
		builder.WriteString(run)
	}
	return strings.TrimSpace(builder.String())
}
