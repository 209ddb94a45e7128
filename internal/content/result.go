package content

// Result is the flattened content of one presentation. Field names are part
// of the output file format and must stay stable between runs.
type Result struct {
	DocumentID string           `json:"presentation_id"`
	Title      string           `json:"title"`
	Slides     []ExtractedSlide `json:"slides"`
}

// ExtractedSlide is the flattened content of one slide.
type ExtractedSlide struct {
	Number       int         `json:"slide_number"` // 1-based, source order
	ID           string      `json:"slide_id"`
	TextBlocks   []TextBlock `json:"text_content"`
	Images       []ImageRef  `json:"images"`
	SpeakerNotes string      `json:"speaker_notes"`
}

// TextBlock is the trimmed text of a single shape.
type TextBlock struct {
	ElementID string `json:"object_id"`
	Text      string `json:"text"`
}

// ImageRef points to an image on a slide.
type ImageRef struct {
	ElementID  string `json:"object_id"`
	ContentURL string `json:"content_url"`
}

// Summary aggregates counts over a Result.
type Summary struct {
	Slides          int `json:"slides"`
	TextBlocks      int `json:"text_blocks"`
	Images          int `json:"images"`
	SlidesWithNotes int `json:"slides_with_notes"`
}

// Summary computes aggregate counts. It is recomputed on every call.
func (r *Result) Summary() Summary {
	var s Summary
	if r == nil {
		return s
	}

	s.Slides = len(r.Slides)
	for _, slide := range r.Slides {
		s.TextBlocks += len(slide.TextBlocks)
		s.Images += len(slide.Images)
		if slide.SpeakerNotes != "" {
			s.SlidesWithNotes++
		}
	}
	return s
}
