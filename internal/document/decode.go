package document

import (
	"google.golang.org/api/slides/v1"

	"github.com/smorand/slides-checker/internal/content"
	"github.com/smorand/slides-checker/internal/locator"
)

// Decode converts an API presentation into a content.Document. The
// presentation's own ID is used when present, otherwise requested.
// Missing substructures decode to empty values rather than failing.
func Decode(p *slides.Presentation, requested locator.ID) *content.Document {
	doc := &content.Document{ID: requested.String()}
	if p == nil {
		return doc
	}
	if p.PresentationId != "" {
		doc.ID = p.PresentationId
	}
	doc.Title = p.Title
	doc.Locale = p.Locale

	doc.Slides = make([]content.Slide, 0, len(p.Slides))
	for _, page := range p.Slides {
		doc.Slides = append(doc.Slides, decodeSlide(page))
	}
	return doc
}

func decodeSlide(page *slides.Page) content.Slide {
	if page == nil {
		return content.Slide{}
	}

	slide := content.Slide{
		ID:       page.ObjectId,
		Elements: decodeElements(page.PageElements),
	}
	if props := page.SlideProperties; props != nil && props.NotesPage != nil {
		slide.Notes = &content.NotesPage{
			Elements: decodeElements(props.NotesPage.PageElements),
		}
	}
	return slide
}

func decodeElements(elements []*slides.PageElement) []content.PageElement {
	out := make([]content.PageElement, 0, len(elements))
	for _, el := range elements {
		if el == nil {
			continue
		}
		out = append(out, decodeElement(el))
	}
	return out
}

func decodeElement(el *slides.PageElement) content.PageElement {
	switch {
	case el.Shape != nil:
		return content.TextShape{ID: el.ObjectId, Runs: textRuns(el.Shape.Text)}
	case el.Image != nil:
		return content.Image{ID: el.ObjectId, ContentURL: el.Image.ContentUrl}
	case el.ElementGroup != nil:
		return content.Group{ID: el.ObjectId, Children: decodeElements(el.ElementGroup.Children)}
	default:
		return content.Other{ID: el.ObjectId, Kind: elementKind(el)}
	}
}

// textRuns returns the content of every text run, skipping paragraph markers
// and auto text.
func textRuns(text *slides.TextContent) []string {
	if text == nil {
		return nil
	}

	var runs []string
	for _, te := range text.TextElements {
		if te != nil && te.TextRun != nil {
			runs = append(runs, te.TextRun.Content)
		}
	}
	return runs
}

func elementKind(el *slides.PageElement) string {
	switch {
	case el.Table != nil:
		return "table"
	case el.Line != nil:
		return "line"
	case el.Video != nil:
		return "video"
	case el.SheetsChart != nil:
		return "sheets_chart"
	case el.WordArt != nil:
		return "word_art"
	case el.SpeakerSpotlight != nil:
		return "speaker_spotlight"
	default:
		return "unknown"
	}
}
