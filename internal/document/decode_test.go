package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/slides/v1"

	"github.com/smorand/slides-checker/internal/content"
)

func textShape(id string, runs ...string) *slides.PageElement {
	elements := make([]*slides.TextElement, 0, len(runs)+1)
	elements = append(elements, &slides.TextElement{ParagraphMarker: &slides.ParagraphMarker{}})
	for _, run := range runs {
		elements = append(elements, &slides.TextElement{TextRun: &slides.TextRun{Content: run}})
	}
	return &slides.PageElement{
		ObjectId: id,
		Shape:    &slides.Shape{ShapeType: "TEXT_BOX", Text: &slides.TextContent{TextElements: elements}},
	}
}

func TestDecode_FullPresentation(t *testing.T) {
	p := &slides.Presentation{
		PresentationId: "ABC123",
		Title:          "Quarterly Review",
		Locale:         "en",
		Slides: []*slides.Page{
			{
				ObjectId: "s1",
				PageElements: []*slides.PageElement{
					textShape("t1", "Hel", "lo"),
					{ObjectId: "i1", Image: &slides.Image{ContentUrl: "https://example.com/a.png"}},
					{
						ObjectId: "g1",
						ElementGroup: &slides.Group{Children: []*slides.PageElement{
							textShape("t2", "inside group"),
							nil,
						}},
					},
					{ObjectId: "l1", Line: &slides.Line{}},
					{ObjectId: "tb1", Table: &slides.Table{}},
					nil,
				},
				SlideProperties: &slides.SlideProperties{
					NotesPage: &slides.Page{
						PageElements: []*slides.PageElement{textShape("n1", "Remember the demo")},
					},
				},
			},
		},
	}

	doc := Decode(p, "ignored")

	assert.Equal(t, "ABC123", doc.ID)
	assert.Equal(t, "Quarterly Review", doc.Title)
	assert.Equal(t, "en", doc.Locale)
	require.Len(t, doc.Slides, 1)

	slide := doc.Slides[0]
	assert.Equal(t, "s1", slide.ID)
	assert.Equal(t, []content.PageElement{
		content.TextShape{ID: "t1", Runs: []string{"Hel", "lo"}},
		content.Image{ID: "i1", ContentURL: "https://example.com/a.png"},
		content.Group{ID: "g1", Children: []content.PageElement{
			content.TextShape{ID: "t2", Runs: []string{"inside group"}},
		}},
		content.Other{ID: "l1", Kind: "line"},
		content.Other{ID: "tb1", Kind: "table"},
	}, slide.Elements)

	require.NotNil(t, slide.Notes)
	assert.Equal(t, []content.PageElement{
		content.TextShape{ID: "n1", Runs: []string{"Remember the demo"}},
	}, slide.Notes.Elements)
}

func TestDecode_FallsBackToRequestedID(t *testing.T) {
	doc := Decode(&slides.Presentation{Title: "Untitled"}, "REQ-1")

	assert.Equal(t, "REQ-1", doc.ID)
	assert.NotNil(t, doc.Slides)
	assert.Empty(t, doc.Slides)
}

func TestDecode_NilPresentation(t *testing.T) {
	doc := Decode(nil, "REQ-1")

	require.NotNil(t, doc)
	assert.Equal(t, "REQ-1", doc.ID)
}

func TestDecode_MissingSubstructures(t *testing.T) {
	p := &slides.Presentation{
		PresentationId: "ABC123",
		Slides: []*slides.Page{
			nil,
			{ObjectId: "s2"},
			{ObjectId: "s3", SlideProperties: &slides.SlideProperties{}},
			{ObjectId: "s4", PageElements: []*slides.PageElement{{ObjectId: "sh", Shape: &slides.Shape{}}}},
		},
	}

	doc := Decode(p, "ABC123")

	require.Len(t, doc.Slides, 4, "slide numbering is preserved")
	assert.Nil(t, doc.Slides[1].Notes)
	assert.Nil(t, doc.Slides[2].Notes)
	assert.Equal(t, []content.PageElement{content.TextShape{ID: "sh"}}, doc.Slides[3].Elements)
}

func TestDecode_ExtractsThroughPipeline(t *testing.T) {
	p := &slides.Presentation{
		PresentationId: "ABC123",
		Title:          "Deck",
		Slides: []*slides.Page{
			{
				ObjectId:     "s1",
				PageElements: []*slides.PageElement{textShape("t1", "Hello ", "World\n")},
				SlideProperties: &slides.SlideProperties{
					NotesPage: &slides.Page{PageElements: []*slides.PageElement{
						textShape("n0", content.DefaultNotesPlaceholder),
						textShape("n1", "Speak slowly\n"),
					}},
				},
			},
		},
	}

	result := content.NewExtractor(content.DefaultExtractorConfig()).Extract(Decode(p, "ABC123"))

	require.Len(t, result.Slides, 1)
	assert.Equal(t, "Hello World", result.Slides[0].TextBlocks[0].Text)
	assert.Equal(t, "Speak slowly", result.Slides[0].SpeakerNotes)
}
