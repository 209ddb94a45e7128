// Package content holds the decoded presentation tree and flattens it into a
// stable, serializable extraction record.
package content

// Document is a presentation as returned by the document service, decoded
// into closed variants. It is read-only input to extraction.
type Document struct {
	ID     string
	Title  string
	Locale string
	Slides []Slide
}

// Slide is one page of a presentation.
type Slide struct {
	ID       string
	Elements []PageElement
	Notes    *NotesPage // nil when the slide has no notes page
}

// NotesPage is the speaker notes page attached to a slide.
type NotesPage struct {
	Elements []PageElement
}

// PageElement is one visual object on a page. The set of implementations is
// closed: TextShape, Image, Group and Other.
type PageElement interface {
	ElementID() string
	pageElement()
}

// TextShape is a shape with a text container. Runs holds the content of each
// text run in source order.
type TextShape struct {
	ID   string
	Runs []string
}

// Image is an embedded picture.
type Image struct {
	ID         string
	ContentURL string
}

// Group is a set of page elements grouped together.
type Group struct {
	ID       string
	Children []PageElement
}

// Other is any element that carries neither text nor an image (lines, videos,
// charts, tables and so on).
type Other struct {
	ID   string
	Kind string
}

func (e TextShape) ElementID() string { return e.ID }
func (e Image) ElementID() string     { return e.ID }
func (e Group) ElementID() string     { return e.ID }
func (e Other) ElementID() string     { return e.ID }

func (TextShape) pageElement() {}
func (Image) pageElement()     {}
func (Group) pageElement()     {}
func (Other) pageElement()     {}
