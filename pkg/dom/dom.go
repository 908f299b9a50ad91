package dom

// Rect is an element bounding box in viewport coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the rect.
func (r Rect) Center() (x, y float64) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}

// Node is a live element on the current page.
type Node interface {
	// Ref is an opaque handle the owning document can act on later
	// (arming listeners, anchoring the highlight loop).
	Ref() string
	ID() string
	// Tag is the upper-case tag name, e.g. "A".
	Tag() string
	// Text is the full text content of the node.
	Text() string
	Attr(name string) string
	// Clickable reports whether the node carries a click handler
	// beyond what its tag implies.
	Clickable() bool
	Rect() (Rect, bool)
	Visible() bool
}

// Document is the query surface of the current page. Implementations
// must not mutate the page.
type Document interface {
	// ByID resolves a node by its id attribute.
	ByID(id string) (Node, bool)
	// Query returns the first match for a CSS selector.
	Query(selector string) (Node, bool)
	// QueryAll returns every match for a CSS selector, in document order.
	QueryAll(selector string) []Node
	// FromPoint returns the nodes stacked at a viewport point,
	// topmost first.
	FromPoint(x, y float64) []Node
	// Path is the current location pathname.
	Path() string
	// URL is the full current location.
	URL() string
}

// IsVisible reports whether a node is rendered: display not none,
// visibility not hidden, non-zero opacity and a non-zero box.
func IsVisible(n Node) bool {
	return n != nil && n.Visible()
}
