package locator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cursorflow/pkg/dom"
	"cursorflow/pkg/dom/domtest"
	"cursorflow/pkg/recording"
)

func TestResolveByIDBeatsText(t *testing.T) {
	decoy := &domtest.Node{NodeRef: "r1", NodeTag: "A", NodeText: "Contact"}
	target := &domtest.Node{NodeRef: "r2", NodeID: "contact-link", NodeTag: "A", NodeText: "Reach out"}
	doc := &domtest.Document{Nodes: []*domtest.Node{decoy, target}}

	n, ok := Resolve(&recording.ElementDescriptor{
		ID: "contact-link", TagName: "A", TextContent: "Contact",
	}, doc)
	require.True(t, ok)
	assert.Equal(t, "r2", n.Ref())
}

func TestResolveLongAnchorPrefix(t *testing.T) {
	title := "How I Learned to Stop Worrying and Love Deterministic Builds"
	link := &domtest.Node{NodeRef: "r1", NodeTag: "A", NodeText: title + " — 12 min read"}
	doc := &domtest.Document{Nodes: []*domtest.Node{
		{NodeRef: "r0", NodeTag: "A", NodeText: "Home"},
		link,
	}}

	n, ok := Resolve(&recording.ElementDescriptor{TagName: "A", TextContent: title}, doc)
	require.True(t, ok)
	assert.Equal(t, "r1", n.Ref())
}

func TestResolveLongAnchorInnerSubstring(t *testing.T) {
	title := "Notes on Building Resilient Data Pipelines in Production"
	// The live link was reworded but kept the middle of the title.
	link := &domtest.Node{NodeRef: "r1", NodeTag: "A", NodeText: "Essays on Building Resilient Data Pipelines"}
	doc := &domtest.Document{Nodes: []*domtest.Node{link}}

	n, ok := Resolve(&recording.ElementDescriptor{TagName: "A", TextContent: title}, doc)
	require.True(t, ok)
	assert.Equal(t, "r1", n.Ref())
}

func TestResolveByDOMPath(t *testing.T) {
	sel := "main > div:nth-child(2) > a:nth-child(1)"
	node := &domtest.Node{NodeRef: "r1", NodeTag: "A", Selectors: []string{sel}}
	doc := &domtest.Document{Nodes: []*domtest.Node{node}}

	n, ok := Resolve(&recording.ElementDescriptor{
		TagName: "A",
		Path:    []string{"main", "div:nth-child(2)", "a:nth-child(1)"},
	}, doc)
	require.True(t, ok)
	assert.Equal(t, "r1", n.Ref())
}

func TestResolveByDOMPathTrailingSegments(t *testing.T) {
	// The full path misses because an ancestor changed; the last three
	// segments still resolve.
	tail := "section > div:nth-child(1) > button:nth-child(2)"
	node := &domtest.Node{NodeRef: "r1", NodeTag: "BUTTON", Selectors: []string{tail}}
	doc := &domtest.Document{Nodes: []*domtest.Node{node}}

	n, ok := Resolve(&recording.ElementDescriptor{
		TagName: "BUTTON",
		Path:    []string{"body", "div#old-wrapper", "section", "div:nth-child(1)", "button:nth-child(2)"},
	}, doc)
	require.True(t, ok)
	assert.Equal(t, "r1", n.Ref())
}

func TestResolveContainsSelector(t *testing.T) {
	node := &domtest.Node{NodeRef: "r1", NodeTag: "BUTTON", NodeText: "Subscribe to updates"}
	doc := &domtest.Document{Nodes: []*domtest.Node{
		{NodeRef: "r0", NodeTag: "BUTTON", NodeText: "Cancel"},
		node,
	}}

	n, ok := Resolve(&recording.ElementDescriptor{
		TagName:     "BUTTON",
		CSSSelector: `button:contains("Subscribe")`,
	}, doc)
	require.True(t, ok)
	assert.Equal(t, "r1", n.Ref())
}

func TestResolveByTagAndExactText(t *testing.T) {
	node := &domtest.Node{NodeRef: "r1", NodeTag: "SPAN", NodeText: "  Details  "}
	doc := &domtest.Document{Nodes: []*domtest.Node{node}}

	n, ok := Resolve(&recording.ElementDescriptor{TagName: "SPAN", TextContent: "Details"}, doc)
	require.True(t, ok)
	assert.Equal(t, "r1", n.Ref())
}

func TestResolvePartialTextOnlyForLinksAndButtons(t *testing.T) {
	text := "Read the full migration guide for details"

	link := &domtest.Node{NodeRef: "r1", NodeTag: "A", NodeText: text + " (updated)"}
	doc := &domtest.Document{Nodes: []*domtest.Node{link}}
	n, ok := Resolve(&recording.ElementDescriptor{TagName: "a", TextContent: text[:28]}, doc)
	require.True(t, ok)
	assert.Equal(t, "r1", n.Ref())

	// Same shape on a div: partial matching must not apply.
	div := &domtest.Node{NodeRef: "r2", NodeTag: "DIV", NodeText: text + " (updated)"}
	doc = &domtest.Document{Nodes: []*domtest.Node{div}}
	_, ok = Resolve(&recording.ElementDescriptor{TagName: "DIV", TextContent: text[:28]}, doc)
	assert.False(t, ok)
}

func TestResolveByPointPrefersClickable(t *testing.T) {
	box := dom.Rect{Left: 100, Top: 200, Width: 80, Height: 40}
	backdrop := &domtest.Node{NodeRef: "r1", NodeTag: "DIV", Box: &box}
	link := &domtest.Node{NodeRef: "r2", NodeTag: "A", Box: &box}
	doc := &domtest.Document{
		Nodes:   []*domtest.Node{backdrop, link},
		AtPoint: []*domtest.Node{backdrop, link},
	}

	n, ok := Resolve(&recording.ElementDescriptor{
		TagName:     "A",
		ElementRect: &recording.Rect{Left: 100, Top: 200, Width: 80, Height: 40},
	}, doc)
	require.True(t, ok)
	assert.Equal(t, "r2", n.Ref())
}

func TestResolveNothingMatches(t *testing.T) {
	doc := &domtest.Document{Nodes: []*domtest.Node{
		{NodeRef: "r1", NodeTag: "P", NodeText: "unrelated"},
	}}
	_, ok := Resolve(&recording.ElementDescriptor{
		ID: "gone", TagName: "A", TextContent: "missing link",
		CSSSelector: "#gone",
	}, doc)
	assert.False(t, ok)
}

func TestSplitContains(t *testing.T) {
	tag, text, ok := splitContains(`a:contains("Read more")`)
	require.True(t, ok)
	assert.Equal(t, "a", tag)
	assert.Equal(t, "Read more", text)

	_, _, ok = splitContains("a.nav-link")
	assert.False(t, ok)
}

func TestLongAnchorRequiresLongText(t *testing.T) {
	short := "Short link"
	require.Less(t, len(short), longTextMin)
	link := &domtest.Node{NodeRef: "r1", NodeTag: "A", NodeText: short}
	doc := &domtest.Document{Nodes: []*domtest.Node{link}}

	// Short text falls through to tag+text, which still resolves; the
	// point is that the long-anchor scan stays out of the way.
	n, ok := byLongAnchorText(&recording.ElementDescriptor{TagName: "A", TextContent: short}, doc)
	assert.False(t, ok)
	assert.Nil(t, n)

	got, ok := Resolve(&recording.ElementDescriptor{TagName: "A", TextContent: short}, doc)
	require.True(t, ok)
	assert.True(t, strings.EqualFold("A", got.Tag()))
}
