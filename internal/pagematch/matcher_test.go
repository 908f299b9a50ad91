package pagematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cursorflow/pkg/dom/domtest"
	"cursorflow/pkg/recording"
)

func rec(paths ...string) *recording.Recording {
	r := &recording.Recording{}
	for _, p := range paths {
		r.Interactions = append(r.Interactions, recording.InteractionStep{
			Type:     "click",
			PageInfo: recording.PageInfo{Path: p, URL: "https://example.com" + p},
		})
	}
	return r
}

func TestComparePathsIdentical(t *testing.T) {
	assert.Equal(t, 1.0, ComparePaths("/writing", "/writing"))
	assert.Equal(t, 1.0, ComparePaths("/", "/"))
}

func TestComparePathsIDSegments(t *testing.T) {
	// Two blog posts share the shape /blog/<slug>.
	got := ComparePaths("/blog/abc-123", "/blog/xyz-987")
	assert.InDelta(t, 0.9, got, 0.0001) // (1 + 0.8) / 2

	got = ComparePaths("/orders/12345", "/orders/98765")
	assert.InDelta(t, 0.9, got, 0.0001)
}

func TestComparePathsDifferentPages(t *testing.T) {
	assert.Less(t, ComparePaths("/blog/abc-123", "/about"), 0.5)
	assert.Equal(t, 0.0, ComparePaths("/a/b", "/c/d"))
}

func TestComparePathsLengthMismatch(t *testing.T) {
	// Extra trailing segments dilute the score over the longer path.
	got := ComparePaths("/docs/intro", "/docs/intro/setup")
	assert.InDelta(t, 2.0/3.0, got, 0.0001)
}

func TestMatchStepExactPathWins(t *testing.T) {
	r := rec("/", "/writing", "/writing/post-one")
	doc := &domtest.Document{PagePath: "/writing", PageURL: "https://example.com/writing"}

	m := New(DefaultWeights(), DefaultThresholds())
	idx, ok := m.MatchStep(r, doc)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestMatchStepFuzzyPath(t *testing.T) {
	r := rec("/", "/blog/recorded-post")
	// Live page is a different post under the same route shape.
	doc := &domtest.Document{PagePath: "/blog/another-post", PageURL: "https://example.com/blog/another-post"}

	m := New(DefaultWeights(), DefaultThresholds())
	idx, ok := m.MatchStep(r, doc)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestMatchStepNoMatch(t *testing.T) {
	r := rec("/", "/writing")
	doc := &domtest.Document{PagePath: "/completely/elsewhere", PageURL: "https://example.com/completely/elsewhere"}

	m := New(DefaultWeights(), DefaultThresholds())
	_, ok := m.MatchStep(r, doc)
	assert.False(t, ok)
}

func TestMatchStepSkipsForeignHost(t *testing.T) {
	r := &recording.Recording{Interactions: []recording.InteractionStep{{
		Type:     "click",
		PageInfo: recording.PageInfo{Path: "/blog/one-two", URL: "https://other.example.net/blog/one-two"},
	}}}
	doc := &domtest.Document{PagePath: "/blog/three-four", PageURL: "https://example.com/blog/three-four"}

	m := New(DefaultWeights(), DefaultThresholds())
	_, ok := m.MatchStep(r, doc)
	assert.False(t, ok)
}

func TestCompareFingerprintsSamePage(t *testing.T) {
	fp := recording.PageFingerprint{
		URL:             "/writing",
		Headings:        []string{"Writing", "Recent Posts"},
		NavItems:        []string{"Home", "Writing", "About"},
		ContentElements: []string{"A long enough first paragraph of the page"},
	}
	m := New(DefaultWeights(), DefaultThresholds())
	assert.InDelta(t, 1.0, m.CompareFingerprints(fp, fp), 0.0001)
}

func TestCompareFingerprintsDrift(t *testing.T) {
	a := recording.PageFingerprint{
		URL:      "/writing",
		Headings: []string{"Writing", "Recent Posts"},
		NavItems: []string{"Home", "Writing", "About"},
	}
	b := recording.PageFingerprint{
		URL:      "/writing",
		Headings: []string{"Writing", "Archive"}, // one heading changed
		NavItems: []string{"Home", "Writing", "About"},
	}
	m := New(DefaultWeights(), DefaultThresholds())
	got := m.CompareFingerprints(a, b)
	assert.Greater(t, got, m.t.Fingerprint)

	c := recording.PageFingerprint{
		URL:      "/shop",
		Headings: []string{"Products"},
		NavItems: []string{"Cart", "Checkout"},
	}
	assert.Less(t, m.CompareFingerprints(a, c), m.t.Fingerprint)
}

func TestCompareArraysPartialFallback(t *testing.T) {
	a := []string{"Getting Started with Go", "Release Notes 2024"}
	b := []string{"Getting Started with Go — updated", "Release Notes 2024 (archive)"}
	// No exact hits, both contained: 0.7 each over the smaller array.
	assert.InDelta(t, 0.7, compareArrays(a, b), 0.0001)
}

func TestOnPath(t *testing.T) {
	r := rec("/", "/writing", "/about")
	assert.True(t, OnPath(r, "/about", 0))
	assert.True(t, OnPath(r, "/about", 2))
	assert.False(t, OnPath(r, "/about", 3))
	assert.False(t, OnPath(r, "/missing", 0))
}

func TestIsIDSegment(t *testing.T) {
	assert.True(t, isIDSegment("12345"))
	assert.True(t, isIDSegment("9f8a7b6c5d"))
	assert.True(t, isIDSegment("my-first-post"))
	assert.False(t, isIDSegment("writing"))
	assert.False(t, isIDSegment("About"))
}

func TestCaptureFingerprint(t *testing.T) {
	doc := &domtest.Document{
		PagePath: "/writing",
		Nodes: []*domtest.Node{
			{NodeTag: "H1", NodeText: "Writing"},
			{NodeTag: "H2", NodeText: "  Recent Posts "},
			{NodeTag: "A", NodeText: "Home", Selectors: []string{"nav a"}},
			{NodeTag: "A", NodeText: "About", Selectors: []string{"nav a"}},
			{NodeTag: "P", NodeText: "This paragraph is comfortably longer than twenty characters and then some more.", Selectors: []string{"main p"}},
			{NodeTag: "P", NodeText: "too short", Selectors: []string{"main p"}},
			{NodeTag: "INPUT", Attrs: map[string]string{"name": "email"}, Selectors: []string{`input[type="email"]`}},
		},
	}

	fp := Capture(doc)
	assert.Equal(t, "/writing", fp.URL)
	assert.Equal(t, []string{"Writing", "Recent Posts"}, fp.Headings)
	assert.Equal(t, []string{"Home", "About"}, fp.NavItems)
	require.Len(t, fp.ContentElements, 1)
	assert.Len(t, fp.ContentElements[0], 50)
	assert.Equal(t, []string{"INPUT:email"}, fp.FormElements)
}
