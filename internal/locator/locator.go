// Package locator resolves a recorded element descriptor to a live
// node on the current page. Strategies run in a fixed order from most
// to least reliable; the first hit wins. No side effects.
package locator

import (
	"strings"

	"cursorflow/pkg/dom"
	"cursorflow/pkg/recording"
)

const (
	// Anchors with captured text longer than this get the dedicated
	// long-title treatment before selector strategies run.
	longTextMin = 30
	// Prefix length used for partial matches on links and buttons.
	partialLen = 20
	// Inner substring bounds for the fuzzy anchor scan, skipping
	// leading boilerplate.
	innerLo = 5
	innerHi = 25
)

// Resolve returns the best live node for a descriptor, or false when
// every strategy misses.
func Resolve(desc *recording.ElementDescriptor, doc dom.Document) (dom.Node, bool) {
	if desc == nil || doc == nil {
		return nil, false
	}
	if n, ok := byID(desc, doc); ok {
		return n, true
	}
	if n, ok := byLongAnchorText(desc, doc); ok {
		return n, true
	}
	if n, ok := byDOMPath(desc, doc); ok {
		return n, true
	}
	if n, ok := byCSSSelector(desc, doc); ok {
		return n, true
	}
	if n, ok := byTagAndText(desc, doc); ok {
		return n, true
	}
	if n, ok := byPoint(desc, doc); ok {
		return n, true
	}
	return nil, false
}

func byID(desc *recording.ElementDescriptor, doc dom.Document) (dom.Node, bool) {
	if desc.ID == "" {
		return nil, false
	}
	return doc.ByID(desc.ID)
}

// byLongAnchorText handles links with long captured titles (blog post
// links get truncated or reflowed); it scans all anchors for a prefix
// match, then for a significant inner substring.
func byLongAnchorText(desc *recording.ElementDescriptor, doc dom.Document) (dom.Node, bool) {
	text := desc.TextContent
	if !strings.EqualFold(desc.TagName, "A") || len(text) <= longTextMin {
		return nil, false
	}
	links := doc.QueryAll("a")
	start := text[:longTextMin]
	for _, l := range links {
		if strings.HasPrefix(l.Text(), start) {
			return l, true
		}
	}
	inner := text[innerLo:innerHi]
	for _, l := range links {
		if strings.Contains(l.Text(), inner) {
			return l, true
		}
	}
	return nil, false
}

func byDOMPath(desc *recording.ElementDescriptor, doc dom.Document) (dom.Node, bool) {
	if len(desc.Path) == 0 {
		return nil, false
	}
	if n, ok := doc.Query(strings.Join(desc.Path, " > ")); ok {
		return n, true
	}
	// The trailing segments survive unrelated upstream DOM changes.
	if len(desc.Path) > 3 {
		tail := desc.Path[len(desc.Path)-3:]
		if n, ok := doc.Query(strings.Join(tail, " > ")); ok {
			return n, true
		}
	}
	return nil, false
}

func byCSSSelector(desc *recording.ElementDescriptor, doc dom.Document) (dom.Node, bool) {
	sel := desc.CSSSelector
	if sel == "" {
		return nil, false
	}
	if tag, text, ok := splitContains(sel); ok {
		return queryContains(doc, tag, text)
	}
	return doc.Query(sel)
}

// splitContains recognises the recorder's jQuery-like
// "tag:contains(text)" selectors, which no DOM implements natively.
func splitContains(sel string) (tag, text string, ok bool) {
	i := strings.Index(sel, ":contains(")
	if i < 0 {
		return "", "", false
	}
	tag = sel[:i]
	rest := sel[i+len(":contains("):]
	j := strings.LastIndex(rest, ")")
	if j < 0 {
		return "", "", false
	}
	text = strings.ReplaceAll(rest[:j], `"`, "")
	text = strings.ReplaceAll(text, "'", "")
	return tag, text, true
}

// queryContains is the text-containment helper replacing the
// original's querySelector monkey-patch.
func queryContains(doc dom.Document, tag, text string) (dom.Node, bool) {
	if tag == "" {
		tag = "*"
	}
	for _, n := range doc.QueryAll(tag) {
		if strings.Contains(n.Text(), text) {
			return n, true
		}
	}
	return nil, false
}

func byTagAndText(desc *recording.ElementDescriptor, doc dom.Document) (dom.Node, bool) {
	if desc.TagName == "" || desc.TextContent == "" {
		return nil, false
	}
	want := strings.TrimSpace(desc.TextContent)
	nodes := doc.QueryAll(strings.ToLower(desc.TagName))
	for _, n := range nodes {
		if strings.TrimSpace(n.Text()) == want {
			return n, true
		}
	}
	// Partial matches only for elements whose text is their identity.
	tag := strings.ToUpper(desc.TagName)
	if tag != "A" && tag != "BUTTON" {
		return nil, false
	}
	partial := want
	if len(partial) > partialLen {
		partial = partial[:partialLen]
	}
	if partial == "" {
		return nil, false
	}
	for _, n := range nodes {
		if strings.Contains(n.Text(), partial) {
			return n, true
		}
	}
	return nil, false
}

// byPoint is the last resort: whatever is stacked at the recorded
// center point, preferring something clickable.
func byPoint(desc *recording.ElementDescriptor, doc dom.Document) (dom.Node, bool) {
	if desc.ElementRect == nil {
		return nil, false
	}
	x := desc.ElementRect.Left + desc.ElementRect.Width/2
	y := desc.ElementRect.Top + desc.ElementRect.Height/2
	stack := doc.FromPoint(x, y)
	if len(stack) == 0 {
		return nil, false
	}
	for _, n := range stack {
		if n.Tag() == "A" || n.Tag() == "BUTTON" || n.Clickable() {
			return n, true
		}
	}
	return stack[0], true
}
