// Package domtest provides in-memory dom implementations for tests.
package domtest

import (
	"strings"

	"cursorflow/pkg/dom"
)

// Node is a scriptable dom.Node.
type Node struct {
	NodeRef   string
	NodeID    string
	NodeTag   string // upper-case
	NodeText  string
	Attrs     map[string]string
	HasClick  bool
	Box       *dom.Rect
	Hidden    bool
	Selectors []string // selectors this node answers to
}

func (n *Node) Ref() string  { return n.NodeRef }
func (n *Node) ID() string   { return n.NodeID }
func (n *Node) Tag() string  { return n.NodeTag }
func (n *Node) Text() string { return n.NodeText }

func (n *Node) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

func (n *Node) Clickable() bool { return n.HasClick }

func (n *Node) Rect() (dom.Rect, bool) {
	if n.Box == nil {
		return dom.Rect{}, false
	}
	return *n.Box, true
}

func (n *Node) Visible() bool {
	if n.Hidden {
		return false
	}
	return n.Box == nil || (n.Box.Width > 0 && n.Box.Height > 0)
}

// Document is a fake page. Selector matching is deliberately shallow:
// a node matches a selector when the selector equals its tag
// (case-insensitive), its "#id", or appears in Selectors. Comma lists
// are split and matched piecewise.
type Document struct {
	Nodes    []*Node
	PagePath string
	PageURL  string
	// AtPoint maps "x,y" probes to stacked nodes; when empty, FromPoint
	// returns nodes whose box contains the point.
	AtPoint []*Node
}

func (d *Document) Path() string { return d.PagePath }
func (d *Document) URL() string  { return d.PageURL }

func (d *Document) ByID(id string) (dom.Node, bool) {
	for _, n := range d.Nodes {
		if n.NodeID == id && id != "" {
			return n, true
		}
	}
	return nil, false
}

func (d *Document) Query(selector string) (dom.Node, bool) {
	all := d.QueryAll(selector)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

func (d *Document) QueryAll(selector string) []dom.Node {
	var out []dom.Node
	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		for _, n := range d.Nodes {
			if d.matches(n, part) && !contains(out, n) {
				out = append(out, n)
			}
		}
	}
	return out
}

func (d *Document) FromPoint(x, y float64) []dom.Node {
	if len(d.AtPoint) > 0 {
		out := make([]dom.Node, 0, len(d.AtPoint))
		for _, n := range d.AtPoint {
			out = append(out, n)
		}
		return out
	}
	var out []dom.Node
	for _, n := range d.Nodes {
		if n.Box == nil {
			continue
		}
		b := *n.Box
		if x >= b.Left && x <= b.Left+b.Width && y >= b.Top && y <= b.Top+b.Height {
			out = append(out, n)
		}
	}
	return out
}

func (d *Document) matches(n *Node, selector string) bool {
	if selector == "" {
		return false
	}
	if strings.EqualFold(selector, n.NodeTag) {
		return true
	}
	if strings.HasPrefix(selector, "#") && selector[1:] == n.NodeID {
		return true
	}
	for _, s := range n.Selectors {
		if s == selector {
			return true
		}
	}
	return false
}

func contains(nodes []dom.Node, n dom.Node) bool {
	for _, v := range nodes {
		if v == n {
			return true
		}
	}
	return false
}
