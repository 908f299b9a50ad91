package browser

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"cursorflow/pkg/dom"
)

// describeJS serializes an element's metadata and parks the element
// itself in the page-side ref registry so later calls (arming clicks,
// anchoring the highlight) can reach it again.
const describeJS = `function(el) {
	var reg = window.__cfNodes = window.__cfNodes || {};
	var ref = el.__cfRef;
	if (!ref || reg[ref] !== el) {
		window.__cfSeq = (window.__cfSeq || 0) + 1;
		ref = "n" + window.__cfSeq;
		el.__cfRef = ref;
		reg[ref] = el;
	}
	var r = el.getBoundingClientRect();
	var cs = window.getComputedStyle(el);
	var attrs = {};
	var names = ["href", "name", "placeholder", "type", "class", "role"];
	for (var i = 0; i < names.length; i++) {
		var v = el.getAttribute && el.getAttribute(names[i]);
		if (v) attrs[names[i]] = v;
	}
	return {
		ref: ref,
		id: el.id || "",
		tag: el.tagName || "",
		text: el.textContent || "",
		attrs: attrs,
		clickable: !!(el.onclick || attrs.role === "button"),
		rect: {left: r.left, top: r.top, width: r.width, height: r.height},
		visible: cs.display !== "none" && cs.visibility !== "hidden" && cs.opacity !== "0" && r.width > 0 && r.height > 0
	};
}`

// pageNode is the serialized element metadata.
type pageNode struct {
	NodeRef  string            `json:"ref"`
	NodeID   string            `json:"id"`
	NodeTag  string            `json:"tag"`
	NodeText string            `json:"text"`
	Attrs    map[string]string `json:"attrs"`
	HasClick bool              `json:"clickable"`
	Box      dom.Rect          `json:"rect"`
	Rendered bool              `json:"visible"`
}

func (n *pageNode) Ref() string            { return n.NodeRef }
func (n *pageNode) ID() string             { return n.NodeID }
func (n *pageNode) Tag() string            { return n.NodeTag }
func (n *pageNode) Text() string           { return n.NodeText }
func (n *pageNode) Attr(name string) string { return n.Attrs[name] }
func (n *pageNode) Clickable() bool        { return n.HasClick }
func (n *pageNode) Rect() (dom.Rect, bool) { return n.Box, n.Box.Width > 0 || n.Box.Height > 0 }
func (n *pageNode) Visible() bool          { return n.Rendered }

// pageDocument adapts the attached page to dom.Document. Queries talk
// to the live DOM on every call; there is no snapshotting, the page is
// the source of truth.
type pageDocument struct {
	c *Client
}

// Document returns the query surface of the attached page.
func (c *Client) Document() dom.Document {
	return &pageDocument{c: c}
}

func (d *pageDocument) ByID(id string) (dom.Node, bool) {
	script := fmt.Sprintf(`(function() {
		var d = %s;
		var el = document.getElementById(%s);
		return JSON.stringify(el ? [d(el)] : []);
	})()`, describeJS, strconv.Quote(id))
	nodes := d.run(script)
	if len(nodes) == 0 {
		return nil, false
	}
	return nodes[0], true
}

func (d *pageDocument) Query(selector string) (dom.Node, bool) {
	nodes := d.queryAll(selector, 1)
	if len(nodes) == 0 {
		return nil, false
	}
	return nodes[0], true
}

func (d *pageDocument) QueryAll(selector string) []dom.Node {
	return d.queryAll(selector, 0)
}

func (d *pageDocument) queryAll(selector string, limit int) []dom.Node {
	script := fmt.Sprintf(`(function() {
		var d = %s;
		var out = [];
		var list;
		try { list = document.querySelectorAll(%s); } catch (e) { return "[]"; }
		var n = %d > 0 ? Math.min(list.length, %d) : list.length;
		for (var i = 0; i < n; i++) out.push(d(list[i]));
		return JSON.stringify(out);
	})()`, describeJS, strconv.Quote(selector), limit, limit)
	return d.run(script)
}

func (d *pageDocument) FromPoint(x, y float64) []dom.Node {
	script := fmt.Sprintf(`(function() {
		var d = %s;
		var list = document.elementsFromPoint(%g, %g) || [];
		var out = [];
		for (var i = 0; i < list.length; i++) out.push(d(list[i]));
		return JSON.stringify(out);
	})()`, describeJS, x, y)
	return d.run(script)
}

func (d *pageDocument) Path() string {
	p, err := d.c.EvalResult(d.c.ctx, "window.location.pathname")
	if err != nil || p == "" {
		return "/"
	}
	return p
}

func (d *pageDocument) URL() string {
	u, err := d.c.EvalResult(d.c.ctx, "window.location.href")
	if err != nil {
		return ""
	}
	return u
}

// run evaluates a query script that returns a JSON array of node
// descriptors. Query failures degrade to an empty result, same as a
// selector that matched nothing.
func (d *pageDocument) run(script string) []dom.Node {
	raw, err := d.c.EvalResult(d.c.ctx, script)
	if err != nil {
		d.c.log.Debug().Err(err).Msg("dom query failed")
		return nil
	}
	var decoded []*pageNode
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		d.c.log.Debug().Err(err).Msg("dom query returned malformed descriptors")
		return nil
	}
	nodes := make([]dom.Node, 0, len(decoded))
	for _, n := range decoded {
		nodes = append(nodes, n)
	}
	return nodes
}

func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
