package pagematch

import (
	"fmt"
	"strings"
	"time"

	"cursorflow/pkg/dom"
	"cursorflow/pkg/recording"
)

const snippetLen = 50

// Capture summarises the live page into a fingerprint comparable with
// the ones captured at record time.
func Capture(doc dom.Document) recording.PageFingerprint {
	fp := recording.PageFingerprint{
		URL:       doc.Path(),
		Timestamp: time.Now().UnixMilli(),
	}

	for _, h := range doc.QueryAll("h1, h2") {
		if t := strings.TrimSpace(h.Text()); t != "" {
			fp.Headings = append(fp.Headings, t)
		}
	}
	for _, a := range doc.QueryAll("nav a, .navigation a, .menu a") {
		if t := strings.TrimSpace(a.Text()); t != "" {
			fp.NavItems = append(fp.NavItems, t)
		}
	}
	for _, p := range doc.QueryAll("main p, article p, .content p") {
		t := strings.TrimSpace(p.Text())
		if len(t) <= 20 {
			continue
		}
		if len(t) > snippetLen {
			t = t[:snippetLen]
		}
		fp.ContentElements = append(fp.ContentElements, t)
	}
	for _, el := range doc.QueryAll(`form, input[type="text"], input[type="email"], button[type="submit"]`) {
		identity := el.ID()
		if identity == "" {
			identity = el.Attr("name")
		}
		if identity == "" {
			identity = el.Attr("placeholder")
		}
		if identity != "" {
			fp.FormElements = append(fp.FormElements, fmt.Sprintf("%s:%s", el.Tag(), identity))
		}
	}
	return fp
}
