// Package pagematch decides where in a recorded flow the user
// currently stands, from the live page alone. Exact path matches win;
// otherwise a weighted fingerprint similarity re-anchors the flow.
package pagematch

import (
	"net/url"
	"regexp"
	"strings"

	"cursorflow/pkg/dom"
	"cursorflow/pkg/recording"
)

// Weights for the fingerprint similarity score. The values were tuned
// empirically on the recorded walkthroughs, so they stay configurable.
type Weights struct {
	URL      float64 `yaml:"url"`
	Headings float64 `yaml:"headings"`
	NavItems float64 `yaml:"navItems"`
	Content  float64 `yaml:"content"`
}

// Thresholds for accepting a fuzzy match.
type Thresholds struct {
	Fingerprint float64 `yaml:"fingerprint"`
	Path        float64 `yaml:"path"`
}

// DefaultWeights mirrors the tuned constants.
func DefaultWeights() Weights {
	return Weights{URL: 0.4, Headings: 0.3, NavItems: 0.15, Content: 0.15}
}

// DefaultThresholds mirrors the tuned constants.
func DefaultThresholds() Thresholds {
	return Thresholds{Fingerprint: 0.7, Path: 0.6}
}

// Matcher scores the live page against recorded steps.
type Matcher struct {
	w Weights
	t Thresholds
}

// New creates a Matcher. Zero weights or thresholds fall back to the
// defaults.
func New(w Weights, t Thresholds) *Matcher {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	if t == (Thresholds{}) {
		t = DefaultThresholds()
	}
	return &Matcher{w: w, t: t}
}

// MatchStep returns the index of the step whose recorded page best
// matches the live document, or false when nothing clears the
// thresholds.
func (m *Matcher) MatchStep(rec *recording.Recording, doc dom.Document) (int, bool) {
	if rec.Len() == 0 || doc == nil {
		return 0, false
	}
	currentPath := doc.Path()

	// Exact path match first: never fuzzy-match a page we are
	// literally on.
	for i := 0; i < rec.Len(); i++ {
		if rec.Step(i).PageInfo.Path == currentPath {
			return i, true
		}
	}

	current := Capture(doc)
	for i := 0; i < rec.Len(); i++ {
		step := rec.Step(i)
		if step.PageInfo.Path == "" && step.PageInfo.URL == "" {
			continue
		}
		if !sameHost(step.PageInfo.URL, doc.URL()) {
			continue
		}
		if step.PageFingerprint != nil {
			if m.CompareFingerprints(current, *step.PageFingerprint) >= m.t.Fingerprint {
				return i, true
			}
		}
		if step.PageInfo.Path != "" && ComparePaths(currentPath, step.PageInfo.Path) > m.t.Path {
			return i, true
		}
	}
	return 0, false
}

// OnPath reports whether the current path matches any step at or after
// the given index, i.e. the user is still somewhere on the guide.
func OnPath(rec *recording.Recording, currentPath string, fromStep int) bool {
	for i := fromStep; i < rec.Len(); i++ {
		if rec.Step(i).PageInfo.Path == currentPath {
			return true
		}
	}
	return false
}

// CompareFingerprints returns a 0..1 similarity, normalised over the
// weights that could actually be applied.
func (m *Matcher) CompareFingerprints(a, b recording.PageFingerprint) float64 {
	var score, total float64

	if a.URL == b.URL && a.URL != "" {
		score += m.w.URL
	} else if ComparePaths(a.URL, b.URL) > 0.7 {
		score += m.w.URL * 0.75
	}
	total += m.w.URL

	if len(a.Headings) > 0 && len(b.Headings) > 0 {
		score += compareArrays(a.Headings, b.Headings) * m.w.Headings
		total += m.w.Headings
	}
	if len(a.NavItems) > 0 && len(b.NavItems) > 0 {
		score += compareArrays(a.NavItems, b.NavItems) * m.w.NavItems
		total += m.w.NavItems
	}
	if len(a.ContentElements) > 0 && len(b.ContentElements) > 0 {
		score += compareArrays(a.ContentElements, b.ContentElements) * m.w.Content
		total += m.w.Content
	}

	if total == 0 {
		return 0
	}
	return score / total
}

// compareArrays measures how many entries of one array appear in the
// other, over the smaller array. Exact hits count 1.0; when exact
// matching is poor, substring containment counts 0.7.
func compareArrays(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	smaller := float64(min(len(a), len(b)))

	var exact float64
	for _, x := range a {
		for _, y := range b {
			if x == y {
				exact++
				break
			}
		}
	}
	if exact/smaller >= 0.5 {
		return exact / smaller
	}

	var partial float64
	for _, x := range a {
		for _, y := range b {
			if strings.Contains(x, y) || strings.Contains(y, x) {
				partial += 0.7
				break
			}
		}
	}
	return partial / smaller
}

// ComparePaths returns a 0..1 similarity of two URL paths. Segments
// that both look like opaque identifiers (numeric ids, hex strings,
// hyphenated slugs) count 0.8, so differing dynamic-route parameters
// still register as the same page shape.
func ComparePaths(p1, p2 string) float64 {
	if p1 == p2 {
		return 1
	}
	s1 := splitSegments(p1)
	s2 := splitSegments(p2)
	if len(s1) == 0 && len(s2) == 0 {
		return 1
	}
	maxLen := max(len(s1), len(s2))
	var matches float64
	for i := 0; i < maxLen; i++ {
		if i >= len(s1) || i >= len(s2) {
			continue
		}
		switch {
		case s1[i] == s2[i]:
			matches++
		case isIDSegment(s1[i]) && isIDSegment(s2[i]):
			matches += 0.8
		}
	}
	return matches / float64(maxLen)
}

func splitSegments(p string) []string {
	p = strings.TrimSuffix(p, "/")
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

var (
	numericRe = regexp.MustCompile(`^\d+$`)
	hexishRe  = regexp.MustCompile(`^[0-9a-f-]{8,}$`)
	slugRe    = regexp.MustCompile(`^[a-z0-9]+-[a-z0-9-]+$`)
)

func isIDSegment(s string) bool {
	return numericRe.MatchString(s) || hexishRe.MatchString(s) || slugRe.MatchString(s)
}

func sameHost(recordedURL, liveURL string) bool {
	if recordedURL == "" || liveURL == "" {
		return true
	}
	ru, err1 := url.Parse(recordedURL)
	lu, err2 := url.Parse(liveURL)
	if err1 != nil || err2 != nil {
		return true
	}
	if ru.Hostname() == "" || lu.Hostname() == "" {
		return true
	}
	return ru.Hostname() == lu.Hostname()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
