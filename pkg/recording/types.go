package recording

// Rect is the bounding box of an element at capture time.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ElementDescriptor is everything the recorder kept about a target
// element so it can be relocated later.
type ElementDescriptor struct {
	ID          string   `json:"id,omitempty"`
	TagName     string   `json:"tagName"`
	TextContent string   `json:"textContent"`
	Path        []string `json:"path,omitempty"`
	CSSSelector string   `json:"cssSelector,omitempty"`
	ElementRect *Rect    `json:"elementRect,omitempty"`
	Value       string   `json:"value,omitempty"`
	Checked     bool     `json:"checked,omitempty"`
}

// PageInfo is the page a step was captured on.
type PageInfo struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// PageFingerprint is a lightweight summary of a page used to detect
// "the same page" despite URL differences.
type PageFingerprint struct {
	URL             string   `json:"url"`
	Headings        []string `json:"headings"`
	NavItems        []string `json:"navItems"`
	ContentElements []string `json:"contentElements"`
	FormElements    []string `json:"formElements"`
	Timestamp       int64    `json:"timestamp,omitempty"`
}

// InteractionStep is one recorded user action.
type InteractionStep struct {
	Type            string            `json:"type"`
	Element         ElementDescriptor `json:"element"`
	PageInfo        PageInfo          `json:"pageInfo"`
	PageFingerprint *PageFingerprint  `json:"pageFingerprint,omitempty"`
	Timestamp       int64             `json:"timestamp,omitempty"`
}

// Recording is an ordered walkthrough captured in one session.
type Recording struct {
	SessionID    string            `json:"sessionId,omitempty"`
	Interactions []InteractionStep `json:"interactions"`
}

// Len returns the number of steps.
func (r *Recording) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Interactions)
}

// Step returns the step at index i, or nil when out of range.
func (r *Recording) Step(i int) *InteractionStep {
	if r == nil || i < 0 || i >= len(r.Interactions) {
		return nil
	}
	return &r.Interactions[i]
}

// SessionRef is one entry in the recording index.
type SessionRef struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Index is the recording catalog, most recent session first.
type Index struct {
	Sessions []SessionRef `json:"sessions"`
}
