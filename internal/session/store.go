// Package session persists minimal playback state across page reloads
// within a browsing session. The store is a dumb persistence surface;
// the flow controller owns every mutation.
package session

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// StorageKey is the single well-known sessionStorage key.
const StorageKey = "cursorFlowState"

// State is exactly what survives a reload.
type State struct {
	IsPlaying   bool   `json:"isPlaying"`
	CurrentStep int    `json:"currentStep"`
	SessionID   string `json:"sessionId"`
}

// Store reads and writes playback state.
type Store interface {
	// Save persists the state. Failures are the caller's to ignore.
	Save(ctx context.Context, st State) error
	// Restore returns the saved state, or false when absent or corrupt.
	Restore(ctx context.Context) (State, bool)
	// Clear removes any saved state.
	Clear(ctx context.Context) error
}

// Evaluator runs script in the page. Implemented by the browser
// adapter.
type Evaluator interface {
	Eval(ctx context.Context, script string) error
	EvalResult(ctx context.Context, script string) (string, error)
}

// Browser stores state in the page's own sessionStorage, so resume
// state lives and dies with the tab like it always did.
type Browser struct {
	eval Evaluator
	log  zerolog.Logger
}

// NewBrowser creates a sessionStorage-backed store.
func NewBrowser(eval Evaluator, log zerolog.Logger) *Browser {
	return &Browser{eval: eval, log: log}
}

// Encode serialises a State to its storage document.
func Encode(st State) string {
	doc, _ := sjson.Set("{}", "isPlaying", st.IsPlaying)
	doc, _ = sjson.Set(doc, "currentStep", st.CurrentStep)
	doc, _ = sjson.Set(doc, "sessionId", st.SessionID)
	return doc
}

// Decode parses a storage document. ok is false for malformed input.
func Decode(raw string) (State, bool) {
	if raw == "" || !gjson.Valid(raw) {
		return State{}, false
	}
	doc := gjson.Parse(raw)
	if !doc.Get("currentStep").Exists() {
		return State{}, false
	}
	return State{
		IsPlaying:   doc.Get("isPlaying").Bool(),
		CurrentStep: int(doc.Get("currentStep").Int()),
		SessionID:   doc.Get("sessionId").String(),
	}, true
}

func (b *Browser) Save(ctx context.Context, st State) error {
	script := fmt.Sprintf("sessionStorage.setItem(%s, %s)",
		strconv.Quote(StorageKey), strconv.Quote(Encode(st)))
	if err := b.eval.Eval(ctx, script); err != nil {
		b.log.Warn().Err(err).Msg("save playback state failed")
		return err
	}
	return nil
}

func (b *Browser) Restore(ctx context.Context) (State, bool) {
	script := fmt.Sprintf("sessionStorage.getItem(%s) || ''", strconv.Quote(StorageKey))
	raw, err := b.eval.EvalResult(ctx, script)
	if err != nil {
		b.log.Warn().Err(err).Msg("restore playback state failed")
		return State{}, false
	}
	return Decode(raw)
}

func (b *Browser) Clear(ctx context.Context) error {
	script := fmt.Sprintf("sessionStorage.removeItem(%s)", strconv.Quote(StorageKey))
	if err := b.eval.Eval(ctx, script); err != nil {
		b.log.Warn().Err(err).Msg("clear playback state failed")
		return err
	}
	return nil
}

// Memory is an in-process store for tests and headless runs.
type Memory struct {
	st  State
	set bool
}

func (m *Memory) Save(_ context.Context, st State) error {
	m.st, m.set = st, true
	return nil
}

func (m *Memory) Restore(_ context.Context) (State, bool) {
	return m.st, m.set
}

func (m *Memory) Clear(_ context.Context) error {
	m.st, m.set = State{}, false
	return nil
}
