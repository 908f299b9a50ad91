package session

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	st := State{IsPlaying: true, CurrentStep: 4, SessionID: "sess-42"}
	got, ok := Decode(Encode(st))
	require.True(t, ok)
	assert.Equal(t, st, got)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"not json",
		"{}",                      // missing currentStep
		`{"isPlaying": true}`,     // ditto
		`[1, 2, 3]`,               // wrong shape
	} {
		_, ok := Decode(raw)
		assert.False(t, ok, "raw=%q", raw)
	}
}

func TestDecodeDefaultsMissingFields(t *testing.T) {
	got, ok := Decode(`{"currentStep": 2}`)
	require.True(t, ok)
	assert.Equal(t, State{CurrentStep: 2}, got)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := &Memory{}

	_, ok := m.Restore(ctx)
	assert.False(t, ok)

	st := State{IsPlaying: true, CurrentStep: 1, SessionID: "s"}
	require.NoError(t, m.Save(ctx, st))
	got, ok := m.Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, st, got)

	require.NoError(t, m.Clear(ctx))
	_, ok = m.Restore(ctx)
	assert.False(t, ok)
}

// scriptEval emulates the page's sessionStorage for the browser store.
type scriptEval struct {
	stored string
}

func (e *scriptEval) Eval(_ context.Context, script string) error {
	if strings.Contains(script, "removeItem") {
		e.stored = ""
		return nil
	}
	// setItem's second argument is the quoted document.
	i := strings.Index(script, ", ")
	j := strings.LastIndex(script, ")")
	if i >= 0 && j > i {
		if doc, err := strconv.Unquote(script[i+2 : j]); err == nil {
			e.stored = doc
		}
	}
	return nil
}

func (e *scriptEval) EvalResult(_ context.Context, _ string) (string, error) {
	return e.stored, nil
}

func TestBrowserStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	eval := &scriptEval{}
	b := NewBrowser(eval, zerolog.Nop())

	st := State{IsPlaying: true, CurrentStep: 3, SessionID: "sess-7"}
	require.NoError(t, b.Save(ctx, st))

	got, ok := b.Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, st, got)

	require.NoError(t, b.Clear(ctx))
	_, ok = b.Restore(ctx)
	assert.False(t, ok)
}

func TestBrowserStoreCorruptState(t *testing.T) {
	eval := &scriptEval{stored: "{broken"}
	b := NewBrowser(eval, zerolog.Nop())
	_, ok := b.Restore(context.Background())
	assert.False(t, ok)
}
