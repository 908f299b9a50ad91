package navwatch

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestObserver(opts ...Option) *Observer {
	base := []Option{
		WithSettleDelay(5 * time.Millisecond),
		WithDebounce(time.Millisecond),
	}
	return New("/", zerolog.Nop(), append(base, opts...)...)
}

func recvEvent(t *testing.T, o *Observer) Event {
	t.Helper()
	select {
	case ev := <-o.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("no navigation event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, o *Observer, within time.Duration) {
	t.Helper()
	select {
	case ev := <-o.Events():
		t.Fatalf("unexpected navigation event for %q", ev.Path)
	case <-time.After(within):
	}
}

func TestRouteChangeEmitsOnce(t *testing.T) {
	o := newTestObserver()

	o.RouteChangeStarted("/writing")
	assert.True(t, o.InProgress())

	o.RouteChangeCompleted("/writing", "https://example.com/writing")
	ev := recvEvent(t, o)
	assert.Equal(t, "/writing", ev.Path)
	assert.False(t, o.InProgress())

	// The mutation fallback confirming the same transition is silent.
	o.DOMMutated("/writing", "https://example.com/writing")
	assertNoEvent(t, o, 20*time.Millisecond)
}

func TestHistoryPushSettles(t *testing.T) {
	o := newTestObserver()

	o.HistoryPushed("/about", "https://example.com/about")
	require.True(t, o.InProgress())

	ev := recvEvent(t, o)
	assert.Equal(t, "/about", ev.Path)
	assert.False(t, o.InProgress())
}

func TestHistoryPushSamePathIgnored(t *testing.T) {
	o := newTestObserver()

	o.HistoryPushed("/", "https://example.com/")
	assert.False(t, o.InProgress())
	assertNoEvent(t, o, 20*time.Millisecond)
}

func TestMutationFallbackDetectsChange(t *testing.T) {
	o := newTestObserver()

	// A burst of mutations debounces to a single check.
	for i := 0; i < 5; i++ {
		o.DOMMutated("/books", "https://example.com/books")
	}
	ev := recvEvent(t, o)
	assert.Equal(t, "/books", ev.Path)
	assertNoEvent(t, o, 20*time.Millisecond)
}

func TestMutationOnSamePageStaysQuiet(t *testing.T) {
	o := newTestObserver()
	o.DOMMutated("/", "https://example.com/")
	assertNoEvent(t, o, 20*time.Millisecond)
}

func TestSequentialNavigations(t *testing.T) {
	o := newTestObserver()

	o.RouteChangeCompleted("/writing", "https://example.com/writing")
	assert.Equal(t, "/writing", recvEvent(t, o).Path)

	o.RouteChangeCompleted("/about", "https://example.com/about")
	assert.Equal(t, "/about", recvEvent(t, o).Path)
}
