// Package navwatch detects client-side page transitions. Three
// redundant channels feed it: router-style route-change events, a
// debounced DOM-mutation fallback, and history push interception.
// Whichever fires first wins; duplicates for the same transition are
// suppressed by path equality.
package navwatch

import (
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/rs/zerolog"
)

// Event is one completed navigation.
type Event struct {
	Path string
	URL  string
}

// Observer merges navigation signals into a single deduplicated feed.
type Observer struct {
	mu         sync.Mutex
	lastPath   string
	inProgress bool
	out        chan Event
	debounced  func(func())
	settle     time.Duration
	log        zerolog.Logger
}

// Option configures an Observer.
type Option func(*Observer)

// WithSettleDelay overrides the delay between a history push and the
// navigation being declared complete.
func WithSettleDelay(d time.Duration) Option {
	return func(o *Observer) { o.settle = d }
}

// WithDebounce overrides the mutation-batch debounce window.
func WithDebounce(d time.Duration) Option {
	return func(o *Observer) { o.debounced = debounce.New(d) }
}

// New creates an Observer tracking from initialPath.
func New(initialPath string, log zerolog.Logger, opts ...Option) *Observer {
	o := &Observer{
		lastPath:  initialPath,
		out:       make(chan Event, 8),
		debounced: debounce.New(50 * time.Millisecond),
		settle:    500 * time.Millisecond,
		log:       log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Events is the navigation-complete feed.
func (o *Observer) Events() <-chan Event { return o.out }

// InProgress reports whether a transition has started but not settled.
// Callers should not locate elements while this is true.
func (o *Observer) InProgress() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inProgress
}

// RouteChangeStarted is the router's route-change-start signal.
func (o *Observer) RouteChangeStarted(path string) {
	o.mu.Lock()
	o.inProgress = true
	o.mu.Unlock()
	o.log.Debug().Str("path", path).Msg("route change started")
}

// RouteChangeCompleted is the router's route-change-complete signal.
func (o *Observer) RouteChangeCompleted(path, url string) {
	o.complete(path, url)
}

// DOMMutated is the mutation-observer fallback; batches are debounced
// before the tracked path is compared.
func (o *Observer) DOMMutated(path, url string) {
	o.debounced(func() { o.complete(path, url) })
}

// HistoryPushed is the history-API interception channel; the path
// changes immediately but the page needs a settle delay before
// elements are locatable.
func (o *Observer) HistoryPushed(path, url string) {
	o.mu.Lock()
	if path == o.lastPath {
		o.mu.Unlock()
		return
	}
	o.inProgress = true
	o.mu.Unlock()
	time.AfterFunc(o.settle, func() { o.complete(path, url) })
}

// complete declares a navigation finished, once per distinct path.
func (o *Observer) complete(path, url string) {
	o.mu.Lock()
	if path == o.lastPath {
		o.inProgress = false
		o.mu.Unlock()
		return
	}
	o.lastPath = path
	o.inProgress = false
	o.mu.Unlock()

	o.log.Debug().Str("path", path).Msg("navigation complete")
	select {
	case o.out <- Event{Path: path, URL: url}:
	default:
	}
}
