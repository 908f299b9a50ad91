// Package browser attaches to a live page over the Chrome DevTools
// Protocol and adapts it to the neutral surfaces the rest of the tool
// works against: dom.Document for queries, script evaluation for the
// overlay and state store, a click binding feed, and navigation
// signals for the observer.
package browser

import (
	"context"
	"fmt"

	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/runtime"
	"github.com/mafredri/cdp/rpcc"
	"github.com/rs/zerolog"

	"cursorflow/internal/navwatch"
	"cursorflow/internal/overlay"
)

// Client owns one attached page.
type Client struct {
	devtoolsURL string
	conn        *rpcc.Conn
	client      *cdp.Client
	ctx         context.Context
	cancel      context.CancelFunc
	events      chan string
	log         zerolog.Logger
}

// New creates an unattached Client.
func New(devtoolsURL string, log zerolog.Logger) *Client {
	return &Client{
		devtoolsURL: devtoolsURL,
		events:      make(chan string, 8),
		log:         log,
	}
}

// Attach connects to the first page target and enables the protocol
// domains playback needs.
func (c *Client) Attach(ctx context.Context) error {
	cctx, cancel := context.WithCancel(context.Background())
	c.ctx = cctx
	c.cancel = cancel

	dt := devtool.New(c.devtoolsURL)
	target, err := dt.Get(ctx, devtool.Page)
	if err != nil {
		target, err = dt.Create(ctx)
		if err != nil {
			cancel()
			return fmt.Errorf("no page target at %s: %w", c.devtoolsURL, err)
		}
	}

	conn, err := rpcc.DialContext(ctx, target.WebSocketDebuggerURL)
	if err != nil {
		cancel()
		return fmt.Errorf("dial %s: %w", target.WebSocketDebuggerURL, err)
	}
	c.conn = conn
	c.client = cdp.NewClient(conn)

	if err := c.client.Page.Enable(cctx); err != nil {
		return fmt.Errorf("enable page domain: %w", err)
	}
	if err := c.client.Runtime.Enable(cctx); err != nil {
		return fmt.Errorf("enable runtime domain: %w", err)
	}
	if err := c.client.Runtime.AddBinding(cctx, runtime.NewAddBindingArgs(overlay.BindingName)); err != nil {
		return fmt.Errorf("add binding: %w", err)
	}
	go c.consumeBindings()

	c.log.Info().Str("url", target.URL).Msg("attached to page")
	return nil
}

// Detach closes the connection and stops every consume loop.
func (c *Client) Detach() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Events is the feed of binding payloads: armed-click fires, toggle
// button presses and notification actions.
func (c *Client) Events() <-chan string { return c.events }

// consumeBindings forwards binding calls from the page.
func (c *Client) consumeBindings() {
	bc, err := c.client.Runtime.BindingCalled(c.ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("subscribe binding calls failed")
		return
	}
	defer bc.Close()
	for {
		ev, err := bc.Recv()
		if err != nil {
			return
		}
		if ev.Name != overlay.BindingName {
			continue
		}
		select {
		case c.events <- ev.Payload:
		default:
			c.log.Warn().Str("payload", ev.Payload).Msg("dropping ui event, feed full")
		}
	}
}

// WireNavigation feeds the observer from the protocol's navigation
// channels: full frame navigations, same-document history moves, and
// document updates as the mutation fallback.
func (c *Client) WireNavigation(obs *navwatch.Observer) {
	go c.consumeFrameNavigated(obs)
	go c.consumeFrameStartedLoading(obs)
	go c.consumeNavigatedWithinDocument(obs)
	go c.consumeLoadFired(obs)
}

func (c *Client) consumeFrameNavigated(obs *navwatch.Observer) {
	fn, err := c.client.Page.FrameNavigated(c.ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("subscribe frame navigations failed")
		return
	}
	defer fn.Close()
	for {
		ev, err := fn.Recv()
		if err != nil {
			return
		}
		if ev.Frame.ParentID != nil {
			continue // subframes don't move the page
		}
		obs.RouteChangeCompleted(pathOf(ev.Frame.URL), ev.Frame.URL)
	}
}

func (c *Client) consumeFrameStartedLoading(obs *navwatch.Observer) {
	fs, err := c.client.Page.FrameStartedLoading(c.ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("subscribe frame loading failed")
		return
	}
	defer fs.Close()
	for {
		if _, err := fs.Recv(); err != nil {
			return
		}
		obs.RouteChangeStarted("")
	}
}

func (c *Client) consumeNavigatedWithinDocument(obs *navwatch.Observer) {
	nw, err := c.client.Page.NavigatedWithinDocument(c.ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("subscribe history navigations failed")
		return
	}
	defer nw.Close()
	for {
		ev, err := nw.Recv()
		if err != nil {
			return
		}
		obs.HistoryPushed(pathOf(ev.URL), ev.URL)
	}
}

// consumeLoadFired re-checks the location after each load event; SPA
// frameworks can swap content without a frame navigation.
func (c *Client) consumeLoadFired(obs *navwatch.Observer) {
	lf, err := c.client.Page.LoadEventFired(c.ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("subscribe load events failed")
		return
	}
	defer lf.Close()
	for {
		if _, err := lf.Recv(); err != nil {
			return
		}
		doc := c.Document()
		obs.DOMMutated(doc.Path(), doc.URL())
	}
}
