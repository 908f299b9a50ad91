// Package overlay draws the guide's visual artifacts into the live
// page: the simulated cursor with its label, the pulsing highlight
// box, the start/stop button and transient notifications. Every
// singleton node is created remove-before-insert, so repeated
// initialization is safe.
package overlay

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"cursorflow/pkg/dom"
)

// Element ids for the injected singleton nodes.
const (
	CursorID       = "cursor-flow-cursor"
	CursorTextID   = "cursor-flow-text"
	HighlightID    = "cursor-flow-highlight"
	StartButtonID  = "cursor-flow-start-button"
	NotificationID = "cursor-flow-notification"
	StylesID       = "cursor-flow-styles"
)

// BindingName is the page-side function overlay controls call to
// reach the controller (toggle button, notification actions).
const BindingName = "__cursorFlowEmit"

// Emitted binding payloads.
const (
	EventToggle = "toggle"
	EventStop   = "stop"
)

// Evaluator runs script in the page. EvalOn calls fnScript — a
// function expression — with the referenced node as its argument.
type Evaluator interface {
	Eval(ctx context.Context, script string) error
	EvalOn(ctx context.Context, ref string, fnScript string) error
}

// Config is the visual treatment. Zero values fall back to the
// defaults below.
type Config struct {
	CursorColor          string `yaml:"cursorColor"`
	HighlightColor       string `yaml:"highlightColor"`
	HighlightBorderColor string `yaml:"highlightBorderColor"`
	ButtonColor          string `yaml:"buttonColor"`
	AnimationMS          int    `yaml:"animationMS"`
}

// DefaultConfig returns the recorded walkthroughs' green treatment.
func DefaultConfig() Config {
	return Config{
		CursorColor:          "#22c55e",
		HighlightColor:       "rgba(34, 197, 94, 0.3)",
		HighlightBorderColor: "#22c55e",
		ButtonColor:          "#22c55e",
		AnimationMS:          800,
	}
}

// Renderer owns the overlay DOM nodes.
type Renderer struct {
	eval Evaluator
	cfg  Config
	log  zerolog.Logger
}

// New creates a Renderer.
func New(eval Evaluator, cfg Config, log zerolog.Logger) *Renderer {
	def := DefaultConfig()
	if cfg.CursorColor == "" {
		cfg.CursorColor = def.CursorColor
	}
	if cfg.HighlightColor == "" {
		cfg.HighlightColor = def.HighlightColor
	}
	if cfg.HighlightBorderColor == "" {
		cfg.HighlightBorderColor = def.HighlightBorderColor
	}
	if cfg.ButtonColor == "" {
		cfg.ButtonColor = def.ButtonColor
	}
	if cfg.AnimationMS <= 0 {
		cfg.AnimationMS = def.AnimationMS
	}
	return &Renderer{eval: eval, cfg: cfg, log: log}
}

// EnsureOverlay injects the styles, cursor and highlight nodes,
// replacing any prior instances.
func (r *Renderer) EnsureOverlay(ctx context.Context) error {
	if err := r.eval.Eval(ctx, r.stylesScript()); err != nil {
		return fmt.Errorf("inject overlay styles: %w", err)
	}
	if err := r.eval.Eval(ctx, r.cursorScript()); err != nil {
		return fmt.Errorf("inject cursor: %w", err)
	}
	if err := r.eval.Eval(ctx, r.highlightScript()); err != nil {
		return fmt.Errorf("inject highlight: %w", err)
	}
	return nil
}

// ShowStartButton renders the fixed bottom-left toggle button with the
// label matching the playing state.
func (r *Renderer) ShowStartButton(ctx context.Context, playing bool) error {
	label := "Start Guide"
	if playing {
		label = "Stop Guide"
	}
	return r.eval.Eval(ctx, r.startButtonScript(label))
}

// Label describes the action next to the cursor.
type Label struct {
	// ElementText is the target's text, truncated for display.
	ElementText string
	// PagePath is the step's recorded path.
	PagePath string
	// PageURL is the full recorded URL, shown for external pages.
	PageURL string
	// External marks steps continuing outside the site.
	External bool
}

// PointCursor moves the cursor to the node's bounding box and updates
// the adjacent label.
func (r *Renderer) PointCursor(ctx context.Context, node dom.Node, label Label) error {
	text := label.ElementText
	if text == "" {
		text = "this element"
	}
	if len(text) > 25 {
		text = text[:25] + "..."
	}
	var pageInfo string
	if label.External {
		pageInfo = fmt.Sprintf(`<span style="font-size:11px;opacity:0.8;color:#e74c3c;">External site: %s</span>`, htmlEscape(label.PageURL))
	} else {
		pageInfo = fmt.Sprintf(`<span style="font-size:11px;opacity:0.8;">Page: %s</span>`, htmlEscape(label.PagePath))
	}
	html := fmt.Sprintf(`<strong>Click:</strong> "%s"<br>%s`, htmlEscape(text), pageInfo)
	return r.eval.EvalOn(ctx, node.Ref(), r.pointCursorFn(html))
}

// Highlight anchors the pulsing highlight box on the node and starts
// the per-frame tracking loop. The loop is a singleton: highlighting a
// new node retargets the running loop instead of spawning another.
func (r *Renderer) Highlight(ctx context.Context, node dom.Node) error {
	return r.eval.EvalOn(ctx, node.Ref(), r.highlightFn())
}

// HideGuides cancels the highlight tracking loop and hides the cursor
// and highlight. Safe to call in any state.
func (r *Renderer) HideGuides(ctx context.Context) error {
	return r.eval.Eval(ctx, r.hideGuidesScript())
}

// RemoveAll tears down every overlay node including the button and any
// notification.
func (r *Renderer) RemoveAll(ctx context.Context) error {
	return r.eval.Eval(ctx, r.removeAllScript())
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func htmlEscape(s string) string { return htmlEscaper.Replace(s) }

func quote(s string) string { return strconv.Quote(s) }
