// Package flow orchestrates playback: it loads a recording, walks its
// steps, re-anchors when the user wanders, and advances on real
// clicks. Forward progress beats strict fidelity: unresolvable steps
// are skipped, never fatal.
package flow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"cursorflow/internal/config"
	"cursorflow/internal/locator"
	"cursorflow/internal/navwatch"
	"cursorflow/internal/overlay"
	"cursorflow/internal/pagematch"
	"cursorflow/internal/session"
	"cursorflow/pkg/dom"
	"cursorflow/pkg/recording"
)

// State is the controller's lifecycle position.
type State int

const (
	Idle State = iota
	Loading
	Playing
	AwaitingClick
	PageMismatch
	Complete
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case AwaitingClick:
		return "awaiting_click"
	case PageMismatch:
		return "page_mismatch"
	case Complete:
		return "complete"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Snapshot is the externally visible state.
type Snapshot struct {
	State       State
	SessionID   string
	CurrentStep int
	TotalSteps  int
}

// RecordingSource loads recordings.
type RecordingSource interface {
	LatestSession(ctx context.Context) (string, error)
	Load(ctx context.Context, sessionID string) (*recording.Recording, error)
}

// UI is the overlay surface. Satisfied by *overlay.Renderer.
type UI interface {
	EnsureOverlay(ctx context.Context) error
	ShowStartButton(ctx context.Context, playing bool) error
	PointCursor(ctx context.Context, node dom.Node, label overlay.Label) error
	Highlight(ctx context.Context, node dom.Node) error
	HideGuides(ctx context.Context) error
	RemoveAll(ctx context.Context) error
	NotifyExternalSite(ctx context.Context, url string) error
	NotifyWrongPage(ctx context.Context, expectedPath string) error
	NotifyMidFlow(ctx context.Context, stepNumber, totalSteps int) error
	NotifyResumed(ctx context.Context, stepNumber, totalSteps int) error
	NotifyOffPath(ctx context.Context, returnPath string) error
	NotifyStartPrompt(ctx context.Context, startPath string) error
	NotifyComplete(ctx context.Context) error
}

// Clicker arms a one-shot click listener on a live node. Payloads for
// fired listeners arrive on the controller's event feed.
type Clicker interface {
	ArmClick(ctx context.Context, ref string) error
	DisarmClick(ctx context.Context) error
}

// RunLog records playback attempts. May be nil.
type RunLog interface {
	BeginRun(sessionID string) (string, error)
	FinishRun(runID string, stepsPlayed int, outcome string) error
}

// Event payload advancing the active step. The browser adapter sends
// it when the armed target is clicked.
const EventTargetClicked = "target"

// Deps wires a Controller.
type Deps struct {
	Cfg     config.Flow
	Doc     dom.Document
	Source  RecordingSource
	UI      UI
	Clicker Clicker
	Store   session.Store
	Nav     *navwatch.Observer
	Matcher *pagematch.Matcher
	// Events carries click-binding payloads: EventTargetClicked,
	// overlay.EventToggle, overlay.EventStop.
	Events <-chan string
	RunLog RunLog
	Log    zerolog.Logger
}

// Controller is the playback state machine. One per attached page.
type Controller struct {
	d Deps

	mu        sync.Mutex
	state     State
	rec       *recording.Recording
	sessionID string
	step      int
	runID     string
	armed     bool
	timer     *time.Timer

	kick chan struct{}
}

// New creates a Controller in Idle.
func New(d Deps) *Controller {
	if d.Matcher == nil {
		d.Matcher = pagematch.New(pagematch.DefaultWeights(), pagematch.DefaultThresholds())
	}
	if d.Cfg.StepDelay == 0 {
		d.Cfg = defaultFlowConfig(d.Cfg)
	}
	return &Controller{d: d, kick: make(chan struct{}, 1)}
}

func defaultFlowConfig(f config.Flow) config.Flow {
	def := config.New().Flow
	if f.StepDelay == 0 {
		f.StepDelay = def.StepDelay
	}
	if f.RetryDelay == 0 {
		f.RetryDelay = def.RetryDelay
	}
	if f.SkipDelay == 0 {
		f.SkipDelay = def.SkipDelay
	}
	if f.ContentWaitMax == 0 {
		f.ContentWaitMax = def.ContentWaitMax
	}
	if f.ContentProbe == "" {
		f.ContentProbe = def.ContentProbe
		f.ContentPaths = def.ContentPaths
	}
	return f
}

// UseSession pins playback to a specific recording session instead of
// the newest one. Call before Start.
func (c *Controller) UseSession(id string) {
	c.mu.Lock()
	c.sessionID = id
	c.step = 0
	c.mu.Unlock()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:       c.state,
		SessionID:   c.sessionID,
		CurrentStep: c.step,
		TotalSteps:  c.rec.Len(),
	}
}

// Init restores any saved playback state and renders the start
// button. When the saved state was mid-playback, the guide resumes
// where it left off.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	saved, ok := c.d.Store.Restore(ctx)
	if ok {
		c.sessionID = saved.SessionID
		c.step = saved.CurrentStep
	}
	resume := ok && saved.IsPlaying && saved.SessionID != ""
	c.mu.Unlock()

	if err := c.d.UI.ShowStartButton(ctx, resume); err != nil {
		c.d.Log.Warn().Err(err).Msg("show start button failed")
	}
	if resume {
		c.d.Log.Info().Str("session", saved.SessionID).Int("step", saved.CurrentStep).
			Msg("resuming saved playback")
		return c.Start(ctx)
	}
	return nil
}

// Start begins (or resumes) playback. On a page matching a later step
// the flow jumps there; on a page matching nothing it prompts for
// navigation instead of guessing.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state == Playing || c.state == AwaitingClick || c.state == Loading {
		c.mu.Unlock()
		return nil
	}
	c.state = Loading
	sessionID := c.sessionID
	c.mu.Unlock()

	if sessionID == "" {
		id, err := c.d.Source.LatestSession(ctx)
		if err != nil {
			c.d.Log.Error().Err(err).Msg("fetch session index failed")
			c.setState(Idle)
			return err
		}
		sessionID = id
	}

	rec, err := c.d.Source.Load(ctx, sessionID)
	if err != nil {
		c.d.Log.Error().Err(err).Str("session", sessionID).Msg("load recording failed")
		c.setState(Idle)
		return err
	}
	c.d.Log.Info().Str("session", sessionID).Int("steps", rec.Len()).Msg("recording loaded")

	if err := c.d.UI.EnsureOverlay(ctx); err != nil {
		c.d.Log.Warn().Err(err).Msg("overlay injection failed")
	}
	_ = c.d.UI.ShowStartButton(ctx, true)

	c.mu.Lock()
	c.rec = rec
	c.sessionID = sessionID
	if c.step >= rec.Len() {
		c.step = 0
	}
	resumeStep := c.step
	c.mu.Unlock()

	if c.d.RunLog != nil {
		if id, err := c.d.RunLog.BeginRun(sessionID); err == nil {
			c.mu.Lock()
			c.runID = id
			c.mu.Unlock()
		}
	}

	// Anchor the flow to wherever the user actually is.
	start := resumeStep
	if resumeStep == 0 {
		idx, ok := c.d.Matcher.MatchStep(rec, c.d.Doc)
		switch {
		case ok && idx > 0:
			start = idx
			_ = c.d.UI.NotifyMidFlow(ctx, idx+1, rec.Len())
			c.d.Log.Info().Int("step", idx).Msg("anchored mid-flow")
		case !ok:
			// Nowhere on the guide: ask for the starting page and wait
			// for navigation.
			c.mu.Lock()
			c.state = PageMismatch
			c.mu.Unlock()
			c.persist(ctx, true)
			if first := rec.Step(0); first != nil {
				_ = c.d.UI.NotifyStartPrompt(ctx, first.PageInfo.Path)
			}
			return nil
		}
	} else {
		_ = c.d.UI.NotifyResumed(ctx, resumeStep+1, rec.Len())
	}

	c.mu.Lock()
	c.step = start
	c.state = Playing
	c.mu.Unlock()
	c.persist(ctx, true)
	c.schedule(c.d.Cfg.StepDelay)
	return nil
}

// Stop cancels playback and tears down the guides. Idempotent.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	wasArmed := c.armed
	c.armed = false
	prev := c.state
	c.state = Stopped
	steps := c.step
	runID := c.runID
	c.runID = ""
	c.mu.Unlock()

	if wasArmed {
		_ = c.d.Clicker.DisarmClick(ctx)
	}
	_ = c.d.UI.HideGuides(ctx)
	_ = c.d.UI.ShowStartButton(ctx, false)
	c.persist(ctx, false)

	if runID != "" && c.d.RunLog != nil {
		_ = c.d.RunLog.FinishRun(runID, steps, outcomeFor(prev))
	}
	c.d.Log.Info().Msg("playback stopped")
	return nil
}

func outcomeFor(prev State) string {
	if prev == Complete {
		return "complete"
	}
	return "stopped"
}

// Run drives the controller until ctx is cancelled or playback
// completes. UI events and navigation signals interleave here; step
// logic never runs concurrently with itself.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			_ = c.Stop(context.WithoutCancel(ctx))
			return ctx.Err()
		case payload := <-c.d.Events:
			c.handleEvent(ctx, payload)
		case ev := <-c.d.Nav.Events():
			c.handleNavigation(ctx, ev)
		case <-c.kick:
			c.playCurrentStep(ctx)
		}
		if c.Snapshot().State == Complete {
			return nil
		}
	}
}

func (c *Controller) handleEvent(ctx context.Context, payload string) {
	switch payload {
	case EventTargetClicked:
		c.advance(ctx)
	case overlay.EventToggle:
		if st := c.Snapshot().State; st == Playing || st == AwaitingClick || st == PageMismatch {
			_ = c.Stop(ctx)
		} else {
			_ = c.Start(ctx)
		}
	case overlay.EventStop:
		_ = c.Stop(ctx)
	default:
		c.d.Log.Debug().Str("payload", payload).Msg("ignoring ui event")
	}
}

// advance is the click-driven increment: the only ordinary way the
// step moves forward.
func (c *Controller) advance(ctx context.Context) {
	c.mu.Lock()
	if c.state != AwaitingClick {
		c.mu.Unlock()
		return
	}
	c.armed = false
	c.step++
	c.state = Playing
	step := c.step
	c.mu.Unlock()

	_ = c.d.Clicker.DisarmClick(ctx)
	c.persist(ctx, true)
	c.d.Log.Info().Int("step", step).Msg("target clicked, advancing")

	// Navigation may follow the click; the settle delay lets the nav
	// signal preempt this timer with a fresh page.
	c.schedule(c.d.Cfg.StepDelay)
}

func (c *Controller) handleNavigation(ctx context.Context, ev navwatch.Event) {
	st := c.Snapshot().State
	if st != Playing && st != AwaitingClick && st != PageMismatch {
		return
	}
	c.d.Log.Info().Str("path", ev.Path).Msg("navigation detected")

	c.mu.Lock()
	if c.armed {
		c.armed = false
		c.mu.Unlock()
		_ = c.d.Clicker.DisarmClick(ctx)
		c.mu.Lock()
	}
	c.state = Playing
	c.mu.Unlock()

	// The old page's overlay nodes are gone after a full load.
	if err := c.d.UI.EnsureOverlay(ctx); err != nil {
		c.d.Log.Warn().Err(err).Msg("overlay re-injection failed")
	}
	_ = c.d.UI.ShowStartButton(ctx, true)
	c.schedule(c.d.Cfg.StepDelay)
}

// schedule queues step execution after d, replacing any pending one.
func (c *Controller) schedule(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(d, func() {
		select {
		case c.kick <- struct{}{}:
		default:
		}
	})
}

func (c *Controller) playCurrentStep(ctx context.Context) {
	c.mu.Lock()
	if c.state != Playing && c.state != PageMismatch {
		c.mu.Unlock()
		return
	}
	rec := c.rec
	stepIdx := c.step
	c.mu.Unlock()

	if rec == nil {
		return
	}
	if stepIdx >= rec.Len() {
		c.complete(ctx)
		return
	}
	if c.d.Nav.InProgress() {
		c.schedule(c.d.Cfg.SkipDelay)
		return
	}

	step := rec.Step(stepIdx)
	c.d.Log.Info().
		Int("step", stepIdx+1).
		Int("total", rec.Len()).
		Str("type", step.Type).
		Str("expected", step.PageInfo.Path).
		Str("current", c.d.Doc.Path()).
		Msg("playing step")

	// Only clicks are played; anything else is bypassed.
	if step.Type != "" && step.Type != "click" {
		c.skipStep(ctx, "unsupported interaction type")
		return
	}

	if external(step.PageInfo) {
		c.mu.Lock()
		c.state = PageMismatch
		c.mu.Unlock()
		_ = c.d.UI.NotifyExternalSite(ctx, step.PageInfo.URL)
		return
	}

	if step.PageInfo.Path != "" && step.PageInfo.Path != c.d.Doc.Path() {
		if !c.reanchor(ctx, rec, stepIdx) {
			return
		}
		c.mu.Lock()
		stepIdx = c.step
		c.mu.Unlock()
		step = rec.Step(stepIdx)
		if step == nil {
			c.complete(ctx)
			return
		}
	}

	c.mu.Lock()
	c.state = Playing
	c.mu.Unlock()

	c.waitForContent(ctx)

	node, ok := c.locate(ctx, &step.Element)
	if !ok {
		c.skipStep(ctx, "element not found")
		return
	}
	if !dom.IsVisible(node) {
		c.skipStep(ctx, "element not visible")
		return
	}
	c.d.Log.Debug().Str("tag", node.Tag()).Str("text", truncate(node.Text(), 30)).
		Msg("target element resolved")

	label := overlay.Label{
		ElementText: strings.TrimSpace(step.Element.TextContent),
		PagePath:    step.PageInfo.Path,
		PageURL:     step.PageInfo.URL,
		External:    external(step.PageInfo),
	}
	if err := c.d.UI.PointCursor(ctx, node, label); err != nil {
		c.d.Log.Warn().Err(err).Msg("cursor move failed")
	}
	if err := c.d.UI.Highlight(ctx, node); err != nil {
		c.d.Log.Warn().Err(err).Msg("highlight failed")
	}
	if err := c.d.Clicker.ArmClick(ctx, node.Ref()); err != nil {
		c.d.Log.Warn().Err(err).Msg("arm click failed")
		c.skipStep(ctx, "click listener failed")
		return
	}

	c.mu.Lock()
	c.armed = true
	c.state = AwaitingClick
	c.mu.Unlock()
}

// reanchor retargets the flow to the page the user is physically on.
// Returns false when no step matches and the mismatch notification is
// up.
func (c *Controller) reanchor(ctx context.Context, rec *recording.Recording, stepIdx int) bool {
	idx, ok := c.d.Matcher.MatchStep(rec, c.d.Doc)
	if ok {
		if idx != stepIdx {
			c.mu.Lock()
			c.step = idx
			c.mu.Unlock()
			c.persist(ctx, true)
			_ = c.d.UI.NotifyResumed(ctx, idx+1, rec.Len())
			c.d.Log.Info().Int("from", stepIdx).Int("to", idx).Msg("re-anchored flow")
		}
		return true
	}

	c.mu.Lock()
	c.state = PageMismatch
	c.mu.Unlock()
	step := rec.Step(stepIdx)
	if pagematch.OnPath(rec, c.d.Doc.Path(), 0) {
		// On a guide page, just not the expected one.
		_ = c.d.UI.NotifyWrongPage(ctx, step.PageInfo.Path)
	} else {
		_ = c.d.UI.NotifyOffPath(ctx, step.PageInfo.Path)
	}
	c.d.Log.Warn().Str("expected", step.PageInfo.Path).Str("current", c.d.Doc.Path()).
		Msg("page mismatch")
	return false
}

// waitForContent polls for the content probe on pages known to hydrate
// asynchronously. Bounded; gives up silently so a slow page degrades
// to the element retry rather than hanging playback.
func (c *Controller) waitForContent(ctx context.Context) {
	path := c.d.Doc.Path()
	late := false
	for _, frag := range c.d.Cfg.ContentPaths {
		if strings.Contains(path, frag) {
			late = true
			break
		}
	}
	if !late || c.d.Cfg.ContentProbe == "" {
		return
	}
	if _, ok := c.d.Doc.Query(c.d.Cfg.ContentProbe); ok {
		return
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = c.d.Cfg.ContentWaitMax
	notReady := errors.New("content not ready")
	err := backoff.Retry(func() error {
		if _, ok := c.d.Doc.Query(c.d.Cfg.ContentProbe); ok {
			return nil
		}
		return notReady
	}, backoff.WithContext(b, ctx))
	if err != nil {
		c.d.Log.Debug().Str("path", path).Msg("content readiness window elapsed")
	}
}

// locate resolves the step's element, retrying once after a delay
// before giving up.
func (c *Controller) locate(ctx context.Context, desc *recording.ElementDescriptor) (dom.Node, bool) {
	var node dom.Node
	attempt := func() error {
		n, ok := locator.Resolve(desc, c.d.Doc)
		if !ok {
			return errors.New("not found")
		}
		node = n
		return nil
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(c.d.Cfg.RetryDelay), 1)
	if err := backoff.Retry(attempt, backoff.WithContext(policy, ctx)); err != nil {
		return nil, false
	}
	return node, true
}

// skipStep bypasses the current step and keeps going.
func (c *Controller) skipStep(ctx context.Context, reason string) {
	c.mu.Lock()
	c.step++
	step := c.step
	c.mu.Unlock()

	c.d.Log.Warn().Int("step", step).Str("reason", reason).Msg("skipping step")
	c.persist(ctx, true)
	c.schedule(c.d.Cfg.SkipDelay)
}

func (c *Controller) complete(ctx context.Context) {
	c.mu.Lock()
	if c.state == Complete {
		c.mu.Unlock()
		return
	}
	c.state = Complete
	steps := c.step
	runID := c.runID
	c.runID = ""
	c.mu.Unlock()

	c.d.Log.Info().Msg("playback complete")
	_ = c.d.UI.NotifyComplete(ctx)
	_ = c.d.UI.HideGuides(ctx)
	_ = c.d.UI.ShowStartButton(ctx, false)
	c.persist(ctx, false)
	if runID != "" && c.d.RunLog != nil {
		_ = c.d.RunLog.FinishRun(runID, steps, "complete")
	}
}

// persist saves playback state; failures degrade resume-on-reload and
// nothing else.
func (c *Controller) persist(ctx context.Context, playing bool) {
	c.mu.Lock()
	st := session.State{
		IsPlaying:   playing,
		CurrentStep: c.step,
		SessionID:   c.sessionID,
	}
	c.mu.Unlock()
	if err := c.d.Store.Save(ctx, st); err != nil {
		c.d.Log.Warn().Err(err).Msg("persist playback state failed")
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// external reports whether a step was captured outside the site.
func external(pi recording.PageInfo) bool {
	return pi.Path != "" && !strings.HasPrefix(pi.Path, "/")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
