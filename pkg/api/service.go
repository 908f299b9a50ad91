// Package api is the embedding surface: it wires the browser
// attachment, recording source, storage and flow controller into one
// service the CLI (or another host program) drives.
package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"cursorflow/internal/browser"
	"cursorflow/internal/config"
	"cursorflow/internal/flow"
	"cursorflow/internal/navwatch"
	"cursorflow/internal/overlay"
	"cursorflow/internal/pagematch"
	"cursorflow/internal/session"
	"cursorflow/internal/storage"
	"cursorflow/pkg/recording"
)

// Service replays recorded walkthroughs against a live browser page.
type Service interface {
	// Play attaches to the page and replays sessionID until it
	// completes, the user stops it, or ctx is cancelled. An empty
	// sessionID plays the newest recording.
	Play(ctx context.Context, sessionID string) error

	// Stop ends the active playback, if any.
	Stop(ctx context.Context) error

	// State reports the active playback's position.
	State() flow.Snapshot

	// Sessions lists the recordings available on the server, newest
	// first.
	Sessions(ctx context.Context) ([]recording.SessionRef, error)

	// Reset attaches to the page, clears saved playback state and
	// removes any overlay remnants.
	Reset(ctx context.Context) error

	// History returns recent playback runs, newest first.
	History(limit int) ([]storage.Run, error)

	// Close releases the local database.
	Close() error
}

// NewService opens local storage and returns the service.
func NewService(cfg *config.Config, log zerolog.Logger) (Service, error) {
	store, err := storage.Open(cfg.Sqlite.Dsn)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return &service{cfg: cfg, store: store, log: log}, nil
}

type service struct {
	cfg   *config.Config
	store *storage.Store
	log   zerolog.Logger

	mu  sync.Mutex
	ctl *flow.Controller
}

func (s *service) Play(ctx context.Context, sessionID string) error {
	br := browser.New(s.cfg.DevToolsURL, s.log)
	if err := br.Attach(ctx); err != nil {
		return err
	}
	defer br.Detach()

	doc := br.Document()
	obs := navwatch.New(doc.Path(), s.log)
	br.WireNavigation(obs)

	ctl := flow.New(flow.Deps{
		Cfg:     s.cfg.Flow,
		Doc:     doc,
		Source:  recording.NewSource(s.cfg.RecordingBaseURL, s.store),
		UI:      overlay.New(br, s.cfg.Overlay, s.log),
		Clicker: br,
		Store:   session.NewBrowser(br, s.log),
		Nav:     obs,
		Matcher: pagematchFromConfig(s.cfg),
		Events:  br.Events(),
		RunLog:  s.store,
		Log:     s.log,
	})

	if sessionID != "" {
		ctl.UseSession(sessionID)
	}
	s.mu.Lock()
	s.ctl = ctl
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.ctl = nil
		s.mu.Unlock()
	}()

	if err := ctl.Init(ctx); err != nil {
		return err
	}
	// With no saved mid-playback state Init leaves the controller idle;
	// an explicit Play request starts immediately.
	if snap := ctl.Snapshot(); snap.State == flow.Idle {
		if err := ctl.Start(ctx); err != nil {
			return err
		}
	}
	return ctl.Run(ctx)
}

func (s *service) Stop(ctx context.Context) error {
	s.mu.Lock()
	ctl := s.ctl
	s.mu.Unlock()
	if ctl == nil {
		return nil
	}
	return ctl.Stop(ctx)
}

func (s *service) State() flow.Snapshot {
	s.mu.Lock()
	ctl := s.ctl
	s.mu.Unlock()
	if ctl == nil {
		return flow.Snapshot{State: flow.Idle}
	}
	return ctl.Snapshot()
}

func (s *service) Sessions(ctx context.Context) ([]recording.SessionRef, error) {
	src := recording.NewSource(s.cfg.RecordingBaseURL, s.store)
	return src.Sessions(ctx)
}

func (s *service) Reset(ctx context.Context) error {
	br := browser.New(s.cfg.DevToolsURL, s.log)
	if err := br.Attach(ctx); err != nil {
		return err
	}
	defer br.Detach()

	store := session.NewBrowser(br, s.log)
	if err := store.Clear(ctx); err != nil {
		return err
	}
	rend := overlay.New(br, s.cfg.Overlay, s.log)
	return rend.RemoveAll(ctx)
}

func (s *service) History(limit int) ([]storage.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.Runs(limit)
}

func (s *service) Close() error {
	return nil
}

func pagematchFromConfig(cfg *config.Config) *pagematch.Matcher {
	return pagematch.New(cfg.Matcher.Weights, cfg.Matcher.Thresholds)
}
