package recording

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// ErrNoSessions is returned when the index carries no recordings.
var ErrNoSessions = errors.New("recording: no sessions in index")

// Cache is an optional local fallback for fetched documents.
type Cache interface {
	SaveRecording(sessionID string, raw []byte) error
	LoadRecording(sessionID string) ([]byte, bool)
}

// Source fetches the recording index and session documents over HTTP.
type Source struct {
	baseURL string
	hc      *http.Client
	cache   Cache
}

// NewSource creates a Source rooted at baseURL, e.g.
// "https://example.com/cursor-recording". cache may be nil.
func NewSource(baseURL string, cache Cache) *Source {
	return &Source{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
	}
}

// Sessions fetches index.json and returns the catalog, most recent
// session first.
func (s *Source) Sessions(ctx context.Context) ([]SessionRef, error) {
	raw, err := s.get(ctx, s.baseURL+"/index.json")
	if err != nil {
		return nil, fmt.Errorf("fetch session index: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("parse session index: %w", err)
	}
	return idx.Sessions, nil
}

// LatestSession fetches index.json and returns the most recent
// session id.
func (s *Source) LatestSession(ctx context.Context) (string, error) {
	raw, err := s.get(ctx, s.baseURL+"/index.json")
	if err != nil {
		return "", fmt.Errorf("fetch session index: %w", err)
	}
	id := gjson.GetBytes(raw, "sessions.0.id")
	if !id.Exists() || id.String() == "" {
		return "", ErrNoSessions
	}
	return id.String(), nil
}

// Load fetches the full recording for a session. On fetch failure a
// cached copy is used when available.
func (s *Source) Load(ctx context.Context, sessionID string) (*Recording, error) {
	raw, err := s.get(ctx, fmt.Sprintf("%s/session-%s.json", s.baseURL, sessionID))
	if err != nil {
		if s.cache != nil {
			if cached, ok := s.cache.LoadRecording(sessionID); ok {
				return decode(cached, sessionID)
			}
		}
		return nil, fmt.Errorf("load recording %s: %w", sessionID, err)
	}
	rec, err := decode(raw, sessionID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SaveRecording(sessionID, raw)
	}
	return rec, nil
}

func decode(raw []byte, sessionID string) (*Recording, error) {
	if !gjson.GetBytes(raw, "recording.interactions").IsArray() {
		return nil, fmt.Errorf("recording %s: document has no interactions", sessionID)
	}
	var doc struct {
		Recording Recording `json:"recording"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("recording %s: %w", sessionID, err)
	}
	doc.Recording.SessionID = sessionID
	return &doc.Recording, nil
}

func (s *Source) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
