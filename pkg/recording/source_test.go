package recording

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionDoc = `{
	"recording": {
		"interactions": [
			{
				"type": "click",
				"element": {
					"tagName": "A",
					"textContent": "Writing",
					"path": ["nav", "a:nth-child(2)"],
					"cssSelector": "nav a.active",
					"elementRect": {"left": 10, "top": 20, "width": 80, "height": 24}
				},
				"pageInfo": {"path": "/", "url": "https://example.com/"},
				"pageFingerprint": {
					"url": "/",
					"headings": ["Home"],
					"navItems": ["Home", "Writing"],
					"contentElements": [],
					"formElements": []
				}
			},
			{
				"type": "click",
				"element": {"tagName": "BUTTON", "textContent": "Subscribe"},
				"pageInfo": {"path": "/writing", "url": "https://example.com/writing"}
			}
		]
	}
}`

type memCache struct {
	docs map[string][]byte
}

func (c *memCache) SaveRecording(sessionID string, raw []byte) error {
	if c.docs == nil {
		c.docs = map[string][]byte{}
	}
	c.docs[sessionID] = raw
	return nil
}

func (c *memCache) LoadRecording(sessionID string) ([]byte, bool) {
	raw, ok := c.docs[sessionID]
	return raw, ok
}

func newRecordingServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/cursor-recording/index.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sessions": [{"id": "sess-2", "timestamp": 200}, {"id": "sess-1", "timestamp": 100}]}`))
	})
	mux.HandleFunc("/cursor-recording/session-sess-2.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sessionDoc))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLatestSession(t *testing.T) {
	srv := newRecordingServer(t)
	s := NewSource(srv.URL+"/cursor-recording", nil)

	id, err := s.LatestSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-2", id)
}

func TestSessionsCatalog(t *testing.T) {
	srv := newRecordingServer(t)
	s := NewSource(srv.URL+"/cursor-recording", nil)

	refs, err := s.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "sess-2", refs[0].ID)
	assert.Equal(t, int64(200), refs[0].Timestamp)
	assert.Equal(t, "sess-1", refs[1].ID)
}

func TestLatestSessionEmptyIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sessions": []}`))
	}))
	t.Cleanup(srv.Close)

	s := NewSource(srv.URL, nil)
	_, err := s.LatestSession(context.Background())
	assert.ErrorIs(t, err, ErrNoSessions)
}

func TestLoadRecording(t *testing.T) {
	srv := newRecordingServer(t)
	s := NewSource(srv.URL+"/cursor-recording", nil)

	rec, err := s.Load(context.Background(), "sess-2")
	require.NoError(t, err)
	assert.Equal(t, "sess-2", rec.SessionID)
	require.Equal(t, 2, rec.Len())

	first := rec.Step(0)
	assert.Equal(t, "click", first.Type)
	assert.Equal(t, "A", first.Element.TagName)
	assert.Equal(t, []string{"nav", "a:nth-child(2)"}, first.Element.Path)
	require.NotNil(t, first.Element.ElementRect)
	assert.Equal(t, 80.0, first.Element.ElementRect.Width)
	require.NotNil(t, first.PageFingerprint)
	assert.Equal(t, []string{"Home", "Writing"}, first.PageFingerprint.NavItems)

	assert.Nil(t, rec.Step(2))
}

func TestLoadPopulatesCache(t *testing.T) {
	srv := newRecordingServer(t)
	cache := &memCache{}
	s := NewSource(srv.URL+"/cursor-recording", cache)

	_, err := s.Load(context.Background(), "sess-2")
	require.NoError(t, err)
	_, ok := cache.LoadRecording("sess-2")
	assert.True(t, ok)
}

func TestLoadFallsBackToCache(t *testing.T) {
	cache := &memCache{}
	require.NoError(t, cache.SaveRecording("sess-2", []byte(sessionDoc)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	s := NewSource(srv.URL, cache)
	rec, err := s.Load(context.Background(), "sess-2")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Len())
}

func TestLoadMissingSession(t *testing.T) {
	srv := newRecordingServer(t)
	s := NewSource(srv.URL+"/cursor-recording", nil)
	_, err := s.Load(context.Background(), "nope")
	assert.Error(t, err)
}

func TestLoadRejectsMalformedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"recording": {}}`))
	}))
	t.Cleanup(srv.Close)

	s := NewSource(srv.URL, nil)
	_, err := s.Load(context.Background(), "sess-2")
	assert.Error(t, err)
}
