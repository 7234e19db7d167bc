package chatclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method         string
	Path           string
	Query          map[string][]string
	Body           map[string]any
	ContentType    string
	IdempotencyKey string
}

// fakeBackend answers each path with a canned handler and records requests.
type fakeBackend struct {
	t        *testing.T
	srv      *httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]func(req recordedRequest) (int, any)
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{t: t, routes: map[string]func(recordedRequest) (int, any){}}
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) handle(path string, fn func(req recordedRequest) (int, any)) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.routes[path] = fn
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method:         r.Method,
		Path:           r.URL.Path,
		Query:          r.URL.Query(),
		ContentType:    r.Header.Get("Content-Type"),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	if r.Body != nil && r.ContentLength != 0 {
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
	}

	fb.mu.Lock()
	fb.requests = append(fb.requests, rec)
	fn, ok := fb.routes[r.URL.Path]
	fb.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	status, payload := fn(rec)
	if raw, ok := payload.(string); ok {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(raw))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (fb *fakeBackend) Requests() []recordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]recordedRequest, len(fb.requests))
	copy(out, fb.requests)
	return out
}

func (fb *fakeBackend) profile(p EndpointProfile) EndpointProfile {
	p.BaseURL = fb.srv.URL
	return p
}

func newTestClient(t *testing.T, p EndpointProfile, opts ...Option) (*Client, *MemoryTranscript) {
	t.Helper()
	tr, err := NewHTTPTransport(p.BaseURL)
	require.NoError(t, err)
	t.Cleanup(tr.CloseIdleConnections)
	transcript := NewMemoryTranscript()
	c, err := New(p, tr, transcript, opts...)
	require.NoError(t, err)
	return c, transcript
}

type turnView struct {
	Role Role
	Text string
}

func view(turns []Turn) []turnView {
	out := make([]turnView, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnView{Role: t.Role, Text: t.Text})
	}
	return out
}
