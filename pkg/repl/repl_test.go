package repl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-go-golems/parley/pkg/chatclient"
	"github.com/stretchr/testify/require"
)

func newREPL(t *testing.T, p chatclient.EndpointProfile, handler http.HandlerFunc) (*REPL, *chatclient.StaticInput, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p.BaseURL = srv.URL

	tr, err := chatclient.NewHTTPTransport(p.BaseURL)
	require.NoError(t, err)
	t.Cleanup(tr.CloseIdleConnections)

	var out bytes.Buffer
	in := chatclient.NewStaticInput("", "", false)
	c, err := chatclient.New(p, tr, NewWriterTranscript(&out),
		chatclient.WithInputSource(in), chatclient.WithDomainSource(in), chatclient.WithToggleSource(in))
	require.NoError(t, err)
	return New(c, in, &out, ""), in, &out
}

func TestREPL_Conversation(t *testing.T) {
	var mu sync.Mutex
	var bodies []map[string]any
	r, _, out := newREPL(t, chatclient.UserProfile(), func(w http.ResponseWriter, req *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(req.Body).Decode(&body)
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "echo " + body["question"].(string), "user_id": "abc123"})
	})

	err := r.Run(context.Background(), strings.NewReader("Hello\n   \n/domain finance\n/use-domain on\nHow are you?\n/session\n/quit\nignored\n"))
	require.NoError(t, err)

	require.Equal(t, strings.Join([]string{
		"user: Hello",
		"bot: echo Hello",
		"domain: finance",
		"use domain: true",
		"user: How are you?",
		"bot: echo How are you?",
		"session: abc123",
		"",
	}, "\n"), out.String())

	require.Len(t, bodies, 2)
	require.Nil(t, bodies[0]["user_id"])
	require.Equal(t, "abc123", bodies[1]["user_id"])
	require.Equal(t, "finance", bodies[1]["domain"])
	require.Equal(t, true, bodies[1]["use_domain"])
}

func TestREPL_BackendDown(t *testing.T) {
	r, _, out := newREPL(t, chatclient.UserProfile(), func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	require.NoError(t, r.Run(context.Background(), strings.NewReader("test\n/session\n")))
	require.Equal(t, "user: test\nbot: Error: Could not reach backend\nsession: none\n", out.String())
}

func TestREPL_NewAndHistory(t *testing.T) {
	r, _, out := newREPL(t, chatclient.ConversationProfile(), func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/start":
			_ = json.NewEncoder(w).Encode(map[string]any{"conversation_id": 4})
		case "/history/4":
			_ = json.NewEncoder(w).Encode(map[string]any{"messages": []map[string]any{
				{"role": "user", "content": "hi", "timestamp": "t1"},
			}})
		default:
			http.NotFound(w, req)
		}
	})

	require.NoError(t, r.Run(context.Background(), strings.NewReader("/history\n/new Planning\n/history\n/bogus\n")))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, []string{
		"error: no session established",
		"started conversation #4",
		"[t1] user: hi",
		"error: unknown command /bogus (try /help)",
	}, lines)
}
