package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	slackgo "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postedMessage struct {
	Channel string
	Text    string
}

// fakeSlack records chat.postMessage calls and answers auth.test.
type fakeSlack struct {
	mu        sync.Mutex
	posted    []postedMessage
	authCalls int
	failWith  string
}

func (f *fakeSlack) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth.test", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.authCalls++
		f.mu.Unlock()
		writeSlackJSON(w, map[string]any{
			"ok":      true,
			"team":    "Second State",
			"team_id": "T123",
			"url":     "https://secondstate.slack.com/",
		})
	})
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if f.failWith != "" {
			writeSlackJSON(w, map[string]any{"ok": false, "error": f.failWith})
			return
		}
		f.mu.Lock()
		f.posted = append(f.posted, postedMessage{Channel: r.FormValue("channel"), Text: r.FormValue("text")})
		f.mu.Unlock()
		writeSlackJSON(w, map[string]any{"ok": true, "channel": r.FormValue("channel"), "ts": "1700000000.000100"})
	})
	return mux
}

func writeSlackJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestNotifier(t *testing.T, fake *fakeSlack) *Notifier {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)
	client := slackgo.New("xoxb-test", slackgo.OptionAPIURL(server.URL+"/"))
	return NewNotifierWithClient(client, nil)
}

func TestSend_PostsText(t *testing.T) {
	fake := &fakeSlack{}
	n := newTestNotifier(t, fake)

	err := n.Send(context.Background(), "secondstate", "#github-status", "New discussion: Help needed\nhttps://example.com/1")
	require.NoError(t, err)

	require.Len(t, fake.posted, 1)
	assert.Equal(t, "github-status", fake.posted[0].Channel)
	assert.Equal(t, "New discussion: Help needed\nhttps://example.com/1", fake.posted[0].Text)
}

func TestSend_ChecksWorkspaceOnce(t *testing.T) {
	fake := &fakeSlack{}
	n := newTestNotifier(t, fake)

	for range 3 {
		require.NoError(t, n.Send(context.Background(), "other-team", "C0123", "hello"))
	}

	assert.Equal(t, 1, fake.authCalls)
	assert.Len(t, fake.posted, 3)
}

func TestSend_SlackError(t *testing.T) {
	fake := &fakeSlack{failWith: "channel_not_found"}
	n := newTestNotifier(t, fake)

	err := n.Send(context.Background(), "", "missing", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
	assert.Zero(t, fake.authCalls)
}

func TestSend_EmptyChannel(t *testing.T) {
	n := newTestNotifier(t, &fakeSlack{})

	err := n.Send(context.Background(), "secondstate", " # ", "hello")
	assert.ErrorIs(t, err, ErrEmptyChannel)
}

func TestMatchesWorkspace(t *testing.T) {
	auth := &slackgo.AuthTestResponse{Team: "Second State", TeamID: "T123", URL: "https://secondstate.slack.com/"}

	assert.True(t, matchesWorkspace(auth, "secondstate"))
	assert.True(t, matchesWorkspace(auth, "second state"))
	assert.True(t, matchesWorkspace(auth, "T123"))
	assert.False(t, matchesWorkspace(auth, "acme"))
}
