package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"feedsync/internal/alert"
	"feedsync/internal/domain"
)

type fakeBackend struct {
	srv *httptest.Server

	mu    sync.Mutex
	conns []*websocket.Conn
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/notifications/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"notifications": []map[string]any{
				{"id": "A", "type": "info", "title": "a", "is_read": false, "created_at": "2026-01-01T00:00:00Z"},
			},
			"unread_count": 1,
			"total":        1,
		})
	})
	mux.HandleFunc("/notifications/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get(domain.TokenQueryParam) != "tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fb.mu.Lock()
		fb.conns = append(fb.conns, conn)
		fb.mu.Unlock()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	fb.srv = httptest.NewServer(mux)
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) push(t *testing.T, frame string) {
	t.Helper()
	fb.mu.Lock()
	conn := fb.conns[len(fb.conns)-1]
	fb.mu.Unlock()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func (fb *fakeBackend) connCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.conns)
}

func TestApplication_SyncsBaselineAndPushes(t *testing.T) {
	fb := newFakeBackend(t)
	t.Setenv("FEEDSYNC_API_BASEURL", fb.srv.URL)
	t.Setenv("FEEDSYNC_SESSION_BACKEND", "memory")
	t.Setenv("FEEDSYNC_TOKEN", "tok")
	t.Setenv("FEEDSYNC_ALERT_ENABLED", "false")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(cfg.Push.URL, "ws://"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	application, cleanup, err := InitializeApplication(ctx, cfg, LoggingConfig{})
	require.NoError(t, err)
	defer cleanup()

	done := make(chan error, 1)
	go func() { done <- application.Run() }()

	require.Eventually(t, application.Channel().Connected, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(application.Store().Snapshot().Items) == 1 }, 3*time.Second, 10*time.Millisecond)

	fb.push(t, `{"event":"new_notification","data":{"id":"B","type":"success","title":"b","is_read":false,"created_at":"2026-01-02T00:00:00Z"}}`)

	require.Eventually(t, func() bool {
		snap := application.Store().Snapshot()
		return len(snap.Items) == 2 && snap.Items[0].ID == "B" && snap.UnreadCount == 2 && snap.Total == 2
	}, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return application.Health().Report().Status == "ok"
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, application.Tokens().Logout())
	require.Eventually(t, func() bool {
		return application.Channel().State() == domain.ChannelDisconnected
	}, 3*time.Second, 10*time.Millisecond)
	require.Empty(t, application.Store().Snapshot().Items)
	require.Equal(t, 1, fb.connCount())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("application did not stop")
	}
}

func TestApplication_RunUnlocksTerminalBell(t *testing.T) {
	fb := newFakeBackend(t)
	t.Setenv("FEEDSYNC_API_BASEURL", fb.srv.URL)
	t.Setenv("FEEDSYNC_SESSION_BACKEND", "memory")
	t.Setenv("FEEDSYNC_TOKEN", "")
	t.Setenv("FEEDSYNC_ALERT_ENABLED", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	application, cleanup, err := InitializeApplication(ctx, cfg, LoggingConfig{})
	require.NoError(t, err)
	defer cleanup()
	require.False(t, application.Alert().Unlocked())

	done := make(chan error, 1)
	go func() { done <- application.Run() }()

	require.Eventually(t, application.Alert().Unlocked, 3*time.Second, 10*time.Millisecond)
	for _, kind := range []alert.InputKind{alert.InputClick, alert.InputTouch, alert.InputKey} {
		require.Zero(t, application.Input().Listeners(kind))
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("application did not stop")
	}
}
