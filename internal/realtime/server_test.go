package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krloslao/Listio/internal/auth"
)

// asUser stands in for the bearer middleware.
func asUser(userID string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if userID != "" {
			r = r.WithContext(auth.WithUserID(r.Context(), userID))
		}
		next(w, r)
	}
}

func dialWS(t *testing.T, h http.Handler, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	ws, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), header)
	if ws != nil {
		t.Cleanup(func() { _ = ws.Close() })
	}
	return ws, resp, err
}

func startHub(t *testing.T) (*Hub, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)
	return hub, ctx
}

func TestHandleWS(t *testing.T) {
	t.Run("sends welcome then user events", func(t *testing.T) {
		hub, ctx := startHub(t)
		s := NewServer(hub, "http://localhost:3000", nil)

		ws, _, err := dialWS(t, asUser("u1", s.HandleWS), "http://localhost:3000")
		require.NoError(t, err)

		var welcome map[string]any
		require.NoError(t, json.Unmarshal([]byte(readText(t, ws)), &welcome))
		assert.Equal(t, "welcome", welcome["type"])

		s.route(ctx, `{"type":"playlist.created","userId":"u1","payload":{}}`)
		assert.JSONEq(t, `{"type":"playlist.created","userId":"u1","payload":{}}`, readText(t, ws))
	})

	t.Run("forbidden origin", func(t *testing.T) {
		hub, _ := startHub(t)
		s := NewServer(hub, "http://localhost:3000", nil)

		_, resp, err := dialWS(t, asUser("u1", s.HandleWS), "http://evil.com")

		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("wildcard origin", func(t *testing.T) {
		hub, _ := startHub(t)
		s := NewServer(hub, "*", nil)

		_, _, err := dialWS(t, asUser("u1", s.HandleWS), "http://anything.example")

		assert.NoError(t, err)
	})

	t.Run("missing user context", func(t *testing.T) {
		hub, _ := startHub(t)
		s := NewServer(hub, "*", nil)
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		w := httptest.NewRecorder()

		s.HandleWS(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRoute(t *testing.T) {
	hub, ctx := startHub(t)
	s := NewServer(hub, "*", nil)

	ws, _, err := dialWS(t, asUser("u1", s.HandleWS), "")
	require.NoError(t, err)
	readText(t, ws) // welcome

	s.route(ctx, `not json`)
	s.route(ctx, `{"type":"x"}`)
	s.route(ctx, `{"type":"x","userId":"u2"}`)
	s.route(ctx, `{"type":"mine","userId":"u1"}`)

	assert.JSONEq(t, `{"type":"mine","userId":"u1"}`, readText(t, ws))
}

func TestRunRedisSubscriber(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	hub, ctx := startHub(t)
	s := NewServer(hub, "*", nil)

	ws, _, err := dialWS(t, asUser("u1", s.HandleWS), "")
	require.NoError(t, err)
	readText(t, ws) // welcome

	subCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		s.RunRedisSubscriber(subCtx, rdb, "listio.events")
		close(done)
	}()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("listio.events")["listio.events"] == 1
	}, time.Second, 10*time.Millisecond)

	payload := `{"type":"track.added","userId":"u1","payload":{"playlistId":"p1"}}`
	require.NoError(t, rdb.Publish(ctx, "listio.events", `{"type":"other","userId":"u2"}`).Err())
	require.NoError(t, rdb.Publish(ctx, "listio.events", payload).Err())

	assert.JSONEq(t, payload, readText(t, ws))

	stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber did not stop")
	}
}
