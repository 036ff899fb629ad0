package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmocoin-bot/logging"
)

func TestGorillaSubscriberRoundTrip(t *testing.T) {
	commands := make(chan command, 4)
	paths := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var c command
		if conn.ReadJSON(&c) != nil {
			return
		}
		commands <- c
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"ERR-5003 Request too many."}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"executionEvents","orderId":1}`))
		if conn.ReadJSON(&c) == nil {
			commands <- c
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewGorillaSubscriber(wsURL, wsURL+"/private", time.Second, 0, logging.Nop())

	got := make(chan string, 2)
	sub, err := s.SubscribePrivate(context.Background(), "tok", "executionEvents", func(raw []byte) { got <- string(raw) })
	require.NoError(t, err)
	assert.Equal(t, "/private/tok", <-paths)
	assert.Equal(t, command{Command: "subscribe", Channel: "executionEvents"}, <-commands)

	select {
	case msg := <-got:
		assert.Contains(t, msg, `"orderId":1`)
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
	assert.True(t, sub.Running())

	require.NoError(t, sub.Unsubscribe())
	assert.Equal(t, "unsubscribe", (<-commands).Command)
	require.NoError(t, sub.Close())
	assert.False(t, sub.Running())
}

func TestSubscribePrivateRequiresToken(t *testing.T) {
	s := NewGorillaSubscriber("ws://x", "ws://y", 0, 0, logging.Nop())
	_, err := s.SubscribePrivate(context.Background(), "", "orderEvents", nil)
	assert.Error(t, err)
}

func TestReadLoopStopsWhenServerCloses(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		var c command
		_ = conn.ReadJSON(&c)
		_ = conn.Close()
	}))
	defer srv.Close()

	s := NewGorillaSubscriber("ws"+strings.TrimPrefix(srv.URL, "http"), "", time.Second, 0, logging.Nop())
	sub, err := s.SubscribePublic(context.Background(), "ticker", "BTC_JPY", func([]byte) {})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return !sub.Running() }, 2*time.Second, 10*time.Millisecond)
}
