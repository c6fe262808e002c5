package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/civlobby/internal/model"
)

func dialWS(t *testing.T, server *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.ServeWS(w, r, "alice")
	}))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func exchange(t *testing.T, ws *websocket.Conn, frame clientFrame) serverFrame {
	t.Helper()
	require.NoError(t, ws.WriteJSON(frame))
	return readFrame(t, ws)
}

func readFrame(t *testing.T, ws *websocket.Conn) serverFrame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply serverFrame
	require.NoError(t, ws.ReadJSON(&reply))
	return reply
}

func TestWebSocketPing(t *testing.T) {
	server, _ := newTestServer(nil)
	ws := dialWS(t, server)

	assert.Equal(t, "pong", exchange(t, ws, clientFrame{Type: "ping"}).Type)
}

func TestWebSocketUnknownFrame(t *testing.T) {
	server, _ := newTestServer(nil)
	ws := dialWS(t, server)

	reply := exchange(t, ws, clientFrame{Type: "dance"})
	assert.Equal(t, "error", reply.Type)
}

func TestWebSocketSubscribeSwitchesRooms(t *testing.T) {
	server, _ := newTestServer(nil)
	ws := dialWS(t, server)

	reply := exchange(t, ws, clientFrame{Type: "subscribe", RoomID: "room-1"})
	assert.Equal(t, serverFrame{Type: "subscribed", RoomID: "room-1"}, reply)

	reply = exchange(t, ws, clientFrame{Type: "subscribe", RoomID: "room-2"})
	assert.Equal(t, "subscribed", reply.Type)

	assert.Empty(t, server.Registry().Subscribers("room-1"))
	assert.Len(t, server.Registry().Subscribers("room-2"), 1)

	reply = exchange(t, ws, clientFrame{Type: "unsubscribe", RoomID: "room-2"})
	assert.Equal(t, "unsubscribed", reply.Type)
	assert.Empty(t, server.Registry().Subscribers("room-2"))
}

func TestWebSocketSubscribeRejectedByGuard(t *testing.T) {
	server, _ := newTestServer(func(_ context.Context, _ model.UserID, roomID model.RoomID) error {
		if roomID == "secret" {
			return errors.New("not allowed")
		}
		return nil
	})
	ws := dialWS(t, server)

	reply := exchange(t, ws, clientFrame{Type: "subscribe", RoomID: "secret"})
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, "not allowed", reply.Message)
	assert.Empty(t, server.Registry().Subscribers("secret"))

	reply = exchange(t, ws, clientFrame{Type: "subscribe"})
	assert.Equal(t, "error", reply.Type)
}

func TestWebSocketReceivesEvents(t *testing.T) {
	server, fanout := newTestServer(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanout.Run(ctx) }()

	ws := dialWS(t, server)
	exchange(t, ws, clientFrame{Type: "subscribe", RoomID: "room-1"})

	fanout.Publish(roomEvent(model.EventGameStarted, "room-1", model.ScopeBoth))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "room:game_started", body["event"])
}

func TestWebSocketDisconnectUnregisters(t *testing.T) {
	server, _ := newTestServer(nil)
	ws := dialWS(t, server)
	exchange(t, ws, clientFrame{Type: "ping"})
	require.Equal(t, 1, server.Registry().ConnectionCount())

	_ = ws.Close()

	assert.Eventually(t, func() bool {
		return server.Registry().ConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
