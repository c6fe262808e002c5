package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/civlobby/internal/dependencies/mocks"
	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		data     string
		expected string
	}{
		{
			name:     "single line",
			event:    "room:updated",
			data:     `{"a":1}`,
			expected: "event: room:updated\ndata: {\"a\":1}\n\n",
		},
		{
			name:     "multi line",
			event:    "note",
			data:     "one\ntwo",
			expected: "event: note\ndata: one\ndata: two\n\n",
		},
		{
			name:     "carriage returns dropped",
			event:    "note",
			data:     "one\r\ntwo\r\n",
			expected: "event: note\ndata: one\ndata: two\n\n",
		},
		{
			name:     "empty data",
			event:    "ping",
			data:     "",
			expected: "event: ping\ndata: \n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(formatSSEMessage(tt.event, tt.data)))
		})
	}
}

func newTestServer(guard ChannelGuard) (*Server, *Fanout) {
	logger := testutil.NopLogger()
	registry := NewRegistry(logger)
	fanout := NewFanout(registry, testEncoder, DefaultFanoutConfig(), logger)
	server := NewServer(registry, guard, mocks.NewSequentialIDs("conn"), mocks.NewMockClock(epoch),
		ServerConfig{KeepAlive: time.Hour}, logger)
	return server, fanout
}

// readSSEEvent reads lines until a blank line and returns the event name and data
func readSSEEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data += strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestServeSSEStreamsRoomEvents(t *testing.T) {
	server, fanout := newTestServer(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanout.Run(ctx) }()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.ServeSSE(w, r, "alice", model.RoomID(r.URL.Query().Get("room_id")))
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "?room_id=room-1")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, data := readSSEEvent(t, reader)
	assert.Equal(t, "connected", event)
	assert.Contains(t, data, `"connection_id":"conn-1"`)

	require.Eventually(t, func() bool {
		return len(server.Registry().Subscribers("room-1")) == 1
	}, time.Second, 5*time.Millisecond)

	fanout.Publish(roomEvent(model.EventRoomUpdated, "room-2", model.ScopeRoom))
	fanout.Publish(roomEvent(model.EventRoomUpdated, "room-1", model.ScopeRoom))

	event, data = readSSEEvent(t, reader)
	assert.Equal(t, "room:updated", event)
	assert.JSONEq(t, `{"event":"room:updated","room_id":"room-1"}`, data)
}

func TestServeSSEUnregistersOnDisconnect(t *testing.T) {
	server, _ := newTestServer(nil)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.ServeSSE(w, r, "alice", "")
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	event, _ := readSSEEvent(t, bufio.NewReader(resp.Body))
	require.Equal(t, "connected", event)
	assert.Equal(t, 1, server.Registry().ConnectionCount())

	_ = resp.Body.Close()

	assert.Eventually(t, func() bool {
		return server.Registry().ConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
