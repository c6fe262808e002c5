package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSSE(t *testing.T) {
	stream := strings.Join([]string{
		"event: connected",
		`data: {"status":"connected"}`,
		"",
		": keepalive",
		"",
		"event: room:updated",
		"data: line one",
		"data: line two",
		"",
		"data: orphan data without an event",
		"",
	}, "\n")

	type got struct{ event, data string }
	var events []got
	err := readSSE(strings.NewReader(stream), func(event, data string) error {
		events = append(events, got{event, data})
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []got{
		{"connected", `{"status":"connected"}`},
		{"room:updated", "line one\nline two"},
	}, events)
}

func TestReadSSE_StopsOnCallbackError(t *testing.T) {
	stream := "event: a\ndata: 1\n\nevent: b\ndata: 2\n\n"
	stop := errors.New("stop")

	calls := 0
	err := readSSE(strings.NewReader(stream), func(string, string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestOutput_Text(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		contains []string
	}{
		{
			name: "room",
			data: Room{
				ID:         "r1",
				Name:       "Friday",
				InviteCode: "ABC123",
				MaxPlayers: 4,
				Status:     "waiting",
				Members: []Member{
					{ID: "human:u1", DisplayName: "Alice", Role: "host"},
					{ID: "bot:b1", DisplayName: "Bot Bob", Role: "player", IsBot: true},
				},
			},
			contains: []string{"Room: Friday (r1)", "Invite Code: ABC123", "Members (2/4)", "Alice (human:u1) [host]", "Bot Bob (bot:b1) [bot]"},
		},
		{
			name:     "no current room",
			data:     CurrentRoom{},
			contains: []string{"Not in a room"},
		},
		{
			name:     "empty page",
			data:     RoomPage{},
			contains: []string{"No rooms"},
		},
		{
			name:     "leave deleted room",
			data:     LeaveResult{DeletedRoom: true},
			contains: []string{"room deleted"},
		},
		{
			name:     "catalog",
			data:     Catalog{Colors: []string{"red", "blue"}},
			contains: []string{"red\nblue"},
		},
		{
			name:     "configs",
			data:     RoomConfigs{Players: []PlayerConfig{{Slot: 1, DisplayName: "Alice", Color: "red", IsReady: true}}},
			contains: []string{"1. Alice: - / red [ready]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewOutput("text", &buf).Print(tt.data)
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput("json", &buf)

	out.PrintMessage("hello")
	assert.JSONEq(t, `{"message":"hello"}`, buf.String())

	buf.Reset()
	out.Print(ReadyResult{AllReady: true})
	assert.JSONEq(t, `{"all_ready":true}`, buf.String())
}

func TestAPIError(t *testing.T) {
	err := &APIError{Status: 503, Code: "TEMPORARILY_UNAVAILABLE", Kind: "transient", Message: "try again"}
	assert.Equal(t, "try again (TEMPORARILY_UNAVAILABLE)", err.Error())
	assert.True(t, err.Retryable())
}
