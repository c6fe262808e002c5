package realtime

import (
	"encoding/json"
	"time"

	"github.com/mcoot/civlobby/internal/model"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func testEncoder(e model.Event) (Message, error) {
	data, err := json.Marshal(map[string]string{
		"event":   string(e.Type),
		"room_id": string(e.RoomID),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{Event: string(e.Type), Data: data}, nil
}

func newTestConn(id string, user model.UserID, buffer int) *connection {
	return newConnection(id, user, buffer, epoch)
}

// received drains whatever is queued on the connection
func received(c *connection) []string {
	var events []string
	for {
		select {
		case msg := <-c.send:
			events = append(events, msg.Event)
		default:
			return events
		}
	}
}

func roomEvent(t model.EventType, room model.RoomID, scope model.Scope) model.Event {
	return model.Event{Type: t, RoomID: room, Scope: scope, Timestamp: epoch}
}
