package response

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/realtime"
)

// Event is the envelope pushed to SSE and WebSocket clients
type Event struct {
	Event     string    `json:"event"`
	RoomID    string    `json:"room_id,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// RoomDeleted is the data of room:deleted
type RoomDeleted struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// PlayerJoined is the data of room:player_joined
type PlayerJoined struct {
	Member      Member `json:"member"`
	MemberCount int    `json:"member_count"`
}

// PlayerLeft is the data of room:player_left
type PlayerLeft struct {
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
	Kicked      bool   `json:"kicked"`
	IsBot       bool   `json:"is_bot"`
	MemberCount int    `json:"member_count"`
}

// ConfigUpdated is the data of room:player_config_updated
type ConfigUpdated struct {
	MemberID     string `json:"member_id"`
	Civilization string `json:"civilization,omitempty"`
	Color        string `json:"color,omitempty"`
}

// AllReady is the data of room:all_ready
type AllReady struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
}

// GameStarted is the data of room:game_started
type GameStarted struct {
	SessionID string         `json:"session_id"`
	RoomName  string         `json:"room_name"`
	Players   []PlayerConfig `json:"players"`
}

// GameStopped is the data of room:game_stopped
type GameStopped struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
}

// EncodeEvent renders a domain event as a push message
func EncodeEvent(e model.Event) (realtime.Message, error) {
	data, err := eventData(e.Payload)
	if err != nil {
		return realtime.Message{}, fmt.Errorf("encode %s: %w", e.Type, err)
	}

	env := Event{
		Event:     string(e.Type),
		RoomID:    string(e.RoomID),
		Timestamp: e.Timestamp,
		Data:      data,
	}
	if !e.Actor.IsZero() {
		env.Actor = e.Actor.String()
	}

	body, err := json.Marshal(env)
	if err != nil {
		return realtime.Message{}, fmt.Errorf("encode %s: %w", e.Type, err)
	}
	return realtime.Message{Event: string(e.Type), Data: body}, nil
}

func eventData(payload any) (any, error) {
	switch p := payload.(type) {
	case model.RoomCreatedPayload:
		return RoomSummaryFromModel(p.Room), nil
	case model.RoomDeletedPayload:
		return RoomDeleted{RoomID: string(p.RoomID), Name: p.Name}, nil
	case model.RoomUpdatedPayload:
		return RoomFromModel(p.Room), nil
	case model.PlayerJoinedPayload:
		return PlayerJoined{Member: MemberFromModel(p.Member), MemberCount: p.MemberCount}, nil
	case model.PlayerLeftPayload:
		return PlayerLeft{
			MemberID:    p.MemberID.String(),
			DisplayName: p.DisplayName,
			Kicked:      p.Kicked,
			IsBot:       p.IsBot,
			MemberCount: p.MemberCount,
		}, nil
	case model.BotAddedPayload:
		return MemberFromModel(p.Member), nil
	case model.ConfigUpdatedPayload:
		return ConfigUpdated{
			MemberID:     p.MemberID.String(),
			Civilization: string(p.Civilization),
			Color:        string(p.Color),
		}, nil
	case model.AllReadyPayload:
		return AllReady{RoomID: string(p.RoomID), RoomName: p.RoomName}, nil
	case model.GameStartedPayload:
		return GameStarted{
			SessionID: p.SessionID,
			RoomName:  p.RoomName,
			Players:   PlayerConfigsFromModel(p.Players),
		}, nil
	case model.GameStoppedPayload:
		return GameStopped{RoomID: string(p.RoomID), RoomName: p.RoomName}, nil
	case nil:
		return struct{}{}, nil
	default:
		return nil, fmt.Errorf("unsupported payload %T", payload)
	}
}
