package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventRoomCreated   EventType = "room:created"
	EventRoomDeleted   EventType = "room:deleted"
	EventRoomUpdated   EventType = "room:updated"
	EventPlayerJoined  EventType = "room:player_joined"
	EventPlayerLeft    EventType = "room:player_left"
	EventBotAdded      EventType = "room:bot_added"
	EventAllReady      EventType = "room:all_ready"
	EventGameStarted   EventType = "room:game_started"
	EventGameStopped   EventType = "room:game_stopped"
	EventConfigUpdated EventType = "room:player_config_updated"
)

// Scope selects which channel an event is delivered on
type Scope int

const (
	ScopeRoom   Scope = 1 << iota // Subscribers of the room channel
	ScopeGlobal                   // Every live connection
)

// ScopeBoth delivers on the room and global channels
const ScopeBoth = ScopeRoom | ScopeGlobal

// Event is the base structure for all events
type Event struct {
	Type      EventType
	RoomID    RoomID
	Scope     Scope
	Actor     MemberID // The member who triggered the transition
	Timestamp time.Time
	Payload   any // Type-specific data
}

// Has reports whether the event is delivered on the given scope
func (e Event) Has(s Scope) bool {
	return e.Scope&s != 0
}

// RoomSummary is the lobby-list projection of a room
type RoomSummary struct {
	ID          RoomID
	Name        string
	InviteCode  InviteCode
	HostID      UserID
	MaxPlayers  int
	MemberCount int
	Status      RoomStatus
	CreatedAt   time.Time
}

// Summarize returns the lobby-list projection of the room
func (r *Room) Summarize() RoomSummary {
	return RoomSummary{
		ID:          r.ID,
		Name:        r.Name,
		InviteCode:  r.InviteCode,
		HostID:      r.HostID,
		MaxPlayers:  r.MaxPlayers,
		MemberCount: len(r.Members),
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
	}
}

// RoomCreatedPayload contains data for room created events
type RoomCreatedPayload struct {
	Room RoomSummary
}

// RoomDeletedPayload contains data for room deleted events
type RoomDeletedPayload struct {
	RoomID RoomID
	Name   string
}

// RoomUpdatedPayload carries a full room snapshot
type RoomUpdatedPayload struct {
	Room *Room
}

// PlayerJoinedPayload contains data for player joined events
type PlayerJoinedPayload struct {
	Member      Member
	MemberCount int
}

// PlayerLeftPayload contains data for player left events
type PlayerLeftPayload struct {
	MemberID    MemberID
	DisplayName string
	Kicked      bool
	IsBot       bool
	MemberCount int
}

// BotAddedPayload contains data for bot added events
type BotAddedPayload struct {
	Member Member
}

// ConfigUpdatedPayload contains data for config updated events
type ConfigUpdatedPayload struct {
	MemberID     MemberID
	Civilization Civilization
	Color        Color
}

// AllReadyPayload contains data for all ready events
type AllReadyPayload struct {
	RoomID   RoomID
	RoomName string
}

// PlayerConfig is one member's final configuration handed to a game session
type PlayerConfig struct {
	MemberID     MemberID
	DisplayName  string
	Civilization Civilization
	Color        Color
	IsReady      bool
	Slot         int // 1-based join order; the host is slot 1
}

// GameStartedPayload contains data for game started events
type GameStartedPayload struct {
	SessionID string
	RoomName  string
	Players   []PlayerConfig
}

// GameStoppedPayload contains data for game stopped events
type GameStoppedPayload struct {
	RoomID   RoomID
	RoomName string
}
