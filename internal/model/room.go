package model

import "time"

// RoomID uniquely identifies a room
type RoomID string

// InviteCode is a short, case-insensitive alternate join key
type InviteCode string

// RoomStatus is a room's lifecycle state
type RoomStatus string

const (
	RoomStatusWaiting     RoomStatus = "waiting"     // Accepting joins
	RoomStatusConfiguring RoomStatus = "configuring" // Members choosing civilization and color
	RoomStatusReady       RoomStatus = "ready"       // Every member ready, awaiting launch
	RoomStatusPlaying     RoomStatus = "playing"     // Game session running
)

const (
	MinPlayers        = 2
	MaxPlayers        = 8
	DefaultMaxPlayers = 4
)

// Room is the lobby aggregate. Members are kept in join order; the host
// is always the first member.
type Room struct {
	ID         RoomID
	Name       string
	InviteCode InviteCode
	HostID     UserID
	MaxPlayers int
	Status     RoomStatus
	Members    []Member
	Version    int64 // Incremented by the store on every write
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GetMember returns the member with the given id, or nil if not present
func (r *Room) GetMember(id MemberID) *Member {
	for i := range r.Members {
		if r.Members[i].ID == id {
			return &r.Members[i]
		}
	}
	return nil
}

// GetHost returns the host member, or nil if none
func (r *Room) GetHost() *Member {
	return r.GetMember(Human(r.HostID))
}

// IsHost reports whether the user owns the room
func (r *Room) IsHost(id UserID) bool {
	return r.HostID == id
}

// IsFull reports whether no more members can be added
func (r *Room) IsFull() bool {
	return len(r.Members) >= r.MaxPlayers
}

// RemoveMember removes the member with the given id, reporting whether
// it was present
func (r *Room) RemoveMember(id MemberID) bool {
	for i := range r.Members {
		if r.Members[i].ID == id {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return true
		}
	}
	return false
}

// ColorHolder returns the member holding the color, or nil
func (r *Room) ColorHolder(c Color) *Member {
	if c == "" {
		return nil
	}
	for i := range r.Members {
		if r.Members[i].Color == c {
			return &r.Members[i]
		}
	}
	return nil
}

// UnusedColors returns the catalog colors no member currently holds
func (r *Room) UnusedColors() []Color {
	var unused []Color
	for _, c := range Colors() {
		if r.ColorHolder(c) == nil {
			unused = append(unused, c)
		}
	}
	return unused
}

// Bots returns pointers to the bot members
func (r *Room) Bots() []*Member {
	var bots []*Member
	for i := range r.Members {
		if r.Members[i].ID.IsBot() {
			bots = append(bots, &r.Members[i])
		}
	}
	return bots
}

// AllHumansReady reports whether every human member is ready
func (r *Room) AllHumansReady() bool {
	for _, m := range r.Members {
		if !m.ID.IsBot() && !m.IsReady {
			return false
		}
	}
	return true
}

// AllReady reports whether every member, bots included, is ready
func (r *Room) AllReady() bool {
	if len(r.Members) == 0 {
		return false
	}
	for _, m := range r.Members {
		if !m.IsReady {
			return false
		}
	}
	return true
}

// MemberIDs returns the ids of all members in join order
func (r *Room) MemberIDs() []MemberID {
	ids := make([]MemberID, len(r.Members))
	for i, m := range r.Members {
		ids[i] = m.ID
	}
	return ids
}

// Clone returns a deep copy of the room
func (r *Room) Clone() *Room {
	c := *r
	c.Members = make([]Member, len(r.Members))
	copy(c.Members, r.Members)
	return &c
}

// GameSessionID derives the identifier of the game session launched
// from the room
func (r *Room) GameSessionID() string {
	return "game-" + string(r.ID)
}
