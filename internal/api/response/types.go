package response

import (
	"time"

	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/services/auth"
	"github.com/mcoot/civlobby/internal/services/rooms"
)

// User represents a user in API responses
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:          string(u.ID),
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User         User      `json:"user"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		User:         UserFromModel(&s.User),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Member represents a room member
type Member struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Role         string    `json:"role"`
	IsBot        bool      `json:"is_bot"`
	Civilization string    `json:"civilization,omitempty"`
	Color        string    `json:"color,omitempty"`
	IsReady      bool      `json:"is_ready"`
	JoinedAt     time.Time `json:"joined_at"`
}

// MemberFromModel converts a model.Member
func MemberFromModel(m model.Member) Member {
	return Member{
		ID:           m.ID.String(),
		Kind:         string(m.ID.Kind),
		DisplayName:  m.DisplayName,
		AvatarURL:    m.AvatarURL,
		Role:         string(m.Role),
		IsBot:        m.ID.IsBot(),
		Civilization: string(m.Civilization),
		Color:        string(m.Color),
		IsReady:      m.IsReady,
		JoinedAt:     m.JoinedAt,
	}
}

// Room represents a full room snapshot
type Room struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	HostID     string    `json:"host_id"`
	MaxPlayers int       `json:"max_players"`
	Status     string    `json:"status"`
	Members    []Member  `json:"members"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RoomFromModel converts a model.Room
func RoomFromModel(r *model.Room) Room {
	members := make([]Member, len(r.Members))
	for i, m := range r.Members {
		members[i] = MemberFromModel(m)
	}
	return Room{
		ID:         string(r.ID),
		Name:       r.Name,
		InviteCode: string(r.InviteCode),
		HostID:     string(r.HostID),
		MaxPlayers: r.MaxPlayers,
		Status:     string(r.Status),
		Members:    members,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// RoomSummary is a lobby-list entry
type RoomSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	InviteCode  string    `json:"invite_code"`
	HostID      string    `json:"host_id"`
	MaxPlayers  int       `json:"max_players"`
	MemberCount int       `json:"member_count"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoomSummaryFromModel converts a model.RoomSummary
func RoomSummaryFromModel(s model.RoomSummary) RoomSummary {
	return RoomSummary{
		ID:          string(s.ID),
		Name:        s.Name,
		InviteCode:  string(s.InviteCode),
		HostID:      string(s.HostID),
		MaxPlayers:  s.MaxPlayers,
		MemberCount: s.MemberCount,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
	}
}

// RoomPage is one page of the lobby list
type RoomPage struct {
	Rooms      []RoomSummary `json:"rooms"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// RoomPageFromModel converts a rooms.RoomPage
func RoomPageFromModel(p *rooms.RoomPage) RoomPage {
	summaries := make([]RoomSummary, len(p.Rooms))
	for i, r := range p.Rooms {
		summaries[i] = RoomSummaryFromModel(r.Summarize())
	}
	return RoomPage{
		Rooms:      summaries,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}

// CurrentRoom wraps the caller's room, which may be absent
type CurrentRoom struct {
	Room *Room `json:"room"`
}

// PlayerConfig is one member's configuration
type PlayerConfig struct {
	MemberID     string `json:"member_id"`
	DisplayName  string `json:"display_name"`
	Civilization string `json:"civilization,omitempty"`
	Color        string `json:"color,omitempty"`
	IsReady      bool   `json:"is_ready"`
	Slot         int    `json:"slot"`
}

// PlayerConfigsFromModel converts model.PlayerConfig values
func PlayerConfigsFromModel(configs []model.PlayerConfig) []PlayerConfig {
	out := make([]PlayerConfig, len(configs))
	for i, c := range configs {
		out[i] = PlayerConfig{
			MemberID:     c.MemberID.String(),
			DisplayName:  c.DisplayName,
			Civilization: string(c.Civilization),
			Color:        string(c.Color),
			IsReady:      c.IsReady,
			Slot:         c.Slot,
		}
	}
	return out
}

// RoomConfigs lists every member's configuration
type RoomConfigs struct {
	RoomID  string         `json:"room_id"`
	Players []PlayerConfig `json:"players"`
}

// ReadyResponse is the response for readying up
type ReadyResponse struct {
	AllReady bool `json:"all_ready"`
}

// LeaveResponse is the response for leaving a room
type LeaveResponse struct {
	DeletedRoom bool `json:"deleted_room"`
}

// GameLaunch describes a started game session
type GameLaunch struct {
	SessionID string         `json:"session_id"`
	Room      Room           `json:"room"`
	Players   []PlayerConfig `json:"players"`
}

// GameLaunchFromModel converts a rooms.GameLaunch
func GameLaunchFromModel(g *rooms.GameLaunch) GameLaunch {
	return GameLaunch{
		SessionID: g.SessionID,
		Room:      RoomFromModel(g.Room),
		Players:   PlayerConfigsFromModel(g.Players),
	}
}

// Civilizations lists the selectable civilizations
type Civilizations struct {
	Civilizations []string `json:"civilizations"`
}

// Colors lists the selectable colors
type Colors struct {
	Colors []string `json:"colors"`
}
