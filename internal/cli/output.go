package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case Room:
		o.printRoom(v)
	case CurrentRoom:
		if v.Room == nil {
			fmt.Fprintln(o.w, "Not in a room")
			return
		}
		o.printRoom(*v.Room)
	case RoomPage:
		o.printRoomPage(v)
	case RoomConfigs:
		o.printRoomConfigs(v)
	case ReadyResult:
		if v.AllReady {
			fmt.Fprintln(o.w, "Ready. Everyone is ready")
		} else {
			fmt.Fprintln(o.w, "Ready")
		}
	case LeaveResult:
		if v.DeletedRoom {
			fmt.Fprintln(o.w, "Left room (room deleted)")
		} else {
			fmt.Fprintln(o.w, "Left room")
		}
	case GameLaunch:
		o.printGameLaunch(v)
	case Catalog:
		fmt.Fprintln(o.w, strings.Join(v.Values(), "\n"))
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
		fmt.Fprintf(o.w, "Connections: %d\n", v.Connections)
	default:
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// AuthResult combines user and token
type AuthResult struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
	ExpiresAt    string `json:"expires_at"`
}

// Member response type
type Member struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	IsBot        bool   `json:"is_bot"`
	Civilization string `json:"civilization,omitempty"`
	Color        string `json:"color,omitempty"`
	IsReady      bool   `json:"is_ready"`
}

// Room response type
type Room struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	InviteCode string   `json:"invite_code"`
	HostID     string   `json:"host_id"`
	MaxPlayers int      `json:"max_players"`
	Status     string   `json:"status"`
	Members    []Member `json:"members"`
}

// CurrentRoom response type
type CurrentRoom struct {
	Room *Room `json:"room"`
}

// RoomSummary response type
type RoomSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	InviteCode  string `json:"invite_code"`
	MaxPlayers  int    `json:"max_players"`
	MemberCount int    `json:"member_count"`
	Status      string `json:"status"`
}

// RoomPage response type
type RoomPage struct {
	Rooms      []RoomSummary `json:"rooms"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// PlayerConfig response type
type PlayerConfig struct {
	MemberID     string `json:"member_id"`
	DisplayName  string `json:"display_name"`
	Civilization string `json:"civilization,omitempty"`
	Color        string `json:"color,omitempty"`
	IsReady      bool   `json:"is_ready"`
	Slot         int    `json:"slot"`
}

// RoomConfigs response type
type RoomConfigs struct {
	RoomID  string         `json:"room_id"`
	Players []PlayerConfig `json:"players"`
}

// ReadyResult response type
type ReadyResult struct {
	AllReady bool `json:"all_ready"`
}

// LeaveResult response type
type LeaveResult struct {
	DeletedRoom bool `json:"deleted_room"`
}

// GameLaunch response type
type GameLaunch struct {
	SessionID string         `json:"session_id"`
	Room      Room           `json:"room"`
	Players   []PlayerConfig `json:"players"`
}

// Catalog holds one of the catalog listings
type Catalog struct {
	Civilizations []string `json:"civilizations,omitempty"`
	Colors        []string `json:"colors,omitempty"`
}

// Values returns whichever listing is populated
func (c Catalog) Values() []string {
	if len(c.Civilizations) > 0 {
		return c.Civilizations
	}
	return c.Colors
}

// HealthResult response type
type HealthResult struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

func (o *Output) printUser(u User) {
	fmt.Fprintf(o.w, "User: %s (%s)\n", u.DisplayName, u.ID)
	if u.AvatarURL != "" {
		fmt.Fprintf(o.w, "Avatar: %s\n", u.AvatarURL)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
	fmt.Fprintf(o.w, "Expires: %s\n", a.ExpiresAt)
}

func (o *Output) printRoom(r Room) {
	fmt.Fprintf(o.w, "Room: %s (%s)\n", r.Name, r.ID)
	fmt.Fprintf(o.w, "Invite Code: %s\n", r.InviteCode)
	fmt.Fprintf(o.w, "Status: %s\n", r.Status)
	fmt.Fprintf(o.w, "Members (%d/%d):\n", len(r.Members), r.MaxPlayers)
	for _, m := range r.Members {
		var tags []string
		if m.Role == "host" {
			tags = append(tags, "host")
		}
		if m.IsBot {
			tags = append(tags, "bot")
		}
		if m.IsReady {
			tags = append(tags, "ready")
		}
		suffix := ""
		if len(tags) > 0 {
			suffix = " [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Fprintf(o.w, "  - %s (%s)%s\n", m.DisplayName, m.ID, suffix)
	}
}

func (o *Output) printRoomPage(p RoomPage) {
	if len(p.Rooms) == 0 {
		fmt.Fprintln(o.w, "No rooms")
		return
	}
	for _, r := range p.Rooms {
		fmt.Fprintf(o.w, "%s  %-20s %d/%d  %s  %s\n", r.ID, r.Name, r.MemberCount, r.MaxPlayers, r.Status, r.InviteCode)
	}
	fmt.Fprintf(o.w, "Page %d of %d (%d rooms)\n", p.Page, p.TotalPages, p.Total)
}

func (o *Output) printRoomConfigs(c RoomConfigs) {
	for _, p := range c.Players {
		civ := p.Civilization
		if civ == "" {
			civ = "-"
		}
		color := p.Color
		if color == "" {
			color = "-"
		}
		ready := ""
		if p.IsReady {
			ready = " [ready]"
		}
		fmt.Fprintf(o.w, "%d. %s: %s / %s%s\n", p.Slot, p.DisplayName, civ, color, ready)
	}
}

func (o *Output) printGameLaunch(g GameLaunch) {
	fmt.Fprintf(o.w, "Game session: %s\n", g.SessionID)
	fmt.Fprintf(o.w, "Room: %s\n", g.Room.Name)
	fmt.Fprintln(o.w, "Players:")
	for _, p := range g.Players {
		fmt.Fprintf(o.w, "  %d. %s (%s, %s)\n", p.Slot, p.DisplayName, p.Civilization, p.Color)
	}
}
