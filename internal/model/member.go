package model

import (
	"fmt"
	"strings"
	"time"
)

// MemberKind distinguishes human members from synthetic bot members
type MemberKind string

const (
	MemberKindHuman MemberKind = "human"
	MemberKindBot   MemberKind = "bot"
)

// MemberID identifies a room member. Human and bot identifiers live in
// separate namespaces, so a bot id can never collide with a user id.
type MemberID struct {
	Kind  MemberKind
	Value string
}

// Human returns the member id for a human user
func Human(id UserID) MemberID {
	return MemberID{Kind: MemberKindHuman, Value: string(id)}
}

// Bot returns the member id for a bot
func Bot(id string) MemberID {
	return MemberID{Kind: MemberKindBot, Value: id}
}

// IsBot reports whether the id refers to a bot
func (id MemberID) IsBot() bool {
	return id.Kind == MemberKindBot
}

// UserID returns the underlying user id. Only meaningful for human members.
func (id MemberID) UserID() UserID {
	return UserID(id.Value)
}

// IsZero reports whether the id is unset
func (id MemberID) IsZero() bool {
	return id.Kind == "" && id.Value == ""
}

// String returns the canonical "kind:value" form, also used as the
// membership index key.
func (id MemberID) String() string {
	return string(id.Kind) + ":" + id.Value
}

// ParseMemberID parses the canonical form produced by String
func ParseMemberID(s string) (MemberID, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok || value == "" {
		return MemberID{}, fmt.Errorf("%w: %q", ErrInvalidMemberID, s)
	}
	switch MemberKind(kind) {
	case MemberKindHuman, MemberKindBot:
		return MemberID{Kind: MemberKind(kind), Value: value}, nil
	default:
		return MemberID{}, fmt.Errorf("%w: %q", ErrInvalidMemberID, s)
	}
}

// MemberRole is the role a member holds in a room
type MemberRole string

const (
	RoleHost   MemberRole = "host"
	RolePlayer MemberRole = "player"
	RoleBot    MemberRole = "bot"
)

// Member is a room membership entry. Civilization and Color are empty
// until configured.
type Member struct {
	ID           MemberID
	DisplayName  string
	AvatarURL    string
	Role         MemberRole
	Civilization Civilization
	Color        Color
	IsReady      bool
	JoinedAt     time.Time
}

// IsConfigured reports whether both civilization and color are chosen
func (m *Member) IsConfigured() bool {
	return m.Civilization != "" && m.Color != ""
}

// ResetConfig clears the member's configuration and readiness
func (m *Member) ResetConfig() {
	m.Civilization = ""
	m.Color = ""
	m.IsReady = false
}
