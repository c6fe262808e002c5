package mongo

import (
	"time"

	"github.com/mcoot/civlobby/internal/model"
)

// roomDocument is the persisted shape of a room
type roomDocument struct {
	ID         string           `bson:"_id"`
	Name       string           `bson:"name"`
	InviteCode string           `bson:"invite_code"`
	HostID     string           `bson:"host_id"`
	MaxPlayers int              `bson:"max_players"`
	Status     string           `bson:"status"`
	Members    []memberDocument `bson:"members"`
	Version    int64            `bson:"version"`
	CreatedAt  time.Time        `bson:"created_at"`
	UpdatedAt  time.Time        `bson:"updated_at"`
}

type memberDocument struct {
	Kind         string    `bson:"kind"`
	ID           string    `bson:"id"`
	DisplayName  string    `bson:"display_name"`
	AvatarURL    string    `bson:"avatar_url,omitempty"`
	Role         string    `bson:"role"`
	Civilization string    `bson:"civilization,omitempty"`
	Color        string    `bson:"color,omitempty"`
	IsReady      bool      `bson:"is_ready"`
	JoinedAt     time.Time `bson:"joined_at"`
}

// membershipDocument is one membership index entry. The _id is the
// member key, so the unique primary index enforces one room per member.
type membershipDocument struct {
	ID     string `bson:"_id"`
	RoomID string `bson:"room_id"`
}

func toDocument(r *model.Room) roomDocument {
	members := make([]memberDocument, len(r.Members))
	for i, m := range r.Members {
		members[i] = memberDocument{
			Kind:         string(m.ID.Kind),
			ID:           m.ID.Value,
			DisplayName:  m.DisplayName,
			AvatarURL:    m.AvatarURL,
			Role:         string(m.Role),
			Civilization: string(m.Civilization),
			Color:        string(m.Color),
			IsReady:      m.IsReady,
			JoinedAt:     m.JoinedAt,
		}
	}
	return roomDocument{
		ID:         string(r.ID),
		Name:       r.Name,
		InviteCode: string(r.InviteCode),
		HostID:     string(r.HostID),
		MaxPlayers: r.MaxPlayers,
		Status:     string(r.Status),
		Members:    members,
		Version:    r.Version,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (d roomDocument) toModel() *model.Room {
	members := make([]model.Member, len(d.Members))
	for i, m := range d.Members {
		members[i] = model.Member{
			ID:           model.MemberID{Kind: model.MemberKind(m.Kind), Value: m.ID},
			DisplayName:  m.DisplayName,
			AvatarURL:    m.AvatarURL,
			Role:         model.MemberRole(m.Role),
			Civilization: model.Civilization(m.Civilization),
			Color:        model.Color(m.Color),
			IsReady:      m.IsReady,
			JoinedAt:     m.JoinedAt.UTC(),
		}
	}
	return &model.Room{
		ID:         model.RoomID(d.ID),
		Name:       d.Name,
		InviteCode: model.InviteCode(d.InviteCode),
		HostID:     model.UserID(d.HostID),
		MaxPlayers: d.MaxPlayers,
		Status:     model.RoomStatus(d.Status),
		Members:    members,
		Version:    d.Version,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
}

func membershipDocuments(roomID model.RoomID, ids []model.MemberID) []any {
	docs := make([]any, len(ids))
	for i, id := range ids {
		docs[i] = membershipDocument{ID: id.String(), RoomID: string(roomID)}
	}
	return docs
}

func memberKeys(ids []model.MemberID) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	return keys
}
