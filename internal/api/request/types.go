package request

// CreateGuestRequest is the request body for creating a guest user
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"max_players,omitempty"`
}

// JoinRequest is the request body for joining a room by invite code or id.
// Exactly one of the fields must be set.
type JoinRequest struct {
	InviteCode string `json:"invite_code,omitempty"`
	RoomID     string `json:"room_id,omitempty"`
}

// KickRequest is the request body for kicking a member
type KickRequest struct {
	MemberID string `json:"member_id"`
}

// UpdateConfigRequest is the request body for choosing a civilization
// and color. Omitted fields are left unchanged.
type UpdateConfigRequest struct {
	Civilization *string `json:"civilization,omitempty"`
	Color        *string `json:"color,omitempty"`
}
