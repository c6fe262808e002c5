package storage

import (
	"context"

	"github.com/mcoot/civlobby/internal/model"
)

// UpdateFunc mutates a private copy of a room. Returning an error aborts
// the update and nothing is written.
type UpdateFunc func(room *model.Room) error

// ListFilter selects and pages rooms. An empty Status matches every room.
// Results are ordered newest first.
type ListFilter struct {
	Status model.RoomStatus
	Offset int
	Limit  int
}

// Storage is the Room Store. It owns room documents together with the
// membership index (member -> room) and the invite code index, and keeps
// all three consistent on every write.
//
// Every member id appears in at most one room. CreateRoom and UpdateRoom
// fail with model.ErrAlreadyInRoom when a write would bind a member that
// another room already holds.
type Storage interface {
	// CreateRoom persists a new room and claims index entries for its
	// members and invite code.
	CreateRoom(ctx context.Context, room *model.Room) error

	// GetRoom returns model.ErrRoomNotFound when the room does not exist
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)

	// GetRoomByInviteCode looks up a live room by its invite code
	GetRoomByInviteCode(ctx context.Context, code model.InviteCode) (*model.Room, error)

	// InviteCodeExists reports whether a live room uses the code
	InviteCodeExists(ctx context.Context, code model.InviteCode) (bool, error)

	// FindRoomIDByMember returns model.ErrNotInAnyRoom when the member is unbound
	FindRoomIDByMember(ctx context.Context, id model.MemberID) (model.RoomID, error)

	// ListRooms returns one page of rooms and the total matching count
	ListRooms(ctx context.Context, filter ListFilter) ([]*model.Room, int, error)

	// UpdateRoom applies fn as a conditional write: fn sees the current
	// room, and the result is stored only if nobody wrote the room in
	// between. The store bumps Version and UpdatedAt is left to fn.
	UpdateRoom(ctx context.Context, id model.RoomID, fn UpdateFunc) (*model.Room, error)

	// DeleteRoom removes the room and releases every index entry it held
	DeleteRoom(ctx context.Context, id model.RoomID) error

	// Close releases backend resources
	Close() error
}
