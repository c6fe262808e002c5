package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Rooms are cloned on the way in and out so callers never share state
// with the store.
type Storage struct {
	mu sync.RWMutex

	rooms       map[model.RoomID]*model.Room
	memberIndex map[model.MemberID]model.RoomID
	inviteIndex map[model.InviteCode]model.RoomID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms:       make(map[model.RoomID]*model.Room),
		memberIndex: make(map[model.MemberID]model.RoomID),
		inviteIndex: make(map[model.InviteCode]model.RoomID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func normalizeCode(code model.InviteCode) model.InviteCode {
	return model.InviteCode(strings.ToUpper(string(code)))
}

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; ok {
		return model.ErrConcurrentModification
	}
	code := normalizeCode(room.InviteCode)
	if _, ok := s.inviteIndex[code]; ok {
		return model.ErrInviteCodeTaken
	}
	for _, m := range room.Members {
		if _, ok := s.memberIndex[m.ID]; ok {
			return model.ErrAlreadyInRoom
		}
	}

	stored := room.Clone()
	stored.InviteCode = code
	s.rooms[room.ID] = stored
	s.inviteIndex[code] = room.ID
	for _, m := range room.Members {
		s.memberIndex[m.ID] = room.ID
	}
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Storage) GetRoomByInviteCode(ctx context.Context, code model.InviteCode) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.inviteIndex[normalizeCode(code)]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return s.rooms[id].Clone(), nil
}

func (s *Storage) InviteCodeExists(ctx context.Context, code model.InviteCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.inviteIndex[normalizeCode(code)]
	return ok, nil
}

func (s *Storage) FindRoomIDByMember(ctx context.Context, id model.MemberID) (model.RoomID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roomID, ok := s.memberIndex[id]
	if !ok {
		return "", model.ErrNotInAnyRoom
	}
	return roomID, nil
}

func (s *Storage) ListRooms(ctx context.Context, filter storage.ListFilter) ([]*model.Room, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*model.Room
	for _, room := range s.rooms {
		if filter.Status == "" || room.Status == filter.Status {
			matched = append(matched, room)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start, end := storage.Page(len(matched), filter.Offset, filter.Limit)
	page := make([]*model.Room, 0, end-start)
	for _, room := range matched[start:end] {
		page = append(page, room.Clone())
	}
	return page, len(matched), nil
}

func (s *Storage) UpdateRoom(ctx context.Context, id model.RoomID, fn storage.UpdateFunc) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}

	updated := current.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}

	added, removed := storage.Prepare(current, updated)
	for _, m := range added {
		if _, bound := s.memberIndex[m]; bound {
			return nil, model.ErrAlreadyInRoom
		}
	}

	for _, m := range added {
		s.memberIndex[m] = id
	}
	for _, m := range removed {
		delete(s.memberIndex, m)
	}
	s.rooms[id] = updated
	return updated.Clone(), nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	for _, m := range room.Members {
		delete(s.memberIndex, m.ID)
	}
	delete(s.inviteIndex, room.InviteCode)
	delete(s.rooms, id)
	return nil
}

// Close is a no-op for the in-memory store
func (s *Storage) Close() error {
	return nil
}
