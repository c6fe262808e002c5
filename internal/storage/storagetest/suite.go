// Package storagetest holds the behavioural suite every Room Store
// backend must pass.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/storage"
)

// Suite exercises a storage.Storage. Embed it and set NewStorage.
type Suite struct {
	suite.Suite

	// NewStorage returns an empty store for each test
	NewStorage func() storage.Storage

	store storage.Storage
	ctx   context.Context
	base  time.Time
}

func (s *Suite) SetupTest() {
	s.store = s.NewStorage()
	s.ctx = context.Background()
	s.base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

// Store returns the store under test
func (s *Suite) Store() storage.Storage {
	return s.store
}

func (s *Suite) newRoom(n int, host model.UserID) *model.Room {
	created := s.base.Add(time.Duration(n) * time.Minute)
	return &model.Room{
		ID:         model.RoomID(fmt.Sprintf("room-%d", n)),
		Name:       fmt.Sprintf("Room %d", n),
		InviteCode: model.InviteCode(fmt.Sprintf("CODE%02d", n)),
		HostID:     host,
		MaxPlayers: 4,
		Status:     model.RoomStatusWaiting,
		Members: []model.Member{
			{ID: model.Human(host), DisplayName: string(host), Role: model.RoleHost, JoinedAt: created},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func addMember(id model.MemberID) storage.UpdateFunc {
	return func(r *model.Room) error {
		r.Members = append(r.Members, model.Member{ID: id, Role: model.RolePlayer})
		return nil
	}
}

func (s *Suite) TestCreateAndGetRoom() {
	room := s.newRoom(1, "alice")
	s.Require().NoError(s.store.CreateRoom(s.ctx, room))

	got, err := s.store.GetRoom(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Equal(room.Name, got.Name)
	s.Equal(room.InviteCode, got.InviteCode)
	s.Equal(model.Human("alice"), got.Members[0].ID)
	s.True(room.CreatedAt.Equal(got.CreatedAt))

	roomID, err := s.store.FindRoomIDByMember(s.ctx, model.Human("alice"))
	s.Require().NoError(err)
	s.Equal(room.ID, roomID)
}

func (s *Suite) TestGetRoomNotFound() {
	_, err := s.store.GetRoom(s.ctx, "missing")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestCreateRoomRejectsBoundHost() {
	s.Require().NoError(s.store.CreateRoom(s.ctx, s.newRoom(1, "alice")))

	err := s.store.CreateRoom(s.ctx, s.newRoom(2, "alice"))
	s.ErrorIs(err, model.ErrAlreadyInRoom)

	_, err = s.store.GetRoom(s.ctx, "room-2")
	s.ErrorIs(err, model.ErrRoomNotFound)
	exists, err := s.store.InviteCodeExists(s.ctx, "CODE02")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *Suite) TestCreateRoomRejectsDuplicateInviteCode() {
	s.Require().NoError(s.store.CreateRoom(s.ctx, s.newRoom(1, "alice")))
	dup := s.newRoom(2, "bob")
	dup.InviteCode = "CODE01"

	err := s.store.CreateRoom(s.ctx, dup)
	s.ErrorIs(err, model.ErrInviteCodeTaken)

	_, err = s.store.FindRoomIDByMember(s.ctx, model.Human("bob"))
	s.ErrorIs(err, model.ErrNotInAnyRoom)
}

func (s *Suite) TestInviteCodeLookupIsCaseInsensitive() {
	s.Require().NoError(s.store.CreateRoom(s.ctx, s.newRoom(1, "alice")))

	got, err := s.store.GetRoomByInviteCode(s.ctx, "code01")
	s.Require().NoError(err)
	s.Equal(model.RoomID("room-1"), got.ID)

	exists, err := s.store.InviteCodeExists(s.ctx, "Code01")
	s.Require().NoError(err)
	s.True(exists)

	_, err = s.store.GetRoomByInviteCode(s.ctx, "NOPE99")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestUpdateRoomMaintainsMembershipIndex() {
	s.Require().NoError(s.store.CreateRoom(s.ctx, s.newRoom(1, "alice")))

	updated, err := s.store.UpdateRoom(s.ctx, "room-1", addMember(model.Human("bob")))
	s.Require().NoError(err)
	s.Len(updated.Members, 2)
	s.Equal(int64(1), updated.Version)

	roomID, err := s.store.FindRoomIDByMember(s.ctx, model.Human("bob"))
	s.Require().NoError(err)
	s.Equal(model.RoomID("room-1"), roomID)

	_, err = s.store.UpdateRoom(s.ctx, "room-1", func(r *model.Room) error {
		r.RemoveMember(model.Human("bob"))
		return nil
	})
	s.Require().NoError(err)

	_, err = s.store.FindRoomIDByMember(s.ctx, model.Human("bob"))
	s.ErrorIs(err, model.ErrNotInAnyRoom)
}

func (s *Suite) TestUpdateRoomRejectsMemberBoundElsewhere() {
	s.Require().NoError(s.store.CreateRoom(s.ctx, s.newRoom(1, "alice")))
	s.Require().NoError(s.store.CreateRoom(s.ctx, s.newRoom(2, "bob")))

	_, err := s.store.UpdateRoom(s.ctx, "room-1", addMember(model.Human("bob")))
	s.ErrorIs(err, model.ErrAlreadyInRoom)

	room, err := s.store.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Len(room.Members, 1)
	s.Equal(int64(0), room.Version)
}

func (s *Suite) TestUpdateRoomAbortsOnCallbackError() {
	s.Require().NoError(s.store.CreateRoom(s.ctx, s.newRoom(1, "alice")))

	_, err := s.store.UpdateRoom(s.ctx, "room-1", func(r *model.Room) error {
		r.Name = "changed"
		r.Members = append(r.Members, model.Member{ID: model.Human("bob")})
		return model.ErrRoomFull
	})
	s.ErrorIs(err, model.ErrRoomFull)

	room, err := s.store.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal("Room 1", room.Name)
	s.Len(room.Members, 1)
	_, err = s.store.FindRoomIDByMember(s.ctx, model.Human("bob"))
	s.ErrorIs(err, model.ErrNotInAnyRoom)
}

func (s *Suite) TestUpdateRoomNotFound() {
	_, err := s.store.UpdateRoom(s.ctx, "missing", addMember(model.Human("bob")))
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestDeleteRoomReleasesIndexes() {
	s.Require().NoError(s.store.CreateRoom(s.ctx, s.newRoom(1, "alice")))
	_, err := s.store.UpdateRoom(s.ctx, "room-1", addMember(model.Bot("b-1")))
	s.Require().NoError(err)

	s.Require().NoError(s.store.DeleteRoom(s.ctx, "room-1"))

	_, err = s.store.GetRoom(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrRoomNotFound)
	for _, id := range []model.MemberID{model.Human("alice"), model.Bot("b-1")} {
		_, err = s.store.FindRoomIDByMember(s.ctx, id)
		s.ErrorIs(err, model.ErrNotInAnyRoom)
	}
	exists, err := s.store.InviteCodeExists(s.ctx, "CODE01")
	s.Require().NoError(err)
	s.False(exists)

	s.ErrorIs(s.store.DeleteRoom(s.ctx, "room-1"), model.ErrRoomNotFound)

	// The host is free to create again
	s.Require().NoError(s.store.CreateRoom(s.ctx, s.newRoom(3, "alice")))
}

func (s *Suite) TestListRoomsFiltersAndPages() {
	for i := 1; i <= 5; i++ {
		s.Require().NoError(s.store.CreateRoom(s.ctx, s.newRoom(i, model.UserID(fmt.Sprintf("host-%d", i)))))
	}
	_, err := s.store.UpdateRoom(s.ctx, "room-3", func(r *model.Room) error {
		r.Status = model.RoomStatusConfiguring
		return nil
	})
	s.Require().NoError(err)

	rooms, total, err := s.store.ListRooms(s.ctx, storage.ListFilter{Status: model.RoomStatusWaiting, Limit: 2})
	s.Require().NoError(err)
	s.Equal(4, total)
	s.Require().Len(rooms, 2)
	s.Equal(model.RoomID("room-5"), rooms[0].ID)
	s.Equal(model.RoomID("room-4"), rooms[1].ID)

	rooms, _, err = s.store.ListRooms(s.ctx, storage.ListFilter{Status: model.RoomStatusWaiting, Offset: 2, Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(rooms, 2)
	s.Equal(model.RoomID("room-2"), rooms[0].ID)
	s.Equal(model.RoomID("room-1"), rooms[1].ID)

	rooms, total, err = s.store.ListRooms(s.ctx, storage.ListFilter{})
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Len(rooms, 5)
}

func (s *Suite) TestConcurrentJoinsClaimMemberOnce() {
	s.Require().NoError(s.store.CreateRoom(s.ctx, s.newRoom(1, "alice")))
	s.Require().NoError(s.store.CreateRoom(s.ctx, s.newRoom(2, "bob")))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, roomID := range []model.RoomID{"room-1", "room-2"} {
		wg.Add(1)
		go func(i int, roomID model.RoomID) {
			defer wg.Done()
			_, errs[i] = s.store.UpdateRoom(s.ctx, roomID, addMember(model.Human("carol")))
		}(i, roomID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.Equal(model.KindConflict, model.KindOf(err))
		}
	}
	s.Equal(1, succeeded)
}
