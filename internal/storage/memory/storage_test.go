package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/storage"
	"github.com/mcoot/civlobby/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.NewStorage = func() storage.Storage { return New() }
	suite.Run(t, s)
}

func (s *StorageSuite) TestReturnedRoomsAreCopies() {
	ctx := s.T().Context()
	room := &model.Room{ID: "r", InviteCode: "ABC", HostID: "a", MaxPlayers: 2,
		Members: []model.Member{{ID: model.Human("a")}}}
	s.Require().NoError(s.Store().CreateRoom(ctx, room))

	room.Members[0].Color = model.ColorRed
	got, err := s.Store().GetRoom(ctx, "r")
	s.Require().NoError(err)
	s.Empty(got.Members[0].Color)

	got.Members[0].Color = model.ColorBlue
	again, err := s.Store().GetRoom(ctx, "r")
	s.Require().NoError(err)
	s.Empty(again.Members[0].Color)
}
