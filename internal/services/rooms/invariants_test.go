package rooms

import (
	"fmt"
	"math/rand/v2"

	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/storage"
)

// TestInvariantsUnderRandomCommands drives random command sequences and
// checks the membership, capacity and color invariants after each one.
func (s *ControllerSuite) TestInvariantsUnderRandomCommands() {
	rng := rand.New(rand.NewPCG(7, 11))
	users := make([]model.UserID, 10)
	for i := range users {
		users[i] = model.UserID(fmt.Sprintf("p%d", i))
	}
	pickUser := func() model.UserID { return users[rng.IntN(len(users))] }
	pickRoom := func() model.RoomID {
		rooms, _, _ := s.storage.ListRooms(s.ctx, storage.ListFilter{})
		if len(rooms) == 0 {
			return "none"
		}
		return rooms[rng.IntN(len(rooms))].ID
	}

	for step := 0; step < 600; step++ {
		u := pickUser()
		var err error
		switch rng.IntN(11) {
		case 0:
			_, err = s.controller.CreateRoom(s.ctx, model.User{ID: u}, "r", 2+rng.IntN(3))
		case 1, 2:
			_, err = s.controller.JoinRoomByID(s.ctx, model.User{ID: u}, pickRoom())
		case 3:
			_, err = s.controller.LeaveRoom(s.ctx, u)
		case 4:
			_, err = s.controller.AddBot(s.ctx, u, pickRoom())
		case 5:
			_, err = s.controller.StartGame(s.ctx, u, pickRoom())
		case 6:
			c := model.Colors()[rng.IntN(3)]
			cv := model.Civilizations()[rng.IntN(3)]
			_, err = s.controller.UpdatePlayerConfig(s.ctx, u, pickRoom(), &cv, &c)
		case 7:
			_, err = s.controller.SetReady(s.ctx, u, pickRoom())
		case 8:
			_, err = s.controller.CancelReady(s.ctx, u, pickRoom())
		case 9:
			_, err = s.controller.StopGame(s.ctx, u, pickRoom())
		case 10:
			room := pickRoom()
			if r, getErr := s.storage.GetRoom(s.ctx, room); getErr == nil && len(r.Members) > 0 {
				_, err = s.controller.KickMember(s.ctx, u, room, r.Members[rng.IntN(len(r.Members))].ID)
			}
		}
		if err != nil {
			s.NotEqual(model.KindInternal, model.KindOf(err), "step %d: %v", step, err)
			s.NotEqual(model.KindTransient, model.KindOf(err), "step %d: %v", step, err)
		}
		s.assertInvariants(step)
	}
}

func (s *ControllerSuite) assertInvariants(step int) {
	rooms, _, err := s.storage.ListRooms(s.ctx, storage.ListFilter{})
	s.Require().NoError(err)

	owner := map[model.MemberID]model.RoomID{}
	for _, r := range rooms {
		s.LessOrEqual(len(r.Members), r.MaxPlayers, "step %d: room %s over capacity", step, r.ID)

		hosts := 0
		colors := map[model.Color]bool{}
		for _, m := range r.Members {
			if prev, ok := owner[m.ID]; ok {
				s.Failf("member in two rooms", "step %d: %s in %s and %s", step, m.ID, prev, r.ID)
			}
			owner[m.ID] = r.ID

			if m.Role == model.RoleHost {
				hosts++
				s.Equal(model.Human(r.HostID), m.ID)
			}
			if m.Color != "" {
				s.False(colors[m.Color], "step %d: color %s held twice in %s", step, m.Color, r.ID)
				colors[m.Color] = true
			}
			if m.IsReady {
				s.True(m.IsConfigured(), "step %d: %s ready without configuration", step, m.ID)
			}

			roomID, err := s.storage.FindRoomIDByMember(s.ctx, m.ID)
			s.Require().NoError(err)
			s.Equal(r.ID, roomID)
		}
		s.Equal(1, hosts, "step %d: room %s host count", step, r.ID)
	}
}
