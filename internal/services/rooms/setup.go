package rooms

import (
	"context"
	"log/slog"

	"github.com/mcoot/civlobby/internal/model"
)

// StartGame moves a full waiting room into configuration. Host only.
func (c *Controller) StartGame(ctx context.Context, callerID model.UserID, roomID model.RoomID) (*model.Room, error) {
	var t transition
	actor := model.Human(callerID)

	err := c.withRoomLock(ctx, roomID, func(ctx context.Context) error {
		var err error
		t, _, err = c.update(ctx, roomID, func(r *model.Room) error {
			if err := requireHost(r, callerID); err != nil {
				return err
			}
			if r.Status != model.RoomStatusWaiting {
				return model.ErrRoomNotWaiting
			}
			if len(r.Members) != r.MaxPlayers {
				return model.ErrRoomNotFull
			}
			r.Status = model.RoomStatusConfiguring
			return nil
		})
		if err != nil {
			return err
		}
		c.publishUpdated(t, actor)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("room configuring", slog.String("room_id", string(roomID)))
	return t.room, nil
}

// UpdatePlayerConfig sets the caller's civilization and/or color. A nil
// argument leaves that field unchanged. Colors are first-claim-wins; a
// member may re-claim the color they already hold.
func (c *Controller) UpdatePlayerConfig(
	ctx context.Context,
	userID model.UserID,
	roomID model.RoomID,
	civilization *model.Civilization,
	color *model.Color,
) (*model.Room, error) {
	if civilization != nil && !model.ValidCivilization(*civilization) {
		return nil, model.ErrInvalidCivilization
	}
	if color != nil && !model.ValidColor(*color) {
		return nil, model.ErrInvalidColor
	}

	memberID := model.Human(userID)
	var t transition

	err := c.withRoomLock(ctx, roomID, func(ctx context.Context) error {
		var err error
		t, _, err = c.update(ctx, roomID, func(r *model.Room) error {
			m := r.GetMember(memberID)
			if m == nil {
				return model.ErrNotMember
			}
			if r.Status != model.RoomStatusConfiguring {
				return model.ErrNotConfiguring
			}
			if m.IsReady {
				return model.ErrMemberReady
			}
			if color != nil {
				if holder := r.ColorHolder(*color); holder != nil && holder.ID != memberID {
					return model.ErrColorTaken
				}
				m.Color = *color
			}
			if civilization != nil {
				m.Civilization = *civilization
			}
			return nil
		})
		if err != nil {
			return err
		}

		m := t.room.GetMember(memberID)
		c.publish(t.room, model.EventConfigUpdated, model.ScopeRoom, memberID, model.ConfigUpdatedPayload{
			MemberID:     memberID,
			Civilization: m.Civilization,
			Color:        m.Color,
		})
		c.publishUpdated(t, memberID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.room, nil
}

// SetReady marks the caller ready. When every human is ready the bots are
// configured and the room is promoted to ready. Returns whether the whole
// room is ready. Readying twice is a no-op.
func (c *Controller) SetReady(ctx context.Context, userID model.UserID, roomID model.RoomID) (allReady bool, err error) {
	memberID := model.Human(userID)
	var t transition

	err = c.withRoomLock(ctx, roomID, func(ctx context.Context) error {
		var unchanged bool
		var err error
		t, unchanged, err = c.update(ctx, roomID, func(r *model.Room) error {
			m := r.GetMember(memberID)
			if m == nil {
				return model.ErrNotMember
			}
			if m.IsReady && (r.Status == model.RoomStatusConfiguring || r.Status == model.RoomStatusReady) {
				return errUnchanged
			}
			if r.Status != model.RoomStatusConfiguring {
				return model.ErrNotConfiguring
			}
			if !m.IsConfigured() {
				return model.ErrNotConfigured
			}
			m.IsReady = true
			c.settleReadiness(r)
			return nil
		})
		if err != nil || unchanged {
			return err
		}
		c.publishUpdated(t, memberID)
		return nil
	})
	if err != nil {
		return false, err
	}

	if t.becameReady() {
		c.logger.Info("room ready", slog.String("room_id", string(roomID)))
	}
	return t.room.Status == model.RoomStatusReady, nil
}

// CancelReady clears the caller's ready flag and returns the room to
// configuration. Cancelling when not ready returns the room unchanged.
func (c *Controller) CancelReady(ctx context.Context, userID model.UserID, roomID model.RoomID) (*model.Room, error) {
	memberID := model.Human(userID)
	var t transition

	err := c.withRoomLock(ctx, roomID, func(ctx context.Context) error {
		var unchanged bool
		var err error
		t, unchanged, err = c.update(ctx, roomID, func(r *model.Room) error {
			m := r.GetMember(memberID)
			if m == nil {
				return model.ErrNotMember
			}
			if !m.IsReady {
				return errUnchanged
			}
			if r.Status != model.RoomStatusConfiguring && r.Status != model.RoomStatusReady {
				return model.ErrNotConfiguring
			}
			m.IsReady = false
			r.Status = model.RoomStatusConfiguring
			return nil
		})
		if err != nil || unchanged {
			return err
		}
		c.publishUpdated(t, memberID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.room, nil
}

// StopGame returns the room to waiting and clears every member's
// configuration and readiness. Host only.
func (c *Controller) StopGame(ctx context.Context, callerID model.UserID, roomID model.RoomID) (*model.Room, error) {
	actor := model.Human(callerID)
	var t transition

	err := c.withRoomLock(ctx, roomID, func(ctx context.Context) error {
		var err error
		t, _, err = c.update(ctx, roomID, func(r *model.Room) error {
			if err := requireHost(r, callerID); err != nil {
				return err
			}
			switch r.Status {
			case model.RoomStatusConfiguring, model.RoomStatusReady, model.RoomStatusPlaying:
			default:
				return model.ErrNoGameToStop
			}
			for i := range r.Members {
				r.Members[i].ResetConfig()
			}
			r.Status = model.RoomStatusWaiting
			return nil
		})
		if err != nil {
			return err
		}

		c.publish(t.room, model.EventGameStopped, model.ScopeRoom, actor, model.GameStoppedPayload{
			RoomID:   t.room.ID,
			RoomName: t.room.Name,
		})
		c.publishUpdated(t, actor)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("game stopped",
		slog.String("room_id", string(roomID)),
		slog.String("from_status", string(t.from)),
	)
	return t.room, nil
}

// BeginGame launches the game session for a ready room. Host only.
func (c *Controller) BeginGame(ctx context.Context, callerID model.UserID, roomID model.RoomID) (*GameLaunch, error) {
	actor := model.Human(callerID)
	var launch *GameLaunch

	err := c.withRoomLock(ctx, roomID, func(ctx context.Context) error {
		t, _, err := c.update(ctx, roomID, func(r *model.Room) error {
			if err := requireHost(r, callerID); err != nil {
				return err
			}
			if r.Status != model.RoomStatusReady {
				return model.ErrRoomNotReady
			}
			r.Status = model.RoomStatusPlaying
			return nil
		})
		if err != nil {
			return err
		}

		launch = &GameLaunch{
			SessionID: t.room.GameSessionID(),
			Room:      t.room,
			Players:   playerConfigs(t.room),
		}
		c.publish(t.room, model.EventGameStarted, model.ScopeBoth, actor, model.GameStartedPayload{
			SessionID: launch.SessionID,
			RoomName:  t.room.Name,
			Players:   launch.Players,
		})
		c.publishUpdated(t, actor)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("game started",
		slog.String("room_id", string(roomID)),
		slog.String("session_id", launch.SessionID),
		slog.Int("player_count", len(launch.Players)),
	)
	return launch, nil
}
