package rooms

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mcoot/civlobby/internal/model"
)

// JoinRoomByCode joins the waiting room holding the invite code.
// Codes match case-insensitively.
func (c *Controller) JoinRoomByCode(ctx context.Context, user model.User, code model.InviteCode) (*model.Room, error) {
	code = model.InviteCode(strings.ToUpper(strings.TrimSpace(string(code))))
	if code == "" {
		return nil, model.ErrInvalidInviteCode
	}

	lookupCtx, cancel := c.commandContext(ctx)
	room, err := c.storage.GetRoomByInviteCode(lookupCtx, code)
	cancel()
	if err != nil {
		return nil, err
	}
	if room.Status != model.RoomStatusWaiting {
		return nil, model.ErrRoomNotWaiting
	}
	return c.JoinRoomByID(ctx, user, room.ID)
}

// JoinRoomByID appends the user to a waiting room that has a free slot
func (c *Controller) JoinRoomByID(ctx context.Context, user model.User, roomID model.RoomID) (*model.Room, error) {
	memberID := model.Human(user.ID)
	var t transition

	err := c.withRoomLock(ctx, roomID, func(ctx context.Context) error {
		if _, err := c.storage.FindRoomIDByMember(ctx, memberID); err == nil {
			return model.ErrAlreadyInRoom
		} else if !errors.Is(err, model.ErrNotInAnyRoom) {
			return err
		}

		var err error
		t, _, err = c.update(ctx, roomID, func(r *model.Room) error {
			if r.Status != model.RoomStatusWaiting {
				return model.ErrRoomNotWaiting
			}
			if r.IsFull() {
				return model.ErrRoomFull
			}
			r.Members = append(r.Members, model.Member{
				ID:          memberID,
				DisplayName: user.DisplayName,
				AvatarURL:   user.AvatarURL,
				Role:        model.RolePlayer,
				JoinedAt:    c.clock.Now(),
			})
			return nil
		})
		if err != nil {
			return err
		}

		member := t.room.GetMember(memberID)
		c.publish(t.room, model.EventPlayerJoined, model.ScopeBoth, memberID, model.PlayerJoinedPayload{
			Member:      *member,
			MemberCount: len(t.room.Members),
		})
		c.publishUpdated(t, memberID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player joined room",
		slog.String("room_id", string(roomID)),
		slog.String("user_id", string(user.ID)),
		slog.Int("member_count", len(t.room.Members)),
	)
	return t.room, nil
}

// LeaveRoom removes the user from whichever room they are in. When the
// host leaves the room is deleted along with every membership.
func (c *Controller) LeaveRoom(ctx context.Context, userID model.UserID) (deletedRoom bool, err error) {
	lookupCtx, cancel := c.commandContext(ctx)
	roomID, err := c.storage.FindRoomIDByMember(lookupCtx, model.Human(userID))
	cancel()
	if err != nil {
		return false, err
	}
	return c.LeaveRoomByID(ctx, userID, roomID)
}

// LeaveRoomByID removes the user from the given room
func (c *Controller) LeaveRoomByID(ctx context.Context, userID model.UserID, roomID model.RoomID) (deletedRoom bool, err error) {
	memberID := model.Human(userID)

	err = c.withRoomLock(ctx, roomID, func(ctx context.Context) error {
		room, err := c.storage.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if room.GetMember(memberID) == nil {
			return model.ErrNotMember
		}
		if room.IsHost(userID) {
			deletedRoom = true
			return c.deleteLocked(ctx, room, memberID)
		}
		_, err = c.removeLocked(ctx, roomID, memberID, false)
		return err
	})
	if err != nil {
		return false, err
	}

	c.logger.Info("player left room",
		slog.String("room_id", string(roomID)),
		slog.String("user_id", string(userID)),
		slog.Bool("room_deleted", deletedRoom),
	)
	return deletedRoom, nil
}

// KickMember removes a human or bot member. Only the host may kick, and
// the host can never be kicked.
func (c *Controller) KickMember(ctx context.Context, callerID model.UserID, roomID model.RoomID, target model.MemberID) (*model.Room, error) {
	var room *model.Room

	err := c.withRoomLock(ctx, roomID, func(ctx context.Context) error {
		current, err := c.storage.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		switch target.Kind {
		case model.MemberKindHuman:
			if target.UserID() == current.HostID {
				return model.ErrCannotKickHost
			}
		case model.MemberKindBot:
		default:
			return model.ErrInvalidMemberID
		}
		if err := requireHost(current, callerID); err != nil {
			return err
		}
		if current.GetMember(target) == nil {
			return model.ErrMemberNotFound
		}

		room, err = c.removeLocked(ctx, roomID, target, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("member kicked",
		slog.String("room_id", string(roomID)),
		slog.String("member_id", target.String()),
	)
	return room, nil
}

// removeLocked removes a non-host member and re-settles readiness. The
// caller holds the room lock.
func (c *Controller) removeLocked(ctx context.Context, roomID model.RoomID, target model.MemberID, kicked bool) (*model.Room, error) {
	var removed model.Member
	t, _, err := c.update(ctx, roomID, func(r *model.Room) error {
		m := r.GetMember(target)
		if m == nil {
			return model.ErrMemberNotFound
		}
		if m.Role == model.RoleHost {
			return model.ErrCannotKickHost
		}
		removed = *m
		r.RemoveMember(target)
		c.settleReadiness(r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.publish(t.room, model.EventPlayerLeft, model.ScopeBoth, target, model.PlayerLeftPayload{
		MemberID:    target,
		DisplayName: removed.DisplayName,
		Kicked:      kicked,
		IsBot:       target.IsBot(),
		MemberCount: len(t.room.Members),
	})
	c.publishUpdated(t, target)
	return t.room, nil
}

// AddBot appends a bot to a waiting room. Host only.
func (c *Controller) AddBot(ctx context.Context, callerID model.UserID, roomID model.RoomID) (*model.Room, error) {
	var t transition
	botMember := c.bots.NewMember()

	err := c.withRoomLock(ctx, roomID, func(ctx context.Context) error {
		var err error
		t, _, err = c.update(ctx, roomID, func(r *model.Room) error {
			if err := requireHost(r, callerID); err != nil {
				return err
			}
			if r.Status != model.RoomStatusWaiting {
				return model.ErrRoomNotWaiting
			}
			if r.IsFull() {
				return model.ErrRoomFull
			}
			r.Members = append(r.Members, botMember)
			return nil
		})
		if err != nil {
			return err
		}

		c.publish(t.room, model.EventBotAdded, model.ScopeBoth, model.Human(callerID), model.BotAddedPayload{
			Member: botMember,
		})
		c.publishUpdated(t, model.Human(callerID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("bot added to room",
		slog.String("room_id", string(roomID)),
		slog.String("bot_id", botMember.ID.Value),
		slog.String("bot_name", botMember.DisplayName),
	)
	return t.room, nil
}

// DeleteRoom destroys the room and releases every membership. Host only.
func (c *Controller) DeleteRoom(ctx context.Context, callerID model.UserID, roomID model.RoomID) error {
	err := c.withRoomLock(ctx, roomID, func(ctx context.Context) error {
		room, err := c.storage.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if err := requireHost(room, callerID); err != nil {
			return err
		}
		return c.deleteLocked(ctx, room, model.Human(callerID))
	})
	if err != nil {
		return err
	}

	c.logger.Info("room deleted", slog.String("room_id", string(roomID)))
	return nil
}

func (c *Controller) deleteLocked(ctx context.Context, room *model.Room, actor model.MemberID) error {
	if err := c.storage.DeleteRoom(ctx, room.ID); err != nil {
		return err
	}
	c.publish(room, model.EventRoomDeleted, model.ScopeBoth, actor, model.RoomDeletedPayload{
		RoomID: room.ID,
		Name:   room.Name,
	})
	return nil
}
