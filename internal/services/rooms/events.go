package rooms

import "github.com/mcoot/civlobby/internal/model"

func (c *Controller) publish(room *model.Room, t model.EventType, scope model.Scope, actor model.MemberID, payload any) {
	c.publisher.Publish(model.Event{
		Type:      t,
		RoomID:    room.ID,
		Scope:     scope,
		Actor:     actor,
		Timestamp: c.clock.Now(),
		Payload:   payload,
	})
}

// publishUpdated sends the full room snapshot to the room channel, and to
// everyone when the change is visible in the lobby listing
func (c *Controller) publishUpdated(t transition, actor model.MemberID) {
	scope := model.ScopeRoom
	if t.from == model.RoomStatusWaiting || t.room.Status == model.RoomStatusWaiting {
		scope = model.ScopeBoth
	}
	c.publish(t.room, model.EventRoomUpdated, scope, actor, model.RoomUpdatedPayload{Room: t.room})

	if t.becameReady() {
		c.publish(t.room, model.EventAllReady, model.ScopeRoom, actor, model.AllReadyPayload{
			RoomID:   t.room.ID,
			RoomName: t.room.Name,
		})
	}
}
