package handler

import (
	"context"
	"net/http"

	"github.com/mcoot/civlobby/internal/api/middleware"
	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/realtime"
	"github.com/mcoot/civlobby/internal/services/rooms"
)

// EventsHandler serves the push connections
type EventsHandler struct {
	push  *realtime.Server
	guard realtime.ChannelGuard
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(push *realtime.Server, guard realtime.ChannelGuard) *EventsHandler {
	return &EventsHandler{
		push:  push,
		guard: guard,
	}
}

// MemberGuard only lets members of a room subscribe to its channel
func MemberGuard(controller *rooms.Controller) realtime.ChannelGuard {
	return func(ctx context.Context, userID model.UserID, roomID model.RoomID) error {
		room, err := controller.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if room.GetMember(model.Human(userID)) == nil {
			return model.ErrNotMember
		}
		return nil
	}
}

// Stream handles GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	roomID := model.RoomID(r.URL.Query().Get("room_id"))
	if roomID != "" && h.guard != nil {
		if err := h.guard(r.Context(), user.ID, roomID); err != nil {
			WriteError(w, err)
			return
		}
	}

	h.push.ServeSSE(w, r, user.ID, roomID)
}

// WebSocket handles GET /api/v1/ws
func (h *EventsHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	h.push.ServeWS(w, r, user.ID)
}
