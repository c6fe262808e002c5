package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/civlobby/internal/api/middleware"
	"github.com/mcoot/civlobby/internal/api/request"
	"github.com/mcoot/civlobby/internal/api/response"
	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/services/rooms"
)

// RoomHandler handles room membership endpoints
type RoomHandler struct {
	controller *rooms.Controller
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(controller *rooms.Controller) *RoomHandler {
	return &RoomHandler{
		controller: controller,
	}
}

func roomID(r *http.Request) model.RoomID {
	return model.RoomID(mux.Vars(r)["id"])
}

// queryInt reads an optional positive integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, NewInvalidRequestError(name + " must be a non-negative integer")
	}
	return n, nil
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		WriteError(w, err)
		return
	}
	pageSize, err := queryInt(r, "page_size")
	if err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.controller.ListRooms(r.Context(), page, pageSize)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomPageFromModel(result))
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.CreateRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	room, err := h.controller.CreateRoom(r.Context(), *user, req.Name, req.MaxPlayers)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomFromModel(room))
}

// Current handles GET /api/v1/rooms/current
func (h *RoomHandler) Current(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	room, err := h.controller.GetCurrentRoom(r.Context(), user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	var out response.CurrentRoom
	if room != nil {
		converted := response.RoomFromModel(room)
		out.Room = &converted
	}
	response.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.controller.GetRoom(r.Context(), roomID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// Join handles POST /api/v1/rooms/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.JoinRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	var (
		room *model.Room
		err  error
	)
	switch {
	case req.InviteCode != "" && req.RoomID != "":
		err = NewInvalidRequestError("provide either invite_code or room_id, not both")
	case req.InviteCode != "":
		room, err = h.controller.JoinRoomByCode(r.Context(), *user, model.InviteCode(req.InviteCode))
	case req.RoomID != "":
		room, err = h.controller.JoinRoomByID(r.Context(), *user, model.RoomID(req.RoomID))
	default:
		err = NewInvalidRequestError("invite_code or room_id is required")
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// JoinByID handles POST /api/v1/rooms/{id}/join
func (h *RoomHandler) JoinByID(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	room, err := h.controller.JoinRoomByID(r.Context(), *user, roomID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// Leave handles POST /api/v1/rooms/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	deleted, err := h.controller.LeaveRoom(r.Context(), user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaveResponse{DeletedRoom: deleted})
}

// Delete handles DELETE /api/v1/rooms/{id}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	if err := h.controller.DeleteRoom(r.Context(), user.ID, roomID(r)); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Kick handles POST /api/v1/rooms/{id}/kick
func (h *RoomHandler) Kick(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.KickRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	target, err := model.ParseMemberID(req.MemberID)
	if err != nil {
		WriteError(w, err)
		return
	}

	room, err := h.controller.KickMember(r.Context(), user.ID, roomID(r), target)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// AddBot handles POST /api/v1/rooms/{id}/bots
func (h *RoomHandler) AddBot(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	room, err := h.controller.AddBot(r.Context(), user.ID, roomID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomFromModel(room))
}
