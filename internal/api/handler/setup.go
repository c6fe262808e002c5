package handler

import (
	"net/http"

	"github.com/mcoot/civlobby/internal/api/middleware"
	"github.com/mcoot/civlobby/internal/api/request"
	"github.com/mcoot/civlobby/internal/api/response"
	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/services/rooms"
)

// SetupHandler handles game configuration endpoints
type SetupHandler struct {
	controller *rooms.Controller
}

// NewSetupHandler creates a new setup handler
func NewSetupHandler(controller *rooms.Controller) *SetupHandler {
	return &SetupHandler{
		controller: controller,
	}
}

// Start handles POST /api/v1/rooms/{id}/start
func (h *SetupHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	room, err := h.controller.StartGame(r.Context(), user.ID, roomID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// Configs handles GET /api/v1/rooms/{id}/configs
func (h *SetupHandler) Configs(w http.ResponseWriter, r *http.Request) {
	id := roomID(r)

	configs, err := h.controller.GetRoomConfigs(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomConfigs{
		RoomID:  string(id),
		Players: response.PlayerConfigsFromModel(configs),
	})
}

// UpdateConfig handles POST /api/v1/rooms/{id}/config
func (h *SetupHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.UpdateConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Civilization == nil && req.Color == nil {
		WriteError(w, NewInvalidRequestError("civilization or color is required"))
		return
	}

	var (
		civ   *model.Civilization
		color *model.Color
	)
	if req.Civilization != nil {
		c := model.Civilization(*req.Civilization)
		civ = &c
	}
	if req.Color != nil {
		c := model.Color(*req.Color)
		color = &c
	}

	room, err := h.controller.UpdatePlayerConfig(r.Context(), user.ID, roomID(r), civ, color)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// Ready handles POST /api/v1/rooms/{id}/ready
func (h *SetupHandler) Ready(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	allReady, err := h.controller.SetReady(r.Context(), user.ID, roomID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReadyResponse{AllReady: allReady})
}

// CancelReady handles POST /api/v1/rooms/{id}/cancel-ready
func (h *SetupHandler) CancelReady(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	room, err := h.controller.CancelReady(r.Context(), user.ID, roomID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// Stop handles POST /api/v1/rooms/{id}/stop-game
func (h *SetupHandler) Stop(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	room, err := h.controller.StopGame(r.Context(), user.ID, roomID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// Begin handles POST /api/v1/rooms/{id}/begin
func (h *SetupHandler) Begin(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	launch, err := h.controller.BeginGame(r.Context(), user.ID, roomID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameLaunchFromModel(launch))
}
