package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/civlobby/internal/api/handler"
	"github.com/mcoot/civlobby/internal/api/middleware"
	"github.com/mcoot/civlobby/internal/api/response"
	"github.com/mcoot/civlobby/internal/realtime"
	"github.com/mcoot/civlobby/internal/services/auth"
	"github.com/mcoot/civlobby/internal/services/rooms"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	RoomController *rooms.Controller
	Push           *realtime.Server
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	userHandler := handler.NewUserHandler(cfg.AuthService)
	roomHandler := handler.NewRoomHandler(cfg.RoomController)
	setupHandler := handler.NewSetupHandler(cfg.RoomController)
	eventsHandler := handler.NewEventsHandler(cfg.Push, handler.MemberGuard(cfg.RoomController))

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Public routes
	api.HandleFunc("/health", healthHandler(cfg.Push)).Methods(http.MethodGet)
	api.HandleFunc("/users/guest", userHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/catalog/civilizations", handler.Civilizations).Methods(http.MethodGet)
	api.HandleFunc("/catalog/colors", handler.Colors).Methods(http.MethodGet)

	// Protected user routes
	users := api.PathPrefix("/users").Subrouter()
	users.Use(authMiddleware)
	users.HandleFunc("/me", userHandler.GetMe).Methods(http.MethodGet)
	users.HandleFunc("/logout", userHandler.Logout).Methods(http.MethodPost)

	// Room routes (all require auth). Fixed paths are registered before {id}.
	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.Use(authMiddleware)
	rooms.HandleFunc("", roomHandler.List).Methods(http.MethodGet)
	rooms.HandleFunc("", roomHandler.Create).Methods(http.MethodPost)
	rooms.HandleFunc("/current", roomHandler.Current).Methods(http.MethodGet)
	rooms.HandleFunc("/join", roomHandler.Join).Methods(http.MethodPost)
	rooms.HandleFunc("/leave", roomHandler.Leave).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}", roomHandler.Get).Methods(http.MethodGet)
	rooms.HandleFunc("/{id}", roomHandler.Delete).Methods(http.MethodDelete)
	rooms.HandleFunc("/{id}/join", roomHandler.JoinByID).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/kick", roomHandler.Kick).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/bots", roomHandler.AddBot).Methods(http.MethodPost)

	// Game setup routes
	rooms.HandleFunc("/{id}/start", setupHandler.Start).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/configs", setupHandler.Configs).Methods(http.MethodGet)
	rooms.HandleFunc("/{id}/config", setupHandler.UpdateConfig).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/ready", setupHandler.Ready).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/cancel-ready", setupHandler.CancelReady).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/stop-game", setupHandler.Stop).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/begin", setupHandler.Begin).Methods(http.MethodPost)

	// Push connections
	push := api.NewRoute().Subrouter()
	push.Use(authMiddleware)
	push.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)
	push.HandleFunc("/ws", eventsHandler.WebSocket).Methods(http.MethodGet)

	return r
}

type healthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

func healthHandler(push *realtime.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, healthResponse{
			Status:      "ok",
			Connections: push.Registry().ConnectionCount(),
		})
	}
}
