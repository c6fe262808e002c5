package realtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/civlobby/internal/dependencies/clock"
	"github.com/mcoot/civlobby/internal/dependencies/ids"
	"github.com/mcoot/civlobby/internal/model"
)

// ChannelGuard decides whether a user may subscribe to a room channel.
// A nil guard allows every subscription.
type ChannelGuard func(ctx context.Context, userID model.UserID, roomID model.RoomID) error

// ServerConfig holds push transport settings
type ServerConfig struct {
	SendBufferSize int
	KeepAlive      time.Duration
	WriteWait      time.Duration
	PongWait       time.Duration
}

// DefaultServerConfig returns the default push transport settings
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		SendBufferSize: 256,
		KeepAlive:      30 * time.Second,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
	}
}

// Server accepts SSE and WebSocket clients and registers them with the
// registry for the lifetime of the connection
type Server struct {
	registry *Registry
	guard    ChannelGuard
	ids      ids.Generator
	clock    clock.Clock
	cfg      ServerConfig
	logger   *slog.Logger
}

// NewServer creates a push Server
func NewServer(registry *Registry, guard ChannelGuard, idGen ids.Generator, clk clock.Clock, cfg ServerConfig, logger *slog.Logger) *Server {
	defaults := DefaultServerConfig()
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaults.SendBufferSize
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = defaults.KeepAlive
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaults.WriteWait
	}
	if cfg.PongWait <= cfg.KeepAlive {
		cfg.PongWait = 2 * cfg.KeepAlive
	}
	return &Server{
		registry: registry,
		guard:    guard,
		ids:      idGen,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "push")),
	}
}

// Registry returns the registry connections are added to
func (s *Server) Registry() *Registry {
	return s.registry
}

func (s *Server) authorize(ctx context.Context, userID model.UserID, roomID model.RoomID) error {
	if s.guard == nil {
		return nil
	}
	return s.guard(ctx, userID, roomID)
}
