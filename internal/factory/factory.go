package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/civlobby/internal/api"
	"github.com/mcoot/civlobby/internal/api/handler"
	"github.com/mcoot/civlobby/internal/api/response"
	"github.com/mcoot/civlobby/internal/dependencies/clock"
	"github.com/mcoot/civlobby/internal/dependencies/ids"
	"github.com/mcoot/civlobby/internal/dependencies/random"
	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/realtime"
	"github.com/mcoot/civlobby/internal/services/auth"
	"github.com/mcoot/civlobby/internal/services/bot"
	"github.com/mcoot/civlobby/internal/services/rooms"
	"github.com/mcoot/civlobby/internal/storage"
	"github.com/mcoot/civlobby/internal/storage/memory"
	mongostorage "github.com/mcoot/civlobby/internal/storage/mongo"
	redisstorage "github.com/mcoot/civlobby/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeMongo  = "mongo"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    ids.Generator

	// Services
	AuthService    *auth.Service
	BotService     *bot.Service
	RoomController *rooms.Controller

	// Push delivery
	Registry *realtime.Registry
	Fanout   *realtime.Fanout
	Push     *realtime.Server

	Logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// RoomsConfig holds room command settings (optional)
	RoomsConfig rooms.Config
	// FanoutConfig sizes the event queue (optional)
	FanoutConfig realtime.FanoutConfig
	// PushConfig holds SSE/WebSocket settings (optional)
	PushConfig realtime.ServerConfig
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "mongo")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// MongoConfig holds MongoDB settings (required if StorageType is "mongo")
	MongoConfig *mongostorage.Config
	// BotStrategy names how bots pick their configuration
	// If empty, defaults to "random"
	BotStrategy string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	if cfg.BotStrategy != "" && !model.ValidBotStrategy(cfg.BotStrategy) {
		return nil, fmt.Errorf("unknown bot strategy: %s", cfg.BotStrategy)
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("storage ready", slog.String("type", storageType(cfg)))

	return newWithDependencies(store, clock.New(), random.New(), ids.New(), cfg, logger), nil
}

func storageType(cfg Config) string {
	if cfg.StorageType == "" {
		return StorageTypeMemory
	}
	return cfg.StorageType
}

func newStorage(cfg Config) (storage.Storage, error) {
	switch storageType(cfg) {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeMongo:
		if cfg.MongoConfig == nil {
			return nil, errors.New("MongoConfig required when StorageType is mongo")
		}
		return mongostorage.New(*cfg.MongoConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'mongo'", cfg.StorageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	idGen ids.Generator,
	cfg Config,
	logger *slog.Logger,
) *App {
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}
	roomsCfg := cfg.RoomsConfig
	if roomsCfg == (rooms.Config{}) {
		roomsCfg = rooms.DefaultConfig()
	}

	registry := realtime.NewRegistry(logger)
	fanout := realtime.NewFanout(registry, response.EncodeEvent, cfg.FanoutConfig, logger)

	authService := auth.New(clk, idGen, authCfg, logger)
	strategy, err := bot.NewStrategy(cfg.BotStrategy, rnd)
	if err != nil {
		logger.Warn("falling back to random bot strategy", slog.String("error", err.Error()))
		strategy = bot.NewRandomStrategy(rnd)
	}
	botService := bot.NewService(strategy, clk, rnd, idGen, logger)
	roomController := rooms.NewController(store, fanout, botService, clk, rnd, idGen, roomsCfg, logger)

	push := realtime.NewServer(registry, handler.MemberGuard(roomController), idGen, clk, cfg.PushConfig, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		IDs:            idGen,
		AuthService:    authService,
		BotService:     botService,
		RoomController: roomController,
		Registry:       registry,
		Fanout:         fanout,
		Push:           push,
		Logger:         logger,
	}
}

// Router builds the HTTP API for the app
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:         a.Logger,
		AuthService:    a.AuthService,
		RoomController: a.RoomController,
		Push:           a.Push,
	})
}

// Close disconnects push clients and releases the store
func (a *App) Close() error {
	a.Registry.Close()
	return a.Storage.Close()
}
