package rooms

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mcoot/civlobby/internal/dependencies/clock"
	"github.com/mcoot/civlobby/internal/dependencies/ids"
	"github.com/mcoot/civlobby/internal/dependencies/random"
	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/services/bot"
	"github.com/mcoot/civlobby/internal/storage"
)

const (
	// InviteCodeAlphabet is the characters used in invite codes (avoid confusing chars)
	InviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxRoomNameLength = 64
	maxCodeAttempts   = 10
	defaultPageSize   = 20
	maxPageSize       = 100
)

// Publisher receives the events of every successful transition.
// Publish must not block.
type Publisher interface {
	Publish(event model.Event)
}

// Config tunes the controller
type Config struct {
	// CommandTimeout bounds each command, store calls included. Zero disables it.
	CommandTimeout time.Duration
	// InviteCodeLength is the length of generated invite codes
	InviteCodeLength int
}

// DefaultConfig returns the default controller configuration
func DefaultConfig() Config {
	return Config{
		CommandTimeout:   5 * time.Second,
		InviteCodeLength: 6,
	}
}

// Controller is the room lifecycle engine. It validates every command
// against the room's state machine, applies it through a conditional store
// write, and publishes the resulting events while still holding the room's
// lock so subscribers see transitions in the order they were applied.
type Controller struct {
	storage   storage.Storage
	publisher Publisher
	bots      *bot.Service
	clock     clock.Clock
	random    random.Random
	ids       ids.Generator
	cfg       Config
	locks     *roomLocks
	logger    *slog.Logger
}

// NewController creates a new room Controller
func NewController(
	storage storage.Storage,
	publisher Publisher,
	bots *bot.Service,
	clock clock.Clock,
	random random.Random,
	ids ids.Generator,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if cfg.InviteCodeLength <= 0 {
		cfg.InviteCodeLength = DefaultConfig().InviteCodeLength
	}
	return &Controller{
		storage:   storage,
		publisher: publisher,
		bots:      bots,
		clock:     clock,
		random:    random,
		ids:       ids,
		cfg:       cfg,
		locks:     newRoomLocks(),
		logger:    logger.With(slog.String("component", "room-controller")),
	}
}

// errUnchanged aborts a store update whose command turned out to be a no-op
var errUnchanged = errors.New("room unchanged")

// RoomPage is one page of the lobby listing
type RoomPage struct {
	Rooms      []*model.Room
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// GameLaunch describes the game session started from a room
type GameLaunch struct {
	SessionID string
	Room      *model.Room
	Players   []model.PlayerConfig
}

func (c *Controller) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.CommandTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.CommandTimeout)
	}
	return context.WithCancel(ctx)
}

// withRoomLock runs fn holding the room's lock under the command timeout
func (c *Controller) withRoomLock(ctx context.Context, id model.RoomID, fn func(ctx context.Context) error) error {
	ctx, cancel := c.commandContext(ctx)
	defer cancel()

	unlock, err := c.locks.lock(ctx, id)
	if err != nil {
		return model.Transient(err)
	}
	defer unlock()
	return fn(ctx)
}

// transition captures the room status an update started from
type transition struct {
	from model.RoomStatus
	room *model.Room
}

func (t transition) becameReady() bool {
	return t.from != model.RoomStatusReady && t.room.Status == model.RoomStatusReady
}

// update applies fn as a conditional store write. A no-op command returns
// the current room with unchanged set.
func (c *Controller) update(ctx context.Context, id model.RoomID, fn storage.UpdateFunc) (t transition, unchanged bool, err error) {
	room, err := c.storage.UpdateRoom(ctx, id, func(r *model.Room) error {
		t.from = r.Status
		if err := fn(r); err != nil {
			return err
		}
		r.UpdatedAt = c.clock.Now()
		return nil
	})
	if errors.Is(err, errUnchanged) {
		room, err = c.storage.GetRoom(ctx, id)
		if err != nil {
			return transition{}, false, err
		}
		return transition{from: room.Status, room: room}, true, nil
	}
	if err != nil {
		return transition{}, false, err
	}
	t.room = room
	return t, false, nil
}

// settleReadiness re-evaluates the room after any change to readiness or
// membership during configuration. Once every human is ready the bots are
// configured, and the room is promoted to ready only if every member is.
func (c *Controller) settleReadiness(r *model.Room) {
	if r.Status != model.RoomStatusConfiguring && r.Status != model.RoomStatusReady {
		return
	}
	if r.AllHumansReady() {
		c.bots.Configure(r)
	}
	if r.AllReady() {
		r.Status = model.RoomStatusReady
	} else {
		r.Status = model.RoomStatusConfiguring
	}
}

func requireHost(r *model.Room, userID model.UserID) error {
	if !r.IsHost(userID) {
		return model.ErrNotHost
	}
	return nil
}

func newHostMember(user model.User, now time.Time) model.Member {
	return model.Member{
		ID:          model.Human(user.ID),
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Role:        model.RoleHost,
		JoinedAt:    now,
	}
}

// CreateRoom creates a waiting room with the user as host and sole member
func (c *Controller) CreateRoom(ctx context.Context, user model.User, name string, maxPlayers int) (*model.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxRoomNameLength {
		return nil, model.ErrInvalidRoomName
	}
	if maxPlayers == 0 {
		maxPlayers = model.DefaultMaxPlayers
	}
	if maxPlayers < model.MinPlayers || maxPlayers > model.MaxPlayers {
		return nil, model.ErrInvalidMaxPlayers
	}

	ctx, cancel := c.commandContext(ctx)
	defer cancel()

	if _, err := c.storage.FindRoomIDByMember(ctx, model.Human(user.ID)); err == nil {
		return nil, model.ErrAlreadyInRoom
	} else if !errors.Is(err, model.ErrNotInAnyRoom) {
		return nil, err
	}

	now := c.clock.Now()
	room := &model.Room{
		ID:         model.RoomID(c.ids.NewID()),
		Name:       name,
		HostID:     user.ID,
		MaxPlayers: maxPlayers,
		Status:     model.RoomStatusWaiting,
		Members:    []model.Member{newHostMember(user, now)},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Generate unique invite code
	for attempt := 0; ; attempt++ {
		if attempt == maxCodeAttempts {
			return nil, model.ErrInviteCodeTaken
		}
		room.InviteCode = model.InviteCode(c.random.String(c.cfg.InviteCodeLength, InviteCodeAlphabet))
		exists, err := c.storage.InviteCodeExists(ctx, room.InviteCode)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		err = c.storage.CreateRoom(ctx, room)
		if errors.Is(err, model.ErrInviteCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	c.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("host_id", string(user.ID)),
		slog.String("invite_code", string(room.InviteCode)),
		slog.Int("max_players", maxPlayers),
	)

	// No one can subscribe before the id is returned, so no lock is needed
	c.publish(room, model.EventRoomCreated, model.ScopeGlobal, model.Human(user.ID),
		model.RoomCreatedPayload{Room: room.Summarize()})

	return room, nil
}

// GetRoom retrieves a room by id
func (c *Controller) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	ctx, cancel := c.commandContext(ctx)
	defer cancel()
	return c.storage.GetRoom(ctx, id)
}

// GetCurrentRoom returns the room the user belongs to, or nil if none
func (c *Controller) GetCurrentRoom(ctx context.Context, userID model.UserID) (*model.Room, error) {
	ctx, cancel := c.commandContext(ctx)
	defer cancel()

	roomID, err := c.storage.FindRoomIDByMember(ctx, model.Human(userID))
	if errors.Is(err, model.ErrNotInAnyRoom) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	room, err := c.storage.GetRoom(ctx, roomID)
	if errors.Is(err, model.ErrRoomNotFound) {
		// Deleted between the two reads
		return nil, nil
	}
	return room, err
}

// ListRooms returns a page of rooms that are waiting for players, newest
// first. Pages are numbered from 1.
func (c *Controller) ListRooms(ctx context.Context, page, pageSize int) (*RoomPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)

	ctx, cancel := c.commandContext(ctx)
	defer cancel()

	rooms, total, err := c.storage.ListRooms(ctx, storage.ListFilter{
		Status: model.RoomStatusWaiting,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &RoomPage{
		Rooms:      rooms,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// GetRoomConfigs returns each member's configuration in join order
func (c *Controller) GetRoomConfigs(ctx context.Context, id model.RoomID) ([]model.PlayerConfig, error) {
	room, err := c.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	return playerConfigs(room), nil
}

func playerConfigs(r *model.Room) []model.PlayerConfig {
	configs := make([]model.PlayerConfig, len(r.Members))
	for i, m := range r.Members {
		configs[i] = model.PlayerConfig{
			MemberID:     m.ID,
			DisplayName:  m.DisplayName,
			Civilization: m.Civilization,
			Color:        m.Color,
			IsReady:      m.IsReady,
			Slot:         i + 1,
		}
	}
	return configs
}
