package realtime

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/civlobby/internal/model"
)

// ErrUnknownConnection is returned for operations on an unregistered connection
var ErrUnknownConnection = errors.New("unknown connection")

// Registry is the session channel registry. It tracks which live
// connections subscribe to which room channels. Every registered
// connection implicitly receives the global channel.
//
// The registry only holds back-references; it never touches room state.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]*registration
	channels map[model.RoomID]map[string]Conn
	logger   *slog.Logger
}

type registration struct {
	conn  Conn
	rooms map[model.RoomID]struct{}
}

// NewRegistry creates an empty Registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		conns:    make(map[string]*registration),
		channels: make(map[model.RoomID]map[string]Conn),
		logger:   logger.With(slog.String("component", "registry")),
	}
}

// Register adds a connection to the global channel
func (r *Registry) Register(conn Conn) {
	r.mu.Lock()
	r.conns[conn.ID()] = &registration{conn: conn, rooms: make(map[model.RoomID]struct{})}
	total := len(r.conns)
	r.mu.Unlock()

	r.logger.Info("connection registered",
		slog.String("conn_id", conn.ID()),
		slog.String("user_id", string(conn.UserID())),
		slog.Int("total_connections", total))
}

// Unregister drops the connection from every channel. It reports whether
// the connection was registered.
func (r *Registry) Unregister(connID string) bool {
	r.mu.Lock()
	reg, ok := r.conns[connID]
	if ok {
		for roomID := range reg.rooms {
			r.removeLocked(roomID, connID)
		}
		delete(r.conns, connID)
	}
	total := len(r.conns)
	r.mu.Unlock()

	if ok {
		r.logger.Info("connection unregistered",
			slog.String("conn_id", connID),
			slog.Int("total_connections", total))
	}
	return ok
}

// Subscribe adds the connection to a room channel. A connection may hold
// several room channels.
func (r *Registry) Subscribe(connID string, roomID model.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	r.addLocked(roomID, reg)
	return nil
}

// SwitchRoom subscribes the connection to roomID and then drops every
// other room channel it held
func (r *Registry) SwitchRoom(connID string, roomID model.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	r.addLocked(roomID, reg)
	for other := range reg.rooms {
		if other != roomID {
			r.removeLocked(other, connID)
		}
	}
	return nil
}

// Unsubscribe removes the connection from a room channel
func (r *Registry) Unsubscribe(connID string, roomID model.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(roomID, connID)
}

// UnsubscribeUser removes every connection of a user from a room channel
func (r *Registry) UnsubscribeUser(userID model.UserID, roomID model.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for connID, conn := range r.channels[roomID] {
		if conn.UserID() == userID {
			r.removeLocked(roomID, connID)
		}
	}
}

// DropChannel removes every subscriber from a room channel
func (r *Registry) DropChannel(roomID model.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for connID := range r.channels[roomID] {
		r.removeLocked(roomID, connID)
	}
}

// Subscribers returns the connections on a room channel
func (r *Registry) Subscribers(roomID model.RoomID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := make([]Conn, 0, len(r.channels[roomID]))
	for _, conn := range r.channels[roomID] {
		subs = append(subs, conn)
	}
	return subs
}

// All returns every registered connection
func (r *Registry) All() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Conn, 0, len(r.conns))
	for _, reg := range r.conns {
		all = append(all, reg.conn)
	}
	return all
}

// Rooms returns the room channels a connection holds
func (r *Registry) Rooms(connID string) []model.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.conns[connID]
	if !ok {
		return nil
	}
	rooms := make([]model.RoomID, 0, len(reg.rooms))
	for roomID := range reg.rooms {
		rooms = append(rooms, roomID)
	}
	return rooms
}

// ConnectionCount returns the number of registered connections
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Close unregisters and closes every connection
func (r *Registry) Close() {
	r.mu.Lock()
	conns := make([]Conn, 0, len(r.conns))
	for _, reg := range r.conns {
		conns = append(conns, reg.conn)
	}
	r.conns = make(map[string]*registration)
	r.channels = make(map[model.RoomID]map[string]Conn)
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
	r.logger.Info("registry closed", slog.Int("disconnected", len(conns)))
}

func (r *Registry) addLocked(roomID model.RoomID, reg *registration) {
	subs, ok := r.channels[roomID]
	if !ok {
		subs = make(map[string]Conn)
		r.channels[roomID] = subs
	}
	subs[reg.conn.ID()] = reg.conn
	reg.rooms[roomID] = struct{}{}
}

func (r *Registry) removeLocked(roomID model.RoomID, connID string) {
	if subs, ok := r.channels[roomID]; ok {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(r.channels, roomID)
		}
	}
	if reg, ok := r.conns[connID]; ok {
		delete(reg.rooms, roomID)
	}
}
