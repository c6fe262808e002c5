package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/mcoot/civlobby/internal/model"
)

var (
	// ErrBackpressure means the connection's send buffer is full
	ErrBackpressure = errors.New("send buffer full")
	// ErrClosed means the connection has been closed
	ErrClosed = errors.New("connection closed")
)

// Message is one encoded event ready for any transport
type Message struct {
	Event string
	Data  []byte
}

// Conn is a live push connection
type Conn interface {
	ID() string
	UserID() model.UserID
	// Send queues a message without blocking
	Send(msg Message) error
	// Close stops the connection's writer. Safe to call more than once.
	Close()
}

// connection is the transport-independent half of a Conn: a bounded
// outbound queue drained by the transport's writer loop
type connection struct {
	id          string
	userID      model.UserID
	send        chan Message
	done        chan struct{}
	once        sync.Once
	connectedAt time.Time
}

func newConnection(id string, userID model.UserID, bufferSize int, now time.Time) *connection {
	return &connection{
		id:          id,
		userID:      userID,
		send:        make(chan Message, bufferSize),
		done:        make(chan struct{}),
		connectedAt: now,
	}
}

func (c *connection) ID() string { return c.id }

func (c *connection) UserID() model.UserID { return c.userID }

func (c *connection) Send(msg Message) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *connection) Close() {
	c.once.Do(func() { close(c.done) })
}
