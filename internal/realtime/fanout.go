package realtime

import (
	"context"
	"log/slog"

	"github.com/mcoot/civlobby/internal/model"
)

// Encoder turns a domain event into its wire form
type Encoder func(model.Event) (Message, error)

// FanoutConfig holds dispatcher settings
type FanoutConfig struct {
	QueueSize int
}

// DefaultFanoutConfig returns the default dispatcher settings
func DefaultFanoutConfig() FanoutConfig {
	return FanoutConfig{QueueSize: 1024}
}

type envelope struct {
	event model.Event
	msg   Message
}

// Fanout delivers published events to the connections in the registry.
// A single dispatcher goroutine drains a FIFO queue, so every connection
// sees events in publish order.
type Fanout struct {
	registry *Registry
	encode   Encoder
	queue    chan envelope
	logger   *slog.Logger
}

// NewFanout creates a Fanout. Call Run to start delivery.
func NewFanout(registry *Registry, encode Encoder, cfg FanoutConfig, logger *slog.Logger) *Fanout {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultFanoutConfig().QueueSize
	}
	return &Fanout{
		registry: registry,
		encode:   encode,
		queue:    make(chan envelope, cfg.QueueSize),
		logger:   logger.With(slog.String("component", "fanout")),
	}
}

// Publish encodes the event and queues it for delivery. It never blocks:
// when the queue is full the event is dropped.
func (f *Fanout) Publish(event model.Event) {
	// Encoded here so the payload is captured before the caller moves on
	msg, err := f.encode(event)
	if err != nil {
		f.logger.Error("failed to encode event",
			slog.String("event", string(event.Type)),
			slog.String("room_id", string(event.RoomID)),
			slog.String("error", err.Error()))
		return
	}

	select {
	case f.queue <- envelope{event: event, msg: msg}:
	default:
		f.logger.Warn("event queue full, dropping event",
			slog.String("event", string(event.Type)),
			slog.String("room_id", string(event.RoomID)))
	}
}

// Run dispatches queued events until ctx is cancelled, then drains
// whatever is already queued
func (f *Fanout) Run(ctx context.Context) error {
	f.logger.Info("fanout started")
	for {
		select {
		case env := <-f.queue:
			f.dispatch(env)
		case <-ctx.Done():
			for {
				select {
				case env := <-f.queue:
					f.dispatch(env)
				default:
					f.logger.Info("fanout stopped")
					return nil
				}
			}
		}
	}
}

func (f *Fanout) dispatch(env envelope) {
	event := env.event
	seen := make(map[string]struct{})
	var recipients []Conn
	add := func(conns []Conn) {
		for _, conn := range conns {
			if _, dup := seen[conn.ID()]; dup {
				continue
			}
			seen[conn.ID()] = struct{}{}
			recipients = append(recipients, conn)
		}
	}
	if event.Has(model.ScopeRoom) {
		add(f.registry.Subscribers(event.RoomID))
	}
	if event.Has(model.ScopeGlobal) {
		add(f.registry.All())
	}

	for _, conn := range recipients {
		if err := conn.Send(env.msg); err != nil {
			f.logger.Warn("dropping connection after failed send",
				slog.String("conn_id", conn.ID()),
				slog.String("event", string(event.Type)),
				slog.String("error", err.Error()))
			f.registry.Unregister(conn.ID())
			conn.Close()
		}
	}

	f.settle(event)
}

// settle keeps channel membership in step with the room after delivery
func (f *Fanout) settle(event model.Event) {
	switch event.Type {
	case model.EventRoomDeleted:
		f.registry.DropChannel(event.RoomID)
	case model.EventPlayerLeft:
		p, ok := event.Payload.(model.PlayerLeftPayload)
		if ok && !p.IsBot {
			f.registry.UnsubscribeUser(p.MemberID.UserID(), event.RoomID)
		}
	}
}
