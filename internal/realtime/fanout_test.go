package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/testutil"
)

type FanoutSuite struct {
	suite.Suite
	registry *Registry
	fanout   *Fanout
}

func TestFanoutSuite(t *testing.T) {
	suite.Run(t, new(FanoutSuite))
}

func (s *FanoutSuite) SetupTest() {
	s.registry = NewRegistry(testutil.NopLogger())
	s.fanout = NewFanout(s.registry, testEncoder, FanoutConfig{QueueSize: 16}, testutil.NopLogger())
}

// flush dispatches everything queued so far on the test goroutine
func (s *FanoutSuite) flush() {
	for {
		select {
		case env := <-s.fanout.queue:
			s.fanout.dispatch(env)
		default:
			return
		}
	}
}

func (s *FanoutSuite) connect(id string, user model.UserID, rooms ...model.RoomID) *connection {
	conn := newTestConn(id, user, 8)
	s.registry.Register(conn)
	for _, room := range rooms {
		s.Require().NoError(s.registry.Subscribe(id, room))
	}
	return conn
}

func (s *FanoutSuite) TestRoomScopeReachesOnlySubscribers() {
	inRoom := s.connect("c1", "alice", "room-1")
	elsewhere := s.connect("c2", "bob", "room-2")
	lobby := s.connect("c3", "carol")

	s.fanout.Publish(roomEvent(model.EventRoomUpdated, "room-1", model.ScopeRoom))
	s.flush()

	s.Equal([]string{"room:updated"}, received(inRoom))
	s.Empty(received(elsewhere))
	s.Empty(received(lobby))
}

func (s *FanoutSuite) TestGlobalScopeReachesEveryone() {
	a := s.connect("c1", "alice", "room-1")
	b := s.connect("c2", "bob")

	s.fanout.Publish(roomEvent(model.EventRoomCreated, "room-9", model.ScopeGlobal))
	s.flush()

	s.Equal([]string{"room:created"}, received(a))
	s.Equal([]string{"room:created"}, received(b))
}

func (s *FanoutSuite) TestBothScopeDeliversOncePerConnection() {
	member := s.connect("c1", "alice", "room-1")
	browser := s.connect("c2", "bob")

	s.fanout.Publish(roomEvent(model.EventPlayerJoined, "room-1", model.ScopeBoth))
	s.flush()

	s.Equal([]string{"room:player_joined"}, received(member))
	s.Equal([]string{"room:player_joined"}, received(browser))
}

func (s *FanoutSuite) TestPreservesPublishOrder() {
	conn := s.connect("c1", "alice", "room-1")

	s.fanout.Publish(roomEvent(model.EventPlayerJoined, "room-1", model.ScopeBoth))
	s.fanout.Publish(roomEvent(model.EventConfigUpdated, "room-1", model.ScopeRoom))
	s.fanout.Publish(roomEvent(model.EventRoomUpdated, "room-1", model.ScopeRoom))
	s.fanout.Publish(roomEvent(model.EventAllReady, "room-1", model.ScopeRoom))
	s.flush()

	s.Equal([]string{
		"room:player_joined",
		"room:player_config_updated",
		"room:updated",
		"room:all_ready",
	}, received(conn))
}

func (s *FanoutSuite) TestFailedSendDropsConnection() {
	slow := newTestConn("slow", "alice", 1)
	s.registry.Register(slow)
	s.Require().NoError(s.registry.Subscribe("slow", "room-1"))
	healthy := s.connect("c2", "bob", "room-1")

	s.fanout.Publish(roomEvent(model.EventRoomUpdated, "room-1", model.ScopeRoom))
	s.fanout.Publish(roomEvent(model.EventRoomUpdated, "room-1", model.ScopeRoom))
	s.flush()

	s.Equal(1, s.registry.ConnectionCount())
	s.ErrorIs(slow.Send(Message{}), ErrClosed)
	s.Len(received(healthy), 2)
}

func (s *FanoutSuite) TestRoomDeletedDropsChannelAfterDelivery() {
	conn := s.connect("c1", "alice", "room-1")

	s.fanout.Publish(roomEvent(model.EventRoomDeleted, "room-1", model.ScopeBoth))
	s.flush()

	s.Equal([]string{"room:deleted"}, received(conn))
	s.Empty(s.registry.Subscribers("room-1"))
	s.Equal(1, s.registry.ConnectionCount())
}

func (s *FanoutSuite) TestHumanLeftIsUnsubscribed() {
	leaver := s.connect("c1", "alice", "room-1")
	stayer := s.connect("c2", "bob", "room-1")

	event := roomEvent(model.EventPlayerLeft, "room-1", model.ScopeBoth)
	event.Payload = model.PlayerLeftPayload{MemberID: model.Human("alice"), Kicked: true}
	s.fanout.Publish(event)
	s.flush()

	s.Equal([]string{"room:player_left"}, received(leaver))
	s.Equal([]string{"room:player_left"}, received(stayer))
	s.Empty(s.registry.Rooms("c1"))
	s.Equal([]model.RoomID{"room-1"}, s.registry.Rooms("c2"))
}

func (s *FanoutSuite) TestBotLeftKeepsSubscriptions() {
	s.connect("c1", "alice", "room-1")

	event := roomEvent(model.EventPlayerLeft, "room-1", model.ScopeBoth)
	event.Payload = model.PlayerLeftPayload{MemberID: model.Bot("bot-1"), IsBot: true, Kicked: true}
	s.fanout.Publish(event)
	s.flush()

	s.Equal([]model.RoomID{"room-1"}, s.registry.Rooms("c1"))
}

func (s *FanoutSuite) TestPublishNeverBlocksWhenQueueFull() {
	f := NewFanout(s.registry, testEncoder, FanoutConfig{QueueSize: 1}, testutil.NopLogger())

	done := make(chan struct{})
	go func() {
		f.Publish(roomEvent(model.EventRoomUpdated, "room-1", model.ScopeRoom))
		f.Publish(roomEvent(model.EventRoomUpdated, "room-1", model.ScopeRoom))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("publish blocked")
	}
	s.Len(f.queue, 1)
}

func (s *FanoutSuite) TestEncodeFailureIsDropped() {
	f := NewFanout(s.registry, func(model.Event) (Message, error) {
		return Message{}, errors.New("boom")
	}, FanoutConfig{}, testutil.NopLogger())

	f.Publish(roomEvent(model.EventRoomUpdated, "room-1", model.ScopeRoom))

	s.Empty(f.queue)
}

func (s *FanoutSuite) TestRunDeliversAndDrainsOnShutdown() {
	conn := s.connect("c1", "alice", "room-1")
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- s.fanout.Run(ctx) }()

	s.fanout.Publish(roomEvent(model.EventRoomUpdated, "room-1", model.ScopeRoom))
	s.Eventually(func() bool { return len(conn.send) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	s.NoError(<-stopped)
}
