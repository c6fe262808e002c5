package rooms

import (
	"context"
	"sync"

	"github.com/mcoot/civlobby/internal/model"
)

// roomLocks serializes commands per room. Commands on different rooms
// never contend. Entries are reference counted and dropped when unused.
type roomLocks struct {
	mu    sync.Mutex
	locks map[model.RoomID]*roomLock
}

type roomLock struct {
	ch   chan struct{}
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[model.RoomID]*roomLock)}
}

// lock blocks until the room is free or ctx is done. The returned func
// releases the lock.
func (l *roomLocks) lock(ctx context.Context, id model.RoomID) (func(), error) {
	l.mu.Lock()
	rl, ok := l.locks[id]
	if !ok {
		rl = &roomLock{ch: make(chan struct{}, 1)}
		l.locks[id] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.ch <- struct{}{}:
		return func() {
			<-rl.ch
			l.release(id, rl)
		}, nil
	case <-ctx.Done():
		l.release(id, rl)
		return nil, ctx.Err()
	}
}

func (l *roomLocks) release(id model.RoomID, rl *roomLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl.refs--
	if rl.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
