package rooms

import (
	"sync"

	"github.com/mcoot/civlobby/internal/model"
)

// recordingPublisher captures published events in order
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (p *recordingPublisher) Publish(e model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) all() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *recordingPublisher) ofType(t model.EventType) []model.Event {
	var out []model.Event
	for _, e := range p.all() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

func user(id string) model.User {
	return model.User{ID: model.UserID(id), DisplayName: "User " + id}
}

func civ(c model.Civilization) *model.Civilization { return &c }

func color(c model.Color) *model.Color { return &c }
