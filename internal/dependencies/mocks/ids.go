package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/civlobby/internal/dependencies/ids"
)

// SequentialIDs is a deterministic Generator for tests
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// Ensure SequentialIDs implements Generator
var _ ids.Generator = (*SequentialIDs)(nil)

// NewSequentialIDs returns a generator producing prefix-1, prefix-2, ...
func NewSequentialIDs(prefix string) *SequentialIDs {
	return &SequentialIDs{prefix: prefix}
}

// NewID returns the next identifier in sequence
func (g *SequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}
