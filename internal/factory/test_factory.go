package factory

import (
	"time"

	"github.com/mcoot/civlobby/internal/dependencies/mocks"
	"github.com/mcoot/civlobby/internal/storage/memory"
	"github.com/mcoot/civlobby/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	IDs        *mocks.SequentialIDs
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The fanout is not running; tests that need delivery start it themselves.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	idGen := mocks.NewSequentialIDs("id")

	app := newWithDependencies(store, mockClock, mockRandom, idGen, Config{}, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		IDs:        idGen,
	}
}
