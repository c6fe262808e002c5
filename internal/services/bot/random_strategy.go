package bot

import (
	"github.com/mcoot/civlobby/internal/dependencies/random"
	"github.com/mcoot/civlobby/internal/model"
)

// RandomStrategy picks uniformly among the catalog civilizations and the
// colors still free in the room
type RandomStrategy struct {
	random random.Random
}

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

// ChooseCivilization returns a random civilization
func (s *RandomStrategy) ChooseCivilization(room *model.Room, bot *model.Member) model.Civilization {
	return random.Pick(s.random, model.Civilizations())
}

// ChooseColor returns a random unused color
func (s *RandomStrategy) ChooseColor(room *model.Room, bot *model.Member) model.Color {
	return random.Pick(s.random, room.UnusedColors())
}
