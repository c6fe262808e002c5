package bot

import (
	"fmt"

	"github.com/mcoot/civlobby/internal/dependencies/random"
	"github.com/mcoot/civlobby/internal/model"
)

// Strategy defines how a bot chooses its game configuration
type Strategy interface {
	// ChooseCivilization selects a civilization for the bot
	ChooseCivilization(room *model.Room, bot *model.Member) model.Civilization
	// ChooseColor selects a color no other member holds, or "" if none is left
	ChooseColor(room *model.Room, bot *model.Member) model.Color
}

// NewStrategy returns the strategy registered under name. An empty name
// selects the random strategy.
func NewStrategy(name string, rnd random.Random) (Strategy, error) {
	switch name {
	case "", model.BotStrategyRandom:
		return NewRandomStrategy(rnd), nil
	case model.BotStrategyFirstFree:
		return NewFirstFreeStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown bot strategy %q", name)
	}
}
