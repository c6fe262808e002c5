package bot

import "github.com/mcoot/civlobby/internal/model"

// FirstFreeStrategy takes the first catalog entries nobody else in the room
// has chosen. It is deterministic, which makes bot rooms reproducible.
type FirstFreeStrategy struct{}

// NewFirstFreeStrategy creates a new FirstFreeStrategy
func NewFirstFreeStrategy() *FirstFreeStrategy {
	return &FirstFreeStrategy{}
}

// ChooseCivilization returns the first civilization no other member picked,
// or the first catalog civilization when all are taken
func (s *FirstFreeStrategy) ChooseCivilization(room *model.Room, bot *model.Member) model.Civilization {
	taken := make(map[model.Civilization]bool, len(room.Members))
	for _, m := range room.Members {
		if m.ID != bot.ID && m.Civilization != "" {
			taken[m.Civilization] = true
		}
	}

	civs := model.Civilizations()
	for _, c := range civs {
		if !taken[c] {
			return c
		}
	}
	return civs[0]
}

// ChooseColor returns the first unused color
func (s *FirstFreeStrategy) ChooseColor(room *model.Room, bot *model.Member) model.Color {
	unused := room.UnusedColors()
	if len(unused) == 0 {
		return ""
	}
	return unused[0]
}
