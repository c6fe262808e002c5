package bot

import (
	"fmt"
	"log/slog"

	"github.com/mcoot/civlobby/internal/dependencies/clock"
	"github.com/mcoot/civlobby/internal/dependencies/ids"
	"github.com/mcoot/civlobby/internal/dependencies/random"
	"github.com/mcoot/civlobby/internal/model"
)

// Service creates bot members and fills in their configuration
type Service struct {
	strategy Strategy
	clock    clock.Clock
	random   random.Random
	ids      ids.Generator
	logger   *slog.Logger
}

// NewService creates a new bot service
func NewService(
	strategy Strategy,
	clock clock.Clock,
	random random.Random,
	ids ids.Generator,
	logger *slog.Logger,
) *Service {
	return &Service{
		strategy: strategy,
		clock:    clock,
		random:   random,
		ids:      ids,
		logger:   logger.With(slog.String("component", "bot-service")),
	}
}

// NewMember builds an unconfigured bot member
func (s *Service) NewMember() model.Member {
	return model.Member{
		ID:          model.Bot(s.ids.NewID()),
		DisplayName: fmt.Sprintf("Bot %d", s.random.Intn(1000)),
		AvatarURL:   random.Pick(s.random, model.BotAvatars),
		Role:        model.RoleBot,
		JoinedAt:    s.clock.Now(),
	}
}

// Configure gives every bot that is not yet ready a civilization and a
// free color and marks it ready. Bots are handled in join order so each
// one sees the colors claimed before it. It returns how many bots changed.
func (s *Service) Configure(room *model.Room) int {
	configured := 0
	for _, b := range room.Bots() {
		if b.IsReady {
			continue
		}
		b.Civilization = s.strategy.ChooseCivilization(room, b)
		b.Color = s.strategy.ChooseColor(room, b)
		if b.Color == "" {
			s.logger.Warn("no free color for bot",
				slog.String("room_id", string(room.ID)),
				slog.String("bot_id", b.ID.Value),
			)
			continue
		}
		b.IsReady = true
		configured++
	}
	return configured
}
