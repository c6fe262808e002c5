package bot_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/civlobby/internal/dependencies/mocks"
	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/services/bot"
)

type StrategySuite struct {
	suite.Suite
	mockRandom *mocks.MockRandom
	strategy   *bot.RandomStrategy
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategySuite))
}

func (s *StrategySuite) SetupTest() {
	s.mockRandom = mocks.NewMockRandom()
	s.strategy = bot.NewRandomStrategy(s.mockRandom)
}

func (s *StrategySuite) TestChooseCivilization_PicksFromCatalog() {
	s.mockRandom.QueueIntn(2)
	s.Equal(model.CivilizationDevil, s.strategy.ChooseCivilization(&model.Room{}, &model.Member{}))

	s.mockRandom.QueueIntn(0)
	s.Equal(model.CivilizationKnight, s.strategy.ChooseCivilization(&model.Room{}, &model.Member{}))
}

func (s *StrategySuite) TestChooseColor_SkipsHeldColors() {
	room := &model.Room{Members: []model.Member{
		{ID: model.Human("a"), Color: model.ColorRed},
		{ID: model.Human("b"), Color: model.ColorBlue},
	}}
	// Free colors: green, yellow, pink, white, black, gray
	s.mockRandom.QueueIntn(0)
	s.Equal(model.ColorGreen, s.strategy.ChooseColor(room, &model.Member{}))

	s.mockRandom.QueueIntn(5)
	s.Equal(model.ColorGray, s.strategy.ChooseColor(room, &model.Member{}))
}

func (s *StrategySuite) TestChooseColor_NoneLeft() {
	room := &model.Room{}
	for i, c := range model.Colors() {
		room.Members = append(room.Members, model.Member{ID: model.Human(model.UserID(fmt.Sprint(i))), Color: c})
	}
	s.Equal(model.Color(""), s.strategy.ChooseColor(room, &model.Member{}))
}

func (s *StrategySuite) TestFirstFree_SkipsTakenChoices() {
	strategy := bot.NewFirstFreeStrategy()
	civs := model.Civilizations()
	colors := model.Colors()

	me := model.Member{ID: model.Bot("me"), Civilization: civs[0]}
	room := &model.Room{Members: []model.Member{
		{ID: model.Human("a"), Civilization: civs[0], Color: colors[0]},
		me,
	}}

	// The bot's own previous pick does not count as taken
	s.Equal(civs[1], strategy.ChooseCivilization(room, &me))
	s.Equal(colors[1], strategy.ChooseColor(room, &me))
}

func (s *StrategySuite) TestFirstFree_AllCivilizationsTaken() {
	strategy := bot.NewFirstFreeStrategy()
	room := &model.Room{}
	for i, c := range model.Civilizations() {
		room.Members = append(room.Members, model.Member{ID: model.Human(model.UserID(fmt.Sprint(i))), Civilization: c})
	}
	s.Equal(model.Civilizations()[0], strategy.ChooseCivilization(room, &model.Member{ID: model.Bot("x")}))
}

func (s *StrategySuite) TestNewStrategy() {
	for _, name := range append(model.ValidBotStrategies(), "") {
		strategy, err := bot.NewStrategy(name, s.mockRandom)
		s.Require().NoError(err, name)
		s.NotNil(strategy)
	}

	_, err := bot.NewStrategy("genius", s.mockRandom)
	s.Error(err)
}
