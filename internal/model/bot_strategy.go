package model

// Bot strategy constants
const (
	BotStrategyRandom    = "random"
	BotStrategyFirstFree = "first_free"
)

// BotStrategyDisplayName returns a human-readable label for a strategy
func BotStrategyDisplayName(strategy string) string {
	switch strategy {
	case BotStrategyRandom:
		return "Random"
	case BotStrategyFirstFree:
		return "First free"
	default:
		return strategy
	}
}

// ValidBotStrategies returns all valid bot strategy names
func ValidBotStrategies() []string {
	return []string{BotStrategyRandom, BotStrategyFirstFree}
}

// ValidBotStrategy reports whether name is a known strategy
func ValidBotStrategy(name string) bool {
	for _, s := range ValidBotStrategies() {
		if s == name {
			return true
		}
	}
	return false
}
