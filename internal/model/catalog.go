package model

// Civilization is a playable faction. Several members may share one.
type Civilization string

const (
	CivilizationKnight   Civilization = "knight"
	CivilizationTraveler Civilization = "traveler"
	CivilizationDevil    Civilization = "devil"
)

// Color is a player color. At most one member of a room holds each color.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorPink   Color = "pink"
	ColorWhite  Color = "white"
	ColorBlack  Color = "black"
	ColorGray   Color = "gray"
)

// Civilizations returns every selectable civilization in display order
func Civilizations() []Civilization {
	return []Civilization{CivilizationKnight, CivilizationTraveler, CivilizationDevil}
}

// Colors returns every selectable color in display order
func Colors() []Color {
	return []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow, ColorPink, ColorWhite, ColorBlack, ColorGray}
}

// ValidCivilization reports whether c is in the catalog
func ValidCivilization(c Civilization) bool {
	for _, v := range Civilizations() {
		if v == c {
			return true
		}
	}
	return false
}

// ValidColor reports whether c is in the catalog
func ValidColor(c Color) bool {
	for _, v := range Colors() {
		if v == c {
			return true
		}
	}
	return false
}

// BotAvatars are the avatars bots pick from
var BotAvatars = []string{
	"/avatars/bot-1.png",
	"/avatars/bot-2.png",
	"/avatars/bot-3.png",
	"/avatars/bot-4.png",
}
