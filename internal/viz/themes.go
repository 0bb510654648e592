package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the live view: sail, lines, ground and status badges.
type Theme struct {
	Name    string
	Kite    lipgloss.Color
	Lines   lipgloss.Color
	Ground  lipgloss.Color
	Text    lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemeDusk = Theme{
		Name:    "dusk",
		Kite:    lipgloss.Color("#ff00ff"),
		Lines:   lipgloss.Color("#00ffff"),
		Ground:  lipgloss.Color("#666666"),
		Text:    lipgloss.Color("#ffffff"),
		Success: lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ff8800"),
		Error:   lipgloss.Color("#ff0000"),
	}

	ThemeBeach = Theme{
		Name:    "beach",
		Kite:    lipgloss.Color("#ff6b6b"),
		Lines:   lipgloss.Color("#feca57"),
		Ground:  lipgloss.Color("#c2a878"),
		Text:    lipgloss.Color("#fff5f5"),
		Success: lipgloss.Color("#5fd068"),
		Warning: lipgloss.Color("#ffc048"),
		Error:   lipgloss.Color("#ff4757"),
	}

	ThemeMono = Theme{
		Name:    "mono",
		Kite:    lipgloss.Color("#ffffff"),
		Lines:   lipgloss.Color("#cccccc"),
		Ground:  lipgloss.Color("#888888"),
		Text:    lipgloss.Color("#ffffff"),
		Success: lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff0000"),
	}

	CurrentTheme = ThemeDusk

	Themes = []Theme{ThemeDusk, ThemeBeach, ThemeMono}
)

// GetTheme returns a theme by name, falling back to dusk.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeDusk
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = ThemeDusk
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
