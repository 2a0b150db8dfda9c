package model

type Theme string

const (
	ThemeLight = Theme("light")
	ThemeDark  = Theme("dark")

	DefaultTheme = ThemeDark
)

func ParseTheme(s string) Theme {
	switch s {
	case string(ThemeLight):
		return ThemeLight
	case string(ThemeDark):
		return ThemeDark
	default:
		return DefaultTheme
	}
}

func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}
