package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// DefaultWindowSize fits the control tab without scrolling
var DefaultWindowSize = fyne.NewSize(900, 720)

// palette overrides the dark variant of the default theme
var palette = map[fyne.ThemeColorName]color.Color{
	theme.ColorNamePrimary:         color.NRGBA{R: 230, G: 160, B: 30, A: 255}, // clan gold
	theme.ColorNameBackground:      color.NRGBA{R: 24, G: 26, B: 32, A: 255},
	theme.ColorNameButton:          color.NRGBA{R: 58, G: 74, B: 112, A: 255},
	theme.ColorNameInputBackground: color.NRGBA{R: 36, G: 39, B: 48, A: 255},
	theme.ColorNameSuccess:         color.NRGBA{R: 76, G: 175, B: 80, A: 255},
	theme.ColorNameWarning:         color.NRGBA{R: 255, G: 152, B: 0, A: 255},
	theme.ColorNameError:           color.NRGBA{R: 244, G: 67, B: 54, A: 255},
}

var sizes = map[fyne.ThemeSizeName]float32{
	theme.SizeNameText:        13,
	theme.SizeNameHeadingText: 18,
	theme.SizeNamePadding:     5,
}

// BotTheme is a dark theme regardless of the system preference
type BotTheme struct{}

var _ fyne.Theme = (*BotTheme)(nil)

func (t *BotTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	if c, ok := palette[name]; ok {
		return c
	}
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}

func (t *BotTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *BotTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *BotTheme) Size(name fyne.ThemeSizeName) float32 {
	if s, ok := sizes[name]; ok {
		return s
	}
	return theme.DefaultTheme().Size(name)
}
