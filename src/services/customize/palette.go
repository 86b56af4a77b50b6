package customize

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Palette is the terminal rendering of the current design tokens.
type Palette struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color
	Border     lipgloss.Color
	Danger     lipgloss.Color
	Selection  lipgloss.Color

	Base          lipgloss.Style
	Title         lipgloss.Style
	Subtle        lipgloss.Style
	UserMessage   lipgloss.Style
	AIMessage     lipgloss.Style
	OfflineBadge  lipgloss.Style
	Error         lipgloss.Style
	Pane          lipgloss.Style
	FocusedPane   lipgloss.Style
	SidebarItem   lipgloss.Style
	SidebarActive lipgloss.Style
	Input         lipgloss.Style
	Dialog        lipgloss.Style
	Button        lipgloss.Style
	ButtonActive  lipgloss.Style
}

var lightDefaults = map[string]string{
	"--background":         "#ffffff",
	"--foreground":         "#0a0a0a",
	"--primary":            "#171717",
	"--primary-foreground": "#fafafa",
	"--muted-foreground":   "#737373",
	"--accent":             "#f5f5f5",
	"--accent-foreground":  "#171717",
	"--border":             "#e5e5e5",
	"--destructive":        "#ef4444",
	"--card":               "#ffffff",
}

// token parses a hex colour variable, falling back to the light theme value.
func token(vars map[string]string, name string) colorful.Color {
	if v, ok := vars[name]; ok {
		if c, err := colorful.Hex(v); err == nil {
			return c
		}
	}
	c, _ := colorful.Hex(lightDefaults[name])
	return c
}

func hex(c colorful.Color) lipgloss.Color {
	return lipgloss.Color(c.Clamped().Hex())
}

// NewPalette derives colours and styles from theme variables.
func NewPalette(vars map[string]string) *Palette {
	bg := token(vars, "--background")
	fg := token(vars, "--foreground")
	primary := token(vars, "--primary")
	primaryFg := token(vars, "--primary-foreground")
	mutedFg := token(vars, "--muted-foreground")
	accent := token(vars, "--accent")
	accentFg := token(vars, "--accent-foreground")
	border := token(vars, "--border")
	danger := token(vars, "--destructive")
	card := token(vars, "--card")

	// keep borders distinguishable from the background
	if border.DistanceLab(bg) < 0.08 {
		border = border.BlendLab(fg, 0.3)
	}
	selection := bg.BlendLab(primary, 0.25)

	p := &Palette{
		Background: hex(bg),
		Foreground: hex(fg),
		Primary:    hex(primary),
		Muted:      hex(mutedFg),
		Accent:     hex(accent),
		Border:     hex(border),
		Danger:     hex(danger),
		Selection:  hex(selection),
	}

	p.Base = lipgloss.NewStyle().Foreground(p.Foreground)
	p.Title = lipgloss.NewStyle().Bold(true).Foreground(p.Primary)
	p.Subtle = lipgloss.NewStyle().Foreground(p.Muted)
	p.UserMessage = lipgloss.NewStyle().
		Foreground(hex(primaryFg)).
		Background(p.Primary).
		Padding(0, 1)
	p.AIMessage = lipgloss.NewStyle().
		Foreground(hex(accentFg)).
		Background(p.Accent).
		Padding(0, 1)
	p.OfflineBadge = lipgloss.NewStyle().Foreground(p.Danger).Italic(true)
	p.Error = lipgloss.NewStyle().Foreground(p.Danger).Bold(true)
	p.Pane = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)
	p.FocusedPane = p.Pane.BorderForeground(p.Primary)
	p.SidebarItem = lipgloss.NewStyle().Foreground(p.Foreground)
	p.SidebarActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Foreground).
		Background(p.Selection)
	p.Input = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(p.Border).
		Foreground(p.Foreground)
	p.Dialog = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Background(hex(card)).
		Padding(1, 2)
	p.Button = lipgloss.NewStyle().Padding(0, 2).Foreground(p.Foreground)
	p.ButtonActive = p.Button.Bold(true).Foreground(hex(primaryFg)).Background(p.Primary)
	return p
}
