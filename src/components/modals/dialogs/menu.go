// menu.go - MenuModal lists options vertically; used as the theme picker.

package dialogs

import (
	"chatkit/src/services/customize"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MenuModal is a reusable modal for choosing one entry from a list.
type MenuModal struct {
	Title    string
	Options  []string
	Labels   []string // optional display text per option
	Selected int
	OnSelect func(index int) tea.Cmd
	Closed   bool
}

// Update handles up/down to navigate, enter to select, esc to close.
func (m *MenuModal) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.Closed || len(m.Options) == 0 {
		return nil
	}
	switch key.String() {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		} else {
			m.Selected = len(m.Options) - 1
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		} else {
			m.Selected = 0
		}
	case "enter":
		m.Closed = true
		if m.OnSelect != nil {
			return m.OnSelect(m.Selected)
		}
	case "esc":
		m.Closed = true
	}
	return nil
}

func (m *MenuModal) label(i int) string {
	if i < len(m.Labels) && m.Labels[i] != "" {
		return m.Labels[i]
	}
	return m.Options[i]
}

// ViewRegion renders the menu centred in the given region.
func (m *MenuModal) ViewRegion(p *customize.Palette, regionWidth, regionHeight int) string {
	title := p.Title.Render(m.Title)
	var opts string
	for i := range m.Options {
		style := p.Button
		if i == m.Selected {
			style = p.ButtonActive
		}
		opts += style.Render(m.label(i)) + "\n"
	}
	box := p.Dialog.Render(title + "\n\n" + opts)
	return lipgloss.Place(regionWidth, regionHeight, lipgloss.Center, lipgloss.Center, box)
}
