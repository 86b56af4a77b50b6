// confirmation.go - ConfirmationModal asks a yes/no style question with 1-3 options.
// Left/right moves between options, enter selects, esc closes.

package dialogs

import (
	"chatkit/src/services/customize"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ModalOption is one choice in a modal.
type ModalOption struct {
	Label    string
	OnSelect func() tea.Cmd
}

// ConfirmationModal is a reusable modal for confirmation dialogs (1-3 options).
type ConfirmationModal struct {
	Message  string
	Options  []ModalOption
	Selected int
	Closed   bool
}

// NewConfirmationModal creates a ConfirmationModal; it panics on a bad option count.
func NewConfirmationModal(message string, options ...ModalOption) *ConfirmationModal {
	if len(options) < 1 || len(options) > 3 {
		panic("ConfirmationModal must have 1-3 options")
	}
	return &ConfirmationModal{Message: message, Options: options}
}

// Update handles a key and reports the command of the chosen option.
func (m *ConfirmationModal) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.Closed {
		return nil
	}
	switch key.String() {
	case "left", "shift+tab":
		m.Selected = (m.Selected + len(m.Options) - 1) % len(m.Options)
	case "right", "tab":
		m.Selected = (m.Selected + 1) % len(m.Options)
	case "enter":
		m.Closed = true
		if fn := m.Options[m.Selected].OnSelect; fn != nil {
			return fn()
		}
	case "esc":
		m.Closed = true
	}
	return nil
}

// ViewRegion renders the modal centred in the given region.
func (m *ConfirmationModal) ViewRegion(p *customize.Palette, regionWidth, regionHeight int) string {
	msg := p.Title.Render(m.Message)
	var opts string
	for i, opt := range m.Options {
		style := p.Button
		if i == m.Selected {
			style = p.ButtonActive
		}
		opts += style.Render(opt.Label)
	}
	box := p.Dialog.Align(lipgloss.Center).Render(msg + "\n\n" + opts)
	return lipgloss.Place(regionWidth, regionHeight, lipgloss.Center, lipgloss.Center, box)
}
