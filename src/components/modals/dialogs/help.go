// help.go - HelpModal shows the key bindings.

package dialogs

import (
	"fmt"
	"strings"

	"chatkit/src/services/customize"

	"github.com/charmbracelet/lipgloss"
)

// KeyBinding is one line of the help screen.
type KeyBinding struct {
	Key  string
	Help string
}

// HelpModal displays key bindings until closed.
type HelpModal struct {
	Title    string
	Bindings []KeyBinding
}

// Content renders the bindings as aligned text.
func (m *HelpModal) Content() string {
	width := 0
	for _, b := range m.Bindings {
		if len(b.Key) > width {
			width = len(b.Key)
		}
	}
	lines := make([]string, 0, len(m.Bindings))
	for _, b := range m.Bindings {
		lines = append(lines, fmt.Sprintf("%-*s  %s", width, b.Key, b.Help))
	}
	return strings.Join(lines, "\n")
}

// ViewRegion renders the help modal centred in the given region.
func (m *HelpModal) ViewRegion(p *customize.Palette, regionWidth, regionHeight int) string {
	body := p.Title.Render(m.Title) + "\n\n" + p.Base.Render(m.Content()) + "\n\n" + p.Subtle.Render("esc to close")
	return lipgloss.Place(regionWidth, regionHeight, lipgloss.Center, lipgloss.Center, p.Dialog.Render(body))
}
