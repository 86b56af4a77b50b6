// view.go - rendering of the chat window. All colours come from the palette.

package chat

import (
	"strings"
	"unicode/utf8"

	"chatkit/src/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
	"github.com/mattn/go-runewidth"
	"github.com/mitchellh/go-wordwrap"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	m.refreshPalette()
	p := m.palette

	switch {
	case m.confirm != nil:
		return m.confirm.ViewRegion(p, m.width, m.height)
	case m.menu != nil:
		return m.menu.ViewRegion(p, m.width, m.height)
	case m.help != nil:
		return m.help.ViewRegion(p, m.width, m.height)
	}

	side := p.Pane.Width(m.sidebar.Width).Height(m.height - 2).Render(m.sidebar.View(p, m.now()))
	mainWidth := m.width - m.sidebar.Width - 4
	if mainWidth < 20 {
		mainWidth = 20
	}
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.header(mainWidth),
		m.messages(mainWidth, m.height-7),
		m.statusLine(mainWidth),
		p.Input.Width(mainWidth-2).Render(m.inputLine(mainWidth-4)),
	)
	return p.Base.Render(lipgloss.JoinHorizontal(lipgloss.Top, side, " ", main))
}

func (m *Model) header(width int) string {
	p := m.palette
	title := m.appName
	if active, ok := m.store.Active(); ok {
		title += " · " + active.Title
	}
	left := p.Title.Render(runewidth.Truncate(title, width-12, "…"))
	right := ""
	if !m.store.Online() {
		right = p.OfflineBadge.Render("offline")
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// messages renders the tail of the active session that fits in height lines.
func (m *Model) messages(width, height int) string {
	p := m.palette
	msgs := m.store.Messages()
	if len(msgs) == 0 {
		hint := p.Subtle.Render("Type a message and press enter. ? for help.")
		return lipgloss.NewStyle().Height(height).Render(banner(m.appName, width) + "\n\n" + hint)
	}
	var lines []string
	for _, msg := range msgs {
		lines = append(lines, renderMessage(msg, width, p.UserMessage, p.AIMessage, p.Subtle)...)
		lines = append(lines, "")
	}
	if m.inflight > 0 || m.store.Pending() > 0 {
		lines = append(lines, p.Subtle.Render(spinnerFrames[m.frame%len(spinnerFrames)]+" thinking…"))
	}
	if height > 0 && len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return lipgloss.NewStyle().Height(height).Render(strings.Join(lines, "\n"))
}

// banner renders name as ASCII art, or plainly when the art is too wide.
func banner(name string, width int) string {
	art := strings.Trim(figure.NewFigure(name, "", true).String(), "\n")
	if lipgloss.Width(art) > width {
		return name
	}
	return art
}

func renderMessage(msg models.Message, width int, user, ai, subtle lipgloss.Style) []string {
	label, style := "You", user
	if msg.Sender == models.SenderAI {
		label, style = "AI", ai
	}
	if msg.IsOffline {
		label += " (offline)"
	}
	head := style.Render(label) + " " + subtle.Render(msg.Timestamp.Local().Format("15:04"))
	body := wordwrap.WrapString(msg.Text, uint(max(width-2, 10)))
	out := []string{head}
	for _, l := range strings.Split(body, "\n") {
		out = append(out, "  "+l)
	}
	return out
}

func (m *Model) statusLine(width int) string {
	p := m.palette
	if err := m.store.Error(); err != "" {
		return p.Error.Render(runewidth.Truncate("Error: "+err, width, "…"))
	}
	return p.Subtle.Render(runewidth.Truncate(m.status, width, "…"))
}

// inputLine shows the end of the buffer when it is wider than the box.
func (m *Model) inputLine(width int) string {
	text := string(m.input)
	for runewidth.StringWidth(text) > width-2 && text != "" {
		_, size := utf8.DecodeRuneInString(text)
		text = text[size:]
	}
	return "> " + text + "▏"
}
