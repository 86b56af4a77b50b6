// components/sidebar/model.go - SidebarModel lists chat sessions, most recent
// first, and tracks the highlighted entry.

package sidebar

import (
	"chatkit/src/models"

	tea "github.com/charmbracelet/bubbletea"
)

// SelectMsg asks the parent to switch to the highlighted session.
type SelectMsg struct {
	ID string
}

// SidebarModel is the left pane of the chat window.
type SidebarModel struct {
	Sessions []models.ChatSession
	ActiveID string
	Cursor   int
	Offset   int // index of the first visible entry
	Width    int
	Height   int
}

func NewSidebarModel() *SidebarModel {
	return &SidebarModel{Width: 28, Height: 20}
}

// SetSessions refreshes the list and moves the cursor onto the active session.
func (s *SidebarModel) SetSessions(sessions []models.ChatSession, activeID string) {
	s.Sessions = sessions
	s.ActiveID = activeID
	for i, c := range sessions {
		if c.ID == activeID {
			s.Cursor = i
			break
		}
	}
	s.clamp()
}

func (s *SidebarModel) clamp() {
	if s.Cursor >= len(s.Sessions) {
		s.Cursor = len(s.Sessions) - 1
	}
	if s.Cursor < 0 {
		s.Cursor = 0
	}
	visible := s.visibleRows()
	if s.Cursor < s.Offset {
		s.Offset = s.Cursor
	}
	if visible > 0 && s.Cursor >= s.Offset+visible {
		s.Offset = s.Cursor - visible + 1
	}
}

// visibleRows is how many entries fit; each entry takes two lines.
func (s *SidebarModel) visibleRows() int {
	rows := (s.Height - 2) / 2
	if rows < 1 {
		return 1
	}
	return rows
}

// Move shifts the cursor by delta with wrap-around and returns the
// highlighted session id.
func (s *SidebarModel) Move(delta int) string {
	n := len(s.Sessions)
	if n == 0 {
		return ""
	}
	s.Cursor = ((s.Cursor+delta)%n + n) % n
	s.clamp()
	return s.Sessions[s.Cursor].ID
}

// Update handles session navigation keys; a move selects the session.
func (s *SidebarModel) Update(msg tea.Msg) (*SidebarModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	var id string
	switch key.String() {
	case "up":
		id = s.Move(-1)
	case "down":
		id = s.Move(1)
	case "pgup":
		id = s.Move(-s.visibleRows())
	case "pgdown":
		id = s.Move(s.visibleRows())
	default:
		return s, nil
	}
	if id == "" {
		return s, nil
	}
	return s, func() tea.Msg { return SelectMsg{ID: id} }
}
