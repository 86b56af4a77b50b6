package sidebar

import (
	"strings"
	"time"

	"chatkit/src/services/customize"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// View renders the session list with the given palette.
func (s *SidebarModel) View(p *customize.Palette, now time.Time) string {
	inner := s.Width - 4
	if inner < 8 {
		inner = 8
	}

	var b strings.Builder
	b.WriteString(p.Title.Render("Chats") + "\n")
	b.WriteString(p.Subtle.Render(strings.Repeat("─", inner)) + "\n")

	end := s.Offset + s.visibleRows()
	if end > len(s.Sessions) {
		end = len(s.Sessions)
	}
	for i := s.Offset; i < end; i++ {
		c := s.Sessions[i]
		marker := "  "
		style := p.SidebarItem
		if c.ID == s.ActiveID {
			marker = "> "
			style = p.SidebarActive
		}
		title := runewidth.Truncate(c.Title, inner-2, "…")
		title = runewidth.FillRight(title, inner-2)
		b.WriteString(style.Render(marker+title) + "\n")
		b.WriteString("  " + p.Subtle.Render(humanize.RelTime(c.UpdatedAt, now, "ago", "from now")) + "\n")
	}
	if len(s.Sessions) > end {
		b.WriteString(p.Subtle.Render("  ↓ more") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
