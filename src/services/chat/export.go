package chat

import (
	"fmt"
	"strings"
	"time"

	"chatkit/src/models"
)

// ExportText renders a session as "SENDER (timestamp): text" blocks.
func ExportText(c models.ChatSession) string {
	blocks := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		ts := "unknown"
		if !m.Timestamp.IsZero() {
			ts = m.Timestamp.Local().Format("2006-01-02 15:04:05")
		}
		blocks = append(blocks, fmt.Sprintf("%s (%s): %s", strings.ToUpper(string(m.Sender)), ts, m.Text))
	}
	return strings.Join(blocks, "\n\n")
}

// ExportFilename is <prefix>-YYYY-MM-DD.txt for t in UTC.
func ExportFilename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.txt", prefix, t.UTC().Format("2006-01-02"))
}
