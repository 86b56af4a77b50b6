package models

import (
	"strings"
	"time"
)

const (
	// DefaultChatTitle is given to new and cleared sessions.
	DefaultChatTitle = "New Chat"
	// UntitledChatTitle is given to loaded sessions that carry no title.
	UntitledChatTitle = "Untitled Chat"

	// MaxTitleLength bounds a title derived from a message, in runes.
	MaxTitleLength = 30
)

// ChatSession is one conversation thread with its own message log.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// NewChatSession returns an empty session stamped with now.
func NewChatSession(id string, now time.Time) *ChatSession {
	return &ChatSession{
		ID:        id,
		Title:     DefaultChatTitle,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}
}

// HasPlaceholderTitle reports whether the title can still be replaced by one
// derived from the first user message.
func (c *ChatSession) HasPlaceholderTitle() bool {
	return IsPlaceholderTitle(c.Title)
}

// IsPlaceholderTitle reports whether title is empty or one of the default titles.
func IsPlaceholderTitle(title string) bool {
	return title == "" || title == DefaultChatTitle || title == UntitledChatTitle
}

// TitleFromText derives a session title from message text.
func TitleFromText(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > MaxTitleLength {
		return string(runes[:MaxTitleLength]) + "..."
	}
	return text
}

// Append adds msg to the log, deriving the title from the first user message
// while the title is still a placeholder.
func (c *ChatSession) Append(msg Message, now time.Time) {
	c.Messages = append(c.Messages, msg)
	if msg.Sender == SenderUser && c.HasPlaceholderTitle() {
		c.Title = TitleFromText(c.firstUserText())
	}
	c.UpdatedAt = now
}

func (c *ChatSession) firstUserText() string {
	for _, m := range c.Messages {
		if m.Sender == SenderUser {
			return m.Text
		}
	}
	return ""
}

// Clear empties the log and resets the title.
func (c *ChatSession) Clear(now time.Time) {
	c.Messages = []Message{}
	c.Title = DefaultChatTitle
	c.UpdatedAt = now
}

// Clone returns a deep copy safe to hand out of the store.
func (c *ChatSession) Clone() ChatSession {
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}

// LastMessage returns the most recent message, if any.
func (c *ChatSession) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}
