// message.go - Defines the Message struct for representing chat messages across the application.
// Messages are immutable once created; sessions only ever append them.

package models

import "time"

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI
}

// Message represents a chat message.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	IsOffline bool      `json:"isOffline,omitempty"`
}

// HistoryEntry is the role-tagged form of a message sent to the answer service.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AsHistory converts a message into its role-tagged form.
func (m Message) AsHistory() HistoryEntry {
	return HistoryEntry{Role: string(m.Sender), Content: m.Text}
}
