package chat

import (
	"encoding/json"
	"errors"
	"time"

	"chatkit/src/models"
)

var errNoAnswerer = errors.New("no answer client configured")

// snapshot is the persisted blob under <prefix>-data.
type snapshot struct {
	Histories []*models.ChatSession `json:"histories"`
	ActiveID  *string               `json:"activeId"`
	LastSaved time.Time             `json:"lastSaved"`
}

// persistLocked writes the whole collection. Failures are logged and dropped.
func (s *Store) persistLocked() {
	if s.storage == nil {
		return
	}
	snap := snapshot{Histories: s.sessions, LastSaved: s.now()}
	if snap.Histories == nil {
		snap.Histories = []*models.ChatSession{}
	}
	if s.activeID != "" {
		id := s.activeID
		snap.ActiveID = &id
	}
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error("failed to encode chat histories", "error", err)
		s.metrics.PersistFailed("write")
		return
	}
	if err := s.storage.Set(s.keys.Data(), string(data)); err != nil {
		s.logger.Error("failed to save chat histories", "key", s.keys.Data(), "error", err)
		s.metrics.PersistFailed("write")
	}
}

// LoadFromStorage replaces the in-memory collection with the persisted one. A
// missing or unreadable blob leaves a single new empty session.
func (s *Store) LoadFromStorage() {
	s.mu.Lock()
	sessions, activeID, clean := s.readLocked()
	s.sessions = sessions
	s.activeID = ""

	switch {
	case activeID != "" && s.hasLocked(activeID):
		s.activeID = activeID
	case len(s.sessions) > 0:
		s.activeID = mostRecent(s.sessions).ID
	default:
		s.startNewChatLocked()
		clean = false
	}
	if !clean {
		s.persistLocked()
	}
	s.metrics.SetSessions(len(s.sessions))
	s.mu.Unlock()
	s.notify()
}

func (s *Store) hasLocked(id string) bool {
	_, c := s.findLocked(id)
	return c != nil
}

// readLocked returns the sanitised sessions and the stored active id. The flag is
// false when a stored blob had to be discarded.
func (s *Store) readLocked() ([]*models.ChatSession, string, bool) {
	if s.storage == nil {
		return nil, "", true
	}
	raw, found, err := s.storage.Get(s.keys.Data())
	if err != nil {
		s.logger.Error("Error loading chat histories", "key", s.keys.Data(), "error", err)
		s.metrics.PersistFailed("read")
		return nil, "", false
	}
	if !found || raw == "" {
		return nil, "", true
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.Error("Error loading chat histories, starting fresh", "key", s.keys.Data(), "error", err)
		s.metrics.PersistFailed("read")
		return nil, "", false
	}

	sessions := make([]*models.ChatSession, 0, len(snap.Histories))
	for _, c := range snap.Histories {
		if c == nil {
			continue
		}
		sessions = append(sessions, s.sanitize(c))
	}
	active := ""
	if snap.ActiveID != nil {
		active = *snap.ActiveID
	}
	return sessions, active, true
}

func (s *Store) sanitize(c *models.ChatSession) *models.ChatSession {
	now := s.now()
	if c.ID == "" {
		c.ID = s.newID()
	}
	if c.Title == "" {
		c.Title = models.UntitledChatTitle
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	msgs := make([]models.Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		if !m.Sender.Valid() {
			s.logger.Warn("dropping stored message with unknown sender", "session", c.ID, "sender", m.Sender)
			continue
		}
		if m.ID == "" {
			m.ID = s.newID()
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		msgs = append(msgs, m)
	}
	c.Messages = msgs
	return c
}

func mostRecent(sessions []*models.ChatSession) *models.ChatSession {
	best := sessions[0]
	for _, c := range sessions[1:] {
		if c.UpdatedAt.After(best.UpdatedAt) {
			best = c
		}
	}
	return best
}
