// Package chat owns the set of chat sessions and mediates message traffic with
// the answer service.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"chatkit/src/config"
	"chatkit/src/models"
	"chatkit/src/services/answer"
	"chatkit/src/services/metrics"
	"chatkit/src/services/storage"

	"github.com/google/uuid"
)

const (
	OfflineNotice = "You appear to be offline. Your message has been saved and will be processed when you reconnect."
	failurePrefix = "Sorry, I encountered an error processing your request: "
)

// OnlineChecker reports the connectivity flag at the moment of a send.
type OnlineChecker interface {
	Online() bool
}

type alwaysOnline struct{}

func (alwaysOnline) Online() bool { return true }

// Options wires a Store to its collaborators.
type Options struct {
	Storage  storage.KVStore
	Keys     storage.Keys
	Answerer answer.Answerer
	API      config.APISettings
	Online   OnlineChecker
	// MaxSessions caps the collection; 0 means unlimited.
	MaxSessions int
	Logger      *slog.Logger
	Metrics     *metrics.Recorder
	Now         func() time.Time
	NewID       func() string
}

// Store holds the sessions, most-recent-first, and the active session id.
// The lock is never held across an answer call.
type Store struct {
	mu        sync.Mutex
	sessions  []*models.ChatSession
	activeID  string
	lastError string
	pending   int
	listeners []func()

	storage     storage.KVStore
	keys        storage.Keys
	answerer    answer.Answerer
	api         config.APISettings
	online      OnlineChecker
	maxSessions int
	logger      *slog.Logger
	metrics     *metrics.Recorder
	now         func() time.Time
	newID       func() string
}

func NewStore(opts Options) *Store {
	s := &Store{
		storage:     opts.Storage,
		keys:        opts.Keys,
		answerer:    opts.Answerer,
		api:         opts.API,
		online:      opts.Online,
		maxSessions: opts.MaxSessions,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		now:         opts.Now,
		newID:       opts.NewID,
	}
	if s.online == nil {
		s.online = alwaysOnline{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	if s.keys.Prefix == "" {
		s.keys.Prefix = config.DefaultStoragePrefix
	}
	return s
}

// OnChange registers fn to run after every state change, outside the lock.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	s.mu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (s *Store) message(text string, sender models.Sender) models.Message {
	return models.Message{ID: s.newID(), Text: text, Sender: sender, Timestamp: s.now()}
}

func (s *Store) findLocked(id string) (int, *models.ChatSession) {
	for i, c := range s.sessions {
		if c.ID == id {
			return i, c
		}
	}
	return -1, nil
}

func (s *Store) activeLocked() *models.ChatSession {
	if s.activeID == "" {
		return nil
	}
	_, c := s.findLocked(s.activeID)
	return c
}

func (s *Store) appendLocked(c *models.ChatSession, msg models.Message) {
	c.Append(msg, s.now())
	s.metrics.MessageAppended(string(msg.Sender))
}

// SendMessage appends text as a user message to the active session and, when
// online, appends the answer service's reply. Blank input is ignored. The
// returned message is the reply appended for this send, or nil.
func (s *Store) SendMessage(ctx context.Context, text string) *models.Message {
	reply, _ := s.Send(ctx, text)
	return reply
}

// Send is SendMessage that also returns the answer service error for this
// call. Error only reflects the most recent send, which is not enough when
// several sends overlap.
func (s *Store) Send(ctx context.Context, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	s.mu.Lock()
	s.lastError = ""
	session := s.activeLocked()
	if session == nil {
		session = s.startNewChatLocked()
	}
	s.appendLocked(session, s.message(text, models.SenderUser))

	if !s.online.Online() {
		notice := s.message(OfflineNotice, models.SenderAI)
		notice.IsOffline = true
		s.appendLocked(session, notice)
		s.persistLocked()
		s.mu.Unlock()
		s.metrics.AnswerFinished(metrics.OutcomeOffline, 0)
		s.notify()
		return &notice, nil
	}

	sessionID := session.ID
	req := answer.BuildRequest(s.api, text, historyWindow(session.Messages, s.api.Window()))
	s.pending++
	s.metrics.AddPending(1)
	s.persistLocked()
	s.mu.Unlock()
	s.notify()

	start := s.now()
	var (
		resp *answer.Response
		err  error
	)
	if s.answerer == nil {
		err = errNoAnswerer
	} else {
		resp, err = s.answerer.Answer(ctx, req)
	}
	elapsed := s.now().Sub(start)

	s.mu.Lock()
	s.pending--
	s.metrics.AddPending(-1)

	var reply models.Message
	outcome := metrics.OutcomeOK
	if err != nil {
		s.logger.Error("Error sending message", "session", sessionID, "error", err)
		s.lastError = err.Error()
		reply = s.message(failurePrefix+err.Error(), models.SenderAI)
		outcome = metrics.OutcomeError
	} else {
		reply = s.message(resp.Text(), models.SenderAI)
	}

	_, target := s.findLocked(sessionID)
	if target == nil {
		s.mu.Unlock()
		s.logger.Warn("reply dropped, session was deleted", "session", sessionID)
		s.metrics.AnswerFinished(metrics.OutcomeDropped, elapsed)
		s.notify()
		return nil, err
	}
	s.appendLocked(target, reply)
	s.persistLocked()
	s.mu.Unlock()

	s.metrics.AnswerFinished(outcome, elapsed)
	s.notify()
	return &reply, err
}

// historyWindow returns the last n messages in role-tagged form; n <= 0 sends
// the whole log.
func historyWindow(msgs []models.Message, n int) []models.HistoryEntry {
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]models.HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.AsHistory())
	}
	return out
}

// ClearMessages empties the active session's log and resets its title.
func (s *Store) ClearMessages() {
	s.mu.Lock()
	session := s.activeLocked()
	if session == nil {
		s.mu.Unlock()
		return
	}
	session.Clear(s.now())
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
}

// StartNewChat prepends an empty session and makes it active.
func (s *Store) StartNewChat() models.ChatSession {
	s.mu.Lock()
	c := s.startNewChatLocked()
	out := c.Clone()
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
	return out
}

func (s *Store) startNewChatLocked() *models.ChatSession {
	c := models.NewChatSession(s.newID(), s.now())
	s.sessions = append([]*models.ChatSession{c}, s.sessions...)
	s.activeID = c.ID
	if s.maxSessions > 0 && len(s.sessions) > s.maxSessions {
		for _, dropped := range s.sessions[s.maxSessions:] {
			s.logger.Info("session evicted", "session", dropped.ID, "max_sessions", s.maxSessions)
		}
		s.sessions = s.sessions[:s.maxSessions]
	}
	s.metrics.SetSessions(len(s.sessions))
	return c
}

// SwitchChat makes id active. Unknown ids are ignored.
func (s *Store) SwitchChat(id string) bool {
	s.mu.Lock()
	if _, c := s.findLocked(id); c == nil {
		s.mu.Unlock()
		return false
	}
	s.activeID = id
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
	return true
}

// DeleteChat removes id. Deleting the active session activates the first
// remaining one, or a new empty session when none remain.
func (s *Store) DeleteChat(id string) bool {
	s.mu.Lock()
	i, c := s.findLocked(id)
	if c == nil {
		s.mu.Unlock()
		return false
	}
	s.sessions = append(s.sessions[:i:i], s.sessions[i+1:]...)
	if s.activeID == id {
		if len(s.sessions) > 0 {
			s.activeID = s.sessions[0].ID
		} else {
			s.activeID = ""
			s.startNewChatLocked()
		}
	}
	s.metrics.SetSessions(len(s.sessions))
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
	return true
}

// Sessions returns copies of every session, most-recent-first.
func (s *Store) Sessions() []models.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatSession, 0, len(s.sessions))
	for _, c := range s.sessions {
		out = append(out, c.Clone())
	}
	return out
}

// Session returns a copy of the session with id.
func (s *Store) Session(id string) (models.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, c := s.findLocked(id); c != nil {
		return c.Clone(), true
	}
	return models.ChatSession{}, false
}

// Active returns a copy of the active session.
func (s *Store) Active() (models.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.activeLocked(); c != nil {
		return c.Clone(), true
	}
	return models.ChatSession{}, false
}

// Messages returns the active session's log.
func (s *Store) Messages() []models.Message {
	c, ok := s.Active()
	if !ok {
		return nil
	}
	return c.Messages
}

func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Error returns the text of the last failed answer call, cleared by the next send.
func (s *Store) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Pending returns the number of answer calls in flight.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Store) Online() bool {
	return s.online.Online()
}
