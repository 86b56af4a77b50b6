package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"chatkit/src/config"
	"chatkit/src/models"
	"chatkit/src/services/answer"
	"chatkit/src/services/chat"
	"chatkit/src/services/connectivity"
	"chatkit/src/services/logging"
	"chatkit/src/services/metrics"
	"chatkit/src/services/storage"
	"chatkit/src/services/storage/repositories"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *chat.Store
	kv       *repositories.MemoryRepository
	monitor  *connectivity.Monitor
	calls    atomic.Int32
	answerFn func(ctx context.Context, req answer.Request) (*answer.Response, error)
	metrics  *metrics.Recorder
	clock    time.Time
	window   *int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		kv:      repositories.NewMemoryRepository(),
		monitor: connectivity.NewMonitor(logging.Discard()),
		metrics: metrics.NewRecorder(),
		clock:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.answerFn = func(ctx context.Context, req answer.Request) (*answer.Response, error) {
		return &answer.Response{Fields: map[string]any{"answer": "echo: " + req.Query}}, nil
	}
	f.store = f.newStore(0)
	return f
}

func (f *fixture) newStore(maxSessions int) *chat.Store {
	cfg := config.Default()
	cfg.API.Namespace = "docs"
	cfg.API.AIModel = "claude"
	if f.window != nil {
		cfg.API.HistoryWindow = f.window
	}
	var seq atomic.Int64
	return chat.NewStore(chat.Options{
		Storage: f.kv,
		Keys:    storage.Keys{Prefix: "test"},
		Answerer: answer.AnswererFunc(func(ctx context.Context, req answer.Request) (*answer.Response, error) {
			f.calls.Add(1)
			return f.answerFn(ctx, req)
		}),
		API:         cfg.API,
		Online:      f.monitor,
		MaxSessions: maxSessions,
		Logger:      logging.Discard(),
		Metrics:     f.metrics,
		Now: func() time.Time {
			return f.clock.Add(time.Duration(seq.Add(1)) * time.Second)
		},
		NewID: func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
	})
}

func TestSendMessageAppendsUserThenReply(t *testing.T) {
	f := newFixture(t)
	f.store.LoadFromStorage()

	reply := f.store.SendMessage(context.Background(), "  Hello there  ")
	require.NotNil(t, reply)

	msgs := f.store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.SenderUser, msgs[0].Sender)
	assert.Equal(t, "Hello there", msgs[0].Text)
	assert.Equal(t, models.SenderAI, msgs[1].Sender)
	assert.Equal(t, "echo: Hello there", msgs[1].Text)
	assert.Equal(t, *reply, msgs[1])
	assert.Empty(t, f.store.Error())

	active, ok := f.store.Active()
	require.True(t, ok)
	assert.Equal(t, "Hello there", active.Title)
	assert.True(t, active.UpdatedAt.After(active.CreatedAt))
}

func TestSendMessageBlankIsNoop(t *testing.T) {
	f := newFixture(t)
	f.store.LoadFromStorage()

	for _, in := range []string{"", "   ", "\n\t"} {
		assert.Nil(t, f.store.SendMessage(context.Background(), in))
	}
	assert.Empty(t, f.store.Messages())
	assert.Zero(t, f.calls.Load())
}

func TestSendMessageCreatesSessionWhenNoneActive(t *testing.T) {
	f := newFixture(t)
	f.store.SendMessage(context.Background(), "first")
	sessions := f.store.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, sessions[0].ID, f.store.ActiveID())
	assert.Len(t, sessions[0].Messages, 2)
}

func TestSendMessageOffline(t *testing.T) {
	f := newFixture(t)
	f.store.LoadFromStorage()
	f.monitor.SetOnline(false)

	reply := f.store.SendMessage(context.Background(), "Hello")
	require.NotNil(t, reply)

	msgs := f.store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hello", msgs[0].Text)
	assert.Equal(t, chat.OfflineNotice, msgs[1].Text)
	assert.True(t, msgs[1].IsOffline)
	assert.Zero(t, f.calls.Load())
	count, err := testutil.GatherAndCount(f.metrics.Registry(), "chatkit_answers_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSendMessageAnswerFailure(t *testing.T) {
	f := newFixture(t)
	f.store.LoadFromStorage()
	f.answerFn = func(context.Context, answer.Request) (*answer.Response, error) {
		return nil, errors.New("network down")
	}

	f.store.SendMessage(context.Background(), "ping")

	msgs := f.store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "ping", msgs[0].Text)
	assert.Equal(t, models.SenderAI, msgs[1].Sender)
	assert.Contains(t, msgs[1].Text, "network down")
	assert.Equal(t, "network down", f.store.Error())

	f.answerFn = func(ctx context.Context, req answer.Request) (*answer.Response, error) {
		return &answer.Response{Fields: map[string]any{}}, nil
	}
	f.store.SendMessage(context.Background(), "again")
	assert.Empty(t, f.store.Error())
	assert.Equal(t, answer.NoResponse, f.store.Messages()[3].Text)
}

func TestSendReturnsErrorForItsOwnCall(t *testing.T) {
	f := newFixture(t)
	f.store.LoadFromStorage()
	f.answerFn = func(ctx context.Context, req answer.Request) (*answer.Response, error) {
		if req.Query == "bad" {
			return nil, errors.New("network down")
		}
		return &answer.Response{Fields: map[string]any{"answer": "ok"}}, nil
	}

	reply, err := f.store.Send(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, reply.Text, "network down")

	reply, err = f.store.Send(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Text)
	assert.Empty(t, f.store.Error())

	reply, err = f.store.Send(context.Background(), "   ")
	assert.NoError(t, err)
	assert.Nil(t, reply)
}

func TestSendMessageZeroHistoryWindowSendsWholeLog(t *testing.T) {
	f := newFixture(t)
	all := 0
	f.window = &all
	f.store = f.newStore(0)
	f.store.LoadFromStorage()
	var last answer.Request
	f.answerFn = func(ctx context.Context, req answer.Request) (*answer.Response, error) {
		last = req
		return &answer.Response{Fields: map[string]any{"answer": "ok"}}, nil
	}

	for i := 0; i < 15; i++ {
		f.store.SendMessage(context.Background(), fmt.Sprintf("m%d", i))
	}
	require.Len(t, last.ChatHistory, 29)
	assert.Equal(t, "m0", last.ChatHistory[0].Content)
}

func TestSendMessageHistoryWindow(t *testing.T) {
	f := newFixture(t)
	f.store.LoadFromStorage()
	var last answer.Request
	f.answerFn = func(ctx context.Context, req answer.Request) (*answer.Response, error) {
		last = req
		return &answer.Response{Fields: map[string]any{"answer": "ok"}}, nil
	}

	for i := 0; i < 15; i++ {
		f.store.SendMessage(context.Background(), fmt.Sprintf("m%d", i))
	}
	require.Len(t, last.ChatHistory, 20)
	assert.Equal(t, models.HistoryEntry{Role: "user", Content: "m14"}, last.ChatHistory[19])
	assert.Equal(t, "ai", last.ChatHistory[18].Role)
	assert.Equal(t, "docs", last.Namespace)
	assert.Equal(t, "m14", last.Query)
}

func TestOverlappingSendsReplyToOriginatingSession(t *testing.T) {
	f := newFixture(t)
	f.store.LoadFromStorage()
	first := f.store.ActiveID()

	release := make(chan struct{})
	entered := make(chan struct{})
	f.answerFn = func(ctx context.Context, req answer.Request) (*answer.Response, error) {
		if req.Query == "slow" {
			close(entered)
			<-release
		}
		return &answer.Response{Fields: map[string]any{"answer": "re: " + req.Query}}, nil
	}

	done := make(chan struct{})
	go func() {
		f.store.SendMessage(context.Background(), "slow")
		close(done)
	}()
	<-entered
	assert.Equal(t, 1, f.store.Pending())

	second := f.store.StartNewChat()
	f.store.SendMessage(context.Background(), "fast")
	close(release)
	<-done

	assert.Zero(t, f.store.Pending())
	firstSession, ok := f.store.Session(first)
	require.True(t, ok)
	require.Len(t, firstSession.Messages, 2)
	assert.Equal(t, "re: slow", firstSession.Messages[1].Text)

	secondSession, ok := f.store.Session(second.ID)
	require.True(t, ok)
	require.Len(t, secondSession.Messages, 2)
	assert.Equal(t, "re: fast", secondSession.Messages[1].Text)
	assert.Equal(t, second.ID, f.store.ActiveID())
}

func TestReplyDroppedWhenSessionDeleted(t *testing.T) {
	f := newFixture(t)
	f.store.LoadFromStorage()
	doomed := f.store.ActiveID()

	release := make(chan struct{})
	entered := make(chan struct{})
	f.answerFn = func(ctx context.Context, req answer.Request) (*answer.Response, error) {
		close(entered)
		<-release
		return &answer.Response{Fields: map[string]any{"answer": "late"}}, nil
	}

	done := make(chan *models.Message)
	go func() { done <- f.store.SendMessage(context.Background(), "hi") }()
	<-entered
	require.True(t, f.store.DeleteChat(doomed))
	close(release)

	assert.Nil(t, <-done)
	for _, c := range f.store.Sessions() {
		assert.NotEqual(t, doomed, c.ID)
		assert.Empty(t, c.Messages)
	}
}

func TestClearMessages(t *testing.T) {
	f := newFixture(t)
	f.store.LoadFromStorage()
	f.store.SendMessage(context.Background(), "a question worth a very long title indeed")
	active, _ := f.store.Active()
	assert.Equal(t, "a question worth a very long t...", active.Title)

	f.store.ClearMessages()
	active, _ = f.store.Active()
	assert.Empty(t, active.Messages)
	assert.Equal(t, models.DefaultChatTitle, active.Title)
	assert.Len(t, f.store.Sessions(), 1)
}

func TestStartNewChatPrependsAndActivates(t *testing.T) {
	f := newFixture(t)
	f.store.LoadFromStorage()
	first := f.store.ActiveID()

	c := f.store.StartNewChat()
	sessions := f.store.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, c.ID, sessions[0].ID)
	assert.Equal(t, first, sessions[1].ID)
	assert.Equal(t, c.ID, f.store.ActiveID())
	assert.Equal(t, models.DefaultChatTitle, c.Title)
}

func TestStartNewChatEvictsBeyondCap(t *testing.T) {
	f := newFixture(t)
	f.store = f.newStore(2)
	f.store.LoadFromStorage()
	f.store.StartNewChat()
	newest := f.store.StartNewChat()

	sessions := f.store.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, newest.ID, sessions[0].ID)
}

func TestSwitchChat(t *testing.T) {
	f := newFixture(t)
	f.store.LoadFromStorage()
	first := f.store.ActiveID()
	f.store.SendMessage(context.Background(), "in first")
	f.store.StartNewChat()

	assert.False(t, f.store.SwitchChat("missing"))
	assert.NotEqual(t, first, f.store.ActiveID())

	assert.True(t, f.store.SwitchChat(first))
	assert.Equal(t, first, f.store.ActiveID())
	assert.Equal(t, "in first", f.store.Messages()[0].Text)
}

func TestDeleteChatKeepsOneActive(t *testing.T) {
	f := newFixture(t)
	f.store.LoadFromStorage()
	a := f.store.ActiveID()
	b := f.store.StartNewChat().ID
	c := f.store.StartNewChat().ID

	assert.False(t, f.store.DeleteChat("missing"))

	require.True(t, f.store.DeleteChat(a))
	assert.Equal(t, c, f.store.ActiveID())

	require.True(t, f.store.DeleteChat(c))
	assert.Equal(t, b, f.store.ActiveID())

	require.True(t, f.store.DeleteChat(b))
	sessions := f.store.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, sessions[0].ID, f.store.ActiveID())
	assert.NotEqual(t, b, f.store.ActiveID())
}

func TestPersistAndReload(t *testing.T) {
	f := newFixture(t)
	f.store.LoadFromStorage()
	f.store.SendMessage(context.Background(), "one")
	older := f.store.ActiveID()
	f.store.StartNewChat()
	f.store.SendMessage(context.Background(), "two")
	f.store.SwitchChat(older)

	before := f.store.Sessions()

	reloaded := f.newStore(0)
	reloaded.LoadFromStorage()
	after := reloaded.Sessions()

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Title, after[i].Title)
		assert.True(t, before[i].UpdatedAt.Equal(after[i].UpdatedAt))
		require.Len(t, after[i].Messages, len(before[i].Messages))
		for j := range before[i].Messages {
			assert.Equal(t, before[i].Messages[j].ID, after[i].Messages[j].ID)
			assert.Equal(t, before[i].Messages[j].Text, after[i].Messages[j].Text)
			assert.True(t, before[i].Messages[j].Timestamp.Equal(after[i].Messages[j].Timestamp))
		}
	}
	assert.Equal(t, older, reloaded.ActiveID())

	raw, found, err := f.kv.Get("test-data")
	require.NoError(t, err)
	require.True(t, found)
	var blob map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &blob))
	assert.Contains(t, blob, "histories")
	assert.Equal(t, older, blob["activeId"])
	assert.Contains(t, blob, "lastSaved")
}

func TestLoadPicksMostRecentWhenActiveMissing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.kv.Set("test-data", `{
		"histories": [
			{"id":"a","title":"A","createdAt":"2024-01-01T00:00:00.000Z","updatedAt":"2024-01-02T00:00:00.000Z","messages":[]},
			{"id":"b","title":"B","createdAt":"2024-01-01T00:00:00.000Z","updatedAt":"2024-03-01T00:00:00.000Z","messages":[]}
		],
		"activeId": "gone",
		"lastSaved": "2024-03-01T00:00:00.000Z"
	}`))
	f.store.LoadFromStorage()
	assert.Equal(t, "b", f.store.ActiveID())
	assert.Len(t, f.store.Sessions(), 2)
}

func TestLoadSanitizesSessions(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.kv.Set("test-data", `{
		"histories": [
			{"messages":[{"text":"hi","sender":"user"},{"id":"m2","text":"?","sender":"robot","timestamp":"2024-01-01T00:00:00Z"}]}
		],
		"activeId": null
	}`))
	f.store.LoadFromStorage()

	sessions := f.store.Sessions()
	require.Len(t, sessions, 1)
	c := sessions[0]
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, models.UntitledChatTitle, c.Title)
	assert.False(t, c.CreatedAt.IsZero())
	require.Len(t, c.Messages, 1)
	assert.NotEmpty(t, c.Messages[0].ID)
	assert.False(t, c.Messages[0].Timestamp.IsZero())
	assert.Equal(t, c.ID, f.store.ActiveID())
}

func TestLoadCorruptBlobStartsFresh(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.kv.Set("test-data", `{"histories": "nope"`))

	f.store.LoadFromStorage()
	sessions := f.store.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, models.DefaultChatTitle, sessions[0].Title)
	assert.Equal(t, sessions[0].ID, f.store.ActiveID())

	raw, _, err := f.kv.Get("test-data")
	require.NoError(t, err)
	assert.Contains(t, raw, sessions[0].ID)
}

type failingKV struct{ repositories.MemoryRepository }

func (*failingKV) Get(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (*failingKV) Set(string, string) error         { return errors.New("quota exceeded") }

func TestPersistenceFailuresAreSwallowed(t *testing.T) {
	rec := metrics.NewRecorder()
	s := chat.NewStore(chat.Options{
		Storage: &failingKV{},
		Answerer: answer.AnswererFunc(func(ctx context.Context, req answer.Request) (*answer.Response, error) {
			return &answer.Response{Fields: map[string]any{"answer": "fine"}}, nil
		}),
		Logger:  logging.Discard(),
		Metrics: rec,
	})
	s.LoadFromStorage()
	s.SendMessage(context.Background(), "still works")
	assert.Len(t, s.Messages(), 2)
	count, err := testutil.GatherAndCount(rec.Registry(), "chatkit_persist_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestOnChangeFires(t *testing.T) {
	f := newFixture(t)
	var n atomic.Int32
	f.store.OnChange(func() { n.Add(1) })
	f.store.LoadFromStorage()
	f.store.StartNewChat()
	assert.GreaterOrEqual(t, n.Load(), int32(2))
}
