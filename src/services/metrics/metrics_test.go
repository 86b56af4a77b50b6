package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"chatkit/src/services/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := metrics.NewRecorder()
	r.MessageAppended("user")
	r.MessageAppended("user")
	r.MessageAppended("ai")
	r.AnswerFinished(metrics.OutcomeOK, 250*time.Millisecond)
	r.AnswerFinished(metrics.OutcomeOffline, 0)
	r.SetSessions(4)
	r.AddPending(1)
	r.ThemeApplied("dark")
	r.PersistFailed("write")

	count, err := testutil.GatherAndCount(r.Registry(), "chatkit_messages_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(r.Registry(), "chatkit_answers_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `chatkit_messages_total{sender="user"} 2`)
	assert.Contains(t, string(body), "chatkit_sessions 4")
	assert.Contains(t, string(body), `chatkit_theme_applied_total{theme="dark"} 1`)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *metrics.Recorder
	assert.NotPanics(t, func() {
		r.MessageAppended("user")
		r.AnswerFinished(metrics.OutcomeError, time.Second)
		r.SetSessions(1)
		r.AddPending(-1)
		r.ThemeApplied("light")
		r.PersistFailed("read")
	})
}
