// Package metrics exposes chat and appearance counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for answer calls.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeOffline = "offline"
	OutcomeDropped = "dropped"
)

// Recorder owns its own registry so tests and multiple stores never collide.
type Recorder struct {
	registry *prometheus.Registry

	messages       *prometheus.CounterVec
	answers        *prometheus.CounterVec
	answerLatency  prometheus.Histogram
	sessions       prometheus.Gauge
	pending        prometheus.Gauge
	themeApplied   *prometheus.CounterVec
	persistFailure *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatkit_messages_total",
			Help: "Messages appended to chat sessions.",
		}, []string{"sender"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatkit_answers_total",
			Help: "Answer service calls by outcome.",
		}, []string{"outcome"}),
		answerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chatkit_answer_duration_seconds",
			Help:    "Answer service call latency.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatkit_sessions",
			Help: "Chat sessions held by the store.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatkit_answers_pending",
			Help: "Answer calls in flight.",
		}),
		themeApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatkit_theme_applied_total",
			Help: "Themes applied to the style context.",
		}, []string{"theme"}),
		persistFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatkit_persist_failures_total",
			Help: "Storage reads and writes that failed.",
		}, []string{"op"}),
	}
	r.registry.MustRegister(r.messages, r.answers, r.answerLatency, r.sessions, r.pending, r.themeApplied, r.persistFailure)
	return r
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Every method is safe on a nil Recorder so callers can leave metrics off.

func (r *Recorder) MessageAppended(sender string) {
	if r == nil {
		return
	}
	r.messages.WithLabelValues(sender).Inc()
}

func (r *Recorder) AnswerFinished(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.answers.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		r.answerLatency.Observe(elapsed.Seconds())
	}
}

func (r *Recorder) SetSessions(n int) {
	if r == nil {
		return
	}
	r.sessions.Set(float64(n))
}

func (r *Recorder) AddPending(delta int) {
	if r == nil {
		return
	}
	r.pending.Add(float64(delta))
}

func (r *Recorder) ThemeApplied(theme string) {
	if r == nil {
		return
	}
	r.themeApplied.WithLabelValues(theme).Inc()
}

func (r *Recorder) PersistFailed(op string) {
	if r == nil {
		return
	}
	r.persistFailure.WithLabelValues(op).Inc()
}
