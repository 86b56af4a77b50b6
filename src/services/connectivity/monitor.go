// Package connectivity tracks whether the answer service is reachable.
package connectivity

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

// Probe reports whether the network is reachable.
type Probe func(ctx context.Context) bool

// Monitor holds the online flag. The flag starts online.
type Monitor struct {
	online atomic.Bool

	mu        sync.Mutex
	listeners []func(online bool)
	logger    *slog.Logger
}

func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{logger: logger}
	m.online.Store(true)
	return m
}

// Online reports the current flag.
func (m *Monitor) Online() bool { return m.online.Load() }

// SetOnline updates the flag and notifies listeners when it changes.
func (m *Monitor) SetOnline(online bool) {
	if m.online.Swap(online) == online {
		return
	}
	m.logger.Info("connectivity changed", "online", online)
	m.mu.Lock()
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(online)
	}
}

// OnChange registers fn to run after every flag change.
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Watch runs probe immediately and then every interval until ctx is done.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, probe Probe) {
	if interval <= 0 || probe == nil {
		return
	}
	m.SetOnline(probe(ctx))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SetOnline(probe(ctx))
		}
	}
}

// DialProbe returns a probe that opens a TCP connection to the endpoint's host.
func DialProbe(endpoint string, timeout time.Duration) Probe {
	addr := hostPort(endpoint)
	return func(ctx context.Context) bool {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
}

func hostPort(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	if u.Port() != "" {
		return u.Host
	}
	port := "443"
	if u.Scheme == "http" {
		port = "80"
	}
	return net.JoinHostPort(u.Hostname(), port)
}
