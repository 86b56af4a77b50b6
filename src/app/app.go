// Package app wires configuration, storage, the chat store and the
// customization applier into one runnable unit.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"chatkit/src/config"
	"chatkit/src/services/answer"
	"chatkit/src/services/chat"
	"chatkit/src/services/connectivity"
	"chatkit/src/services/customize"
	"chatkit/src/services/logging"
	"chatkit/src/services/metrics"
	"chatkit/src/services/storage"
)

// Options adjusts how New builds the app.
type Options struct {
	// Ephemeral keeps everything in memory.
	Ephemeral bool
	// LogToFile sends logs to <dataDir>/chatkit.log instead of stderr.
	LogToFile bool
	// LogWriter overrides both log destinations.
	LogWriter io.Writer

	// Overrides used by tests.
	Storage  storage.KVStore
	Answerer answer.Answerer
	Scheme   customize.SchemeDetector
	Loader   customize.FontLoader
}

// App holds every long-lived component.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Storage  storage.KVStore
	Metrics  *metrics.Recorder
	Monitor  *connectivity.Monitor
	Chat     *chat.Store
	Style    *customize.StyleContext
	Applier  *customize.Applier
	Answerer answer.Answerer

	closers []io.Closer
}

// New builds the components described by cfg. Nothing touches the network
// until Start is called.
func New(cfg *config.Config, opts Options) (*App, error) {
	logOpts := logging.Options{Level: cfg.Log.Level, Writer: opts.LogWriter}
	if opts.LogToFile && opts.LogWriter == nil {
		logOpts.File = filepath.Join(cfg.Storage.Dir, "chatkit.log")
	}
	logger, logCloser, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, closers: []io.Closer{logCloser}}

	kv := opts.Storage
	switch {
	case kv != nil:
	case opts.Ephemeral:
		kv, err = storage.Open(config.BackendMemory, "")
	default:
		kv, err = storage.Open(cfg.Storage.Backend, cfg.Storage.Dir)
	}
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Storage = kv
	a.closers = append(a.closers, kv)

	keys := storage.Keys{Prefix: cfg.Branding.StoragePrefix}
	a.Metrics = metrics.NewRecorder()
	a.Monitor = connectivity.NewMonitor(logging.WithComponent(logger, "connectivity"))

	a.Answerer = opts.Answerer
	if a.Answerer == nil {
		a.Answerer = answer.NewHTTPClient(answer.ClientOptions{
			Endpoint:          cfg.API.Endpoint,
			APIKey:            cfg.API.APIKey,
			Timeout:           time.Duration(cfg.API.TimeoutSeconds) * time.Second,
			RequestsPerSecond: cfg.API.RequestsPerSecond,
			Logger:            logging.WithComponent(logger, "answer"),
		})
	}

	a.Chat = chat.NewStore(chat.Options{
		Storage:     kv,
		Keys:        keys,
		Answerer:    a.Answerer,
		API:         cfg.API,
		Online:      a.Monitor,
		MaxSessions: cfg.History.Limit(),
		Logger:      logging.WithComponent(logger, "chat"),
		Metrics:     a.Metrics,
	})

	scheme := opts.Scheme
	if scheme == nil {
		scheme = customize.DetectScheme()
	}
	loader := opts.Loader
	if loader == nil {
		loader = customize.NewHTTPFontLoader(&http.Client{Timeout: 10 * time.Second})
	}
	a.Style = customize.NewStyleContext()
	a.Applier = customize.NewApplier(customize.Options{
		Theme:   cfg.Theme,
		Fonts:   cfg.Fonts,
		Context: a.Style,
		Storage: kv,
		Keys:    keys,
		Scheme:  scheme,
		Loader:  loader,
		Logger:  logging.WithComponent(logger, "customize"),
		Metrics: a.Metrics,
	})
	return a, nil
}

// Load restores the chat sessions and applies the theme. Fonts are left to
// the commands that render them.
func (a *App) Load(ctx context.Context) {
	a.Chat.LoadFromStorage()
	a.Applier.Apply(a.Applier.Resolve())
}

// Start samples the colour scheme, then loads fonts and runs the connectivity
// probe and the colour-scheme watcher in the background until ctx is done.
// Call it before the terminal UI takes over stdin.
func (a *App) Start(ctx context.Context) {
	a.Applier.Effective(customize.SystemTheme)
	go a.Applier.ApplyFonts(ctx)
	if n := a.Config.Connectivity.ProbeIntervalSeconds; n != nil && *n > 0 {
		interval := time.Duration(*n) * time.Second
		go a.Monitor.Watch(ctx, interval, connectivity.DialProbe(a.Config.API.Endpoint, 3*time.Second))
	}
	go a.Applier.WatchScheme(ctx, 2*time.Second)
}

// Validate returns configuration problems, including unknown theme and font keys.
func (a *App) Validate(network bool) []string {
	var problems []string
	if network {
		problems = a.Config.ValidateForNetwork()
	} else {
		problems = a.Config.Validate()
	}
	return append(problems, a.Applier.Validate()...)
}

// Close releases storage and the log file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
