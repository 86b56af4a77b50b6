package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatkit/src/app"
	chatui "chatkit/src/components/chat"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd, func(o *app.Options) {
				o.LogToFile = true
				o.LogWriter = nil
			})
			if err != nil {
				return err
			}
			defer a.Close()
			return runChat(contextOf(cmd), a, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

func runChat(ctx context.Context, a *app.App, metricsAddr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.Logger.Info("Starting chat window", "version", version, "backend", a.Config.Storage.Backend)
	if problems := a.Config.ValidateForNetwork(); len(problems) > 0 {
		a.Logger.Warn("answer service is not fully configured", "problems", problems)
	}
	a.Start(ctx)

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: metricsMux(a), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	wd, _ := os.Getwd()
	model := chatui.NewModel(chatui.Options{
		Context:      ctx,
		Store:        a.Chat,
		Applier:      a.Applier,
		AppName:      a.Config.Branding.AppName,
		ExportPrefix: a.Config.Branding.ExportPrefix,
		ExportDir:    wd,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	chatui.Subscribe(program, a.Chat, a.Style, a.Monitor)
	setupGracefulShutdown(program, a.Logger)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		a.Logger.Error("Chat window failed", "error", err)
		return err
	}
	a.Logger.Info("Chat window closed")
	return nil
}

func metricsMux(a *app.App) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	return mux
}

// setupGracefulShutdown quits the program on SIGINT or SIGTERM.
func setupGracefulShutdown(program *tea.Program, logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Received shutdown signal, cleaning up...")
		program.Quit()
	}()
}
