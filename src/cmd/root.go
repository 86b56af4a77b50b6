// Package cmd is the chatkit command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"chatkit/src/app"
	"chatkit/src/config"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	ephemeral  bool

	// base is merged into the app options of every command.
	base app.Options
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(app.Options{})
}

func newRootCmd(base app.Options) *cobra.Command {
	opts := &rootOptions{base: base}
	root := &cobra.Command{
		Use:   "chatkit",
		Short: "Chat with an answer service from the terminal",
		Long: `chatkit keeps a history of chat sessions with a remote answer service,
persists them locally and renders them with a configurable theme.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file path (default is ./"+config.DefaultConfigFile+")")
	flags.StringVar(&opts.envFile, "env-file", "", "env file to load (default is ./.env)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&opts.ephemeral, "ephemeral", false, "keep all state in memory")

	root.AddCommand(
		newChatCmd(opts),
		newAskCmd(opts),
		newHistoryCmd(opts),
		newThemeCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		Path:     o.configPath,
		Explicit: o.configPath != "",
		EnvFile:  o.envFile,
	})
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// settingsPath is where commands that edit the settings file write.
func (o *rootOptions) settingsPath(cfg *config.Config) string {
	switch {
	case o.configPath != "":
		return o.configPath
	case cfg != nil && cfg.Path != "":
		return cfg.Path
	}
	return config.DefaultConfigFile
}

// openApp loads the config, builds the app and restores its state. Logs go to
// the command's stderr unless extra says otherwise.
func (o *rootOptions) openApp(cmd *cobra.Command, extra func(*app.Options)) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	appOpts := o.base
	appOpts.Ephemeral = appOpts.Ephemeral || o.ephemeral
	if appOpts.LogWriter == nil {
		appOpts.LogWriter = cmd.ErrOrStderr()
	}
	if extra != nil {
		extra(&appOpts)
	}
	a, err := app.New(cfg, appOpts)
	if err != nil {
		return nil, err
	}
	a.Load(contextOf(cmd))
	return a, nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
