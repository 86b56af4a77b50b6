package cmd

import (
	"errors"
	"fmt"
	"os"

	"chatkit/src/app"
	"chatkit/src/config"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Check and print the configuration",
	}
	cmd.AddCommand(newConfigValidateCmd(opts), newConfigShowCmd(opts), newConfigInitCmd(opts))
	return cmd
}

func newConfigValidateCmd(opts *rootOptions) *cobra.Command {
	var network bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Report configuration problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a, err := app.New(cfg, app.Options{Ephemeral: true, LogWriter: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			for _, w := range a.Applier.Warnings() {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			problems := a.Validate(network)
			for _, p := range problems {
				fmt.Fprintf(out, "error: %s\n", p)
			}
			if len(problems) > 0 {
				return config.Err(problems)
			}
			fmt.Fprintln(out, "configuration is valid")
			return nil
		},
	}
	cmd.Flags().BoolVar(&network, "network", false, "also check what the answer service needs")
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			shown := *cfg
			if shown.API.APIKey != "" {
				shown.API.APIKey = "********"
			}
			data, err := yaml.Marshal(&shown)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			if cfg.Path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", cfg.Path)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with every default spelled out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.settingsPath(nil)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
