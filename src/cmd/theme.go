package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"chatkit/src/app"
	"chatkit/src/config"
	"chatkit/src/models"

	"github.com/spf13/cobra"
)

func newThemeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "List, choose and export themes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List available themes",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app.App, args []string) error {
				pref := a.Applier.Preference()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				names := append([]string{config.SystemTheme}, a.Applier.Catalog().Names()...)
				for _, name := range names {
					marker := ""
					if name == pref {
						marker = "*"
					}
					label := a.Applier.Catalog().Label(name)
					if name == config.SystemTheme {
						label = "System (follows the terminal)"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", marker, name, label)
				}
				return w.Flush()
			}),
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the theme preference and what is applied",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app.App, args []string) error {
				fonts := a.Applier.CurrentFonts()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "preference: %s\n", a.Applier.Preference())
				fmt.Fprintf(out, "applied:    %s\n", a.Style.AppliedTheme())
				fmt.Fprintf(out, "class:      %s\n", a.Style.ThemeClass())
				fmt.Fprintf(out, "fonts:      primary=%s heading=%s mono=%s\n", fonts.Primary, fonts.Heading, fonts.Mono)
				for _, w := range a.Applier.Warnings() {
					fmt.Fprintf(out, "warning:    %s\n", w)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "set <name>",
			Short: "Choose a theme; \"system\" follows the terminal background",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(opts, func(cmd *cobra.Command, a *app.App, args []string) error {
				applied, err := a.Applier.SetTheme(args[0])
				if err != nil {
					return err
				}
				if !a.Config.Theme.Persist() {
					fmt.Fprintln(cmd.ErrOrStderr(), "theme persistence is disabled; the choice lasts for this run only")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s (applied %s)\n", args[0], applied)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Forget the chosen theme and use the configured default",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app.App, args []string) error {
				applied := a.Applier.ResetToDefaults(contextOf(cmd))
				fmt.Fprintf(cmd.OutOrStdout(), "Theme reset to %s\n", applied)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "fonts",
			Short: "List available font keys",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app.App, args []string) error {
				cat := a.Applier.Fonts()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, key := range cat.Keys() {
					def, _ := cat.Lookup(key)
					source := "google"
					if cat.IsCustom(key) {
						source = "custom"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", key, def.Category, source)
				}
				return w.Flush()
			}),
		},
		newThemeCSSCmd(opts),
		newThemeDefaultCmd(opts),
	)
	return cmd
}

func newThemeCSSCmd(opts *rootOptions) *cobra.Command {
	var (
		output string
		fonts  models.FontSet
	)
	cmd := &cobra.Command{
		Use:   "css",
		Short: "Print the applied theme and fonts as a stylesheet",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app.App, args []string) error {
			ctx := contextOf(cmd)
			if err := a.Applier.SetFonts(ctx, fonts); err != nil {
				return err
			}
			css := a.Style.CSS()
			if output == "" || output == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), css)
				return err
			}
			if err := os.WriteFile(output, []byte(css), 0o644); err != nil {
				return fmt.Errorf("failed to write stylesheet: %w", err)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&fonts.Primary, "primary", "", "override the primary font key")
	cmd.Flags().StringVar(&fonts.Heading, "heading", "", "override the heading font key")
	cmd.Flags().StringVar(&fonts.Mono, "mono", "", "override the monospace font key")
	return cmd
}

func newThemeDefaultCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "default <name>",
		Short: "Write the default theme into the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			name := args[0]
			a, err := app.New(cfg, app.Options{Ephemeral: true, LogWriter: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()
			if name != config.SystemTheme && !a.Applier.Catalog().Has(name) {
				return fmt.Errorf("theme %q is not available", name)
			}
			path := opts.settingsPath(cfg)
			if err := config.SetDefaultTheme(path, name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default theme set to %s in %s\n", name, path)
			return nil
		},
	}
}
