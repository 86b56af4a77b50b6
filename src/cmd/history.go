package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"chatkit/src/app"
	"chatkit/src/models"
	"chatkit/src/services/chat"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"chats"},
		Short:   "Inspect and manage stored chat sessions",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List chat sessions, most recent first",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app.App, args []string) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "\tID\tTITLE\tMESSAGES\tUPDATED")
				active := a.Chat.ActiveID()
				for _, s := range a.Chat.Sessions() {
					marker := ""
					if s.ID == active {
						marker = "*"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, s.ID, s.Title,
						humanize.Comma(int64(len(s.Messages))), humanize.Time(s.UpdatedAt))
				}
				return w.Flush()
			}),
		},
		&cobra.Command{
			Use:   "show [id]",
			Short: "Print a chat session, the active one by default",
			Args:  cobra.MaximumNArgs(1),
			RunE: withApp(opts, func(cmd *cobra.Command, a *app.App, args []string) error {
				s, err := sessionArg(a, args)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n\n%s\n", s.Title, s.ID, chat.ExportText(s))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "new",
			Short: "Start a new chat and make it active",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app.App, args []string) error {
				s := a.Chat.StartNewChat()
				fmt.Fprintln(cmd.OutOrStdout(), s.ID)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "switch <id>",
			Short: "Make a chat session active",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(opts, func(cmd *cobra.Command, a *app.App, args []string) error {
				if !a.Chat.SwitchChat(args[0]) {
					return &models.NotFoundError{Kind: "chat", ID: args[0]}
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a chat session",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(opts, func(cmd *cobra.Command, a *app.App, args []string) error {
				if !a.Chat.DeleteChat(args[0]) {
					return &models.NotFoundError{Kind: "chat", ID: args[0]}
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every message from the active chat",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app.App, args []string) error {
				a.Chat.ClearMessages()
				return nil
			}),
		},
		newHistoryExportCmd(opts),
	)
	return cmd
}

func newHistoryExportCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Write a chat session to a text file",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app.App, args []string) error {
			s, err := sessionArg(a, args)
			if err != nil {
				return err
			}
			name := output
			if name == "" {
				name = chat.ExportFilename(a.Config.Branding.ExportPrefix, time.Now())
			}
			if name == "-" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), chat.ExportText(s))
				return err
			}
			if err := os.WriteFile(name, []byte(chat.ExportText(s)), 0o644); err != nil {
				return fmt.Errorf("failed to export chat: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %q to %s\n", s.Title, name)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default <exportPrefix>-<date>.txt)")
	return cmd
}

func sessionArg(a *app.App, args []string) (models.ChatSession, error) {
	if len(args) == 0 {
		s, ok := a.Chat.Active()
		if !ok {
			return models.ChatSession{}, &models.NotFoundError{Kind: "chat", ID: "active"}
		}
		return s, nil
	}
	s, ok := a.Chat.Session(args[0])
	if !ok {
		return models.ChatSession{}, &models.NotFoundError{Kind: "chat", ID: args[0]}
	}
	return s, nil
}

// withApp opens the app for the duration of one command.
func withApp(opts *rootOptions, run func(cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := opts.openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}
