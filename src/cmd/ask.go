package cmd

import (
	"errors"
	"fmt"
	"strings"

	"chatkit/src/config"
	"chatkit/src/models"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		newChat  bool
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "ask <text...>",
		Short: "Send a message to the active chat and print the reply",
		Long: `Send a message to the active chat and print the reply.

With --parallel N every argument is sent as its own message, at most N at a
time, and the replies are printed in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			if problems := a.Config.ValidateForNetwork(); len(problems) > 0 {
				return config.Err(problems)
			}
			if newChat {
				a.Chat.StartNewChat()
			}

			questions := []string{strings.Join(args, " ")}
			if parallel > 0 {
				questions = args
			}
			replies := make([]*models.Message, len(questions))
			failures := make([]error, len(questions))

			ctx := contextOf(cmd)
			g, ctx := errgroup.WithContext(ctx)
			g.SetLimit(max(parallel, 1))
			for i, q := range questions {
				g.Go(func() error {
					replies[i], failures[i] = a.Chat.Send(ctx, q)
					return nil
				})
			}
			_ = g.Wait()

			out := cmd.OutOrStdout()
			for i, reply := range replies {
				if len(replies) > 1 {
					fmt.Fprintf(out, "> %s\n", questions[i])
				}
				if reply == nil {
					fmt.Fprintln(out, "(no reply)")
					continue
				}
				fmt.Fprintln(out, reply.Text)
			}
			var failed []error
			for i, err := range failures {
				if err == nil {
					continue
				}
				if len(questions) > 1 {
					err = fmt.Errorf("%q: %w", questions[i], err)
				}
				failed = append(failed, err)
			}
			if len(failed) > 0 {
				return fmt.Errorf("answer service: %w", errors.Join(failed...))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&newChat, "new", false, "start a new chat first")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "send each argument separately, N at a time")
	return cmd
}
