package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/streakd/internal/app"
)

func newExecCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command...>",
		Short: "Run one command-bar command",
		Long: `Run a command in the syntax of the TUI command bar, against today's list.

Commands:
  add NAME [on:DAY] [at:HH:MM] [every:RULE] [for:DURATION]
  done|undo|move TARGET
  delete TARGET [series]
  show [today|tomorrow|yesterday|overdue|WEEKDAY|YYYY-MM-DD]
  streak
  sync

Examples:
  streakd exec add Stretch every:daily at:07:00
  streakd exec done 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, nil, func(a *app.App) error {
				current, err := agenda(cmd.Context(), a, "")
				if err != nil {
					return err
				}
				var shown *app.Agenda
				res, err := a.Run(cmd.Context(), strings.Join(args, " "),
					func() app.Agenda { return current },
					func(g app.Agenda) { shown = &g })
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, res.Message)
				if shown != nil {
					cal := a.Calendar()
					printAgenda(out, cal, *shown, numbered(cal, *shown))
				}
				return nil
			})
		},
	}
}
