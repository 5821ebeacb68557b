package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/streakd/internal/app"
	"github.com/sandeepkv93/streakd/internal/views"
)

func newSyncCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run today's carry-over and streak check",
		Long: `Carry incomplete past activities forward to today and check whether the
streak broke yesterday. Both run at most once per day; every other command
runs them first as well, so this is mainly useful from cron or a login hook.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, nil, func(a *app.App) error {
				report, err := a.Engine.BeginDay(cmd.Context(), a.Now())
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, app.SyncMessage(report))
				cal := a.Calendar()
				for i, act := range report.CarryOver.Carried {
					fmt.Fprintf(out, "  carried: %s\n", views.Line(views.Item(cal, act, i+1)))
				}
				return err
			})
		},
	}
}

func newStreakCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show the current streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, nil, func(a *app.App) error {
				if _, err := a.Engine.BeginDay(cmd.Context(), a.Now()); err != nil {
					r.log.Warn("start-of-day pass failed", "err", err)
				}
				st, err := a.Engine.Streak(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), views.RenderStreak(views.StreakData{Count: st.Count, ResetToday: st.ResetToday}))
				return nil
			})
		},
	}
}
