package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/streakd/internal/app"
	"github.com/sandeepkv93/streakd/internal/config"
	"github.com/sandeepkv93/streakd/internal/reminder"
	"github.com/sandeepkv93/streakd/internal/tui"
)

func newTUICmd(r *runtime) *cobra.Command {
	var desktop bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive day view",
		Long: `Open the interactive day view. While it runs, stored reminders for the
next 24 hours are scheduled in-process (and reloaded after midnight) and
shown in the status bar; with --desktop (or notifications.desktop: true)
they are also sent to notify-send or osascript.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var sched *reminder.Scheduler
			gateway := func(cfg config.Config) reminder.Gateway {
				sched = reminder.NewScheduler(cfg.SchedulerBuffer)
				return sched
			}
			return r.with(cmd, gateway, func(a *app.App) error {
				sched.Start()
				defer sched.Stop()

				// The model loads stored reminders on its first sync and again
				// whenever the day changes.
				opts := []tui.Option{tui.WithReminders(sched.C()), tui.WithReminderGateway(sched)}
				if desktop || r.cfg.DesktopNotifications {
					opts = append(opts, tui.WithDesktopNotifier(tui.ExecDesktopNotifier{}))
				}
				p := tea.NewProgram(tui.NewModel(cmd.Context(), a, opts...),
					tea.WithAltScreen(), tea.WithContext(cmd.Context()),
					tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
				if _, err := p.Run(); err != nil {
					return fmt.Errorf("tui: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&desktop, "desktop", false, "send reminders as desktop notifications")
	return cmd
}
