package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/streakd/internal/app"
	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/commands"
	"github.com/sandeepkv93/streakd/internal/engine"
	"github.com/sandeepkv93/streakd/internal/model"
	"github.com/sandeepkv93/streakd/internal/views"
)

type activityFlags struct {
	on       string
	at       string
	duration time.Duration
	every    string
	remind   string
	remindAt string
	color    string
	subtasks []string
}

func (f *activityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.on, "on", "", "day: today, tomorrow, a weekday or YYYY-MM-DD")
	cmd.Flags().StringVar(&f.at, "at", "", "time of day, HH:MM")
	cmd.Flags().DurationVar(&f.duration, "for", 0, "planned duration, e.g. 45m")
	cmd.Flags().StringVar(&f.every, "every", "", "repeat: none, daily, weekends, monthly")
	cmd.Flags().StringVar(&f.remind, "remind", "", "reminder: none, notification, alarm")
	cmd.Flags().StringVar(&f.remindAt, "remind-at", "", "reminder time, HH:MM (default: --at)")
	cmd.Flags().StringVar(&f.color, "color", "", "display colour name")
	cmd.Flags().StringArrayVar(&f.subtasks, "subtask", nil, "subtask name (repeatable)")
}

func (f *activityFlags) timeOfDay() (*calendar.TimeOfDay, error) {
	if f.at == "" {
		return nil, nil
	}
	tod, err := calendar.ParseTimeOfDay(f.at)
	if err != nil {
		return nil, fmt.Errorf("--at: %w", err)
	}
	return &tod, nil
}

// reminder builds the reminder setting. The reminder time falls back to the
// activity time, then to fallback.
func (f *activityFlags) reminder(fallback calendar.TimeOfDay) (model.ReminderSetting, error) {
	kind, err := model.ParseReminderKind(f.remind)
	if err != nil {
		return model.ReminderSetting{}, fmt.Errorf("--remind: %w", err)
	}
	out := model.ReminderSetting{Kind: kind, TimeOfDay: fallback}
	if f.at != "" {
		if out.TimeOfDay, err = calendar.ParseTimeOfDay(f.at); err != nil {
			return out, fmt.Errorf("--at: %w", err)
		}
	}
	if f.remindAt != "" {
		if out.TimeOfDay, err = calendar.ParseTimeOfDay(f.remindAt); err != nil {
			return out, fmt.Errorf("--remind-at: %w", err)
		}
	}
	return out, nil
}

func newAddCmd(r *runtime) *cobra.Command {
	var f activityFlags
	cmd := &cobra.Command{
		Use:   "add <name...>",
		Short: "Schedule an activity",
		Long: `Schedule a one-off or repeating activity.

Repeating activities are expanded right away over the configured horizon
(3 months, at most 100 occurrences, by default).

Examples:
  streakd add Water the plants --on saturday --at 09:00
  streakd add Stretch --every daily --at 07:00 --remind alarm
  streakd add Rent --every monthly --on 2026-01-31 --subtask transfer --subtask receipt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, nil, func(a *app.App) error {
				now := a.Now()
				cal := a.Calendar()
				day, err := commands.ResolveDay(cal, now, f.on)
				if err != nil {
					return err
				}
				date := day
				tod, err := f.timeOfDay()
				if err != nil {
					return err
				}
				if tod != nil {
					date = cal.At(day, *tod)
				}
				repeat := model.RepeatNone
				if f.every != "" {
					if repeat, err = model.ParseRepeatOption(f.every); err != nil {
						return fmt.Errorf("--every: %w", err)
					}
				}
				rem, err := f.reminder(calendar.TimeOfDay{Hour: date.In(cal.Location()).Hour(), Minute: date.In(cal.Location()).Minute()})
				if err != nil {
					return err
				}
				act, err := a.Engine.Create(cmd.Context(), engine.Draft{
					Name:      strings.Join(args, " "),
					Date:      date,
					Duration:  f.duration,
					Reminder:  rem,
					Repeat:    repeat,
					ColorName: f.color,
					Subtasks:  f.subtasks,
				}, now)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %q on %s (#%s)\n", act.Name, cal.DayKey(act.Date), short(act.ID))
				if act.Repeat.Repeats() {
					series, err := a.Engine.Range(cmd.Context(), act.Date, cal.AddMonths(act.Date, r.cfg.Horizon.Months+1))
					if err == nil {
						fmt.Fprintf(cmd.OutOrStdout(), "Repeats %s: %d scheduled\n", act.Repeat, countSeries(series, act.SeriesID))
					}
				}
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newListCmd(r *runtime) *cobra.Command {
	var (
		pretty bool
		width  int
	)
	cmd := &cobra.Command{
		Use:     "list [day]",
		Aliases: []string{"ls", "show"},
		Short:   "List a day's activities",
		Long: `List the activities scheduled on a day (default today). Today's list also
shows overdue activities that can be moved with 'streakd move'.

The numbers in the first column are the positions accepted by done, undo,
move, delete, edit and subtask.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, nil, func(a *app.App) error {
				raw := ""
				if len(args) == 1 {
					raw = args[0]
				}
				g, err := agenda(cmd.Context(), a, raw)
				if err != nil {
					return err
				}
				st, err := a.Engine.Streak(cmd.Context())
				if err != nil {
					return err
				}
				cal := a.Calendar()
				items := numbered(cal, g)
				if pretty {
					fmt.Fprintln(cmd.OutOrStdout(), views.RenderDay(cal.DayKey(g.Day), items,
						views.StreakData{Count: st.Count, ResetToday: st.ResetToday}, width))
					return nil
				}
				printAgenda(cmd.OutOrStdout(), cal, g, items)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "render a markdown report")
	cmd.Flags().IntVar(&width, "width", 80, "wrap width for --pretty")
	return cmd
}

func newDoneCmd(r *runtime, done bool) *cobra.Command {
	use, summary := "done <target>", "Mark an activity completed"
	if !done {
		use, summary = "undo <target>", "Mark a completed activity as not done"
	}
	var on string
	cmd := &cobra.Command{
		Use:   use,
		Short: summary,
		Long: summary + `.

A target is a position from 'streakd list', an id prefix, or a full id.
Completing the first activity of the day extends the streak; undoing never
lowers it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, nil, func(a *app.App) error {
				act, err := target(cmd.Context(), a, on, args[0])
				if err != nil {
					return err
				}
				act, err = a.Engine.SetCompleted(cmd.Context(), act.ID, done, a.Now())
				if err != nil {
					return err
				}
				st, err := a.Engine.Streak(cmd.Context())
				if err != nil {
					return err
				}
				verb := "Completed"
				if !done {
					verb = "Reopened"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q. Streak: %d\n", verb, act.Name, st.Count)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&on, "on", "", "resolve positions against this day's list")
	return cmd
}

func newMoveCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "move <target>",
		Short: "Move an overdue activity to today",
		Long: `Copy an incomplete past activity to today at its original time of day.

The original is kept as superseded history. When today already has an open
activity for the same task, that one is returned instead of a new copy.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, nil, func(a *app.App) error {
				act, err := target(cmd.Context(), a, "", args[0])
				if err != nil {
					return err
				}
				moved, err := a.Engine.MoveToToday(cmd.Context(), act.ID, a.Now())
				if err != nil {
					return err
				}
				cal := a.Calendar()
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %q to %s at %s (#%s)\n",
					moved.Name, cal.DayKey(moved.Date), moved.Date.In(cal.Location()).Format("15:04"), short(moved.ID))
				return nil
			})
		},
	}
}

func newDeleteCmd(r *runtime) *cobra.Command {
	var (
		series bool
		on     string
	)
	cmd := &cobra.Command{
		Use:     "delete <target>",
		Aliases: []string{"rm"},
		Short:   "Delete an activity",
		Long: `Delete an activity. With --series, also delete every later occurrence of
its repeat series. Deleting a series anchor hands the series over to the
earliest remaining occurrence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, nil, func(a *app.App) error {
				act, err := target(cmd.Context(), a, on, args[0])
				if err != nil {
					return err
				}
				scope := engine.ScopeSingle
				if series {
					scope = engine.ScopeFutureInSeries
				}
				n, err := a.Engine.Delete(cmd.Context(), act.ID, scope)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %s\n", n, activities(n))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&series, "series", false, "also delete later occurrences")
	cmd.Flags().StringVar(&on, "on", "", "resolve positions against this day's list")
	return cmd
}

func newEditCmd(r *runtime) *cobra.Command {
	var (
		f    activityFlags
		name string
		list string
	)
	cmd := &cobra.Command{
		Use:   "edit <target>",
		Short: "Change an activity",
		Long: `Change fields of an activity. Only the flags given are applied.

Changing --every on a series member drops the series' later open
occurrences and, when the new rule repeats, expands it again from this
activity.

Examples:
  streakd edit 2 --at 18:30
  streakd edit 1 --every weekends
  streakd edit 3 --remind notification --remind-at 08:45`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, nil, func(a *app.App) error {
				act, err := target(cmd.Context(), a, list, args[0])
				if err != nil {
					return err
				}
				patch, err := editPatch(cmd, a.Calendar(), act, f, name)
				if err != nil {
					return err
				}
				updated, err := a.Engine.Edit(cmd.Context(), act.ID, patch, a.Now())
				if err != nil {
					return err
				}
				cal := a.Calendar()
				fmt.Fprintln(cmd.OutOrStdout(), views.Line(views.Item(cal, updated, 1)))
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&list, "list", "", "resolve positions against this day's list")
	return cmd
}

func editPatch(cmd *cobra.Command, cal calendar.Calendar, act model.Activity, f activityFlags, name string) (engine.Patch, error) {
	var p engine.Patch
	changed := cmd.Flags().Changed
	if changed("name") {
		p.Name = &name
	}
	if changed("on") || changed("at") {
		local := act.Date.In(cal.Location())
		day := cal.StartOfDay(act.Date)
		tod := calendar.TimeOfDay{Hour: local.Hour(), Minute: local.Minute()}
		if changed("on") {
			d, err := commands.ResolveDay(cal, act.Date, f.on)
			if err != nil {
				return p, err
			}
			day = d
		}
		if at, err := f.timeOfDay(); err != nil {
			return p, err
		} else if at != nil {
			tod = *at
		}
		date := cal.At(day, tod)
		p.Date = &date
	}
	if changed("for") {
		p.Duration = &f.duration
	}
	if changed("every") {
		rule, err := model.ParseRepeatOption(f.every)
		if err != nil {
			return p, fmt.Errorf("--every: %w", err)
		}
		p.Repeat = &rule
	}
	if changed("remind") || changed("remind-at") {
		fallback := act.Reminder.TimeOfDay
		if !act.Reminder.Enabled() {
			local := act.Date.In(cal.Location())
			fallback = calendar.TimeOfDay{Hour: local.Hour(), Minute: local.Minute()}
		}
		ff := f
		if !changed("remind") {
			ff.remind = string(act.Reminder.Kind)
		}
		if !changed("at") {
			ff.at = ""
		}
		rem, err := ff.reminder(fallback)
		if err != nil {
			return p, err
		}
		p.Reminder = &rem
	}
	if changed("color") {
		p.ColorName = &f.color
	}
	p.AddSubtasks = f.subtasks
	return p, nil
}

func newSubtaskCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "subtask <target> <n>",
		Short: "Toggle the n-th subtask of an activity",
		Long: `Toggle a subtask. Completing the last open subtask completes the activity
itself, which counts toward the streak.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, nil, func(a *app.App) error {
				act, err := target(cmd.Context(), a, "", args[0])
				if err != nil {
					return err
				}
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 1 || n > len(act.Subtasks) {
					return fmt.Errorf("%q has %d subtask(s), got %q", act.Name, len(act.Subtasks), args[1])
				}
				updated, err := a.Engine.ToggleSubtask(cmd.Context(), act.ID, act.Subtasks[n-1].ID, a.Now())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for i, s := range updated.Subtasks {
					mark := " "
					if s.Completed {
						mark = "x"
					}
					fmt.Fprintf(out, "  %d [%s] %s\n", i+1, mark, s.Name)
				}
				if updated.Completed && !act.Completed {
					fmt.Fprintf(out, "Completed %q\n", updated.Name)
				}
				return nil
			})
		},
	}
}

func agenda(ctx context.Context, a *app.App, raw string) (app.Agenda, error) {
	day, err := commands.ResolveDay(a.Calendar(), a.Now(), raw)
	if err != nil {
		return app.Agenda{}, err
	}
	return a.Agenda(ctx, day)
}

// target resolves a position or id against the list of day (default today).
func target(ctx context.Context, a *app.App, day, raw string) (model.Activity, error) {
	g, err := agenda(ctx, a, day)
	if err != nil {
		return model.Activity{}, err
	}
	return a.Resolve(ctx, g, strings.ToLower(raw))
}

// numbered maps the agenda to rows whose indexes match app.Resolve positions.
func numbered(cal calendar.Calendar, g app.Agenda) []views.ItemData {
	out := make([]views.ItemData, 0, len(g.Items)+len(g.Overdue))
	for i, act := range g.All() {
		out = append(out, views.Item(cal, act, i+1))
	}
	return out
}

func printAgenda(w io.Writer, cal calendar.Calendar, g app.Agenda, items []views.ItemData) {
	fmt.Fprintf(w, "%s %s\n", cal.DayKey(g.Day), g.Day.Weekday())
	if len(g.Items) == 0 {
		fmt.Fprintln(w, "  nothing scheduled")
	}
	for _, item := range items[:len(g.Items)] {
		fmt.Fprintln(w, views.Line(item))
	}
	if len(g.Overdue) > 0 {
		fmt.Fprintln(w, "Overdue:")
		for _, item := range items[len(g.Items):] {
			fmt.Fprintf(w, "%s  (%s)\n", views.Line(item), item.Day)
		}
	}
}

func countSeries(list []model.Activity, seriesID string) int {
	n := 0
	for _, a := range list {
		if a.SeriesID == seriesID {
			n++
		}
	}
	return n
}

func activities(n int) string {
	if n == 1 {
		return "activity"
	}
	return "activities"
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
