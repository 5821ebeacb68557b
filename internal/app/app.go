// Package app binds parsed commands to engine operations. The TUI command
// palette and `streakd exec` both dispatch through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/commands"
	"github.com/sandeepkv93/streakd/internal/engine"
	"github.com/sandeepkv93/streakd/internal/model"
)

var ErrAmbiguousTarget = errors.New("app: target matches more than one activity")

type App struct {
	Engine *engine.Engine
	Now    func() time.Time
	Log    *slog.Logger
}

func New(e *engine.Engine, log *slog.Logger) *App {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &App{Engine: e, Now: time.Now, Log: log}
}

func (a *App) Calendar() calendar.Calendar { return a.Engine.Calendar() }

// Agenda is what a day view shows: the day's activities and, when the day is
// today, the overdue ones still eligible for moving. Targets like "2"
// index into Items followed by Overdue.
type Agenda struct {
	Day     time.Time
	Items   []model.Activity
	Overdue []model.Activity
}

func (g Agenda) All() []model.Activity {
	out := make([]model.Activity, 0, len(g.Items)+len(g.Overdue))
	out = append(out, g.Items...)
	return append(out, g.Overdue...)
}

func (a *App) Agenda(ctx context.Context, day time.Time) (Agenda, error) {
	now := a.Now()
	cal := a.Calendar()
	g := Agenda{Day: cal.StartOfDay(day)}
	items, err := a.Engine.Day(ctx, day)
	if err != nil {
		return g, err
	}
	g.Items = items
	if cal.IsSameDay(day, now) {
		if g.Overdue, err = a.Engine.Overdue(ctx, now); err != nil {
			return g, err
		}
	}
	return g, nil
}

// Resolve finds the activity a command target names: a 1-based position in
// the agenda, an id prefix of an agenda entry, or a full id.
func (a *App) Resolve(ctx context.Context, g Agenda, target string) (model.Activity, error) {
	target = strings.TrimPrefix(strings.TrimSpace(target), "#")
	all := g.All()
	if n, err := strconv.Atoi(target); err == nil {
		if n < 1 || n > len(all) {
			return model.Activity{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no activity at position %d", n)}
		}
		return all[n-1], nil
	}
	var match []model.Activity
	for _, act := range all {
		if strings.HasPrefix(strings.ToLower(act.ID), strings.ToLower(target)) {
			match = append(match, act)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
		return a.Engine.Get(ctx, target)
	default:
		return model.Activity{}, fmt.Errorf("%w: %q", ErrAmbiguousTarget, target)
	}
}

// Handlers builds command handlers against the agenda that current returns.
// show is called with the day a `show` command selects; nil ignores it.
func (a *App) Handlers(ctx context.Context, current func() Agenda, show func(Agenda)) commands.Handlers {
	cal := a.Calendar()
	return commands.Handlers{
		Add: func(args commands.AddArgs) (commands.Result, error) {
			now := a.Now()
			day, err := commands.ResolveDay(cal, now, args.Day)
			if err != nil {
				return commands.Result{}, err
			}
			date := day
			if args.At != nil {
				date = cal.At(day, *args.At)
			}
			act, err := a.Engine.Create(ctx, engine.Draft{
				Name:     args.Name,
				Date:     date,
				Duration: args.Duration,
				Repeat:   args.Repeat,
			}, now)
			if err != nil {
				return commands.Result{}, err
			}
			msg := fmt.Sprintf("added %q on %s", act.Name, cal.DayKey(act.Date))
			if act.Repeat.Repeats() {
				msg += fmt.Sprintf(", repeating %s", act.Repeat)
			}
			return commands.Result{Message: msg}, nil
		},
		Done: func(args commands.TargetArgs) (commands.Result, error) {
			return a.complete(ctx, current(), args.Target, true)
		},
		Undo: func(args commands.TargetArgs) (commands.Result, error) {
			return a.complete(ctx, current(), args.Target, false)
		},
		Move: func(args commands.TargetArgs) (commands.Result, error) {
			act, err := a.Resolve(ctx, current(), args.Target)
			if err != nil {
				return commands.Result{}, err
			}
			moved, err := a.Engine.MoveToToday(ctx, act.ID, a.Now())
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("moved %q to today", moved.Name)}, nil
		},
		Delete: func(args commands.DeleteArgs) (commands.Result, error) {
			act, err := a.Resolve(ctx, current(), args.Target)
			if err != nil {
				return commands.Result{}, err
			}
			scope := engine.ScopeSingle
			if args.Series {
				scope = engine.ScopeFutureInSeries
			}
			n, err := a.Engine.Delete(ctx, act.ID, scope)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("deleted %d activit%s", n, pluralY(n))}, nil
		},
		Show: func(args commands.ShowArgs) (commands.Result, error) {
			now := a.Now()
			subject := args.Subject
			if subject == "overdue" {
				subject = "today"
			}
			day, err := commands.ResolveDay(cal, now, subject)
			if err != nil {
				return commands.Result{}, err
			}
			g, err := a.Agenda(ctx, day)
			if err != nil {
				return commands.Result{}, err
			}
			if args.Subject == "overdue" {
				g.Items = nil
			}
			if show != nil {
				show(g)
			}
			return commands.Result{Message: fmt.Sprintf("showing %s (%d)", args.Subject, len(g.All()))}, nil
		},
		Streak: func() (commands.Result, error) {
			st, err := a.Engine.Streak(ctx)
			if err != nil {
				return commands.Result{}, err
			}
			msg := fmt.Sprintf("streak: %d", st.Count)
			if st.ResetToday {
				msg += " (reset today)"
			}
			return commands.Result{Message: msg}, nil
		},
		Sync: func() (commands.Result, error) {
			report, err := a.Engine.BeginDay(ctx, a.Now())
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: SyncMessage(report)}, nil
		},
	}
}

func (a *App) complete(ctx context.Context, g Agenda, target string, done bool) (commands.Result, error) {
	act, err := a.Resolve(ctx, g, target)
	if err != nil {
		return commands.Result{}, err
	}
	act, err = a.Engine.SetCompleted(ctx, act.ID, done, a.Now())
	if err != nil {
		return commands.Result{}, err
	}
	if !done {
		return commands.Result{Message: fmt.Sprintf("reopened %q", act.Name)}, nil
	}
	st, err := a.Engine.Streak(ctx)
	if err != nil {
		a.Log.Warn("streak read failed", "err", err)
		return commands.Result{Message: fmt.Sprintf("completed %q", act.Name)}, nil
	}
	return commands.Result{Message: fmt.Sprintf("completed %q, streak %d", act.Name, st.Count)}, nil
}

// Run parses and executes one command line.
func (a *App) Run(ctx context.Context, line string, current func() Agenda, show func(Agenda)) (commands.Result, error) {
	cmd, err := commands.Parse(line)
	if err != nil {
		return commands.Result{}, err
	}
	res, err := commands.Execute(cmd, a.Handlers(ctx, current, show))
	if err != nil {
		a.Log.Debug("command failed", "command", cmd.Type, "err", err)
	}
	return res, err
}

func SyncMessage(r engine.DayReport) string {
	if r.CarryOver.Skipped {
		return fmt.Sprintf("already synced %s, streak %d", r.CarryOver.Day, r.Streak.Count)
	}
	return fmt.Sprintf("synced %s: carried %d, superseded %d, streak %d",
		r.CarryOver.Day, len(r.CarryOver.Carried), r.CarryOver.Superseded, r.Streak.Count)
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
