package app

import (
	"context"
	"time"

	"github.com/sandeepkv93/streakd/internal/engine"
	"github.com/sandeepkv93/streakd/internal/model"
	"github.com/sandeepkv93/streakd/internal/reminder"
	"github.com/sandeepkv93/streakd/internal/storage"
)

// RehydrateWindow is how far ahead stored reminders are loaded into a
// running scheduler.
const RehydrateWindow = 24 * time.Hour

// Rehydrate schedules the reminders of open activities due within window.
// Reminders requested by earlier one-shot commands were never held by a
// running process. Each activity is cancelled before it is scheduled, so
// running it again on a day change does not queue duplicates.
func (a *App) Rehydrate(ctx context.Context, gw reminder.Gateway, window time.Duration) (int, error) {
	now := a.Now()
	cal := a.Calendar()
	list, err := a.Engine.Range(ctx, cal.StartOfDay(now), now.Add(window))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, act := range pendingReminders(list) {
		req := engine.ReminderRequest(cal, act)
		if !req.At.After(now) || req.At.After(now.Add(window)) {
			continue
		}
		if err := gw.Cancel(ctx, act.ID); err != nil {
			return n, err
		}
		if err := gw.Schedule(ctx, req); err != nil {
			return n, err
		}
		n++
	}
	a.Log.Debug("reminders rehydrated", "count", n, "window", window)
	return n, nil
}

func pendingReminders(list []model.Activity) []model.Activity {
	filter := storage.ActivityFilter{Completed: storage.Bool(false), Rescheduled: storage.Bool(false)}
	var out []model.Activity
	for _, act := range list {
		if act.Reminder.Enabled() && filter.Match(act) {
			out = append(out, act)
		}
	}
	return out
}
