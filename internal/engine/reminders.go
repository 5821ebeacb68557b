package engine

import (
	"context"
	"log/slog"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/model"
	"github.com/sandeepkv93/streakd/internal/reminder"
)

// ReminderRequest builds the gateway request for a's configured reminder.
func ReminderRequest(cal calendar.Calendar, a model.Activity) reminder.Request {
	kind := reminder.KindNotification
	if a.Reminder.Kind == model.ReminderAlarm {
		kind = reminder.KindAlarm
	}
	return reminder.Request{
		ActivityID: a.ID,
		Title:      a.Name,
		At:         cal.At(a.Date, a.Reminder.TimeOfDay),
		Kind:       kind,
	}
}

// requestReminder asks the gateway for a's reminder. Failures are logged
// and never undo the activity.
func requestReminder(ctx context.Context, gw reminder.Gateway, cal calendar.Calendar, log *slog.Logger, a model.Activity) {
	if !a.Reminder.Enabled() {
		return
	}
	req := ReminderRequest(cal, a)
	if err := gw.Schedule(ctx, req); err != nil {
		log.Warn("reminder schedule failed", "activity_id", a.ID, "at", req.At, "err", err)
	}
}

func cancelReminder(ctx context.Context, gw reminder.Gateway, log *slog.Logger, activityID string) {
	if err := gw.Cancel(ctx, activityID); err != nil {
		log.Warn("reminder cancel failed", "activity_id", activityID, "err", err)
	}
}
