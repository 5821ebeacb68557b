package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/model"
	"github.com/sandeepkv93/streakd/internal/reminder"
	"github.com/sandeepkv93/streakd/internal/storage"
)

// Expander materializes the future instances of a repeating anchor.
type Expander struct {
	store   storage.ActivityStore
	gateway reminder.Gateway
	cal     calendar.Calendar
	horizon model.Horizon
	log     *slog.Logger
}

func NewExpander(store storage.ActivityStore, gateway reminder.Gateway, cal calendar.Calendar, horizon model.Horizon, log *slog.Logger) *Expander {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if gateway == nil {
		gateway = reminder.Nop{}
	}
	return &Expander{store: store, gateway: gateway, cal: cal, horizon: horizon, log: log}
}

// Expand inserts one instance per occurrence after the anchor's day. It is
// not idempotent: callers invoke it when an activity is created repeating or
// when its repeat option changes. The anchor is returned with its series id
// set. Writes are left pending for the caller's Save, and reminders for the
// created instances are requested with Remind once that Save succeeds.
func (x *Expander) Expand(ctx context.Context, anchor model.Activity, now time.Time) (model.Activity, []model.Activity, error) {
	if !anchor.Repeat.Repeats() {
		return anchor, nil, fmt.Errorf("%w: activity %s has repeat %q", ErrNotRepeating, anchor.ID, anchor.Repeat)
	}
	if anchor.SeriesID == "" {
		anchor.SeriesID = anchor.ID
		if err := x.store.Update(ctx, anchor); err != nil {
			return anchor, nil, fmt.Errorf("engine: mark series anchor %s: %w", anchor.ID, err)
		}
	}

	dates, err := anchor.Repeat.Occurrences(x.cal, anchor.Date, x.horizon)
	if err != nil {
		return anchor, nil, fmt.Errorf("engine: expand %s: %w", anchor.ID, err)
	}

	created := make([]model.Activity, 0, len(dates))
	for _, date := range dates {
		inst := anchor.Instance(date, model.OriginSeriesExpanded, now)
		if err := x.store.Insert(ctx, inst); err != nil {
			x.log.Warn("series occurrence skipped", "series_id", anchor.SeriesID, "day", x.cal.DayKey(date), "err", err)
			continue
		}
		created = append(created, inst)
	}
	x.log.Debug("series expanded", "series_id", anchor.SeriesID, "repeat", anchor.Repeat, "instances", len(created))
	return anchor, created, nil
}

// Remind requests the reminders of expanded instances.
func (x *Expander) Remind(ctx context.Context, instances []model.Activity) {
	for _, inst := range instances {
		requestReminder(ctx, x.gateway, x.cal, x.log, inst)
	}
}
