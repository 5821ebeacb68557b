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

// KeyLastCheckedDate holds the day key of the last successful carry-over.
const KeyLastCheckedDate = "last_checked_date"

type CarryOverResult struct {
	Day     string
	Skipped bool
	// Superseded counts the stale records marked rescheduled.
	Superseded int
	Carried    []model.Activity
}

// Reconciler carries incomplete past activities forward to today, one copy
// per logical task, at most once per calendar day.
type Reconciler struct {
	store   storage.ActivityStore
	kv      storage.KeyValueStore
	gateway reminder.Gateway
	cal     calendar.Calendar
	log     *slog.Logger
	chain   bool
}

func NewReconciler(store storage.ActivityStore, kv storage.KeyValueStore, gateway reminder.Gateway, cal calendar.Calendar, log *slog.Logger, chain bool) *Reconciler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if gateway == nil {
		gateway = reminder.Nop{}
	}
	return &Reconciler{store: store, kv: kv, gateway: gateway, cal: cal, log: log, chain: chain}
}

// Run performs today's carry-over unless it already succeeded today. The
// day marker is written only after the store saved, so a failed pass is
// retried by the next call.
func (r *Reconciler) Run(ctx context.Context, now time.Time) (CarryOverResult, error) {
	today := r.cal.DayKey(now)
	res := CarryOverResult{Day: today}

	last, ok, err := r.kv.Get(ctx, KeyLastCheckedDate)
	if err != nil {
		return res, fmt.Errorf("engine: read %s: %w", KeyLastCheckedDate, err)
	}
	if ok && last == today {
		res.Skipped = true
		return res, nil
	}

	startOfToday := r.cal.StartOfDay(now)
	stale, err := r.store.Fetch(ctx, storage.ActivityFilter{
		Completed:   storage.Bool(false),
		Rescheduled: storage.Bool(false),
		Before:      startOfToday,
	})
	if err != nil {
		return res, fmt.Errorf("engine: fetch stale activities: %w", err)
	}
	if !r.chain {
		stale = withoutOrigin(stale, model.OriginCarriedOver)
	}

	present, err := r.keysOn(ctx, startOfToday)
	if err != nil {
		return res, err
	}

	for _, latest := range latestPerKey(stale) {
		if present[latest.LogicalKey()] {
			continue
		}
		local := latest.Date.In(r.cal.Location())
		date := r.cal.At(startOfToday, calendar.TimeOfDay{Hour: local.Hour(), Minute: local.Minute()})
		carried := latest.Instance(date, model.OriginCarriedOver, now)
		carried.Reminder = model.ReminderSetting{Kind: model.ReminderNone}
		if err := r.store.Insert(ctx, carried); err != nil {
			discard(r.store)
			return res, fmt.Errorf("engine: carry over %s: %w", latest.ID, err)
		}
		res.Carried = append(res.Carried, carried)
	}

	for _, a := range stale {
		a.Rescheduled = true
		if err := r.store.Update(ctx, a); err != nil {
			discard(r.store)
			res.Carried = nil
			return res, fmt.Errorf("engine: supersede %s: %w", a.ID, err)
		}
		res.Superseded++
	}

	if err := r.store.Save(ctx); err != nil {
		res.Carried, res.Superseded = nil, 0
		return res, fmt.Errorf("engine: save carry-over: %w", err)
	}
	for _, a := range stale {
		cancelReminder(ctx, r.gateway, r.log, a.ID)
	}
	if err := r.kv.Set(ctx, KeyLastCheckedDate, today); err != nil {
		return res, fmt.Errorf("engine: write %s: %w", KeyLastCheckedDate, err)
	}
	if len(stale) > 0 {
		r.log.Info("carried over", "day", today, "carried", len(res.Carried), "superseded", res.Superseded)
	}
	return res, nil
}

// keysOn returns the logical keys of incomplete activities already dated on
// day, so a series instance expanded for today is not duplicated.
func (r *Reconciler) keysOn(ctx context.Context, day time.Time) (map[string]bool, error) {
	items, err := r.store.Fetch(ctx, storage.ActivityFilter{
		Completed: storage.Bool(false),
		From:      day,
		To:        r.cal.AddDays(day, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("engine: fetch today's activities: %w", err)
	}
	keys := make(map[string]bool, len(items))
	for _, a := range items {
		keys[a.LogicalKey()] = true
	}
	return keys, nil
}

func withoutOrigin(items []model.Activity, origin model.Origin) []model.Activity {
	out := items[:0:0]
	for _, a := range items {
		if a.Origin != origin {
			out = append(out, a)
		}
	}
	return out
}

// latestPerKey keeps the most recently dated activity of each logical key,
// in order of first appearance.
func latestPerKey(items []model.Activity) []model.Activity {
	index := make(map[string]int)
	out := make([]model.Activity, 0, len(items))
	for _, a := range items {
		key := a.LogicalKey()
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, a)
			continue
		}
		if a.Date.After(out[i].Date) || (a.Date.Equal(out[i].Date) && a.CreatedAt.After(out[i].CreatedAt)) {
			out[i] = a
		}
	}
	return out
}
