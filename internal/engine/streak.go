package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/storage"
)

const (
	KeyStreakCount          = "stored_streak_count"
	KeyLastStreakUpdate     = "last_streak_update_date"
	KeyLastStreakResetCheck = "last_streak_reset_check_date"
	KeyStreakResetToday     = "streak_reset_today"
)

// StreakState is the persisted streak counter and its day markers.
type StreakState struct {
	Count          int
	LastUpdate     string
	LastResetCheck string
	// ResetToday is set when today's check dropped a positive streak to zero.
	ResetToday bool
}

// StreakTracker counts consecutive days with at least one completed
// activity.
type StreakTracker struct {
	store storage.ActivityStore
	kv    storage.KeyValueStore
	cal   calendar.Calendar
}

func NewStreakTracker(store storage.ActivityStore, kv storage.KeyValueStore, cal calendar.Calendar) *StreakTracker {
	return &StreakTracker{store: store, kv: kv, cal: cal}
}

func (t *StreakTracker) Snapshot(ctx context.Context) (StreakState, error) {
	var st StreakState
	raw, _, err := t.kv.Get(ctx, KeyStreakCount)
	if err != nil {
		return st, fmt.Errorf("engine: read %s: %w", KeyStreakCount, err)
	}
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return st, fmt.Errorf("engine: parse %s %q: %w", KeyStreakCount, raw, err)
		}
		st.Count = max(n, 0)
	}
	if st.LastUpdate, _, err = t.kv.Get(ctx, KeyLastStreakUpdate); err != nil {
		return st, fmt.Errorf("engine: read %s: %w", KeyLastStreakUpdate, err)
	}
	if st.LastResetCheck, _, err = t.kv.Get(ctx, KeyLastStreakResetCheck); err != nil {
		return st, fmt.Errorf("engine: read %s: %w", KeyLastStreakResetCheck, err)
	}
	flag, _, err := t.kv.Get(ctx, KeyStreakResetToday)
	if err != nil {
		return st, fmt.Errorf("engine: read %s: %w", KeyStreakResetToday, err)
	}
	st.ResetToday, _ = strconv.ParseBool(flag)
	return st, nil
}

// CheckAndResetIfNeeded zeroes a positive streak when nothing dated
// yesterday was completed. It runs at most once per day.
func (t *StreakTracker) CheckAndResetIfNeeded(ctx context.Context, now time.Time) (StreakState, error) {
	st, err := t.Snapshot(ctx)
	if err != nil {
		return st, err
	}
	today := t.cal.DayKey(now)
	if st.LastResetCheck == today {
		return st, nil
	}

	startOfToday := t.cal.StartOfDay(now)
	done, err := t.store.Fetch(ctx, storage.ActivityFilter{
		Completed: storage.Bool(true),
		From:      t.cal.AddDays(startOfToday, -1),
		To:        startOfToday,
		Limit:     1,
	})
	if err != nil {
		return st, fmt.Errorf("engine: fetch yesterday's completions: %w", err)
	}

	st.ResetToday = false
	if st.Count > 0 && len(done) == 0 {
		st.Count = 0
		st.ResetToday = true
	}
	st.LastResetCheck = today
	return st, t.persist(ctx, st)
}

// OnActivityCompleted advances the streak on the first completion of the
// day. Completing, undoing and completing again the same day does not
// advance it twice.
func (t *StreakTracker) OnActivityCompleted(ctx context.Context, now time.Time) (StreakState, error) {
	today := t.cal.DayKey(now)
	st, err := t.Snapshot(ctx)
	if err != nil {
		return st, err
	}
	if st.LastResetCheck != today {
		if st, err = t.CheckAndResetIfNeeded(ctx, now); err != nil {
			return st, err
		}
	}

	startOfToday := t.cal.StartOfDay(now)
	done, err := t.store.Fetch(ctx, storage.ActivityFilter{
		Completed: storage.Bool(true),
		From:      startOfToday,
		To:        t.cal.AddDays(startOfToday, 1),
	})
	if err != nil {
		return st, fmt.Errorf("engine: fetch today's completions: %w", err)
	}
	if len(done) != 1 || st.LastUpdate == today {
		return st, nil
	}
	st.Count++
	st.LastUpdate = today
	st.ResetToday = false
	return st, t.persist(ctx, st)
}

// persist writes the counter before the markers so an interrupted write
// leaves a check that will run again.
func (t *StreakTracker) persist(ctx context.Context, st StreakState) error {
	pairs := [][2]string{
		{KeyStreakCount, strconv.Itoa(st.Count)},
		{KeyStreakResetToday, strconv.FormatBool(st.ResetToday)},
		{KeyLastStreakUpdate, st.LastUpdate},
		{KeyLastStreakResetCheck, st.LastResetCheck},
	}
	for _, kv := range pairs {
		if err := t.kv.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("engine: write %s: %w", kv[0], err)
		}
	}
	return nil
}
