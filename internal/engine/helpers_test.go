package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/model"
	"github.com/sandeepkv93/streakd/internal/reminder"
	"github.com/sandeepkv93/streakd/internal/storage"
)

var utc = calendar.New(time.UTC, time.Sunday)

// at builds a UTC time on the given day.
func at(y int, m time.Month, d, hour, minute int) time.Time {
	return time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
}

type flakyStore struct {
	*storage.MemoryStore
	insertErr error
	saveErr   error
}

func (f *flakyStore) Insert(ctx context.Context, a model.Activity) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.MemoryStore.Insert(ctx, a)
}

func (f *flakyStore) Save(ctx context.Context) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.Save(ctx)
}

func newEngine(t *testing.T, gw reminder.Gateway, opts ...Option) (*Engine, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	opts = append([]Option{WithCalendar(utc)}, opts...)
	e, err := New(store, store.Settings(), gw, opts...)
	require.NoError(t, err)
	return e, store
}

func seed(t *testing.T, store storage.ActivityStore, name string, date time.Time, mutate ...func(*model.Activity)) model.Activity {
	t.Helper()
	a := model.Activity{
		ID:        model.NewID(),
		Name:      name,
		Date:      date,
		Duration:  30 * time.Minute,
		Origin:    model.OriginUserCreated,
		Repeat:    model.RepeatNone,
		Reminder:  model.ReminderSetting{Kind: model.ReminderNone},
		ColorName: "blue",
		CreatedAt: date,
	}
	for _, fn := range mutate {
		fn(&a)
	}
	require.NoError(t, store.Insert(t.Context(), a))
	return a
}

func completed(when time.Time) func(*model.Activity) {
	return func(a *model.Activity) { a.MarkCompleted(when) }
}

func inSeries(seriesID string, repeat model.RepeatOption) func(*model.Activity) {
	return func(a *model.Activity) {
		a.SeriesID = seriesID
		a.Repeat = repeat
	}
}

func mustGet(t *testing.T, store storage.ActivityStore, id string) model.Activity {
	t.Helper()
	a, err := store.Get(t.Context(), id)
	require.NoError(t, err)
	return a
}

func setKey(t *testing.T, kv storage.KeyValueStore, key, value string) {
	t.Helper()
	require.NoError(t, kv.Set(t.Context(), key, value))
}
