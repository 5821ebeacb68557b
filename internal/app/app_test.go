package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/commands"
	"github.com/sandeepkv93/streakd/internal/engine"
	"github.com/sandeepkv93/streakd/internal/model"
	"github.com/sandeepkv93/streakd/internal/storage"
)

func newApp(t *testing.T, now time.Time) (*App, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	e, err := engine.New(store, store.Settings(), nil,
		engine.WithCalendar(calendar.New(time.UTC, time.Sunday)),
		engine.WithHorizon(model.Horizon{Months: 1, MaxOccurrences: 3}))
	require.NoError(t, err)
	a := New(e, nil)
	a.Now = func() time.Time { return now }
	return a, store
}

func agendaFor(t *testing.T, a *App) func() Agenda {
	return func() Agenda {
		g, err := a.Agenda(context.Background(), a.Now())
		require.NoError(t, err)
		return g
	}
}

func TestRunAddDoneAndStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	a, store := newApp(t, now)
	ctx := t.Context()

	res, err := a.Run(ctx, "/add Read at:20:00 for:30m", agendaFor(t, a), nil)
	require.NoError(t, err)
	assert.Equal(t, `added "Read" on 2026-03-10`, res.Message)
	require.Equal(t, 1, store.Len())

	res, err = a.Run(ctx, "done 1", agendaFor(t, a), nil)
	require.NoError(t, err)
	assert.Equal(t, `completed "Read", streak 1`, res.Message)

	res, err = a.Run(ctx, "undo 1", agendaFor(t, a), nil)
	require.NoError(t, err)
	assert.Equal(t, `reopened "Read"`, res.Message)

	res, err = a.Run(ctx, "streak", agendaFor(t, a), nil)
	require.NoError(t, err)
	assert.Equal(t, "streak: 1", res.Message)
}

func TestRunAddRepeatingAndDeleteSeries(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	a, store := newApp(t, now)
	ctx := t.Context()

	res, err := a.Run(ctx, "add Stretch every:daily at:07:00", agendaFor(t, a), nil)
	require.NoError(t, err)
	assert.Contains(t, res.Message, "repeating daily")
	assert.Equal(t, 4, store.Len())

	res, err = a.Run(ctx, "delete 1 series", agendaFor(t, a), nil)
	require.NoError(t, err)
	assert.Equal(t, "deleted 4 activities", res.Message)
	assert.Zero(t, store.Len())
}

func TestRunMoveOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	a, store := newApp(t, now)
	ctx := t.Context()
	require.NoError(t, store.Settings().Set(ctx, engine.KeyLastCheckedDate, "2026-03-10"))
	past := model.Activity{
		ID: model.NewID(), Name: "Taxes", Date: now.AddDate(0, 0, -2),
		Origin: model.OriginUserCreated, Repeat: model.RepeatNone,
		Reminder: model.ReminderSetting{Kind: model.ReminderNone}, CreatedAt: now,
	}
	require.NoError(t, store.Insert(ctx, past))

	var shown Agenda
	_, err := a.Run(ctx, "show overdue", agendaFor(t, a), func(g Agenda) { shown = g })
	require.NoError(t, err)
	require.Len(t, shown.Overdue, 1)
	assert.Empty(t, shown.Items)

	res, err := a.Run(ctx, "move "+past.ID[:6], agendaFor(t, a), nil)
	require.NoError(t, err)
	assert.Equal(t, `moved "Taxes" to today`, res.Message)

	g := agendaFor(t, a)()
	require.Len(t, g.Items, 1)
	assert.Equal(t, model.OriginMovedFromPast, g.Items[0].Origin)
	assert.Empty(t, g.Overdue)
}

func TestResolveErrors(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	a, _ := newApp(t, now)

	_, err := a.Resolve(t.Context(), Agenda{}, "3")
	var ce *commands.CommandError
	require.True(t, errors.As(err, &ce))

	g := Agenda{Items: []model.Activity{{ID: "abc1"}, {ID: "abc2"}}}
	_, err = a.Resolve(t.Context(), g, "abc")
	require.ErrorIs(t, err, ErrAmbiguousTarget)

	_, err = a.Resolve(t.Context(), g, "zzz")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunSync(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	a, _ := newApp(t, now)

	res, err := a.Run(t.Context(), "sync", agendaFor(t, a), nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Message, "synced 2026-03-10"), res.Message)

	res, err = a.Run(t.Context(), "sync", agendaFor(t, a), nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Message, "already synced"), res.Message)
}
