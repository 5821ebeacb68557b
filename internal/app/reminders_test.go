package app

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/engine"
	"github.com/sandeepkv93/streakd/internal/model"
	"github.com/sandeepkv93/streakd/internal/reminder"
	"github.com/sandeepkv93/streakd/internal/reminder/remindertest"
	"github.com/sandeepkv93/streakd/internal/storage"
)

func TestRehydrateSchedulesUpcomingReminders(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	a, store := newApp(t, now)

	add := func(name string, at time.Time, kind model.ReminderKind, tod calendar.TimeOfDay) string {
		t.Helper()
		act, err := a.Engine.Create(t.Context(), engine.Draft{
			Name: name, Date: at,
			Reminder: model.ReminderSetting{Kind: kind, TimeOfDay: tod},
		}, now)
		require.NoError(t, err)
		return act.ID
	}
	standup := add("Standup", time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), model.ReminderAlarm, calendar.TimeOfDay{Hour: 9, Minute: 55})
	add("Breakfast", time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), model.ReminderNotification, calendar.TimeOfDay{Hour: 7, Minute: 50})
	add("Plain", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), model.ReminderNone, calendar.TimeOfDay{})
	add("Far", time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), model.ReminderNotification, calendar.TimeOfDay{Hour: 11})
	require.Equal(t, 4, store.Len())

	ctrl := gomock.NewController(t)
	gw := remindertest.NewMockGateway(ctrl)
	gomock.InOrder(
		gw.EXPECT().Cancel(gomock.Any(), standup).Return(nil),
		gw.EXPECT().Schedule(gomock.Any(), reminder.Request{
			ActivityID: standup,
			Title:      "Standup",
			At:         time.Date(2026, 3, 10, 9, 55, 0, 0, time.UTC),
			Kind:       reminder.KindAlarm,
		}).Return(nil),
	)

	n, err := a.Rehydrate(t.Context(), gw, RehydrateWindow)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRehydrateTwiceKeepsOneQueuedReminder(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	a, _ := newApp(t, now)
	_, err := a.Engine.Create(t.Context(), engine.Draft{
		Name:     "Stretch",
		Date:     time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		Reminder: model.ReminderSetting{Kind: model.ReminderNotification, TimeOfDay: calendar.TimeOfDay{Hour: 17, Minute: 45}},
	}, now)
	require.NoError(t, err)

	sched := reminder.NewScheduler(4)
	for range 2 {
		_, err := a.Rehydrate(t.Context(), sched, RehydrateWindow)
		require.NoError(t, err)
	}
	require.Len(t, sched.Pending(), 1)
}
