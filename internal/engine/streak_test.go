package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/streakd/internal/storage"
)

func TestStreakResetsWithoutYesterdayCompletion(t *testing.T) {
	store := storage.NewMemoryStore()
	kv := store.Settings()
	tr := NewStreakTracker(store, kv, utc)
	setKey(t, kv, KeyStreakCount, "5")
	seed(t, store, "Missed", at(2026, 3, 9, 9, 0))

	st, err := tr.CheckAndResetIfNeeded(t.Context(), at(2026, 3, 10, 8, 0))
	require.NoError(t, err)
	assert.Zero(t, st.Count)
	assert.True(t, st.ResetToday)
	assert.Equal(t, "2026-03-10", st.LastResetCheck)

	stored, err := tr.Snapshot(t.Context())
	require.NoError(t, err)
	assert.Equal(t, st, stored)
}

func TestStreakKeptWhenYesterdayCompleted(t *testing.T) {
	store := storage.NewMemoryStore()
	kv := store.Settings()
	tr := NewStreakTracker(store, kv, utc)
	setKey(t, kv, KeyStreakCount, "5")
	setKey(t, kv, KeyStreakResetToday, "true")
	seed(t, store, "Done", at(2026, 3, 9, 23, 30), completed(at(2026, 3, 9, 23, 45)))

	st, err := tr.CheckAndResetIfNeeded(t.Context(), at(2026, 3, 10, 8, 0))
	require.NoError(t, err)
	assert.Equal(t, 5, st.Count)
	assert.False(t, st.ResetToday)
}

func TestStreakResetCheckRunsOncePerDay(t *testing.T) {
	store := storage.NewMemoryStore()
	kv := store.Settings()
	tr := NewStreakTracker(store, kv, utc)
	setKey(t, kv, KeyStreakCount, "2")

	_, err := tr.CheckAndResetIfNeeded(t.Context(), at(2026, 3, 10, 8, 0))
	require.NoError(t, err)
	setKey(t, kv, KeyStreakCount, "3")

	st, err := tr.CheckAndResetIfNeeded(t.Context(), at(2026, 3, 10, 21, 0))
	require.NoError(t, err)
	assert.Equal(t, 3, st.Count)
}

func TestStreakNegativeCountReadsAsZero(t *testing.T) {
	store := storage.NewMemoryStore()
	kv := store.Settings()
	setKey(t, kv, KeyStreakCount, "-4")

	st, err := NewStreakTracker(store, kv, utc).Snapshot(t.Context())
	require.NoError(t, err)
	assert.Zero(t, st.Count)
}

func TestStreakIncrementsOncePerDay(t *testing.T) {
	e, store := newEngine(t, nil)
	now := at(2026, 3, 10, 9, 0)
	a := seed(t, store, "Email", at(2026, 3, 10, 8, 0))
	b := seed(t, store, "Gym", at(2026, 3, 10, 18, 0))

	_, err := e.SetCompleted(t.Context(), a.ID, true, now)
	require.NoError(t, err)
	_, err = e.SetCompleted(t.Context(), b.ID, true, now.Add(time.Hour))
	require.NoError(t, err)

	st, err := e.Streak(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Count)
	assert.Equal(t, "2026-03-10", st.LastUpdate)
}

func TestStreakUndoDoesNotDecrementOrDoubleCount(t *testing.T) {
	e, store := newEngine(t, nil)
	now := at(2026, 3, 10, 9, 0)
	a := seed(t, store, "Email", at(2026, 3, 10, 8, 0))

	for i, done := range []bool{true, false, true} {
		_, err := e.SetCompleted(t.Context(), a.ID, done, now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		st, err := e.Streak(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, st.Count, "step %d", i)
	}
}

func TestStreakResetThenIncrementSameDay(t *testing.T) {
	e, store := newEngine(t, nil)
	kv := store.Settings()
	setKey(t, kv, KeyStreakCount, "4")
	setKey(t, kv, KeyLastStreakUpdate, "2026-03-01")
	setKey(t, kv, KeyLastStreakResetCheck, "2026-03-02")
	seed(t, store, "Day one", at(2026, 3, 1, 9, 0), completed(at(2026, 3, 1, 10, 0)))
	seed(t, store, "Day two", at(2026, 3, 2, 9, 0))
	task := seed(t, store, "Day three", at(2026, 3, 3, 9, 0))

	day3 := at(2026, 3, 3, 12, 0)
	report, err := e.BeginDay(t.Context(), day3)
	require.NoError(t, err)
	assert.Zero(t, report.Streak.Count)
	assert.True(t, report.Streak.ResetToday)

	_, err = e.SetCompleted(t.Context(), task.ID, true, day3)
	require.NoError(t, err)
	st, err := e.Streak(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Count)
	assert.False(t, st.ResetToday)
	assert.Equal(t, "2026-03-03", st.LastUpdate)
}
