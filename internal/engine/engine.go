// Package engine implements recurring-activity scheduling and streak
// accounting on top of an ActivityStore, a key/value store for day markers
// and a reminder Gateway. It assumes a single writer; callers that share a
// store across goroutines must serialize engine calls.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/model"
	"github.com/sandeepkv93/streakd/internal/reminder"
	"github.com/sandeepkv93/streakd/internal/storage"
)

var (
	ErrInvalidActivity  = errors.New("engine: invalid activity")
	ErrNotRepeating     = model.ErrNotRepeating
	ErrNotInPast        = errors.New("engine: activity is not scheduled before today")
	ErrAlreadyCompleted = errors.New("engine: activity is already completed")
	ErrSubtaskNotFound  = errors.New("engine: subtask not found")
	ErrInvalidScope     = errors.New("engine: invalid delete scope")
)

type Option func(*Engine)

func WithCalendar(cal calendar.Calendar) Option {
	return func(e *Engine) { e.cal = cal }
}

func WithHorizon(h model.Horizon) Option {
	return func(e *Engine) { e.horizon = h }
}

func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithCarryOverChain lets a carried-over copy be carried again when it is
// missed as well.
func WithCarryOverChain(enabled bool) Option {
	return func(e *Engine) { e.chain = enabled }
}

// Engine is the entry point used by the CLI and the TUI.
type Engine struct {
	store   storage.ActivityStore
	kv      storage.KeyValueStore
	gateway reminder.Gateway
	cal     calendar.Calendar
	horizon model.Horizon
	chain   bool
	log     *slog.Logger

	expander   *Expander
	reconciler *Reconciler
	streak     *StreakTracker
}

func New(store storage.ActivityStore, kv storage.KeyValueStore, gateway reminder.Gateway, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("engine: nil activity store")
	}
	if kv == nil {
		return nil, errors.New("engine: nil key/value store")
	}
	if gateway == nil {
		gateway = reminder.Nop{}
	}
	e := &Engine{
		store:   store,
		kv:      kv,
		gateway: gateway,
		cal:     calendar.Default(),
		horizon: model.DefaultHorizon(),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.horizon.Validate(); err != nil {
		return nil, err
	}
	e.expander = NewExpander(store, gateway, e.cal, e.horizon, e.log)
	e.reconciler = NewReconciler(store, kv, gateway, e.cal, e.log, e.chain)
	e.streak = NewStreakTracker(store, kv, e.cal)
	return e, nil
}

func (e *Engine) Calendar() calendar.Calendar { return e.cal }

// DayReport summarizes what BeginDay did.
type DayReport struct {
	CarryOver CarryOverResult
	Streak    StreakState
}

// BeginDay runs carry-over and then the streak reset check. Both are no-ops
// once they have run for today's date, so calling it on every trigger is
// cheap. A carry-over failure does not stop the streak check; the failed
// pass retries on the next call.
func (e *Engine) BeginDay(ctx context.Context, now time.Time) (DayReport, error) {
	var report DayReport
	carry, carryErr := e.reconciler.Run(ctx, now)
	report.CarryOver = carry
	if carryErr != nil {
		e.log.Warn("carry-over failed", "day", e.cal.DayKey(now), "err", carryErr)
	}
	st, streakErr := e.streak.CheckAndResetIfNeeded(ctx, now)
	report.Streak = st
	if streakErr != nil {
		e.log.Warn("streak reset check failed", "day", e.cal.DayKey(now), "err", streakErr)
	}
	return report, errors.Join(carryErr, streakErr)
}

// ensureDay runs BeginDay ahead of a user operation. Failures are logged and
// the operation proceeds against the current data.
func (e *Engine) ensureDay(ctx context.Context, now time.Time) {
	_, _ = e.BeginDay(ctx, now)
}

func (e *Engine) Streak(ctx context.Context) (StreakState, error) {
	return e.streak.Snapshot(ctx)
}

func (e *Engine) Get(ctx context.Context, id string) (model.Activity, error) {
	return e.store.Get(ctx, id)
}

// Day lists the activities scheduled on day's calendar day.
func (e *Engine) Day(ctx context.Context, day time.Time) ([]model.Activity, error) {
	start := e.cal.StartOfDay(day)
	return e.store.Fetch(ctx, storage.ActivityFilter{From: start, To: e.cal.AddDays(start, 1)})
}

// Range lists activities with dates in [from, to).
func (e *Engine) Range(ctx context.Context, from, to time.Time) ([]model.Activity, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("engine: empty range %s..%s", from, to)
	}
	return e.store.Fetch(ctx, storage.ActivityFilter{From: from, To: to})
}

// Overdue lists incomplete past activities still eligible for moving.
func (e *Engine) Overdue(ctx context.Context, now time.Time) ([]model.Activity, error) {
	return e.store.Fetch(ctx, storage.ActivityFilter{
		Completed:   storage.Bool(false),
		Rescheduled: storage.Bool(false),
		Before:      e.cal.StartOfDay(now),
	})
}

func (e *Engine) save(ctx context.Context, op string) error {
	if err := e.store.Save(ctx); err != nil {
		e.log.Warn("store save failed", "op", op, "err", err)
		return fmt.Errorf("engine: %s: save: %w", op, err)
	}
	return nil
}

// discard drops pending writes on stores that buffer them.
func discard(store storage.ActivityStore) {
	if d, ok := store.(interface{ Discard() error }); ok {
		_ = d.Discard()
	}
}
