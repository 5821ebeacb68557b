package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/model"
	"github.com/sandeepkv93/streakd/internal/storage"
)

// Draft is a user-entered activity before it has an identity.
type Draft struct {
	Name      string
	Date      time.Time
	Duration  time.Duration
	Reminder  model.ReminderSetting
	Repeat    model.RepeatOption
	ColorName string
	Subtasks  []string
}

// Proposal is one suggestion from the task importer.
type Proposal struct {
	Name          string
	Duration      time.Duration
	SuggestedDate time.Time
}

type ImportFailure struct {
	Index int
	Name  string
	Err   error
}

type ImportResult struct {
	Created []model.Activity
	Failed  []ImportFailure
}

// Patch carries optional field changes. Nil fields are left alone.
type Patch struct {
	Name        *string
	Date        *time.Time
	Duration    *time.Duration
	Reminder    *model.ReminderSetting
	Repeat      *model.RepeatOption
	ColorName   *string
	AddSubtasks []string
}

type DeleteScope int

const (
	ScopeSingle DeleteScope = iota
	// ScopeFutureInSeries deletes the target and every later member of its
	// series.
	ScopeFutureInSeries
)

func (s DeleteScope) String() string {
	switch s {
	case ScopeSingle:
		return "single"
	case ScopeFutureInSeries:
		return "future"
	default:
		return fmt.Sprintf("DeleteScope(%d)", int(s))
	}
}

func (e *Engine) Create(ctx context.Context, d Draft, now time.Time) (model.Activity, error) {
	e.ensureDay(ctx, now)
	return e.create(ctx, d, model.OriginUserCreated, now)
}

// Import creates one activity per proposal. A rejected proposal is reported
// in the result and does not stop the rest.
func (e *Engine) Import(ctx context.Context, proposals []Proposal, now time.Time) (ImportResult, error) {
	e.ensureDay(ctx, now)
	var res ImportResult
	for i, p := range proposals {
		a, err := e.create(ctx, Draft{Name: p.Name, Date: p.SuggestedDate, Duration: p.Duration}, model.OriginImported, now)
		if err != nil {
			res.Failed = append(res.Failed, ImportFailure{Index: i, Name: p.Name, Err: err})
			if isSaveError(err) {
				return res, err
			}
			continue
		}
		res.Created = append(res.Created, a)
	}
	e.log.Info("import finished", "created", len(res.Created), "failed", len(res.Failed))
	return res, nil
}

type saveError struct{ err error }

func (s saveError) Error() string { return s.err.Error() }
func (s saveError) Unwrap() error { return s.err }

func isSaveError(err error) bool {
	var se saveError
	return errors.As(err, &se)
}

func (e *Engine) create(ctx context.Context, d Draft, origin model.Origin, now time.Time) (model.Activity, error) {
	a := model.Activity{
		ID:        model.NewID(),
		Name:      strings.TrimSpace(d.Name),
		Date:      d.Date,
		Duration:  d.Duration,
		Origin:    origin,
		ColorName: d.ColorName,
		Reminder:  d.Reminder,
		Repeat:    d.Repeat,
		CreatedAt: now,
	}
	if a.Reminder.Kind == "" {
		a.Reminder.Kind = model.ReminderNone
	}
	if a.Repeat == "" {
		a.Repeat = model.RepeatNone
	}
	if a.ColorName == "" {
		a.ColorName = model.RandomColor()
	}
	for _, name := range d.Subtasks {
		if strings.TrimSpace(name) != "" {
			a.Subtasks = append(a.Subtasks, model.NewSubtask(name))
		}
	}
	if a.Repeat.Repeats() {
		a.SeriesID = a.ID
	}
	if err := a.Validate(); err != nil {
		return model.Activity{}, fmt.Errorf("%w: %w", ErrInvalidActivity, err)
	}

	if err := e.store.Insert(ctx, a); err != nil {
		discard(e.store)
		return model.Activity{}, fmt.Errorf("engine: insert %s: %w", a.ID, err)
	}
	var created []model.Activity
	if a.Repeat.Repeats() {
		var err error
		if a, created, err = e.expander.Expand(ctx, a, now); err != nil {
			e.log.Warn("series expansion failed", "activity_id", a.ID, "err", err)
		} else {
			e.log.Debug("series created", "series_id", a.SeriesID, "instances", len(created))
		}
	}
	if err := e.save(ctx, "create"); err != nil {
		return model.Activity{}, saveError{err}
	}
	requestReminder(ctx, e.gateway, e.cal, e.log, a)
	e.expander.Remind(ctx, created)
	e.log.Info("activity created", "activity_id", a.ID, "origin", a.Origin, "day", e.cal.DayKey(a.Date))
	return a, nil
}

func (e *Engine) Edit(ctx context.Context, id string, p Patch, now time.Time) (model.Activity, error) {
	e.ensureDay(ctx, now)
	a, err := e.store.Get(ctx, id)
	if err != nil {
		return model.Activity{}, err
	}
	before := a.Clone()

	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Duration != nil {
		a.Duration = *p.Duration
	}
	if p.Reminder != nil {
		a.Reminder = *p.Reminder
	}
	if p.Repeat != nil {
		a.Repeat = *p.Repeat
	}
	if p.ColorName != nil {
		a.ColorName = *p.ColorName
	}
	for _, name := range p.AddSubtasks {
		if strings.TrimSpace(name) != "" {
			a.Subtasks = append(a.Subtasks, model.NewSubtask(name))
		}
	}
	if err := a.Validate(); err != nil {
		return model.Activity{}, fmt.Errorf("%w: %w", ErrInvalidActivity, err)
	}

	repeatChanged := a.Repeat != before.Repeat
	var dropped []string
	if repeatChanged {
		if before.SeriesID != "" {
			if dropped, err = e.dropFutureMembers(ctx, before); err != nil {
				discard(e.store)
				return model.Activity{}, err
			}
		}
		a.SeriesID = ""
		if a.Repeat.Repeats() {
			a.SeriesID = a.ID
		}
	}

	if err := e.store.Update(ctx, a); err != nil {
		discard(e.store)
		return model.Activity{}, fmt.Errorf("engine: update %s: %w", a.ID, err)
	}
	if repeatChanged && before.IsAnchor() && a.SeriesID == "" {
		if err := e.reanchor(ctx, before.SeriesID); err != nil {
			discard(e.store)
			return model.Activity{}, err
		}
	}
	var created []model.Activity
	if repeatChanged && a.Repeat.Repeats() {
		if a, created, err = e.expander.Expand(ctx, a, now); err != nil {
			e.log.Warn("series expansion failed", "activity_id", a.ID, "err", err)
		}
	}
	if err := e.save(ctx, "edit"); err != nil {
		return model.Activity{}, err
	}

	for _, id := range dropped {
		cancelReminder(ctx, e.gateway, e.log, id)
	}
	if repeatChanged || !a.Date.Equal(before.Date) || a.Reminder != before.Reminder {
		cancelReminder(ctx, e.gateway, e.log, a.ID)
		if !a.Completed {
			requestReminder(ctx, e.gateway, e.cal, e.log, a)
		}
	}
	e.expander.Remind(ctx, created)
	return a, nil
}

// dropFutureMembers deletes the incomplete members of a's series dated after
// a's day and returns their ids. Completed history stays.
func (e *Engine) dropFutureMembers(ctx context.Context, a model.Activity) ([]string, error) {
	members, err := e.store.Fetch(ctx, storage.ActivityFilter{
		SeriesID:  a.SeriesID,
		Completed: storage.Bool(false),
		From:      e.cal.AddDays(e.cal.StartOfDay(a.Date), 1),
	})
	if err != nil {
		return nil, fmt.Errorf("engine: fetch series %s: %w", a.SeriesID, err)
	}
	var ids []string
	for _, m := range members {
		if m.ID == a.ID {
			continue
		}
		if err := e.store.Delete(ctx, m.ID); err != nil {
			return nil, fmt.Errorf("engine: delete series member %s: %w", m.ID, err)
		}
		ids = append(ids, m.ID)
	}
	e.log.Debug("series future members removed", "series_id", a.SeriesID, "count", len(ids))
	return ids, nil
}

// SetCompleted marks an activity done or not done. Undoing a completion
// never lowers the streak.
func (e *Engine) SetCompleted(ctx context.Context, id string, done bool, now time.Time) (model.Activity, error) {
	e.ensureDay(ctx, now)
	a, err := e.store.Get(ctx, id)
	if err != nil {
		return model.Activity{}, err
	}
	if a.Completed == done {
		return a, nil
	}
	if done {
		a.MarkCompleted(now)
	} else {
		a.MarkIncomplete()
	}
	return e.commitCompletion(ctx, a, now)
}

// ToggleSubtask flips one subtask. Finishing the last open subtask
// completes the activity.
func (e *Engine) ToggleSubtask(ctx context.Context, activityID, subtaskID string, now time.Time) (model.Activity, error) {
	e.ensureDay(ctx, now)
	a, err := e.store.Get(ctx, activityID)
	if err != nil {
		return model.Activity{}, err
	}
	found := false
	for i := range a.Subtasks {
		if a.Subtasks[i].ID == subtaskID {
			a.Subtasks[i].Completed = !a.Subtasks[i].Completed
			found = true
			break
		}
	}
	if !found {
		return model.Activity{}, fmt.Errorf("%w: %s in %s", ErrSubtaskNotFound, subtaskID, activityID)
	}
	if a.AllSubtasksDone() && !a.Completed {
		a.MarkCompleted(now)
		return e.commitCompletion(ctx, a, now)
	}
	if err := e.store.Update(ctx, a); err != nil {
		discard(e.store)
		return model.Activity{}, fmt.Errorf("engine: update %s: %w", a.ID, err)
	}
	if err := e.save(ctx, "toggle subtask"); err != nil {
		return model.Activity{}, err
	}
	return a, nil
}

func (e *Engine) commitCompletion(ctx context.Context, a model.Activity, now time.Time) (model.Activity, error) {
	if err := e.store.Update(ctx, a); err != nil {
		discard(e.store)
		return model.Activity{}, fmt.Errorf("engine: update %s: %w", a.ID, err)
	}
	if err := e.save(ctx, "set completed"); err != nil {
		return model.Activity{}, err
	}
	if !a.Completed {
		if e.cal.At(a.Date, a.Reminder.TimeOfDay).After(now) {
			requestReminder(ctx, e.gateway, e.cal, e.log, a)
		}
		return a, nil
	}
	cancelReminder(ctx, e.gateway, e.log, a.ID)
	st, err := e.streak.OnActivityCompleted(ctx, now)
	if err != nil {
		e.log.Warn("streak update failed", "activity_id", a.ID, "err", err)
		return a, nil
	}
	e.log.Debug("activity completed", "activity_id", a.ID, "streak", st.Count)
	return a, nil
}

// MoveToToday reschedules a missed activity onto today. When today already
// holds an incomplete instance of the same logical task, that instance is
// returned and no copy is made.
func (e *Engine) MoveToToday(ctx context.Context, id string, now time.Time) (model.Activity, error) {
	e.ensureDay(ctx, now)
	a, err := e.store.Get(ctx, id)
	if err != nil {
		return model.Activity{}, err
	}
	startOfToday := e.cal.StartOfDay(now)
	if !a.Date.Before(startOfToday) {
		return a, fmt.Errorf("%w: %s", ErrNotInPast, a.ID)
	}
	if a.Completed {
		return a, fmt.Errorf("%w: %s", ErrAlreadyCompleted, a.ID)
	}

	todays, err := e.store.Fetch(ctx, storage.ActivityFilter{
		Completed: storage.Bool(false),
		From:      startOfToday,
		To:        e.cal.AddDays(startOfToday, 1),
	})
	if err != nil {
		return model.Activity{}, fmt.Errorf("engine: fetch today: %w", err)
	}
	var target model.Activity
	existing := false
	for _, t := range todays {
		if t.LogicalKey() == a.LogicalKey() {
			target, existing = t, true
			break
		}
	}
	if !existing {
		local := a.Date.In(e.cal.Location())
		date := e.cal.At(startOfToday, calendar.TimeOfDay{Hour: local.Hour(), Minute: local.Minute()})
		target = a.Instance(date, model.OriginMovedFromPast, now)
		if err := e.store.Insert(ctx, target); err != nil {
			discard(e.store)
			return model.Activity{}, fmt.Errorf("engine: insert moved copy of %s: %w", a.ID, err)
		}
	}

	if !a.Rescheduled {
		a.Rescheduled = true
		if err := e.store.Update(ctx, a); err != nil {
			discard(e.store)
			return model.Activity{}, fmt.Errorf("engine: supersede %s: %w", a.ID, err)
		}
	}
	if err := e.save(ctx, "move to today"); err != nil {
		return model.Activity{}, err
	}
	cancelReminder(ctx, e.gateway, e.log, a.ID)
	if !existing && e.cal.At(target.Date, target.Reminder.TimeOfDay).After(now) {
		requestReminder(ctx, e.gateway, e.cal, e.log, target)
	}
	e.log.Info("moved to today", "from", a.ID, "to", target.ID, "reused", existing)
	return target, nil
}

// Delete removes an activity, or with ScopeFutureInSeries the activity and
// every later member of its series. It returns how many were removed. When
// the series anchor goes and members remain, the earliest survivor becomes
// the anchor.
func (e *Engine) Delete(ctx context.Context, id string, scope DeleteScope) (int, error) {
	a, err := e.store.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	targets := []model.Activity{a}
	switch scope {
	case ScopeSingle:
	case ScopeFutureInSeries:
		if a.SeriesID != "" {
			later, err := e.store.Fetch(ctx, storage.ActivityFilter{SeriesID: a.SeriesID, From: a.Date})
			if err != nil {
				return 0, fmt.Errorf("engine: fetch series %s: %w", a.SeriesID, err)
			}
			for _, m := range later {
				if m.ID != a.ID {
					targets = append(targets, m)
				}
			}
		}
	default:
		return 0, fmt.Errorf("%w: %v", ErrInvalidScope, scope)
	}

	anchorGone := false
	for _, t := range targets {
		if err := e.store.Delete(ctx, t.ID); err != nil {
			discard(e.store)
			return 0, fmt.Errorf("engine: delete %s: %w", t.ID, err)
		}
		anchorGone = anchorGone || t.IsAnchor()
	}
	if anchorGone {
		if err := e.reanchor(ctx, a.SeriesID); err != nil {
			discard(e.store)
			return 0, err
		}
	}
	if err := e.save(ctx, "delete"); err != nil {
		return 0, err
	}
	for _, t := range targets {
		cancelReminder(ctx, e.gateway, e.log, t.ID)
	}
	e.log.Info("activities deleted", "activity_id", id, "scope", scope, "count", len(targets))
	return len(targets), nil
}

func (e *Engine) reanchor(ctx context.Context, seriesID string) error {
	members, err := e.store.Fetch(ctx, storage.ActivityFilter{SeriesID: seriesID})
	if err != nil {
		return fmt.Errorf("engine: fetch series %s: %w", seriesID, err)
	}
	if len(members) == 0 {
		return nil
	}
	anchor := members[0].ID
	for _, m := range members {
		m.SeriesID = anchor
		if err := e.store.Update(ctx, m); err != nil {
			return fmt.Errorf("engine: reanchor %s: %w", m.ID, err)
		}
	}
	return nil
}
