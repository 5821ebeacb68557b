// Package calendar holds the day-granularity date math used by the scheduling
// engine. Every function is pure: "now" is always passed in.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

var ErrInvalidWeekday = errors.New("calendar: invalid weekday")

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// ParseTimeOfDay accepts "HH:MM".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	tm, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("calendar: parse time of day %q: %w", raw, err)
	}
	return TimeOfDay{Hour: tm.Hour(), Minute: tm.Minute()}, nil
}

// Calendar pins the location and the first day of the week so results do
// not depend on the host locale.
type Calendar struct {
	loc          *time.Location
	firstWeekday time.Weekday
}

func New(loc *time.Location, firstWeekday time.Weekday) Calendar {
	if loc == nil {
		loc = time.Local
	}
	if firstWeekday < time.Sunday || firstWeekday > time.Saturday {
		firstWeekday = time.Sunday
	}
	return Calendar{loc: loc, firstWeekday: firstWeekday}
}

// Default uses the local zone and Sunday-first weeks.
func Default() Calendar {
	return New(time.Local, time.Sunday)
}

func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

func (c Calendar) FirstWeekday() time.Weekday { return c.firstWeekday }

func (c Calendar) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Location())
}

func (c Calendar) StartOfWeek(t time.Time) time.Time {
	day := c.StartOfDay(t)
	back := (int(day.Weekday()) - int(c.firstWeekday) + 7) % 7
	return c.AddDays(day, -back)
}

func (c Calendar) IsSameDay(a, b time.Time) bool {
	ay, am, ad := a.In(c.Location()).Date()
	by, bm, bd := b.In(c.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// AddDays moves by calendar days, keeping the wall-clock time across DST
// transitions.
func (c Calendar) AddDays(t time.Time, n int) time.Time {
	local := t.In(c.Location())
	y, m, d := local.Date()
	return time.Date(y, m, d+n, local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), c.Location())
}

func (c Calendar) AddWeeks(t time.Time, n int) time.Time {
	return c.AddDays(t, 7*n)
}

// AddMonths clamps the day of month to the last valid day of the target
// month: Jan 31 + 1 month is Feb 28 (or Feb 29 in a leap year).
func (c Calendar) AddMonths(t time.Time, n int) time.Time {
	local := t.In(c.Location())
	y, m, d := local.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, c.Location())
	ty, tm, _ := first.Date()
	if last := DaysIn(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), c.Location())
}

// NextWeekday returns the first day strictly after t that falls on wd.
func (c Calendar) NextWeekday(after time.Time, wd time.Weekday) (time.Time, error) {
	if wd < time.Sunday || wd > time.Saturday {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidWeekday, wd)
	}
	return c.NextWeekdayOnOrAfter(c.AddDays(after, 1), wd)
}

// NextWeekdayOnOrAfter is NextWeekday but includes t's own day.
func (c Calendar) NextWeekdayOnOrAfter(t time.Time, wd time.Weekday) (time.Time, error) {
	if wd < time.Sunday || wd > time.Saturday {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidWeekday, wd)
	}
	day := c.StartOfDay(t)
	ahead := (int(wd) - int(day.Weekday()) + 7) % 7
	return c.AddDays(day, ahead), nil
}

func (c Calendar) IsWeekend(t time.Time) bool {
	switch t.In(c.Location()).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// At places a time of day on t's calendar day.
func (c Calendar) At(day time.Time, tod TimeOfDay) time.Time {
	y, m, d := day.In(c.Location()).Date()
	return time.Date(y, m, d, tod.Hour, tod.Minute, 0, 0, c.Location())
}

// DayKey formats t's calendar day as used by the persisted day markers.
func (c Calendar) DayKey(t time.Time) string {
	return t.In(c.Location()).Format(DayLayout)
}

func (c Calendar) ParseDayKey(s string) (time.Time, error) {
	tm, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: parse day %q: %w", s, err)
	}
	return tm, nil
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseWeekday accepts full or three-letter English day names.
func ParseWeekday(raw string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sun", "sunday":
		return time.Sunday, nil
	case "mon", "monday":
		return time.Monday, nil
	case "tue", "tuesday":
		return time.Tuesday, nil
	case "wed", "wednesday":
		return time.Wednesday, nil
	case "thu", "thursday":
		return time.Thursday, nil
	case "fri", "friday":
		return time.Friday, nil
	case "sat", "saturday":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, raw)
	}
}
