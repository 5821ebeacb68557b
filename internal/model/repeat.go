package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/streakd/internal/calendar"
)

var (
	ErrNotRepeating   = errors.New("model: repeat option none has no occurrences")
	ErrInvalidHorizon = errors.New("model: invalid expansion horizon")
	errSkipOccurrence = errors.New("model: occurrence skipped")
)

type RepeatOption string

const (
	RepeatNone     RepeatOption = "none"
	RepeatDaily    RepeatOption = "daily"
	RepeatWeekends RepeatOption = "weekends"
	RepeatMonthly  RepeatOption = "monthly"
)

func (r RepeatOption) IsValid() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekends, RepeatMonthly:
		return true
	default:
		return false
	}
}

func (r RepeatOption) Repeats() bool {
	return r == RepeatDaily || r == RepeatWeekends || r == RepeatMonthly
}

func ParseRepeatOption(raw string) (RepeatOption, error) {
	v := RepeatOption(strings.ToLower(strings.TrimSpace(raw)))
	if v == "" {
		return RepeatNone, nil
	}
	if !v.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRepeat, raw)
	}
	return v, nil
}

// Horizon bounds an expansion: occurrences stop at Months past the anchor
// or after MaxOccurrences instances, whichever comes first.
type Horizon struct {
	Months         int
	MaxOccurrences int
}

func DefaultHorizon() Horizon {
	return Horizon{Months: 3, MaxOccurrences: 90}
}

func (h Horizon) Validate() error {
	if h.Months <= 0 {
		return fmt.Errorf("%w: months %d", ErrInvalidHorizon, h.Months)
	}
	if h.MaxOccurrences <= 0 {
		return fmt.Errorf("%w: max occurrences %d", ErrInvalidHorizon, h.MaxOccurrences)
	}
	return nil
}

// Occurrences lists the dates after anchor's day that the rule produces
// within the horizon. Candidates that fail to compute are skipped.
func (r RepeatOption) Occurrences(cal calendar.Calendar, anchor time.Time, h Horizon) ([]time.Time, error) {
	if r == RepeatNone {
		return nil, ErrNotRepeating
	}
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRepeat, r)
	}
	if anchor.IsZero() {
		return nil, errors.New("model: repeat anchor date is required")
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}

	limit := cal.AddMonths(anchor, h.Months)
	out := make([]time.Time, 0, h.MaxOccurrences)
	prev := anchor
	// Weekends can skip at most five days per occurrence.
	maxSteps := h.MaxOccurrences*7 + 31
	for step := 1; step <= maxSteps && len(out) < h.MaxOccurrences; step++ {
		next, err := r.candidate(cal, anchor, step)
		if err != nil {
			continue
		}
		if next.After(limit) {
			break
		}
		if r == RepeatWeekends && !cal.IsWeekend(next) {
			continue
		}
		if !next.After(prev) || cal.IsSameDay(next, anchor) {
			continue
		}
		prev = next
		out = append(out, next)
	}
	return out, nil
}

// candidate offsets step units from the anchor itself, never from the
// previous occurrence, so a wall-clock time shifted by a DST gap on one day
// does not carry into later days. Monthly clamping stays anchored the same
// way (Jan 31 -> Feb 29 -> Mar 31).
func (r RepeatOption) candidate(cal calendar.Calendar, anchor time.Time, step int) (time.Time, error) {
	var next time.Time
	switch r {
	case RepeatDaily, RepeatWeekends:
		next = cal.AddDays(anchor, step)
	case RepeatMonthly:
		next = cal.AddMonths(anchor, step)
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidRepeat, r)
	}
	if next.IsZero() {
		return time.Time{}, errSkipOccurrence
	}
	return next, nil
}
