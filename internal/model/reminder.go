package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/streakd/internal/calendar"
)

var ErrInvalidReminderKind = errors.New("model: invalid reminder kind")

type ReminderKind string

const (
	ReminderNone         ReminderKind = "none"
	ReminderNotification ReminderKind = "notification"
	ReminderAlarm        ReminderKind = "alarm"
)

func (k ReminderKind) IsValid() bool {
	switch k {
	case ReminderNone, ReminderNotification, ReminderAlarm:
		return true
	default:
		return false
	}
}

// Label is the user-facing name of the kind.
func (k ReminderKind) Label() string {
	switch k {
	case ReminderNotification:
		return "Notification"
	case ReminderAlarm:
		return "Alarm"
	default:
		return "No reminder"
	}
}

// ParseReminderKind accepts both the stored value and the label.
func ParseReminderKind(raw string) (ReminderKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none", "no reminder":
		return ReminderNone, nil
	case "notification", "notify":
		return ReminderNotification, nil
	case "alarm":
		return ReminderAlarm, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidReminderKind, raw)
	}
}

type ReminderSetting struct {
	Kind      ReminderKind
	TimeOfDay calendar.TimeOfDay
}

func (r ReminderSetting) Enabled() bool {
	return r.Kind == ReminderNotification || r.Kind == ReminderAlarm
}

func (r ReminderSetting) Validate() error {
	kind := r.Kind
	if kind == "" {
		kind = ReminderNone
	}
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidReminderKind, r.Kind)
	}
	if r.Enabled() && !r.TimeOfDay.Valid() {
		return fmt.Errorf("model: reminder time %s is out of range", r.TimeOfDay)
	}
	return nil
}
