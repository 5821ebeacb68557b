// Package reminder is the boundary to notification and alarm delivery.
package reminder

//go:generate mockgen -source=gateway.go -destination=remindertest/mock_gateway.go -package=remindertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("reminder: invalid trigger time")
	ErrMissingActivity    = errors.New("reminder: activity id is required")
	ErrInvalidKind        = errors.New("reminder: invalid kind")
	ErrSchedulerStopped   = errors.New("reminder: scheduler stopped")
)

type Kind string

const (
	KindNotification Kind = "notification"
	KindAlarm        Kind = "alarm"
)

// Request asks for one reminder for one activity occurrence.
type Request struct {
	ActivityID string
	Title      string
	At         time.Time
	Kind       Kind
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.ActivityID) == "" {
		return ErrMissingActivity
	}
	if r.At.IsZero() {
		return ErrInvalidTriggerTime
	}
	switch r.Kind {
	case KindNotification, KindAlarm:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, r.Kind)
	}
}

// Gateway schedules and cancels reminders. Callers treat failures as
// best effort.
type Gateway interface {
	Schedule(ctx context.Context, req Request) error
	Cancel(ctx context.Context, activityID string) error
}

// Nop drops every request.
type Nop struct{}

func (Nop) Schedule(context.Context, Request) error { return nil }
func (Nop) Cancel(context.Context, string) error    { return nil }
