package model

import (
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/streakd/internal/calendar"
)

func validActivity() Activity {
	return Activity{
		ID:        "act-1",
		Name:      "Morning run",
		Date:      time.Date(2026, 2, 9, 7, 0, 0, 0, time.UTC),
		Duration:  30 * time.Minute,
		Origin:    OriginUserCreated,
		Repeat:    RepeatNone,
		Reminder:  ReminderSetting{Kind: ReminderNone},
		ColorName: "blue",
		CreatedAt: time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC),
	}
}

func TestActivityValidateSuccess(t *testing.T) {
	if err := validActivity().Validate(); err != nil {
		t.Fatalf("expected valid activity, got error: %v", err)
	}
}

func TestActivityValidateCompletedRequiresCompletedAt(t *testing.T) {
	a := validActivity()
	a.Completed = true
	err := a.Validate()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "model: completed_at is required when activity is completed" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestActivityValidateInvalidEnums(t *testing.T) {
	a := validActivity()
	a.Origin = Origin("bogus")
	if err := a.Validate(); !errors.Is(err, ErrInvalidOrigin) {
		t.Fatalf("expected ErrInvalidOrigin, got: %v", err)
	}

	a.Origin = OriginCarriedOver
	a.Repeat = RepeatOption("hourly")
	if err := a.Validate(); !errors.Is(err, ErrInvalidRepeat) {
		t.Fatalf("expected ErrInvalidRepeat, got: %v", err)
	}

	a.Repeat = RepeatDaily
	a.Reminder = ReminderSetting{Kind: ReminderKind("siren")}
	if err := a.Validate(); !errors.Is(err, ErrInvalidReminderKind) {
		t.Fatalf("expected ErrInvalidReminderKind, got: %v", err)
	}

	a.Reminder = ReminderSetting{Kind: ReminderAlarm, TimeOfDay: calendar.TimeOfDay{Hour: 30}}
	if err := a.Validate(); err == nil {
		t.Fatal("expected out of range reminder time to fail")
	}
}

func TestActivityValidateEmptySubtaskName(t *testing.T) {
	a := validActivity()
	a.Subtasks = []Subtask{{ID: "s1", Name: "  "}}
	if err := a.Validate(); err == nil {
		t.Fatal("expected empty subtask name to fail")
	}
}

func TestInstanceResetsSubtasksWithFreshIDs(t *testing.T) {
	a := validActivity()
	a.SeriesID = a.ID
	a.Completed = true
	now := time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)
	a.CompletedAt = &now
	a.Subtasks = []Subtask{{ID: "s1", Name: "stretch", Completed: true}, {ID: "s2", Name: "shower"}}

	next := a.Instance(a.Date.AddDate(0, 0, 1), OriginSeriesExpanded, now)
	if next.ID == a.ID || next.ID == "" {
		t.Fatalf("expected a fresh id, got %q", next.ID)
	}
	if next.SeriesID != a.ID || next.Completed || next.CompletedAt != nil {
		t.Fatalf("unexpected instance state: %+v", next)
	}
	if len(next.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(next.Subtasks))
	}
	for i, s := range next.Subtasks {
		if s.ID == a.Subtasks[i].ID || s.Completed || s.Name != a.Subtasks[i].Name {
			t.Fatalf("subtask %d not reset: %+v", i, s)
		}
	}
	if err := next.Validate(); err != nil {
		t.Fatalf("instance should validate: %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := validActivity()
	a.Subtasks = []Subtask{{ID: "s1", Name: "one"}}
	c := a.Clone()
	c.Subtasks[0].Completed = true
	if a.Subtasks[0].Completed {
		t.Fatal("clone shares subtask storage with original")
	}
}

func TestLogicalKey(t *testing.T) {
	a := validActivity()
	b := validActivity()
	b.Name = "  morning RUN "
	if a.LogicalKey() != b.LogicalKey() {
		t.Fatalf("expected name keys to match: %q vs %q", a.LogicalKey(), b.LogicalKey())
	}
	b.SeriesID = "series-1"
	if a.LogicalKey() == b.LogicalKey() {
		t.Fatal("expected series key to win over name")
	}
}

func TestAllSubtasksDone(t *testing.T) {
	a := validActivity()
	if a.AllSubtasksDone() {
		t.Fatal("activity without subtasks must not count as done")
	}
	a.Subtasks = []Subtask{{ID: "1", Name: "a", Completed: true}, {ID: "2", Name: "b"}}
	if a.AllSubtasksDone() {
		t.Fatal("expected open subtask to block")
	}
	a.Subtasks[1].Completed = true
	if !a.AllSubtasksDone() {
		t.Fatal("expected all done")
	}
}

func TestParseReminderKind(t *testing.T) {
	for raw, want := range map[string]ReminderKind{
		"No reminder":  ReminderNone,
		"Notification": ReminderNotification,
		"alarm":        ReminderAlarm,
		"":             ReminderNone,
	} {
		got, err := ParseReminderKind(raw)
		if err != nil || got != want {
			t.Fatalf("ParseReminderKind(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseReminderKind("buzz"); !errors.Is(err, ErrInvalidReminderKind) {
		t.Fatalf("expected ErrInvalidReminderKind, got %v", err)
	}
	if ReminderAlarm.Label() != "Alarm" || ReminderNone.Label() != "No reminder" {
		t.Fatal("unexpected reminder labels")
	}
}
