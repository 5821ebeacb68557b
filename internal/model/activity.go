package model

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidOrigin = errors.New("model: invalid activity origin")
	ErrInvalidRepeat = errors.New("model: invalid repeat option")
)

// Origin records how an activity came into existence.
type Origin string

const (
	OriginUserCreated    Origin = "user_created"
	OriginSeriesExpanded Origin = "series_expanded"
	OriginCarriedOver    Origin = "carried_over"
	OriginMovedFromPast  Origin = "moved_from_past"
	OriginImported       Origin = "imported"
)

func (o Origin) IsValid() bool {
	switch o {
	case OriginUserCreated, OriginSeriesExpanded, OriginCarriedOver, OriginMovedFromPast, OriginImported:
		return true
	default:
		return false
	}
}

// Palette is the fixed set of display colors new activities pick from.
var Palette = []string{"red", "orange", "yellow", "green", "mint", "teal", "cyan", "blue", "indigo", "purple", "pink"}

func RandomColor() string {
	return Palette[rand.IntN(len(Palette))]
}

type Subtask struct {
	ID        string
	Name      string
	Completed bool
}

type Activity struct {
	ID          string
	SeriesID    string
	Name        string
	Date        time.Time
	Duration    time.Duration
	Completed   bool
	CompletedAt *time.Time
	Origin      Origin
	// Rescheduled marks a record superseded by a carried-over or moved copy.
	// It stays as history and is never carried forward again.
	Rescheduled bool
	ColorName   string
	Reminder    ReminderSetting
	Repeat      RepeatOption
	Subtasks    []Subtask
	CreatedAt   time.Time
}

func NewID() string {
	return uuid.NewString()
}

func NewSubtask(name string) Subtask {
	return Subtask{ID: NewID(), Name: strings.TrimSpace(name)}
}

func (a Activity) IsAnchor() bool {
	return a.SeriesID != "" && a.SeriesID == a.ID
}

func (a Activity) InSeries() bool {
	return a.SeriesID != ""
}

// LogicalKey groups instances of the same logical task: the series when
// there is one, otherwise the normalized name.
func (a Activity) LogicalKey() string {
	if a.SeriesID != "" {
		return "series:" + a.SeriesID
	}
	return "name:" + strings.ToLower(strings.TrimSpace(a.Name))
}

// AllSubtasksDone reports false for an activity without subtasks.
func (a Activity) AllSubtasksDone() bool {
	if len(a.Subtasks) == 0 {
		return false
	}
	for _, s := range a.Subtasks {
		if !s.Completed {
			return false
		}
	}
	return true
}

// Clone returns a deep copy sharing no slices or pointers with a.
func (a Activity) Clone() Activity {
	out := a
	if a.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(a.Subtasks))
		copy(out.Subtasks, a.Subtasks)
	}
	if a.CompletedAt != nil {
		at := *a.CompletedAt
		out.CompletedAt = &at
	}
	return out
}

// Instance creates a fresh, incomplete occurrence of a on date with new
// identities for the activity and each subtask.
func (a Activity) Instance(date time.Time, origin Origin, createdAt time.Time) Activity {
	subtasks := make([]Subtask, 0, len(a.Subtasks))
	for _, s := range a.Subtasks {
		subtasks = append(subtasks, Subtask{ID: NewID(), Name: s.Name})
	}
	return Activity{
		ID:        NewID(),
		SeriesID:  a.SeriesID,
		Name:      a.Name,
		Date:      date,
		Duration:  a.Duration,
		Origin:    origin,
		ColorName: a.ColorName,
		Reminder:  a.Reminder,
		Repeat:    a.Repeat,
		Subtasks:  subtasks,
		CreatedAt: createdAt,
	}
}

func (a *Activity) MarkCompleted(at time.Time) {
	a.Completed = true
	done := at
	a.CompletedAt = &done
}

func (a *Activity) MarkIncomplete() {
	a.Completed = false
	a.CompletedAt = nil
}

func (a Activity) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("model: activity id is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("model: activity name is required")
	}
	if a.Date.IsZero() {
		return errors.New("model: activity date is required")
	}
	if a.Duration < 0 {
		return errors.New("model: activity duration must not be negative")
	}
	if !a.Origin.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidOrigin, a.Origin)
	}
	if !a.Repeat.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRepeat, a.Repeat)
	}
	if err := a.Reminder.Validate(); err != nil {
		return err
	}
	if a.Completed && a.CompletedAt == nil {
		return errors.New("model: completed_at is required when activity is completed")
	}
	if !a.Completed && a.CompletedAt != nil {
		return errors.New("model: completed_at must be nil when activity is not completed")
	}
	for i, s := range a.Subtasks {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("model: subtask %d id is required", i)
		}
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("model: subtask %d name is required", i)
		}
	}
	return nil
}
