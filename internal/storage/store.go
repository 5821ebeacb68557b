// Package storage persists activities and the small key/value markers the
// engine keeps between runs.
package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sandeepkv93/streakd/internal/model"
)

var (
	ErrNotFound  = errors.New("storage: not found")
	ErrDuplicate = errors.New("storage: duplicate id")
)

// ActivityStore is the persistence boundary of the engine. Writes become
// durable on Save; until then they are visible to Fetch on the same store.
type ActivityStore interface {
	Insert(ctx context.Context, a model.Activity) error
	Update(ctx context.Context, a model.Activity) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (model.Activity, error)
	Fetch(ctx context.Context, filter ActivityFilter) ([]model.Activity, error)
	Save(ctx context.Context) error
}

type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// ActivityFilter is the fetch predicate. Zero fields do not constrain.
// From is inclusive, To and Before are exclusive.
type ActivityFilter struct {
	Completed   *bool
	Rescheduled *bool
	Before      time.Time
	From        time.Time
	To          time.Time
	SeriesID    string
	Name        string
	Limit       int
}

func Bool(v bool) *bool { return &v }

func (f ActivityFilter) Match(a model.Activity) bool {
	if f.Completed != nil && a.Completed != *f.Completed {
		return false
	}
	if f.Rescheduled != nil && a.Rescheduled != *f.Rescheduled {
		return false
	}
	if !f.Before.IsZero() && !a.Date.Before(f.Before) {
		return false
	}
	if !f.From.IsZero() && a.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !a.Date.Before(f.To) {
		return false
	}
	if f.SeriesID != "" && a.SeriesID != f.SeriesID {
		return false
	}
	if f.Name != "" && !strings.EqualFold(strings.TrimSpace(a.Name), strings.TrimSpace(f.Name)) {
		return false
	}
	return true
}

func sortByDate(items []model.Activity) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date.Equal(items[j].Date) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].Date.Before(items[j].Date)
	})
}
