package views

import (
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/model"
)

func TestItemMapsActivity(t *testing.T) {
	cal := calendar.New(time.UTC, time.Sunday)
	a := model.Activity{
		ID:       "0123456789abcdef",
		SeriesID: "0123456789abcdef",
		Name:     "Guitar",
		Date:     time.Date(2026, 3, 10, 19, 30, 0, 0, time.UTC),
		Duration: 45 * time.Minute,
		Origin:   model.OriginCarriedOver,
		Reminder: model.ReminderSetting{Kind: model.ReminderAlarm, TimeOfDay: calendar.TimeOfDay{Hour: 19, Minute: 15}},
		Subtasks: []model.Subtask{{ID: "a", Name: "Scales", Completed: true}, {ID: "b", Name: "Song"}},
	}

	item := Item(cal, a, 3)
	if item.Index != 3 || item.Time != "19:30" || item.Day != "2026-03-10" || item.Duration != "45m0s" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.Subtasks != "1/2" || !item.Series || item.Reminder != "alarm 19:15" {
		t.Fatalf("unexpected item details: %+v", item)
	}

	line := Line(item)
	for _, want := range []string{" 3 [ ] 19:30 Guitar", "subtasks:1/2", "carried", "#01234567"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
}

func TestRenderDayPanelMarksSelection(t *testing.T) {
	out := RenderDayPanel(DayPanelData{
		Day:        "2026-03-10",
		Items:      []ItemData{{ID: "a", Name: "Read", Time: "08:00"}, {ID: "b", Name: "Run", Time: "18:00"}},
		Overdue:    []ItemData{{ID: "c", Name: "Taxes", Time: "09:00"}},
		SelectedID: "b",
	})
	if !strings.Contains(out, "> [ ] 18:00 Run") {
		t.Fatalf("selection cursor missing:\n%s", out)
	}
	if !strings.Contains(out, "Overdue:") || !strings.Contains(out, "Taxes") {
		t.Fatalf("overdue section missing:\n%s", out)
	}
}

func TestRenderDayPanelEmpty(t *testing.T) {
	out := RenderDayPanel(DayPanelData{Day: "2026-03-10"})
	if !strings.Contains(out, "(none)") || strings.Contains(out, "Overdue:") {
		t.Fatalf("unexpected empty panel:\n%s", out)
	}
}

func TestDayMarkdown(t *testing.T) {
	md := DayMarkdown("2026-03-10", []ItemData{
		{Index: 1, Name: "Read | write", Time: "08:00", Done: true},
		{Index: 2, Name: "Run", Time: "18:00"},
	}, StreakData{Count: 1, ResetToday: true})

	for _, want := range []string{"# 2026-03-10", "**Streak:** 1 day _(reset today)_", "1 of 2 done", `~~Read \| write~~`, "| 2 |   | 18:00 | Run |"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}

	empty := DayMarkdown("2026-03-11", nil, StreakData{Count: 2})
	if !strings.Contains(empty, "_Nothing scheduled._") || !strings.Contains(empty, "2 days") {
		t.Fatalf("unexpected empty report:\n%s", empty)
	}
}

func TestRenderMarkdownFallsBackOnEmpty(t *testing.T) {
	if got := RenderMarkdown("   ", 80); got != "" {
		t.Fatalf("expected empty render, got %q", got)
	}
	if got := RenderDay("2026-03-10", nil, StreakData{}, 60); !strings.Contains(got, "2026-03-10") {
		t.Fatalf("rendered day missing heading: %q", got)
	}
}
