package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/model"
)

// ItemData is one activity row as the screens show it.
type ItemData struct {
	ID       string
	Index    int
	Name     string
	Day      string
	Time     string
	Duration string
	Done     bool
	Origin   string
	Series   bool
	Reminder string
	Subtasks string
}

type StreakData struct {
	Count      int
	ResetToday bool
}

type DayPanelData struct {
	Day        string
	Items      []ItemData
	Overdue    []ItemData
	SelectedID string
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

// Item maps an activity to its row. Index is the 1-based list position used
// by commands such as "done 2".
func Item(cal calendar.Calendar, a model.Activity, index int) ItemData {
	local := a.Date.In(cal.Location())
	item := ItemData{
		ID:     a.ID,
		Index:  index,
		Name:   a.Name,
		Day:    cal.DayKey(a.Date),
		Time:   local.Format("15:04"),
		Done:   a.Completed,
		Origin: string(a.Origin),
		Series: a.InSeries(),
	}
	if a.Duration > 0 {
		item.Duration = a.Duration.Round(time.Minute).String()
	}
	if a.Reminder.Enabled() {
		item.Reminder = fmt.Sprintf("%s %s", strings.ToLower(a.Reminder.Kind.Label()), a.Reminder.TimeOfDay)
	}
	if n := len(a.Subtasks); n > 0 {
		done := 0
		for _, s := range a.Subtasks {
			if s.Completed {
				done++
			}
		}
		item.Subtasks = fmt.Sprintf("%d/%d", done, n)
	}
	return item
}

func Items(cal calendar.Calendar, list []model.Activity) []ItemData {
	out := make([]ItemData, 0, len(list))
	for i, a := range list {
		out = append(out, Item(cal, a, i+1))
	}
	return out
}

func RenderDayPanel(data DayPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s:\n", data.Day))
	b.WriteString("actions: [j/k]move [space]done [t]move-to-today [d]delete [h/l]day\n")
	renderSection(&b, "Activities", data.Items, data.SelectedID)
	if len(data.Overdue) > 0 {
		renderSection(&b, "Overdue", data.Overdue, data.SelectedID)
	}
	return strings.TrimSpace(b.String())
}

func RenderStreak(data StreakData) string {
	line := streakStyle.Render(fmt.Sprintf("streak: %d day%s", data.Count, plural(data.Count)))
	if data.ResetToday {
		line += "\nreset today: nothing was completed yesterday"
	}
	return line
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n%s", strings.Join(data.Bindings, "\n"), data.HelpView)
}

// Line is the plain one-line form used by `streakd list`.
func Line(item ItemData) string {
	check := "[ ]"
	if item.Done {
		check = "[x]"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%2d %s %s %s", item.Index, check, item.Time, item.Name))
	for _, extra := range details(item) {
		b.WriteString("  " + extra)
	}
	b.WriteString("  #" + shortID(item.ID))
	return b.String()
}

func renderSection(b *strings.Builder, title string, items []ItemData, selectedID string) {
	b.WriteString(fmt.Sprintf("\n%s:\n", title))
	if len(items) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, item := range items {
		cursor := " "
		if selectedID == item.ID {
			cursor = ">"
		}
		check := "[ ]"
		name := item.Name
		if item.Done {
			check = "[x]"
			name = doneStyle.Render(name)
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s", cursor, check, item.Time, name))
		if extra := details(item); len(extra) > 0 {
			b.WriteString(" " + strings.Join(extra, " "))
		}
		b.WriteString("\n")
	}
}

func details(item ItemData) []string {
	var out []string
	if item.Duration != "" {
		out = append(out, "("+item.Duration+")")
	}
	if item.Subtasks != "" {
		out = append(out, "subtasks:"+item.Subtasks)
	}
	if item.Series {
		out = append(out, "↻")
	}
	switch model.Origin(item.Origin) {
	case model.OriginCarriedOver:
		out = append(out, "carried")
	case model.OriginMovedFromPast:
		out = append(out, "moved")
	case model.OriginImported:
		out = append(out, "imported")
	}
	if item.Reminder != "" {
		out = append(out, "⏰ "+item.Reminder)
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
