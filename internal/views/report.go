package views

import (
	"fmt"
	"strings"
)

// DayMarkdown is the markdown day report behind `streakd list --pretty`.
func DayMarkdown(day string, items []ItemData, streak StreakData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", day))
	b.WriteString(fmt.Sprintf("**Streak:** %d day%s", streak.Count, plural(streak.Count)))
	if streak.ResetToday {
		b.WriteString(" _(reset today)_")
	}
	b.WriteString("\n\n")

	if len(items) == 0 {
		b.WriteString("_Nothing scheduled._\n")
		return b.String()
	}

	done := 0
	for _, item := range items {
		if item.Done {
			done++
		}
	}
	b.WriteString(fmt.Sprintf("%d of %d done\n\n", done, len(items)))
	b.WriteString("| # | | Time | Activity | Notes |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, item := range items {
		check := " "
		name := escapeCell(item.Name)
		if item.Done {
			check = "✓"
			name = "~~" + name + "~~"
		}
		b.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			item.Index, check, item.Time, name, escapeCell(strings.Join(details(item), " "))))
	}
	return b.String()
}

func RenderDay(day string, items []ItemData, streak StreakData, width int) string {
	return RenderMarkdown(DayMarkdown(day, items, streak), width)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
