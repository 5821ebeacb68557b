package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/streakd/internal/app"
	"github.com/sandeepkv93/streakd/internal/reminder"
	"github.com/sandeepkv93/streakd/internal/views"
)

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type ReminderFiredMsg struct {
	Fired reminder.Fired
}

// SyncMsg asks the model to run the start-of-day pass.
type SyncMsg struct{}

// ClockMsg is the minute tick used to notice midnight.
type ClockMsg struct {
	At time.Time
}

const clockInterval = time.Minute

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForReminderCmd(m.Reminders),
		func() tea.Msg { return SyncMsg{} },
		clockCmd(),
	)
}

func clockCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg { return ClockMsg{At: t} })
}

func waitForReminderCmd(ch <-chan reminder.Fired) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderFiredMsg{Fired: f}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == m.Keys.Help {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			return m.handlePaletteKey(typed), nil
		}
		return m.handleKey(typed)
	case spinner.TickMsg:
		if m.spinnerActive {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
	case SyncMsg:
		m.sync()
		return m, nil
	case ClockMsg:
		// The tick only wakes the model; the app clock decides the day.
		cal := m.app.Calendar()
		now := m.app.Now()
		if cal.DayKey(now) != m.Today {
			if m.Today != "" && cal.DayKey(m.Day) == m.Today {
				m.Day = cal.StartOfDay(now)
			}
			m.sync()
		}
		return m, clockCmd()
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		if typed.Err != nil {
			m.fail(typed.Err)
		}
		return m, nil
	case ReminderFiredMsg:
		m.ReminderLog = append(m.ReminderLog, typed.Fired)
		if len(m.ReminderLog) > 20 {
			m.ReminderLog = m.ReminderLog[len(m.ReminderLog)-20:]
		}
		text := fmt.Sprintf("%s reminder: %s", typed.Fired.Kind, typed.Fired.Title)
		m.Status = StatusBar{Text: text, IsError: typed.Fired.Kind == reminder.KindAlarm}
		m.notify("Reminder", typed.Fired.Title, "reminder")
		return m, waitForReminderCmd(m.Reminders)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cal := m.app.Calendar()
	switch msg.String() {
	case "/":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.Focus()
		m.commandInput.SetValue("")
		m.ok("command palette active")
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		if m.HelpVisible {
			m.ok("help shown")
		} else {
			m.ok("help hidden")
		}
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case m.Keys.Down, "down":
		if m.Cursor < len(m.Agenda.All())-1 {
			m.Cursor++
		}
	case m.Keys.Up, "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case m.Keys.PrevDay, "left":
		m.Day = cal.AddDays(m.Day, -1)
		m.Cursor = 0
		m.reload()
	case m.Keys.NextDay, "right":
		m.Day = cal.AddDays(m.Day, 1)
		m.Cursor = 0
		m.reload()
	case m.Keys.Today:
		m.Day = cal.StartOfDay(m.app.Now())
		m.Cursor = 0
		m.reload()
	case m.Keys.Sync:
		if !m.spinnerActive {
			m.spinnerActive = true
			m.ok("sync started")
			return m, tea.Batch(m.syncSpinner.Tick, func() tea.Msg { return SyncMsg{} })
		}
	case m.Keys.Toggle:
		m.toggleSelected()
	case m.Keys.Move:
		m.withSelected("move")
	case m.Keys.Delete:
		m.withSelected("delete")
	case m.Keys.Series:
		m.withSelected("delete", "series")
	}
	return m, nil
}

func (m *Model) toggleSelected() {
	act, ok := m.Selected()
	if !ok {
		return
	}
	if act.Completed {
		m.withSelected("undo")
		return
	}
	m.withSelected("done")
}

// withSelected runs a palette command against the row under the cursor.
func (m *Model) withSelected(verb string, extra ...string) {
	act, ok := m.Selected()
	if !ok {
		m.ok("nothing selected")
		return
	}
	line := strings.Join(append([]string{verb, act.ID}, extra...), " ")
	m.run(line)
}

func (m *Model) run(line string) {
	res, err := m.app.Run(m.ctx, line, func() app.Agenda { return m.Agenda }, func(g app.Agenda) {
		m.Day = g.Day
		m.Cursor = 0
	})
	if err != nil {
		m.fail(err)
	} else {
		m.ok(res.Message)
	}
	m.reload()
}

func (m *Model) sync() {
	m.spinnerActive = false
	previous := m.Today
	report, err := m.app.Engine.BeginDay(m.ctx, m.app.Now())
	m.Today = report.CarryOver.Day
	if err != nil {
		m.fail(err)
	} else {
		m.ok(app.SyncMessage(report))
	}
	if m.gateway != nil && m.Today != previous {
		if _, err := m.app.Rehydrate(m.ctx, m.gateway, app.RehydrateWindow); err != nil {
			m.fail(fmt.Errorf("reload reminders: %w", err))
		}
	}
	m.reload()
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	cal := m.app.Calendar()
	selected := ""
	if act, ok := m.Selected(); ok {
		selected = act.ID
	}
	body := views.RenderDayPanel(views.DayPanelData{
		Day:        cal.DayKey(m.Day) + " " + m.Day.Weekday().String(),
		Items:      views.Items(cal, m.Agenda.Items),
		Overdue:    views.Items(cal, m.Agenda.Overdue),
		SelectedID: selected,
	})

	side := views.RenderStreak(views.StreakData{Count: m.Streak.Count, ResetToday: m.Streak.ResetToday})
	if palette := views.RenderCommandPalette(m.Palette.Active, m.commandInput.Value()); palette != "" {
		side += "\n\n" + palette
	}
	if m.HelpVisible {
		side += "\n\n" + m.renderHelpView()
	}

	var notes []string
	if n := len(m.ReminderLog); n > 0 {
		last := m.ReminderLog[n-1]
		notes = append(notes, fmt.Sprintf("last reminder: %s @ %s", last.Title, last.FiredAt.In(cal.Location()).Format("15:04")))
	}
	if m.spinnerActive {
		notes = append(notes, "sync: "+m.syncSpinner.View()+" running")
	}
	if n := len(m.Notifications); n > 0 {
		last := m.Notifications[n-1]
		notes = append(notes, views.RenderNotification(last.Level, last.Title+": "+last.Body))
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("streakd | %s | streak %d", cal.DayKey(m.Day), m.Streak.Count),
		Body:         body,
		Side:         side,
		StatusLine:   status,
		Notification: strings.Join(notes, "\n"),
		Footer: fmt.Sprintf("keys: %s/%s move | space done | %s today | %s/%s day | / cmd | %s help | %s quit",
			m.Keys.Down, m.Keys.Up, m.Keys.Move, m.Keys.PrevDay, m.Keys.NextDay, m.Keys.Help, m.Keys.Quit),
	})
}
