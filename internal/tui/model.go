// Package tui is the interactive day view: a bubbletea program over the
// engine, with a slash-command palette and reminder notifications.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sandeepkv93/streakd/internal/app"
	"github.com/sandeepkv93/streakd/internal/engine"
	"github.com/sandeepkv93/streakd/internal/model"
	"github.com/sandeepkv93/streakd/internal/reminder"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Up      string
	Down    string
	Toggle  string
	Move    string
	Delete  string
	Series  string
	PrevDay string
	NextDay string
	Today   string
	Sync    string
	Help    string
	Quit    string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type Model struct {
	app    *app.App
	ctx    context.Context
	Day    time.Time
	Agenda app.Agenda
	Cursor int
	Streak engine.StreakState
	// Today is the day key the model last synced, used to detect midnight.
	Today string

	Reminders      <-chan reminder.Fired
	gateway        reminder.Gateway
	ReminderLog    []reminder.Fired
	Notifications  []Notification
	DesktopEnabled bool
	notifier       DesktopNotifier

	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error

	commandInput  textinput.Model
	helpModel     help.Model
	syncSpinner   spinner.Model
	spinnerActive bool
}

type Option func(*Model)

// WithReminders makes the model surface reminders fired on ch.
func WithReminders(ch <-chan reminder.Fired) Option {
	return func(m *Model) { m.Reminders = ch }
}

// WithReminderGateway reloads stored reminders into gw on the first sync and
// on every day change.
func WithReminderGateway(gw reminder.Gateway) Option {
	return func(m *Model) { m.gateway = gw }
}

func WithDesktopNotifier(n DesktopNotifier) Option {
	return func(m *Model) {
		if n != nil {
			m.notifier = n
			m.DesktopEnabled = true
		}
	}
}

func NewModel(ctx context.Context, a *app.App, opts ...Option) Model {
	now := a.Now()
	m := Model{
		app:      a,
		ctx:      ctx,
		Day:      a.Calendar().StartOfDay(now),
		notifier: NoopDesktopNotifier{},
		Keys: GlobalKeyMap{
			Up:      "k",
			Down:    "j",
			Toggle:  " ",
			Move:    "t",
			Delete:  "d",
			Series:  "D",
			PrevDay: "h",
			NextDay: "l",
			Today:   ".",
			Sync:    "S",
			Help:    "?",
			Quit:    "q",
		},
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48
	m.helpModel = help.New()
	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.reload()
	return m
}

func (m Model) Selected() (model.Activity, bool) {
	all := m.Agenda.All()
	if m.Cursor < 0 || m.Cursor >= len(all) {
		return model.Activity{}, false
	}
	return all[m.Cursor], true
}

// reload re-reads the visible day and the streak.
func (m *Model) reload() {
	g, err := m.app.Agenda(m.ctx, m.Day)
	if err != nil {
		m.fail(err)
		return
	}
	m.Agenda = g
	if n := len(g.All()); m.Cursor >= n {
		m.Cursor = max(n-1, 0)
	}
	st, err := m.app.Engine.Streak(m.ctx)
	if err != nil {
		m.fail(err)
		return
	}
	m.Streak = st
}

func (m *Model) fail(err error) {
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	m.notify("Error", err.Error(), "error")
}

func (m *Model) ok(text string) {
	m.Status = StatusBar{Text: text}
}

func (m *Model) notify(title, body, level string) {
	n := Notification{Title: title, Body: body, Level: level, At: m.app.Now()}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > 20 {
		m.Notifications = m.Notifications[len(m.Notifications)-20:]
	}
	if m.DesktopEnabled && m.notifier != nil && level != "info" {
		if err := m.notifier.Send(n); err != nil {
			m.app.Log.Debug("desktop notification failed", "err", err)
		}
	}
}
