// Package commands parses the one-line commands accepted by the TUI command
// bar and `streakd exec`, and dispatches them to handlers.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeDone   Type = "done"
	TypeUndo   Type = "undo"
	TypeMove   Type = "move"
	TypeDelete Type = "delete"
	TypeShow   Type = "show"
	TypeStreak Type = "streak"
	TypeSync   Type = "sync"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// AddArgs come from `add NAME [on:DAY] [at:HH:MM] [every:RULE] [for:DURATION]`.
// Day stays raw until ResolveDay places it on a calendar.
type AddArgs struct {
	Name     string
	Day      string
	At       *calendar.TimeOfDay
	Repeat   model.RepeatOption
	Duration time.Duration
}

// TargetArgs name an activity by list position or id prefix.
type TargetArgs struct {
	Target string
}

type DeleteArgs struct {
	Target string
	Series bool
}

type ShowArgs struct {
	Subject string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Target *TargetArgs
	Delete *DeleteArgs
	Show   *ShowArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone, TypeUndo, TypeMove:
		return parseTarget(input, Type(head), args)
	case TypeDelete, "rm":
		return parseDelete(input, args)
	case TypeShow, "ls":
		return parseShow(input, args)
	case TypeStreak, TypeSync:
		if len(args) > 0 {
			return Command{}, invalid("%s takes no arguments", head)
		}
		return Command{Type: Type(head), Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	out := AddArgs{Repeat: model.RepeatNone}
	var name []string
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, ":")
		switch {
		case ok && strings.EqualFold(key, "on"):
			out.Day = strings.ToLower(value)
		case ok && strings.EqualFold(key, "at"):
			tod, err := calendar.ParseTimeOfDay(value)
			if err != nil {
				return Command{}, invalid("add: %v", err)
			}
			out.At = &tod
		case ok && strings.EqualFold(key, "every"):
			rule, err := model.ParseRepeatOption(value)
			if err != nil {
				return Command{}, invalid("add: %v", err)
			}
			out.Repeat = rule
		case ok && strings.EqualFold(key, "for"):
			d, err := time.ParseDuration(value)
			if err != nil || d < 0 {
				return Command{}, invalid("add: bad duration %q", value)
			}
			out.Duration = d
		default:
			name = append(name, arg)
		}
	}
	out.Name = strings.TrimSpace(strings.Join(name, " "))
	if out.Name == "" {
		return Command{}, invalid("add requires a name")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("%s requires exactly one target", typ)
	}
	return Command{Type: typ, Raw: raw, Target: &TargetArgs{Target: strings.ToLower(args[0])}}, nil
}

func parseDelete(raw string, args []string) (Command, error) {
	if len(args) == 0 || len(args) > 2 {
		return Command{}, invalid("delete requires a target and an optional 'series'")
	}
	out := DeleteArgs{Target: strings.ToLower(args[0])}
	if len(args) == 2 {
		if !strings.EqualFold(args[1], "series") {
			return Command{}, invalid("delete: unexpected %q", args[1])
		}
		out.Series = true
	}
	return Command{Type: TypeDelete, Raw: raw, Delete: &out}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	subject := "today"
	if len(args) > 1 {
		return Command{}, invalid("show takes at most one subject")
	}
	if len(args) == 1 {
		subject = strings.ToLower(args[0])
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: subject}}, nil
}

// ResolveDay turns "", "today", "tomorrow", "yesterday", a weekday name or
// YYYY-MM-DD into the start of that day. Weekday names mean the next such
// day, today included.
func ResolveDay(cal calendar.Calendar, now time.Time, raw string) (time.Time, error) {
	today := cal.StartOfDay(now)
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return cal.AddDays(today, 1), nil
	case "yesterday":
		return cal.AddDays(today, -1), nil
	}
	if wd, err := calendar.ParseWeekday(raw); err == nil {
		return cal.NextWeekdayOnOrAfter(today, wd)
	}
	day, err := cal.ParseDayKey(raw)
	if err != nil {
		return time.Time{}, invalid("unknown day %q", raw)
	}
	return day, nil
}
