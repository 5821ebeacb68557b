package commands

import (
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add pay rent on:tomorrow", TypeAdd},
		{"done 2", TypeDone},
		{"undo 2", TypeUndo},
		{"move 3f9a", TypeMove},
		{"delete 4 series", TypeDelete},
		{"rm 4", TypeDelete},
		{"show overdue", TypeShow},
		{"ls", TypeShow},
		{"/streak", TypeStreak},
		{"sync", TypeSync},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAddOptions(t *testing.T) {
	cmd, err := Parse("/add Morning run on:monday at:06:45 every:daily for:40m")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	a := cmd.Add
	if a.Name != "Morning run" || a.Day != "monday" || a.Repeat != model.RepeatDaily || a.Duration != 40*time.Minute {
		t.Fatalf("unexpected add args: %+v", a)
	}
	if a.At == nil || *a.At != (calendar.TimeOfDay{Hour: 6, Minute: 45}) {
		t.Fatalf("unexpected time: %v", a.At)
	}
}

func TestParseInvalidArguments(t *testing.T) {
	for _, in := range []string{
		"add on:today",
		"add read at:25:00",
		"add read every:hourly",
		"add read for:soon",
		"done",
		"done 1 2",
		"delete 1 everything",
		"streak now",
		"show a b",
	} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument error, got %v", in, err)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "/"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
			t.Fatalf("parse %q: expected empty input error, got %v", in, err)
		}
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/add write docs")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a AddArgs) (Result, error) {
			called = true
			if a.Name != "write docs" {
				t.Fatalf("unexpected name: %q", a.Name)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteTargetDispatch(t *testing.T) {
	var got []string
	record := func(kind string) func(TargetArgs) (Result, error) {
		return func(a TargetArgs) (Result, error) {
			got = append(got, kind+":"+a.Target)
			return Result{}, nil
		}
	}
	h := Handlers{Done: record("done"), Undo: record("undo"), Move: record("move")}
	for _, in := range []string{"done 1", "undo 2", "move AB12"} {
		cmd, err := Parse(in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", in, err)
		}
		if _, err := Execute(cmd, h); err != nil {
			t.Fatalf("execute %q failed: %v", in, err)
		}
	}
	want := []string{"done:1", "undo:2", "move:ab12"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dispatch order = %v, want %v", got, want)
		}
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	for _, in := range []string{"show today", "move 1", "sync"} {
		cmd, err := Parse(in)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		_, err = Execute(cmd, Handlers{})
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
			t.Fatalf("%q: expected missing handler error, got %v", in, err)
		}
	}
}

func TestResolveDay(t *testing.T) {
	cal := calendar.New(time.UTC, time.Sunday)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC) // Tuesday

	cases := map[string]string{
		"":           "2026-03-10",
		"today":      "2026-03-10",
		"tomorrow":   "2026-03-11",
		"yesterday":  "2026-03-09",
		"tuesday":    "2026-03-10",
		"fri":        "2026-03-13",
		"2026-04-01": "2026-04-01",
	}
	for in, want := range cases {
		got, err := ResolveDay(cal, now, in)
		if err != nil {
			t.Fatalf("resolve %q: %v", in, err)
		}
		if cal.DayKey(got) != want {
			t.Fatalf("resolve %q = %s, want %s", in, cal.DayKey(got), want)
		}
	}
	if _, err := ResolveDay(cal, now, "someday"); err == nil {
		t.Fatal("expected error for unknown day")
	}
}
