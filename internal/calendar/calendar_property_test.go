package calendar

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func genTime(t *rapid.T) time.Time {
	sec := rapid.Int64Range(0, 4102444800).Draw(t, "unix") // 1970..2100
	return time.Unix(sec, 0).UTC()
}

func genCalendar(t *rapid.T) Calendar {
	wd := time.Weekday(rapid.IntRange(0, 6).Draw(t, "firstWeekday"))
	offset := rapid.IntRange(-12, 14).Draw(t, "offsetHours")
	return New(time.FixedZone("test", offset*3600), wd)
}

func TestStartOfDayIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cal := genCalendar(t)
		d := genTime(t)
		once := cal.StartOfDay(d)
		if !cal.StartOfDay(once).Equal(once) {
			t.Fatalf("startOfDay not idempotent for %s", d)
		}
		if !cal.IsSameDay(once, d) {
			t.Fatalf("startOfDay moved %s to another day: %s", d, once)
		}
	})
}

func TestStartOfWeekLandsOnFirstWeekday(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cal := genCalendar(t)
		d := genTime(t)
		start := cal.StartOfWeek(d)
		if start.Weekday() != cal.FirstWeekday() {
			t.Fatalf("week start %s is a %s, want %s", start, start.Weekday(), cal.FirstWeekday())
		}
		if gap := cal.StartOfDay(d).Sub(start); gap < 0 || gap >= 7*24*time.Hour {
			t.Fatalf("week start %s too far from %s", start, d)
		}
	})
}

func TestAddMonthsAlwaysValid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cal := genCalendar(t)
		d := genTime(t)
		n := rapid.IntRange(-36, 36).Draw(t, "months")
		got := cal.AddMonths(d, n)

		local := d.In(cal.Location())
		wantMonth := (int(local.Month())-1+n)%12 + 1
		if wantMonth <= 0 {
			wantMonth += 12
		}
		if int(got.Month()) != wantMonth {
			t.Fatalf("AddMonths(%s, %d) landed in month %d, want %d", d, n, got.Month(), wantMonth)
		}
		if got.Day() > local.Day() {
			t.Fatalf("AddMonths increased the day of month: %s -> %s", local, got)
		}
	})
}
