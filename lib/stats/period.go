package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/qmx/lib/store"
)

// PeriodKind selects the range of a TimePeriod
type PeriodKind uint8

const (
	Today PeriodKind = iota
	ThisWeek
	ThisMonth
	ThisYear
	Custom
	AllTime
)

// TimePeriod is a range of creation times. Preset periods are resolved
// against a reference time; Custom uses Start and End (both inclusive).
type TimePeriod struct {
	Kind  PeriodKind
	Start time.Time
	End   time.Time
}

// CustomPeriod returns the period [start, end]
func CustomPeriod(start, end time.Time) TimePeriod {
	return TimePeriod{Kind: Custom, Start: start, End: end}
}

// ParsePeriod parses "today", "week", "month", "year" or "all"
func ParsePeriod(s string) (TimePeriod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today", "day":
		return TimePeriod{Kind: Today}, nil
	case "week", "this-week":
		return TimePeriod{Kind: ThisWeek}, nil
	case "month", "this-month":
		return TimePeriod{Kind: ThisMonth}, nil
	case "year", "this-year":
		return TimePeriod{Kind: ThisYear}, nil
	case "all", "":
		return TimePeriod{Kind: AllTime}, nil
	default:
		return TimePeriod{}, store.NewError(store.RetCValidation, fmt.Sprintf("unknown period %q", s))
	}
}

// Bounds resolves the period against now. The returned range is half-open,
// [start, end). AllTime returns zero times.
func (p TimePeriod) Bounds(now time.Time) (start, end time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch p.Kind {
	case Today:
		return midnight, midnight.AddDate(0, 0, 1)
	case ThisWeek:
		// weeks start on Monday
		offset := (int(now.Weekday()) + 6) % 7
		start = midnight.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case ThisMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	case ThisYear:
		start = time.Date(y, 1, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0)
	case Custom:
		return p.Start, p.End.Add(time.Nanosecond)
	default:
		return time.Time{}, time.Time{}
	}
}

// Contains reports whether t lies within the period resolved against now
func (p TimePeriod) Contains(t, now time.Time) bool {
	if p.Kind == AllTime {
		return true
	}
	start, end := p.Bounds(now)
	return !t.Before(start) && t.Before(end)
}

func (p TimePeriod) String() string {
	switch p.Kind {
	case Today:
		return "today"
	case ThisWeek:
		return "this week"
	case ThisMonth:
		return "this month"
	case ThisYear:
		return "this year"
	case Custom:
		return p.Start.Format(time.DateOnly) + " - " + p.End.Format(time.DateOnly)
	default:
		return "all time"
	}
}
