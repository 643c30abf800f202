// Package recurrence computes due dates for repeating tasks.
//
// Patterns are "daily", "weekly", "monthly" or "Every N <unit>" where unit
// is prefix-matched against day, week and month (so "days", "Weeks" and
// "month" all work). Month arithmetic clamps to the last day of the target
// month: 2024-01-31 plus one month is 2024-02-29.
package recurrence

import (
	"strconv"
	"strings"
	"time"
)

type Unit string

const (
	Day   Unit = "day"
	Week  Unit = "week"
	Month Unit = "month"
)

// Rule is a parsed pattern: advance by Every units.
type Rule struct {
	Every int
	Unit  Unit
}

// Parse returns the rule for pattern, or false if the pattern is not understood.
func Parse(pattern string) (Rule, bool) {
	p := strings.ToLower(strings.TrimSpace(pattern))
	switch p {
	case "daily":
		return Rule{Every: 1, Unit: Day}, true
	case "weekly":
		return Rule{Every: 1, Unit: Week}, true
	case "monthly":
		return Rule{Every: 1, Unit: Month}, true
	}

	fields := strings.Fields(p)
	if len(fields) != 3 || fields[0] != "every" {
		return Rule{}, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 {
		return Rule{}, false
	}
	switch unit := fields[2]; {
	case strings.HasPrefix(unit, "day"):
		return Rule{Every: n, Unit: Day}, true
	case strings.HasPrefix(unit, "week"):
		return Rule{Every: n, Unit: Week}, true
	case strings.HasPrefix(unit, "month"):
		return Rule{Every: n, Unit: Month}, true
	}
	return Rule{}, false
}

// Next advances t by one step of the rule.
func (r Rule) Next(t time.Time) time.Time {
	switch r.Unit {
	case Day:
		return t.AddDate(0, 0, r.Every)
	case Week:
		return t.AddDate(0, 0, 7*r.Every)
	case Month:
		return AddMonths(t, r.Every)
	default:
		return t
	}
}

// NextDueDate returns the due date following prev under pattern.
// It reports false when prev is nil or the pattern is not understood.
func NextDueDate(prev *time.Time, pattern string) (time.Time, bool) {
	if prev == nil {
		return time.Time{}, false
	}
	rule, ok := Parse(pattern)
	if !ok {
		return time.Time{}, false
	}
	return rule.Next(*prev), true
}

// AddMonths adds n calendar months, clamping the day to the target month's length.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

// RRule renders the rule as an iCalendar RRULE value.
func (r Rule) RRule() string {
	freq := ""
	switch r.Unit {
	case Day:
		freq = "DAILY"
	case Week:
		freq = "WEEKLY"
	case Month:
		freq = "MONTHLY"
	default:
		return ""
	}
	return "FREQ=" + freq + ";INTERVAL=" + strconv.Itoa(r.Every)
}
