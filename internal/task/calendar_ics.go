package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sharleen10/todolist/internal/recurrence"
)

const icsStampLayout = "20060102T150405Z"

// BuildTaskCalendarICS builds a single-event iCalendar document for a task.
// A due date is required so the exported event has a concrete start.
func BuildTaskCalendarICS(t Task, now time.Time) (string, error) {
	if t.DueDate == nil {
		return "", invalid("dueDate", "is required for calendar export")
	}
	start := t.DueDate.UTC()
	end := start.Add(30 * time.Minute)

	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = "Task"
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//todolist//Task Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + escapeICSText(fmt.Sprintf("task-%d@todolist", t.ID)),
		"DTSTAMP:" + now.UTC().Format(icsStampLayout),
		"SUMMARY:" + escapeICSText(title),
		"DTSTART:" + start.Format(icsStampLayout),
		"DTEND:" + end.Format(icsStampLayout),
		"PRIORITY:" + icsPriority(t.Priority),
	}
	if desc := strings.TrimSpace(t.Description); desc != "" {
		lines = append(lines, "DESCRIPTION:"+escapeICSText(desc))
	}
	if len(t.Labels) > 0 {
		cats := make([]string, 0, len(t.Labels))
		for _, l := range t.Labels {
			cats = append(cats, escapeICSText(l))
		}
		lines = append(lines, "CATEGORIES:"+strings.Join(cats, ","))
	}
	if t.Completed {
		lines = append(lines, "STATUS:CANCELLED")
	}
	if t.IsRecurring {
		if rule, ok := recurrence.Parse(t.Pattern()); ok {
			lines = append(lines, "RRULE:"+rule.RRule())
		}
	}
	for _, r := range t.Reminders {
		lines = append(lines,
			"BEGIN:VALARM",
			"ACTION:DISPLAY",
			"DESCRIPTION:"+escapeICSText(title),
			"TRIGGER:"+icsTrigger(r),
			"END:VALARM",
		)
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR", "")

	return strings.Join(lines, "\r\n"), nil
}

// icsPriority maps to RFC 5545 priorities (1 highest, 9 lowest).
func icsPriority(p Priority) string {
	switch p {
	case PriorityUrgent:
		return "1"
	case PriorityHigh:
		return "3"
	case PriorityLow:
		return "9"
	default:
		return "5"
	}
}

func icsTrigger(r Reminder) string {
	switch r.Unit {
	case UnitDays:
		return fmt.Sprintf("-P%dD", r.Value)
	case UnitHours:
		return fmt.Sprintf("-PT%dH", r.Value)
	default:
		return fmt.Sprintf("-PT%dM", r.Value)
	}
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
