package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Sharleen10/todolist/internal/task"
	"github.com/Sharleen10/todolist/internal/view"
)

func renderGroups(w io.Writer, groups []view.Group, now time.Time) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	for i, g := range groups {
		if g.Title != "" {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s (%d)\n", g.Title, len(g.Tasks))
		}
		for _, t := range g.Tasks {
			fmt.Fprintln(w, taskLine(t, now))
		}
	}
}

// taskLine renders "[x] #3 Title  !high  @project  #label  due ...".
func taskLine(t task.Task, now time.Time) string {
	var b strings.Builder
	if t.Completed {
		b.WriteString("[x] ")
	} else {
		b.WriteString("[ ] ")
	}
	fmt.Fprintf(&b, "#%d %s", t.ID, t.Title)

	if t.Priority != task.PriorityMedium {
		b.WriteString("  !" + string(t.Priority))
	}
	if t.Project != task.DefaultProject {
		b.WriteString("  @" + t.Project)
	}
	for _, l := range t.Labels {
		b.WriteString("  #" + l)
	}
	if t.DueDate != nil {
		b.WriteString("  due " + formatDue(*t.DueDate, now))
		if !t.Completed && t.DueDate.Before(now) {
			b.WriteString(" (overdue)")
		}
	}
	if t.IsRecurring {
		b.WriteString("  ↻ " + t.Pattern())
	}
	if n := len(t.Subtasks); n > 0 {
		done := 0
		for _, st := range t.Subtasks {
			if st.Completed {
				done++
			}
		}
		fmt.Fprintf(&b, "  [%d/%d]", done, n)
	}
	return b.String()
}

func renderDetail(w io.Writer, t task.Task, now time.Time) {
	fmt.Fprintln(w, taskLine(t, now))
	if t.Description != "" {
		fmt.Fprintln(w, "    "+t.Description)
	}
	if name := t.SectionName(); name != "" {
		fmt.Fprintln(w, "    section: "+name)
	}
	for _, st := range t.Subtasks {
		mark := " "
		if st.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "    [%s] %s  (%s)\n", mark, st.Title, st.ID)
	}
	for _, r := range t.Reminders {
		fmt.Fprintf(w, "    reminder: %d %s before (%s)\n", r.Value, r.Unit, r.Method)
	}
}

// formatDue shows the time of day only when it is not midnight.
func formatDue(due, now time.Time) string {
	due = due.In(now.Location())
	layout := "Mon Jan 2"
	if due.Year() != now.Year() {
		layout += " 2006"
	}
	if due.Hour() != 0 || due.Minute() != 0 {
		layout += " 15:04"
	}
	return due.Format(layout)
}

// parseReminder reads offsets like "30m", "2h" or "1d".
func parseReminder(s string) (task.ReminderInput, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return task.ReminderInput{}, fmt.Errorf("invalid reminder %q", s)
	}
	var unit task.ReminderUnit
	switch s[len(s)-1] {
	case 'm':
		unit = task.UnitMinutes
	case 'h':
		unit = task.UnitHours
	case 'd':
		unit = task.UnitDays
	default:
		return task.ReminderInput{}, fmt.Errorf("invalid reminder %q: unit must be m, h or d", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return task.ReminderInput{}, fmt.Errorf("invalid reminder %q", s)
	}
	return task.ReminderInput{Value: n, Unit: unit}, nil
}
