// Package view filters, sorts and groups task lists for display.
// Every function returns a new slice and leaves its input untouched.
package view

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Sharleen10/todolist/internal/task"
)

const (
	All       = "all"
	Today     = "today"
	Upcoming  = "upcoming"
	Important = "important"
	Completed = "completed"

	ProjectPrefix = "project:"
	LabelPrefix   = "label:"
)

const (
	SortDueDate   = "dueDate"
	SortPriority  = "priority"
	SortCreatedAt = "createdAt"
	SortTitle     = "title"
)

// Filter returns the tasks visible in the named view, evaluated against now.
// Calendar days are taken in now's location. Unknown views return every task.
func Filter(tasks []task.Task, v string, now time.Time) []task.Task {
	today := startOfDay(now)
	weekOut := today.AddDate(0, 0, 7)

	var keep func(t task.Task) bool
	switch {
	case v == Today:
		keep = func(t task.Task) bool {
			return t.DueDate != nil && startOfDay(t.DueDate.In(now.Location())).Equal(today)
		}
	case v == Upcoming:
		keep = func(t task.Task) bool {
			if t.DueDate == nil {
				return false
			}
			d := startOfDay(t.DueDate.In(now.Location()))
			return !d.Before(today) && d.Before(weekOut)
		}
	case v == Important:
		keep = func(t task.Task) bool {
			return t.Priority == task.PriorityHigh || t.Priority == task.PriorityUrgent
		}
	case v == Completed:
		keep = func(t task.Task) bool { return t.Completed }
	case strings.HasPrefix(v, ProjectPrefix):
		name := strings.TrimPrefix(v, ProjectPrefix)
		keep = func(t task.Task) bool { return strings.EqualFold(t.Project, name) }
	case strings.HasPrefix(v, LabelPrefix):
		name := strings.TrimPrefix(v, LabelPrefix)
		keep = func(t task.Task) bool { return t.HasLabel(name) }
	default:
		return slices.Clone(tasks)
	}

	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// Sort returns a stably sorted copy. Unknown keys keep the input order.
func Sort(tasks []task.Task, key string) []task.Task {
	out := slices.Clone(tasks)

	switch key {
	case SortDueDate:
		slices.SortStableFunc(out, func(a, b task.Task) int {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			default:
				return a.DueDate.Compare(*b.DueDate)
			}
		})
	case SortPriority:
		slices.SortStableFunc(out, func(a, b task.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		})
	case SortCreatedAt:
		slices.SortStableFunc(out, func(a, b task.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case SortTitle:
		col := collate.New(language.Und, collate.IgnoreCase)
		slices.SortStableFunc(out, func(a, b task.Task) int {
			return col.CompareString(a.Title, b.Title)
		})
	}
	return out
}

// Apply filters and then sorts, the way the task list is rendered.
func Apply(tasks []task.Task, v, key string, now time.Time) []task.Task {
	return Sort(Filter(tasks, v, now), key)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
