package view

import (
	"strings"
	"time"

	"github.com/Sharleen10/todolist/internal/task"
)

const (
	NoDueDate = "No Due Date"
	NoSection = "No Section"
)

type Group struct {
	Title string      `json:"title"`
	Tasks []task.Task `json:"tasks"`
}

type LayoutKind int

const (
	LayoutFlat LayoutKind = iota
	LayoutByDate
	LayoutBySection
)

// Layout picks how a view is grouped on screen.
func Layout(v string) LayoutKind {
	switch {
	case v == Today || v == Upcoming:
		return LayoutByDate
	case strings.HasPrefix(v, ProjectPrefix):
		return LayoutBySection
	default:
		return LayoutFlat
	}
}

// Groups groups tasks according to Layout(v). Flat layouts yield one untitled group.
func Groups(tasks []task.Task, v string, now time.Time) []Group {
	switch Layout(v) {
	case LayoutByDate:
		return GroupByDate(tasks, now)
	case LayoutBySection:
		return GroupBySection(tasks)
	default:
		if len(tasks) == 0 {
			return nil
		}
		return []Group{{Tasks: tasks}}
	}
}

// GroupByDate groups by calendar day of the due date, in first-appearance order.
func GroupByDate(tasks []task.Task, now time.Time) []Group {
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)

	var groups []Group
	index := map[string]int{}
	for _, t := range tasks {
		title := NoDueDate
		if t.DueDate != nil {
			d := startOfDay(t.DueDate.In(now.Location()))
			switch {
			case d.Equal(today):
				title = "Today"
			case d.Equal(tomorrow):
				title = "Tomorrow"
			default:
				title = d.Format("Mon, Jan 2 2006")
			}
		}
		i, ok := index[title]
		if !ok {
			i = len(groups)
			index[title] = i
			groups = append(groups, Group{Title: title})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	return groups
}

// GroupBySection puts unsectioned tasks first, then each section in
// first-appearance order. An empty "No Section" group is omitted.
func GroupBySection(tasks []task.Task) []Group {
	groups := []Group{{Title: NoSection}}
	index := map[string]int{}
	for _, t := range tasks {
		name := t.SectionName()
		if name == "" {
			groups[0].Tasks = append(groups[0].Tasks, t)
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Title: name})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	if len(groups[0].Tasks) == 0 {
		groups = groups[1:]
	}
	return groups
}
