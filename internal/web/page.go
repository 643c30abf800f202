package web

import (
	"fmt"
	"net/url"
	"time"

	"github.com/a-h/templ"

	"github.com/Sharleen10/todolist/internal/task"
	"github.com/Sharleen10/todolist/internal/view"
)

type PageData struct {
	View     string
	Sort     string
	Groups   []view.Group
	Projects []string
	Labels   []string
	Now      time.Time
}

var navViews = []struct{ key, label string }{
	{view.All, "All tasks"},
	{view.Today, "Today"},
	{view.Upcoming, "Upcoming"},
	{view.Important, "Important"},
	{view.Completed, "Completed"},
}

var sortKeys = []string{view.SortDueDate, view.SortPriority, view.SortCreatedAt, view.SortTitle}

func navURL(key, sort string) templ.SafeURL {
	q := url.Values{"view": {key}}
	if sort != "" {
		q.Set("sort", sort)
	}
	return templ.SafeURL("/?" + q.Encode())
}

func overdue(t task.Task, now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

func subtaskProgress(t task.Task) string {
	done := 0
	for _, st := range t.Subtasks {
		if st.Completed {
			done++
		}
	}
	return fmt.Sprintf("%d/%d", done, len(t.Subtasks))
}
