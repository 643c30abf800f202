package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sharleen10/todolist/internal/catalog"
	"github.com/Sharleen10/todolist/internal/clock"
	"github.com/Sharleen10/todolist/internal/logging"
	"github.com/Sharleen10/todolist/internal/task"
	"github.com/Sharleen10/todolist/internal/view"
)

func TestIndex_RendersGroupedView(t *testing.T) {
	fc := clock.NewFakeClock(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	repo := task.NewMemoryRepo(task.WithClock(fc))
	ctx := context.Background()

	due := "2024-03-10T17:00:00Z"
	_, err := repo.Create(ctx, task.Input{Title: "Water <plants>", DueDate: &due, Labels: []string{"home"}})
	require.NoError(t, err)
	_, err = repo.Create(ctx, task.Input{Title: "Someday", Project: "Garden"})
	require.NoError(t, err)

	h := NewHandler(repo, catalog.NewRegistry(catalog.NewMemoryStore()), fc, logging.Discard())

	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/?view=today", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "<h3>Today</h3>")
	assert.Contains(t, body, "Water &lt;plants&gt;")
	assert.NotContains(t, body, "Someday</span>")
	assert.Contains(t, body, "Garden")
	assert.Contains(t, body, `class="label">home`)
}

func TestIndex_UnknownPath(t *testing.T) {
	h := NewHandler(task.NewMemoryRepo(), catalog.NewRegistry(catalog.NewMemoryStore()), clock.RealClock{}, logging.Discard())

	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No tasks here.")
}

func TestTaskListPage_EscapesAndMarksState(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	pattern := "daily"
	d := PageData{
		View:     "project:" + `x"><script>`,
		Sort:     "title",
		Projects: []string{`x"><script>`},
		Now:      now,
		Groups: []view.Group{{Tasks: []task.Task{{
			ID:               7,
			Title:            "Pay <rent>",
			DueDate:          &past,
			Priority:         task.PriorityUrgent,
			Completed:        true,
			IsRecurring:      true,
			RecurringPattern: &pattern,
			Subtasks:         []task.Subtask{{ID: "a", Completed: true}, {ID: "b"}},
		}, {
			ID:       8,
			Title:    "Late",
			DueDate:  &past,
			Priority: task.PriorityLow,
		}}}},
	}

	var sb strings.Builder
	require.NoError(t, TaskListPage(d).Render(context.Background(), &sb))
	body := sb.String()

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, `x&#34;&gt;&lt;script&gt;</a>`)
	assert.Contains(t, body, `data-active>x&#34;`)
	assert.Contains(t, body, `<option value="title" selected>`)
	assert.Contains(t, body, `<li class="task" data-id="7" data-priority="urgent" data-completed>`)
	assert.Contains(t, body, "Pay &lt;rent&gt;")
	assert.Contains(t, body, `<span class="recurring">daily</span>`)
	assert.Contains(t, body, `<span class="subtasks">1/2</span>`)
	// Completed tasks are never shown as overdue.
	assert.Equal(t, 1, strings.Count(body, "data-overdue"))
	assert.Contains(t, body, `<li class="task" data-id="8" data-priority="low">`)
}
