// Package web serves the server-rendered task list.
package web

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/sirupsen/logrus"

	"github.com/Sharleen10/todolist/internal/catalog"
	"github.com/Sharleen10/todolist/internal/clock"
	"github.com/Sharleen10/todolist/internal/task"
	"github.com/Sharleen10/todolist/internal/view"
)

type Handler struct {
	repo   task.Repo
	reg    *catalog.Registry
	clock  clock.Clock
	logger logrus.FieldLogger
}

func NewHandler(repo task.Repo, reg *catalog.Registry, c clock.Clock, logger logrus.FieldLogger) *Handler {
	return &Handler{repo: repo, reg: reg, clock: c, logger: logger}
}

// Index serves GET / with optional ?view= and ?sort=.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	tasks, err := h.repo.List(ctx, task.Filter{})
	if err != nil {
		h.logger.WithError(err).Error("list tasks for index")
		http.Error(w, "task storage unavailable", http.StatusServiceUnavailable)
		return
	}
	projects, err := h.reg.Projects(ctx, tasks)
	if err != nil {
		h.logger.WithError(err).Warn("list projects for index")
	}
	labels, err := h.reg.Labels(ctx, tasks)
	if err != nil {
		h.logger.WithError(err).Warn("list labels for index")
	}

	now := h.clock.Now()
	q := r.URL.Query()
	v := q.Get("view")
	if v == "" {
		v = view.All
	}
	sortKey := q.Get("sort")
	if sortKey == "" {
		sortKey = view.SortDueDate
	}
	visible := view.Apply(tasks, v, sortKey, now)

	templ.Handler(TaskListPage(PageData{
		View:     v,
		Sort:     sortKey,
		Groups:   view.Groups(visible, v, now),
		Projects: projects,
		Labels:   labels,
		Now:      now,
	})).ServeHTTP(w, r)
}
