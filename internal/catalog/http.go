package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Sharleen10/todolist/internal/task"
)

// TaskLister is the part of task.Repo the catalog reads names from.
type TaskLister interface {
	List(ctx context.Context, filter task.Filter) ([]task.Task, error)
}

type Handler struct {
	reg    *Registry
	tasks  TaskLister
	logger logrus.FieldLogger
}

func NewHandler(reg *Registry, tasks TaskLister, logger logrus.FieldLogger) *Handler {
	return &Handler{reg: reg, tasks: tasks, logger: logger}
}

type nameRequest struct {
	Name string `json:"name"`
}

// /api/projects
func (h *Handler) Projects(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.reg.Projects, h.reg.CreateProject)
}

// /api/labels
func (h *Handler) Labels(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.reg.Labels, h.reg.CreateLabel)
}

func (h *Handler) serve(
	w http.ResponseWriter,
	r *http.Request,
	list func(context.Context, []task.Task) ([]string, error),
	create func(context.Context, string) (string, error),
) {
	switch r.Method {
	case http.MethodGet:
		ts, err := h.tasks.List(r.Context(), task.Filter{})
		if err != nil {
			h.writeError(w, err)
			return
		}
		names, err := list(r.Context(), ts)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, names)

	case http.MethodPost:
		var in nameRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		name, err := create(r.Context(), in.Name)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"name": name})

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyName):
		writeErr(w, http.StatusBadRequest, "name: is required")
	case errors.Is(err, task.ErrUnavailable):
		writeErr(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.WithError(err).Error("catalog request failed")
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}
