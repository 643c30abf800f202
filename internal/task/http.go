package task

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sharleen10/todolist/internal/clock"
	"github.com/Sharleen10/todolist/internal/telemetry"
)

// ViewFunc narrows and orders a listed page of tasks for ?view= and ?sort=.
type ViewFunc func(tasks []Task, view, sort string, now time.Time) []Task

type Handler struct {
	repo   Repo
	clock  clock.Clock
	logger logrus.FieldLogger
	events telemetry.Recorder
	viewer ViewFunc
}

func NewHandler(repo Repo) *Handler {
	return &Handler{
		repo:   repo,
		clock:  clock.RealClock{},
		logger: discardLogger(),
		events: telemetry.Nop{},
	}
}

func (h *Handler) SetClock(c clock.Clock) {
	h.clock = c
}

func (h *Handler) SetLogger(l logrus.FieldLogger) {
	h.logger = l
}

func (h *Handler) SetRecorder(rec telemetry.Recorder) {
	h.events = rec
}

func (h *Handler) SetViewer(fn ViewFunc) {
	h.viewer = fn
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

// writeError maps the error taxonomy onto status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		writeErr(w, http.StatusNotFound, "Task not found")
	case errors.As(err, &ve):
		writeErr(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrUnavailable):
		h.logger.WithError(err).WithField("path", r.URL.Path).Warn("task storage unavailable")
		writeErr(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("task request failed")
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) record(eventType telemetry.EventType, t Task) {
	err := h.events.RecordEvent(eventType, telemetry.EventMetadata{
		"task_id":  t.ID,
		"project":  t.Project,
		"priority": string(t.Priority),
	})
	if err != nil {
		h.logger.WithError(err).Debug("telemetry event dropped")
	}
}

// parseID accepts only positive base-10 integers without sign or spaces.
func parseID(s string) (int, bool) {
	if s == "" || len(s) > 18 {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// /api/tasks  (collection)
func (h *Handler) TasksRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ts, err := h.repo.List(r.Context(), Filter{})
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		q := r.URL.Query()
		if h.viewer != nil && (q.Get("view") != "" || q.Get("sort") != "") {
			ts = h.viewer(ts, q.Get("view"), q.Get("sort"), h.clock.Now())
		}
		writeJSON(w, http.StatusOK, ts)

	case http.MethodPost:
		var in Input
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		t, err := h.repo.Create(r.Context(), in)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.record(telemetry.EventTaskCreated, t)
		writeJSON(w, http.StatusCreated, t)

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// /api/tasks/{id}
// /api/tasks/{id}/complete
// /api/tasks/{id}/subtasks
// /api/tasks/{id}/calendar.ics
// /api/tasks/filter/{type}/{value}
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tasks/"), "/")
	parts := strings.Split(rest, "/")

	if parts[0] == "filter" {
		if len(parts) != 3 {
			writeErr(w, http.StatusNotFound, "not found")
			return
		}
		h.filterBy(w, r, parts[1], parts[2])
		return
	}

	id, ok := parseID(parts[0])
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}

	if len(parts) == 1 {
		h.item(w, r, id)
		return
	}
	if len(parts) != 2 {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}

	switch parts[1] {
	case "complete":
		h.complete(w, r, id)
	case "subtasks":
		h.addSubtask(w, r, id)
	case "calendar.ics":
		h.calendar(w, r, id)
	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) item(w http.ResponseWriter, r *http.Request, id int) {
	switch r.Method {
	case http.MethodGet:
		t, err := h.repo.Get(r.Context(), id)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)

	case http.MethodPut, http.MethodPatch:
		var p Patch
		if err := decodeJSON(r, &p); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		t, err := h.repo.Update(r.Context(), id, p)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.record(telemetry.EventTaskUpdated, t)
		writeJSON(w, http.StatusOK, t)

	case http.MethodDelete:
		t, err := h.repo.Delete(r.Context(), id)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.record(telemetry.EventTaskDeleted, t)
		writeJSON(w, http.StatusOK, map[string]any{"message": "Task deleted successfully"})

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type completeRequest struct {
	Completed *bool `json:"completed"`
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request, id int) {
	if r.Method != http.MethodPatch && r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body completeRequest
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	completed := true
	if body.Completed != nil {
		completed = *body.Completed
	}

	t, err := h.repo.SetCompleted(r.Context(), id, completed)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if completed {
		h.record(telemetry.EventTaskCompleted, t)
	} else {
		h.record(telemetry.EventTaskReopened, t)
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) addSubtask(w http.ResponseWriter, r *http.Request, id int) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var in SubtaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	t, err := h.repo.AddSubtask(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.record(telemetry.EventSubtaskAdded, t)
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) calendar(w http.ResponseWriter, r *http.Request, id int) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	t, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ics, err := BuildTaskCalendarICS(t, h.clock.Now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"task-"+strconv.Itoa(t.ID)+".ics\"")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ics)
}

func (h *Handler) filterBy(w http.ResponseWriter, r *http.Request, kind, value string) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var f Filter
	switch kind {
	case "project":
		f.Project = value
	case "label":
		f.Label = value
	case "priority":
		p := Priority(value)
		if !p.Valid() {
			writeErr(w, http.StatusBadRequest, "Invalid priority value")
			return
		}
		f.Priority = p
	default:
		writeErr(w, http.StatusBadRequest, "Invalid filter type")
		return
	}

	ts, err := h.repo.List(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}
