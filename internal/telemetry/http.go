package telemetry

import (
	"encoding/json"
	"io"
	"net/http"
	"time"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Stats serves GET /api/stats. The optional since query accepts YYYY-MM-DD
// or RFC 3339; the default covers every recorded event.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var since time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t, err = time.ParseInLocation("2006-01-02", s, time.Local)
		}
		if err != nil {
			writeErr(w, http.StatusBadRequest, "since: must be YYYY-MM-DD or RFC 3339")
			return
		}
		since = t
	}

	events, err := h.repo.GetEvents(since, nil)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CalculateStats(events, since))
}

// clientEvents are the event types only the client can observe.
var clientEvents = map[EventType]bool{
	EventTaskRecurred:  true,
	EventReminderFired: true,
}

// EventReport is the body of POST /api/events.
type EventReport struct {
	Type     EventType     `json:"type"`
	Metadata EventMetadata `json:"metadata"`
}

// Events serves POST /api/events, where clients report recurrences and
// fired reminders. Lifecycle events are recorded by the task handler and
// are rejected here.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var rep EventReport
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&rep); err != nil {
		writeErr(w, http.StatusBadRequest, "body: invalid JSON")
		return
	}
	if !clientEvents[rep.Type] {
		writeErr(w, http.StatusBadRequest, "type: must be task_recurred or reminder_fired")
		return
	}
	if err := h.repo.RecordEvent(rep.Type, rep.Metadata); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}
