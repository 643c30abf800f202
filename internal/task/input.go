package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newSubtaskID is swapped in tests for deterministic ids.
var newSubtaskID = uuid.NewString

// Input is the create payload. Omitted fields take their documented defaults.
type Input struct {
	Title            string          `json:"title" validate:"required"`
	Description      string          `json:"description"`
	DueDate          *string         `json:"dueDate"`
	Completed        bool            `json:"completed"`
	Priority         Priority        `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Project          string          `json:"project"`
	Section          *string         `json:"section"`
	Labels           []string        `json:"labels"`
	Subtasks         []SubtaskInput  `json:"subtasks" validate:"dive"`
	IsRecurring      bool            `json:"isRecurring"`
	RecurringPattern *string         `json:"recurringPattern"`
	Reminders        []ReminderInput `json:"reminders" validate:"dive"`
}

type SubtaskInput struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title" validate:"required"`
	Completed bool   `json:"completed"`
}

// ReminderInput accepts both the offset shape {value, unit} and the
// absolute shape {date, method}. Absolute reminders are converted to an
// offset in minutes against the task's due date.
type ReminderInput struct {
	Value  int            `json:"value,omitempty" validate:"omitempty,gt=0,lte=1000000"`
	Unit   ReminderUnit   `json:"unit,omitempty" validate:"omitempty,oneof=minutes hours days"`
	Method ReminderMethod `json:"method,omitempty" validate:"omitempty,oneof=notification email"`
	Date   *string        `json:"date,omitempty"`
}

// ReminderInputFrom converts a stored reminder back to input form.
func ReminderInputFrom(r Reminder) ReminderInput {
	return ReminderInput{Value: r.Value, Unit: r.Unit, Method: r.Method}
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDueDate accepts RFC 3339, local date-time and date-only forms.
// Forms without an offset are interpreted in loc.
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatDueDate is the inverse of ParseDueDate for submitting dates.
func FormatDueDate(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseDuePtr(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := ParseDueDate(*s, time.Local)
	if err != nil {
		return nil, invalid("dueDate", "must be an RFC 3339 timestamp or YYYY-MM-DD")
	}
	return &d, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (in Input) build(now time.Time) (Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateStruct(in); err != nil {
		return Task{}, err
	}

	due, err := parseDuePtr(in.DueDate)
	if err != nil {
		return Task{}, err
	}

	t := Task{
		Title:            in.Title,
		Description:      in.Description,
		DueDate:          due,
		CreatedAt:        now,
		UpdatedAt:        now,
		Completed:        in.Completed,
		Priority:         in.Priority,
		Project:          strings.TrimSpace(in.Project),
		Section:          trimmedOrNil(in.Section),
		Labels:           dedupeLabels(in.Labels),
		IsRecurring:      in.IsRecurring,
		RecurringPattern: trimmedOrNil(in.RecurringPattern),
	}

	t.Subtasks, err = buildSubtasks(in.Subtasks, nil, now)
	if err != nil {
		return Task{}, err
	}
	t.Reminders, err = buildReminders(in.Reminders, t.DueDate)
	if err != nil {
		return Task{}, err
	}

	normalizeTask(&t)
	return t, nil
}

// buildSubtasks keeps ids and createdAt of subtasks already on the task;
// anything else gets a fresh id.
func buildSubtasks(in []SubtaskInput, existing []Subtask, now time.Time) ([]Subtask, error) {
	out := make([]Subtask, 0, len(in))
	for i, s := range in {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			return nil, invalid(fmt.Sprintf("subtasks[%d].title", i), "is required")
		}
		st := Subtask{Title: title, Completed: s.Completed, CreatedAt: now}
		for _, cur := range existing {
			if s.ID != "" && cur.ID == s.ID {
				st.ID = cur.ID
				st.CreatedAt = cur.CreatedAt
				break
			}
		}
		if st.ID == "" {
			st.ID = newSubtaskID()
		}
		out = append(out, st)
	}
	return out, nil
}

func buildReminders(in []ReminderInput, due *time.Time) ([]Reminder, error) {
	out := make([]Reminder, 0, len(in))
	for i, ri := range in {
		r, err := ri.toReminder(due)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Field = fmt.Sprintf("reminders[%d].%s", i, ve.Field)
			}
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (ri ReminderInput) toReminder(due *time.Time) (Reminder, error) {
	method := ri.Method
	if method == "" {
		method = MethodNotification
	}

	if ri.Date != nil && strings.TrimSpace(*ri.Date) != "" && ri.Value == 0 {
		if due == nil {
			return Reminder{}, invalid("date", "requires the task to have a due date")
		}
		at, err := ParseDueDate(*ri.Date, time.Local)
		if err != nil {
			return Reminder{}, invalid("date", "must be an RFC 3339 timestamp or YYYY-MM-DD")
		}
		before := due.Sub(at)
		if before < 0 {
			return Reminder{}, invalid("date", "must not be after the due date")
		}
		return Reminder{Value: int(before / time.Minute), Unit: UnitMinutes, Method: method}, nil
	}

	// value 0 means "at the due time"; negatives are rejected by the validator
	if ri.Unit == "" {
		return Reminder{}, invalid("unit", "is required")
	}
	return Reminder{Value: ri.Value, Unit: ri.Unit, Method: method}, nil
}
