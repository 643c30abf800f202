package task

import (
	"slices"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities by severity; urgent is 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

func (p Priority) Valid() bool {
	return p.Rank() < 4
}

const DefaultProject = "default"

type Task struct {
	ID               int        `json:"id" bson:"_id"`
	Title            string     `json:"title" bson:"title"`
	Description      string     `json:"description" bson:"description"`
	DueDate          *time.Time `json:"dueDate" bson:"due_date,omitempty"`
	CreatedAt        time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" bson:"updated_at"`
	Completed        bool       `json:"completed" bson:"completed"`
	Priority         Priority   `json:"priority" bson:"priority"`
	Project          string     `json:"project" bson:"project"`
	Section          *string    `json:"section" bson:"section,omitempty"`
	Labels           []string   `json:"labels" bson:"labels"`
	Subtasks         []Subtask  `json:"subtasks" bson:"subtasks"`
	IsRecurring      bool       `json:"isRecurring" bson:"is_recurring"`
	RecurringPattern *string    `json:"recurringPattern" bson:"recurring_pattern,omitempty"`
	Reminders        []Reminder `json:"reminders" bson:"reminders"`
}

type Subtask struct {
	ID        string    `json:"id" bson:"id"`
	Title     string    `json:"title" bson:"title"`
	Completed bool      `json:"completed" bson:"completed"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

type ReminderUnit string

const (
	UnitMinutes ReminderUnit = "minutes"
	UnitHours   ReminderUnit = "hours"
	UnitDays    ReminderUnit = "days"
)

type ReminderMethod string

const (
	MethodNotification ReminderMethod = "notification"
	MethodEmail        ReminderMethod = "email"
)

// Reminder is an offset before the task's due date.
type Reminder struct {
	Value  int            `json:"value" bson:"value"`
	Unit   ReminderUnit   `json:"unit" bson:"unit"`
	Method ReminderMethod `json:"method" bson:"method"`
}

// FireAt returns the instant the reminder is due for the given due date.
// Days are calendar days, so a reminder keeps its wall-clock time across DST.
func (r Reminder) FireAt(due time.Time) time.Time {
	switch r.Unit {
	case UnitMinutes:
		return due.Add(-time.Duration(r.Value) * time.Minute)
	case UnitHours:
		return due.Add(-time.Duration(r.Value) * time.Hour)
	case UnitDays:
		return due.AddDate(0, 0, -r.Value)
	default:
		return due
	}
}

func (t *Task) touch(now time.Time) {
	// updatedAt never moves backwards, even if the clock does
	if now.Before(t.UpdatedAt) {
		return
	}
	t.UpdatedAt = now
}

func (t *Task) HasLabel(label string) bool {
	return slices.Contains(t.Labels, label)
}

// Pattern returns the recurrence pattern or "".
func (t *Task) Pattern() string {
	if t.RecurringPattern == nil {
		return ""
	}
	return *t.RecurringPattern
}

// SectionName returns the section or "".
func (t *Task) SectionName() string {
	if t.Section == nil {
		return ""
	}
	return *t.Section
}

// Clone returns a deep copy so callers can't alias repo-owned slices.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	if t.Section != nil {
		s := *t.Section
		out.Section = &s
	}
	if t.RecurringPattern != nil {
		p := *t.RecurringPattern
		out.RecurringPattern = &p
	}
	out.Labels = append([]string{}, t.Labels...)
	out.Subtasks = append([]Subtask{}, t.Subtasks...)
	out.Reminders = append([]Reminder{}, t.Reminders...)
	return out
}

func normalizeTask(t *Task) {
	if t.Labels == nil {
		t.Labels = []string{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
	if t.Reminders == nil {
		t.Reminders = []Reminder{}
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if strings.TrimSpace(t.Project) == "" {
		t.Project = DefaultProject
	}
}

// dedupeLabels trims labels, drops empties and keeps first occurrence order.
func dedupeLabels(in []string) []string {
	out := make([]string, 0, len(in))
	for _, l := range in {
		l = strings.TrimSpace(l)
		if l == "" || slices.Contains(out, l) {
			continue
		}
		out = append(out, l)
	}
	return out
}
