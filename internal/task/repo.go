package task

import (
	"context"
	"strings"
	"time"
)

// Patch represents a partial update.
// nil pointer => "no change"
// empty string for DueDate/Section/RecurringPattern => clear
type Patch struct {
	Title            *string          `json:"title,omitempty"`
	Description      *string          `json:"description,omitempty"`
	DueDate          *string          `json:"dueDate,omitempty"`
	Completed        *bool            `json:"completed,omitempty"`
	Priority         *Priority        `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Project          *string          `json:"project,omitempty"`
	Section          *string          `json:"section,omitempty"`
	Labels           *[]string        `json:"labels,omitempty"`
	Subtasks         *[]SubtaskInput  `json:"subtasks,omitempty" validate:"omitempty,dive"`
	IsRecurring      *bool            `json:"isRecurring,omitempty"`
	RecurringPattern *string          `json:"recurringPattern,omitempty"`
	Reminders        *[]ReminderInput `json:"reminders,omitempty" validate:"omitempty,dive"`
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Project  string
	Label    string
	Priority Priority
}

func (f Filter) Match(t Task) bool {
	if f.Project != "" && t.Project != f.Project {
		return false
	}
	if f.Label != "" && !t.HasLabel(f.Label) {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	return true
}

type Repo interface {
	List(ctx context.Context, filter Filter) ([]Task, error)
	Get(ctx context.Context, id int) (Task, error)
	Create(ctx context.Context, in Input) (Task, error)
	Update(ctx context.Context, id int, p Patch) (Task, error)
	Delete(ctx context.Context, id int) (Task, error)
	SetCompleted(ctx context.Context, id int, completed bool) (Task, error)
	AddSubtask(ctx context.Context, id int, in SubtaskInput) (Task, error)
	Ping(ctx context.Context) error
}

func applyPatch(t *Task, p Patch, now time.Time) error {
	if err := validateStruct(p); err != nil {
		return err
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return invalid("title", "is required")
		}
		t.Title = title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Project != nil {
		t.Project = strings.TrimSpace(*p.Project)
	}
	if p.Labels != nil {
		t.Labels = dedupeLabels(*p.Labels)
	}
	if p.IsRecurring != nil {
		t.IsRecurring = *p.IsRecurring
	}

	// pointer string fields with "empty clears" semantics
	if p.DueDate != nil {
		due, err := parseDuePtr(p.DueDate)
		if err != nil {
			return err
		}
		t.DueDate = due
	}
	if p.Section != nil {
		t.Section = trimmedOrNil(p.Section)
	}
	if p.RecurringPattern != nil {
		t.RecurringPattern = trimmedOrNil(p.RecurringPattern)
	}

	if p.Subtasks != nil {
		subs, err := buildSubtasks(*p.Subtasks, t.Subtasks, now)
		if err != nil {
			return err
		}
		t.Subtasks = subs
	}
	// reminders resolve against the patched due date
	if p.Reminders != nil {
		rems, err := buildReminders(*p.Reminders, t.DueDate)
		if err != nil {
			return err
		}
		t.Reminders = rems
	}

	normalizeTask(t)
	t.touch(now)
	return nil
}

func newSubtask(in SubtaskInput, now time.Time) (Subtask, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Subtask{}, invalid("title", "is required")
	}
	return Subtask{
		ID:        newSubtaskID(),
		Title:     title,
		Completed: false,
		CreatedAt: now,
	}, nil
}
