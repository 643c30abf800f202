package task

import (
	"github.com/Sharleen10/todolist/internal/recurrence"
)

// NextOccurrence builds the create input for the task that follows t in its
// recurrence chain. It reports false when t is not recurring or no next due
// date can be computed. t itself is never modified.
func (t Task) NextOccurrence() (Input, bool) {
	if !t.IsRecurring {
		return Input{}, false
	}
	next, ok := recurrence.NextDueDate(t.DueDate, t.Pattern())
	if !ok {
		return Input{}, false
	}

	due := FormatDueDate(next)
	pattern := t.Pattern()
	in := Input{
		Title:            t.Title,
		Description:      t.Description,
		DueDate:          &due,
		Priority:         t.Priority,
		Project:          t.Project,
		Labels:           append([]string{}, t.Labels...),
		IsRecurring:      true,
		RecurringPattern: &pattern,
		Subtasks:         make([]SubtaskInput, 0, len(t.Subtasks)),
		Reminders:        make([]ReminderInput, 0, len(t.Reminders)),
	}
	if t.Section != nil {
		s := *t.Section
		in.Section = &s
	}
	for _, st := range t.Subtasks {
		in.Subtasks = append(in.Subtasks, SubtaskInput{Title: st.Title, Completed: false})
	}
	for _, r := range t.Reminders {
		in.Reminders = append(in.Reminders, ReminderInputFrom(r))
	}
	return in, true
}
