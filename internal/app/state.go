// Package app holds the client-side application state: the task list,
// catalog names, current view and sort, and the reminder scheduler.
// Completing a recurring task here is what produces its successor.
package app

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Sharleen10/todolist/internal/clock"
	"github.com/Sharleen10/todolist/internal/reminder"
	"github.com/Sharleen10/todolist/internal/task"
	"github.com/Sharleen10/todolist/internal/telemetry"
	"github.com/Sharleen10/todolist/internal/view"
)

// API is the subset of the task API the client state needs.
type API interface {
	List(ctx context.Context, view, sort string) ([]task.Task, error)
	Create(ctx context.Context, in task.Input) (task.Task, error)
	Update(ctx context.Context, id int, p task.Patch) (task.Task, error)
	Delete(ctx context.Context, id int) error
	SetCompleted(ctx context.Context, id int, completed bool) (task.Task, error)
	AddSubtask(ctx context.Context, id int, title string) (task.Task, error)
	Projects(ctx context.Context) ([]string, error)
	Labels(ctx context.Context) ([]string, error)
	CreateProject(ctx context.Context, name string) (string, error)
	CreateLabel(ctx context.Context, name string) (string, error)
}

type Option func(*State)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *State) { s.logger = l }
}

func WithRecorder(rec telemetry.Recorder) Option {
	return func(s *State) { s.events = rec }
}

type State struct {
	mu       sync.RWMutex
	api      API
	clock    clock.Clock
	logger   logrus.FieldLogger
	events   telemetry.Recorder
	reminder *reminder.Scheduler

	tasks    []task.Task
	projects []string
	labels   []string
	view     string
	sort     string
}

func New(api API, c clock.Clock, notifier reminder.Notifier, opts ...Option) *State {
	s := &State{
		api:    api,
		clock:  c,
		events: telemetry.Nop{},
		view:   view.All,
		sort:   view.SortDueDate,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.logger = l
	}

	fired := reminder.NotifierFunc(func(n reminder.Notification) {
		_ = s.events.RecordEvent(telemetry.EventReminderFired, telemetry.EventMetadata{
			"task_id": n.TaskID,
			"method":  string(n.Method),
		})
		notifier.Notify(n)
	})
	s.reminder = reminder.New(c, fired,
		reminder.WithLookup(s.lookup),
		reminder.WithLogger(s.logger),
	)
	return s
}

// Close cancels every pending reminder.
func (s *State) Close() {
	s.reminder.Stop()
}

// Load replaces local state with the server's and re-arms reminders.
func (s *State) Load(ctx context.Context) error {
	tasks, err := s.api.List(ctx, "", "")
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	projects, err := s.api.Projects(ctx)
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}
	labels, err := s.api.Labels(ctx)
	if err != nil {
		return fmt.Errorf("load labels: %w", err)
	}

	s.mu.Lock()
	for _, old := range s.tasks {
		s.reminder.Cancel(old.ID)
	}
	s.tasks = tasks
	s.projects = projects
	s.labels = labels
	s.mu.Unlock()

	armed := s.reminder.ScheduleAll(tasks)
	s.logger.WithFields(logrus.Fields{"tasks": len(tasks), "reminders": armed}).Debug("state loaded")
	return nil
}

func (s *State) SetView(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

func (s *State) SetSort(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = key
}

func (s *State) View() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Visible returns the tasks of the current view in the current order.
func (s *State) Visible() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view.Apply(s.tasks, s.view, s.sort, s.clock.Now())
}

func (s *State) Groups() []view.Group {
	visible := s.Visible()
	return view.Groups(visible, s.View(), s.clock.Now())
}

func (s *State) Tasks() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

func (s *State) Task(id int) (task.Task, bool) {
	return s.lookup(id)
}

func (s *State) Projects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.projects)
}

func (s *State) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.labels)
}

// Reminders reports the timers armed for a task.
func (s *State) Reminders(id int) int {
	return s.reminder.Pending(id)
}

func (s *State) Add(ctx context.Context, in task.Input) (task.Task, error) {
	t, err := s.api.Create(ctx, in)
	if err != nil {
		return task.Task{}, err
	}
	s.put(t)
	s.reminder.Schedule(t)
	return t, nil
}

func (s *State) Edit(ctx context.Context, id int, p task.Patch) (task.Task, error) {
	t, err := s.api.Update(ctx, id, p)
	if err != nil {
		return task.Task{}, err
	}
	s.put(t)
	s.reminder.Schedule(t)
	return t, nil
}

func (s *State) Remove(ctx context.Context, id int) error {
	if err := s.api.Delete(ctx, id); err != nil {
		return err
	}
	s.reminder.Cancel(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = slices.DeleteFunc(s.tasks, func(t task.Task) bool { return t.ID == id })
	return nil
}

// Complete sets the completion flag. When a recurring task goes from open
// to completed, exactly one successor is created and returned as next.
func (s *State) Complete(ctx context.Context, id int, completed bool) (task.Task, *task.Task, error) {
	prev, known := s.lookup(id)

	done, err := s.api.SetCompleted(ctx, id, completed)
	if err != nil {
		return task.Task{}, nil, err
	}
	s.put(done)
	s.reminder.Schedule(done)

	if !completed || (known && prev.Completed) {
		return done, nil, nil
	}
	in, ok := done.NextOccurrence()
	if !ok {
		return done, nil, nil
	}

	next, err := s.api.Create(ctx, in)
	if err != nil {
		return done, nil, fmt.Errorf("create next occurrence of task %d: %w", id, err)
	}
	s.put(next)
	s.reminder.Schedule(next)

	_ = s.events.RecordEvent(telemetry.EventTaskRecurred, telemetry.EventMetadata{
		"task_id": done.ID,
		"next_id": next.ID,
	})
	s.logger.WithFields(logrus.Fields{"task_id": done.ID, "next_id": next.ID}).Info("recurring task rescheduled")
	return done, &next, nil
}

func (s *State) AddSubtask(ctx context.Context, id int, title string) (task.Task, error) {
	t, err := s.api.AddSubtask(ctx, id, title)
	if err != nil {
		return task.Task{}, err
	}
	s.put(t)
	return t, nil
}

// ToggleSubtask flips one subtask's completion through a full subtasks patch.
func (s *State) ToggleSubtask(ctx context.Context, id int, subtaskID string) (task.Task, error) {
	cur, ok := s.lookup(id)
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	subs := make([]task.SubtaskInput, 0, len(cur.Subtasks))
	found := false
	for _, st := range cur.Subtasks {
		in := task.SubtaskInput{ID: st.ID, Title: st.Title, Completed: st.Completed}
		if st.ID == subtaskID {
			in.Completed = !in.Completed
			found = true
		}
		subs = append(subs, in)
	}
	if !found {
		return task.Task{}, &task.ValidationError{Field: "subtaskId", Reason: "no such subtask"}
	}
	return s.Edit(ctx, id, task.Patch{Subtasks: &subs})
}

func (s *State) CreateProject(ctx context.Context, name string) (string, error) {
	got, err := s.api.CreateProject(ctx, name)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = addName(s.projects, got)
	return got, nil
}

func (s *State) CreateLabel(ctx context.Context, name string) (string, error) {
	got, err := s.api.CreateLabel(ctx, name)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = addName(s.labels, got)
	return got, nil
}

func (s *State) lookup(id int) (task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return task.Task{}, false
}

// put inserts or replaces t and keeps the catalog lists covering its names.
func (s *State) put(t task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.tasks, func(cur task.Task) bool { return cur.ID == t.ID })
	if i >= 0 {
		s.tasks[i] = t
	} else {
		s.tasks = append(s.tasks, t)
	}
	s.projects = addName(s.projects, t.Project)
	for _, l := range t.Labels {
		s.labels = addName(s.labels, l)
	}
}

func addName(names []string, name string) []string {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return names
		}
	}
	names = append(names, name)
	slices.SortStableFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return names
}
