// Package reminder arms one-shot timers for task reminders while a client
// is running. Nothing is persisted; a restart re-arms from the task list.
package reminder

import (
	"io"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sharleen10/todolist/internal/clock"
	"github.com/Sharleen10/todolist/internal/task"
)

type Notification struct {
	TaskID   int
	Title    string
	Method   task.ReminderMethod
	Reminder task.Reminder
	DueDate  time.Time
	FireAt   time.Time
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LookupFunc returns the current state of a task, or false if it is gone.
type LookupFunc func(id int) (task.Task, bool)

type Option func(*Scheduler)

func WithLookup(fn LookupFunc) Option {
	return func(s *Scheduler) { s.lookup = fn }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scheduler) { s.logger = l }
}

type armed struct {
	timer clock.Timer
}

type Scheduler struct {
	mu       sync.Mutex
	clock    clock.Clock
	notifier Notifier
	lookup   LookupFunc
	logger   logrus.FieldLogger
	timers   map[int][]*armed
	stopped  bool
}

func New(c clock.Clock, n Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:    c,
		notifier: n,
		timers:   make(map[int][]*armed),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.logger = l
	}
	return s
}

// Schedule replaces any timers held for t.ID with one timer per reminder
// whose fire time is still in the future. Completed or undated tasks arm
// nothing. It returns how many timers were armed.
func (s *Scheduler) Schedule(t task.Task) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(t.ID)
	if s.stopped || t.Completed || t.DueDate == nil {
		return 0
	}

	now := s.clock.Now()
	due := *t.DueDate
	for _, r := range t.Reminders {
		fireAt := r.FireAt(due)
		if !fireAt.After(now) {
			continue
		}
		n := Notification{
			TaskID:   t.ID,
			Title:    t.Title,
			Method:   r.Method,
			Reminder: r,
			DueDate:  due,
			FireAt:   fireAt,
		}
		a := &armed{}
		a.timer = s.clock.AfterFunc(fireAt.Sub(now), func() { s.fire(a, n) })
		s.timers[t.ID] = append(s.timers[t.ID], a)
	}

	armedCount := len(s.timers[t.ID])
	if armedCount == 0 {
		delete(s.timers, t.ID)
	}
	s.logger.WithFields(logrus.Fields{"task_id": t.ID, "armed": armedCount}).Debug("reminders scheduled")
	return armedCount
}

// ScheduleAll re-arms every task in the list.
func (s *Scheduler) ScheduleAll(tasks []task.Task) int {
	total := 0
	for _, t := range tasks {
		total += s.Schedule(t)
	}
	return total
}

func (s *Scheduler) Cancel(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(id)
}

// Stop cancels every timer; later Schedule calls arm nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.timers {
		s.cancelLocked(id)
	}
	s.stopped = true
}

// Pending reports how many timers are armed for a task.
func (s *Scheduler) Pending(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers[id])
}

func (s *Scheduler) cancelLocked(id int) {
	for _, a := range s.timers[id] {
		a.timer.Stop()
	}
	delete(s.timers, id)
}

func (s *Scheduler) fire(a *armed, n Notification) {
	s.mu.Lock()
	list := s.timers[n.TaskID]
	i := slices.Index(list, a)
	if i < 0 {
		// cancelled or rescheduled after the timer started firing
		s.mu.Unlock()
		return
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(s.timers, n.TaskID)
	} else {
		s.timers[n.TaskID] = list
	}
	lookup := s.lookup
	s.mu.Unlock()

	if lookup != nil {
		cur, ok := lookup(n.TaskID)
		if !ok || cur.Completed {
			s.logger.WithField("task_id", n.TaskID).Debug("reminder skipped")
			return
		}
		n.Title = cur.Title
	}
	s.notifier.Notify(n)
}
