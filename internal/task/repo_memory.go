package task

import (
	"context"
	"slices"
	"sync"

	"github.com/Sharleen10/todolist/internal/clock"
)

type MemoryRepo struct {
	mu     sync.RWMutex
	tasks  map[int]Task
	order  []int
	lastID int
	clock  clock.Clock
}

func NewMemoryRepo(opts ...Option) *MemoryRepo {
	o := buildOptions(opts)
	return &MemoryRepo{
		tasks: make(map[int]Task),
		clock: o.clock,
	}
}

// Seed loads tasks as-is, keeping their ids. Used by FileRepo on load and tests.
func (r *MemoryRepo) Seed(tasks []Task) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tasks {
		normalizeTask(&t)
		if _, ok := r.tasks[t.ID]; !ok {
			r.order = append(r.order, t.ID)
		}
		r.tasks[t.ID] = t
		if t.ID > r.lastID {
			r.lastID = t.ID
		}
	}
	slices.Sort(r.order)
}

func (r *MemoryRepo) List(ctx context.Context, filter Filter) ([]Task, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Task, 0, len(r.order))
	for _, id := range r.order {
		t := r.tasks[id]
		if filter.Match(t) {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int) (Task, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return t.Clone(), nil
}

func (r *MemoryRepo) Create(ctx context.Context, in Input) (Task, error) {
	_ = ctx

	t, err := in.build(r.clock.Now())
	if err != nil {
		return Task{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	t.ID = r.lastID
	r.tasks[t.ID] = t
	r.order = append(r.order, t.ID)
	return t.Clone(), nil
}

func (r *MemoryRepo) Update(ctx context.Context, id int, p Patch) (Task, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	t := cur.Clone()
	if err := applyPatch(&t, p, r.clock.Now()); err != nil {
		return Task{}, err
	}
	r.tasks[id] = t
	return t.Clone(), nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id int) (Task, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	delete(r.tasks, id)
	r.order = slices.DeleteFunc(r.order, func(v int) bool { return v == id })
	return t, nil
}

func (r *MemoryRepo) SetCompleted(ctx context.Context, id int, completed bool) (Task, error) {
	return r.Update(ctx, id, Patch{Completed: &completed})
}

func (r *MemoryRepo) AddSubtask(ctx context.Context, id int, in SubtaskInput) (Task, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	now := r.clock.Now()
	st, err := newSubtask(in, now)
	if err != nil {
		return Task{}, err
	}
	t := cur.Clone()
	t.Subtasks = append(t.Subtasks, st)
	t.touch(now)
	r.tasks[id] = t
	return t.Clone(), nil
}

// LastID reports the highest id ever assigned.
func (r *MemoryRepo) LastID() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastID
}

func (r *MemoryRepo) bumpLastID(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id > r.lastID {
		r.lastID = id
	}
}

func (r *MemoryRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}

// snapshotLocked returns all tasks in id order; callers must hold r.mu.
func (r *MemoryRepo) snapshotLocked() []Task {
	out := make([]Task, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tasks[id])
	}
	return out
}

// checkpoint captures the current state and returns a func that puts it back.
func (r *MemoryRepo) checkpoint() (restore func()) {
	r.mu.RLock()
	tasks := make(map[int]Task, len(r.tasks))
	for id, t := range r.tasks {
		tasks[id] = t.Clone()
	}
	order := slices.Clone(r.order)
	lastID := r.lastID
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.tasks = tasks
		r.order = order
		r.lastID = lastID
	}
}
