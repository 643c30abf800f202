package task

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

type fileState struct {
	LastID int    `json:"lastId"`
	Tasks  []Task `json:"tasks"`
}

// FileRepo is a persistent task repository backed by a single JSON file.
// Every mutation rewrites the file; reads are served from memory.
type FileRepo struct {
	mu     sync.Mutex
	path   string
	mem    *MemoryRepo
	logger logrus.FieldLogger
}

func NewFileRepo(dataDir string, opts ...Option) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	r := &FileRepo{
		path:   filepath.Join(dataDir, "tasks.json"),
		mem:    NewMemoryRepo(opts...),
		logger: o.logger,
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepo) Path() string { return r.path }

func (r *FileRepo) load() error {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		return fmt.Errorf("decode %s: %w", r.path, err)
	}
	r.mem.Seed(loaded.Tasks)
	r.mem.bumpLastID(loaded.LastID)
	r.logger.WithFields(logrus.Fields{"path": r.path, "tasks": len(loaded.Tasks)}).Info("task file loaded")
	return nil
}

func (r *FileRepo) saveLocked() error {
	r.mem.mu.RLock()
	st := fileState{LastID: r.mem.lastID, Tasks: r.mem.snapshotLocked()}
	r.mem.mu.RUnlock()

	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return unavailable("write task file", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return unavailable("replace task file", err)
	}
	return nil
}

// mutate runs fn against the in-memory state and persists the result.
// A failed save rolls the in-memory state back.
func (r *FileRepo) mutate(fn func() (Task, error)) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rollback := r.mem.checkpoint()
	t, err := fn()
	if err != nil {
		return Task{}, err
	}
	if err := r.saveLocked(); err != nil {
		rollback()
		r.logger.WithError(err).WithField("task_id", t.ID).Error("persist tasks failed")
		return Task{}, err
	}
	return t, nil
}

func (r *FileRepo) List(ctx context.Context, filter Filter) ([]Task, error) {
	return r.mem.List(ctx, filter)
}

func (r *FileRepo) Get(ctx context.Context, id int) (Task, error) {
	return r.mem.Get(ctx, id)
}

func (r *FileRepo) Create(ctx context.Context, in Input) (Task, error) {
	return r.mutate(func() (Task, error) { return r.mem.Create(ctx, in) })
}

func (r *FileRepo) Update(ctx context.Context, id int, p Patch) (Task, error) {
	return r.mutate(func() (Task, error) { return r.mem.Update(ctx, id, p) })
}

func (r *FileRepo) Delete(ctx context.Context, id int) (Task, error) {
	return r.mutate(func() (Task, error) { return r.mem.Delete(ctx, id) })
}

func (r *FileRepo) SetCompleted(ctx context.Context, id int, completed bool) (Task, error) {
	return r.Update(ctx, id, Patch{Completed: &completed})
}

func (r *FileRepo) AddSubtask(ctx context.Context, id int, in SubtaskInput) (Task, error) {
	return r.mutate(func() (Task, error) { return r.mem.AddSubtask(ctx, id, in) })
}

func (r *FileRepo) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Dir(r.path)); err != nil {
		return unavailable("stat data dir", err)
	}
	return nil
}
