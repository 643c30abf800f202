package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql

	"github.com/Sharleen10/todolist/internal/clock"
)

// SQLiteRepo stores each task as a JSON document keyed by an
// AUTOINCREMENT id, so ids are never reused after a delete.
type SQLiteRepo struct {
	mu    sync.Mutex
	db    *sql.DB
	clock clock.Clock
}

func OpenSQLiteRepo(path string, opts ...Option) (*SQLiteRepo, error) {
	o := buildOptions(opts)
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	r := &SQLiteRepo{db: db, clock: o.clock}
	if err := r.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return r, nil
}

func (r *SQLiteRepo) createSchema() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS tasks (
		id  INTEGER PRIMARY KEY AUTOINCREMENT,
		doc TEXT NOT NULL
	)`)
	return err
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func decodeDoc(id int, doc string) (Task, error) {
	var t Task
	if err := json.Unmarshal([]byte(doc), &t); err != nil {
		return Task{}, fmt.Errorf("decode task %d: %w", id, err)
	}
	t.ID = id
	normalizeTask(&t)
	return t, nil
}

func (r *SQLiteRepo) List(ctx context.Context, filter Filter) ([]Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, doc FROM tasks ORDER BY id`)
	if err != nil {
		return nil, unavailable("list tasks", err)
	}
	defer rows.Close()

	out := []Task{}
	for rows.Next() {
		var (
			id  int
			doc string
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, unavailable("scan task", err)
		}
		t, err := decodeDoc(id, doc)
		if err != nil {
			return nil, err
		}
		if filter.Match(t) {
			out = append(out, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list tasks", err)
	}
	return out, nil
}

func (r *SQLiteRepo) Get(ctx context.Context, id int) (Task, error) {
	return getDoc(ctx, r.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDoc(ctx context.Context, q queryRower, id int) (Task, error) {
	var doc string
	err := q.QueryRowContext(ctx, `SELECT doc FROM tasks WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, unavailable("get task", err)
	}
	return decodeDoc(id, doc)
}

func (r *SQLiteRepo) Create(ctx context.Context, in Input) (Task, error) {
	t, err := in.build(r.clock.Now())
	if err != nil {
		return Task{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Task{}, unavailable("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO tasks (doc) VALUES ('{}')`)
	if err != nil {
		return Task{}, unavailable("insert task", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Task{}, unavailable("insert task", err)
	}
	t.ID = int(id)
	if err := writeDoc(ctx, tx, t); err != nil {
		return Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return Task{}, unavailable("commit", err)
	}
	return t, nil
}

func writeDoc(ctx context.Context, tx *sql.Tx, t Task) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET doc = ? WHERE id = ?`, string(b), t.ID); err != nil {
		return unavailable("write task", err)
	}
	return nil
}

// modify is an atomic read-modify-write of one task document.
func (r *SQLiteRepo) modify(ctx context.Context, id int, fn func(t *Task) error) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Task{}, unavailable("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	t, err := getDoc(ctx, tx, id)
	if err != nil {
		return Task{}, err
	}
	if err := fn(&t); err != nil {
		return Task{}, err
	}
	if err := writeDoc(ctx, tx, t); err != nil {
		return Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return Task{}, unavailable("commit", err)
	}
	return t, nil
}

func (r *SQLiteRepo) Update(ctx context.Context, id int, p Patch) (Task, error) {
	return r.modify(ctx, id, func(t *Task) error {
		return applyPatch(t, p, r.clock.Now())
	})
}

func (r *SQLiteRepo) Delete(ctx context.Context, id int) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Task{}, unavailable("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	t, err := getDoc(ctx, tx, id)
	if err != nil {
		return Task{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return Task{}, unavailable("delete task", err)
	}
	if err := tx.Commit(); err != nil {
		return Task{}, unavailable("commit", err)
	}
	return t, nil
}

func (r *SQLiteRepo) SetCompleted(ctx context.Context, id int, completed bool) (Task, error) {
	return r.Update(ctx, id, Patch{Completed: &completed})
}

func (r *SQLiteRepo) AddSubtask(ctx context.Context, id int, in SubtaskInput) (Task, error) {
	return r.modify(ctx, id, func(t *Task) error {
		now := r.clock.Now()
		st, err := newSubtask(in, now)
		if err != nil {
			return err
		}
		t.Subtasks = append(t.Subtasks, st)
		t.touch(now)
		return nil
	})
}

func (r *SQLiteRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return unavailable("ping sqlite", err)
	}
	return nil
}
