package serverapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sharleen10/todolist/internal/catalog"
	"github.com/Sharleen10/todolist/internal/clock"
	"github.com/Sharleen10/todolist/internal/config"
	"github.com/Sharleen10/todolist/internal/data"
	"github.com/Sharleen10/todolist/internal/httpmw"
	"github.com/Sharleen10/todolist/internal/task"
	"github.com/Sharleen10/todolist/internal/telemetry"
	"github.com/Sharleen10/todolist/internal/view"
	"github.com/Sharleen10/todolist/internal/web"
	"github.com/Sharleen10/todolist/static"
)

type Options struct {
	Config *config.Config
	Logger logrus.FieldLogger
	Clock  clock.Clock
}

// App is the assembled server: its handler plus the resources to release.
type App struct {
	Handler http.Handler
	Tasks   task.Repo
	Events  *telemetry.MemoryRepository

	closers []io.Closer
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}

	app := &App{}
	tasks, store, err := openStores(ctx, opts, app)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Tasks = tasks
	app.Events = telemetry.NewMemoryRepository(opts.Clock)

	registry := catalog.NewRegistry(store)
	mux := http.NewServeMux()

	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticfiles.EmbeddedFS()))))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "todolist",
			"time":    opts.Clock.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := tasks.Ping(r.Context()); err != nil {
			opts.Logger.WithError(err).Warn("readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "task storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "todolist",
			"store":   opts.Config.Store.Driver,
			"time":    opts.Clock.Now().UTC().Format(time.RFC3339),
		})
	})

	taskHandler := task.NewHandler(tasks)
	taskHandler.SetClock(opts.Clock)
	taskHandler.SetLogger(opts.Logger.WithField("component", "tasks"))
	taskHandler.SetRecorder(app.Events)
	taskHandler.SetViewer(func(ts []task.Task, v, sortKey string, now time.Time) []task.Task {
		return view.Apply(ts, v, sortKey, now)
	})
	mux.HandleFunc("/api/tasks", taskHandler.TasksRoot)
	mux.HandleFunc("/api/tasks/", taskHandler.TasksSub)

	catalogHandler := catalog.NewHandler(registry, tasks, opts.Logger.WithField("component", "catalog"))
	mux.HandleFunc("/api/projects", catalogHandler.Projects)
	mux.HandleFunc("/api/labels", catalogHandler.Labels)

	telemetryHandler := telemetry.NewHandler(app.Events)
	mux.HandleFunc("/api/stats", telemetryHandler.Stats)
	mux.HandleFunc("/api/events", telemetryHandler.Events)

	mux.HandleFunc("/", web.NewHandler(tasks, registry, opts.Clock, opts.Logger.WithField("component", "web")).Index)

	app.Handler = httpmw.Chain(
		mux,
		httpmw.WithRequestID,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRecover(opts.Logger),
	)
	return app, nil
}

// openStores picks the task repo and catalog store for the configured driver.
func openStores(ctx context.Context, opts Options, app *App) (task.Repo, catalog.Store, error) {
	cfg := opts.Config.Store
	repoOpts := []task.Option{
		task.WithClock(opts.Clock),
		task.WithLogger(opts.Logger.WithField("store", cfg.Driver)),
	}

	switch cfg.Driver {
	case config.StoreMemory:
		return task.NewMemoryRepo(repoOpts...), catalog.NewMemoryStore(), nil

	case config.StoreFile:
		repo, err := task.NewFileRepo(cfg.DataDir, repoOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("open task file: %w", err)
		}
		store, err := catalog.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog file: %w", err)
		}
		return repo, store, nil

	case config.StoreSQLite:
		repo, err := task.OpenSQLiteRepo(cfg.SQLitePath, repoOpts...)
		if err != nil {
			return nil, nil, err
		}
		app.closers = append(app.closers, repo)
		store, err := catalog.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog file: %w", err)
		}
		return repo, store, nil

	case config.StoreMongo:
		d, err := data.New(ctx, cfg.Mongo, opts.Logger)
		if err != nil {
			return nil, nil, err
		}
		app.closers = append(app.closers, d)
		repo, err := task.NewMongoRepo(ctx, d.DB(), repoOpts...)
		if err != nil {
			return nil, nil, err
		}
		return repo, catalog.NewMongoStore(d.DB()), nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
