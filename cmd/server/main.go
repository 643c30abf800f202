package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sharleen10/todolist/internal/config"
	"github.com/Sharleen10/todolist/internal/logging"
	"github.com/Sharleen10/todolist/internal/serverapp"
)

func main() {
	if err := newRootCmd(viper.New()).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todolist-server",
		Short: "Serve the task API and web page",
		Long: `Serve the task REST API, the HTML task list and the stats endpoint.

Examples:
  todolist-server --store file --data-dir data
  todolist-server --config todolist.yml --addr :8080
  TODOLIST_STORE=mongo MONGODB_URI=mongodb://localhost:27017 todolist-server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(v)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
			}
			return serve(ctx, cfg, ln, logger)
		},
	}

	f := cmd.Flags()
	f.String("config", "", "path to a YAML config file")
	f.String("addr", "", "listen address (default :5000)")
	f.String("store", "", "task store: memory, file, sqlite or mongo")
	f.String("data-dir", "", "data directory for the file and sqlite stores")
	f.String("mongo-uri", "", "MongoDB connection string")
	f.String("log-level", "", "log level: debug, info, warn or error")
	f.String("log-format", "", "log format: json or text")
	_ = v.BindPFlags(f)

	return cmd
}

// resolveConfig layers the config file, then the environment, then flags.
func resolveConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.FromEnv(cfg)

	if v.IsSet("addr") {
		cfg.Server.Addr = v.GetString("addr")
	}
	if v.IsSet("store") {
		cfg.Store.Driver = v.GetString("store")
	}
	if v.IsSet("data-dir") {
		cfg.Store.DataDir = v.GetString("data-dir")
		cfg.Store.SQLitePath = cfg.Store.DataDir + "/tasks.db"
	}
	if v.IsSet("mongo-uri") {
		cfg.Store.Mongo.URI = v.GetString("mongo-uri")
	}
	if v.IsSet("log-level") {
		cfg.Log.Level = v.GetString("log-level")
	}
	if v.IsSet("log-format") {
		cfg.Log.Format = v.GetString("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serve runs until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener, logger logrus.FieldLogger) error {
	app, err := serverapp.New(ctx, serverapp.Options{Config: cfg, Logger: logger})
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("build server: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.WithError(err).Warn("close stores")
		}
	}()

	srv := &http.Server{
		Handler:      app.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.WithFields(logrus.Fields{
		"addr":  ln.Addr().String(),
		"store": cfg.Store.Driver,
	}).Info("listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
