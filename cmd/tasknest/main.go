package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sharleen10/todolist/internal/app"
	"github.com/Sharleen10/todolist/internal/client"
	"github.com/Sharleen10/todolist/internal/clock"
	"github.com/Sharleen10/todolist/internal/config"
	"github.com/Sharleen10/todolist/internal/logging"
	"github.com/Sharleen10/todolist/internal/reminder"
	"github.com/Sharleen10/todolist/internal/task"
	"github.com/Sharleen10/todolist/internal/view"
)

func main() {
	if err := newRootCmd(viper.New(), clock.RealClock{}).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// session is what every subcommand works against.
type session struct {
	v      *viper.Viper
	clock  clock.Clock
	logger logrus.FieldLogger
	state  *app.State
	api    *client.Client
}

func (s *session) open(cmd *cobra.Command) error {
	cfg, err := config.Load(s.v.GetString("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	config.FromEnv(cfg)
	if s.v.IsSet("api") {
		cfg.Client.BaseURL = s.v.GetString("api")
	}
	if s.v.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}
	cfg.Log.Format = "text"

	logger, err := logging.NewWithOutput(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	s.logger = logger
	s.api = client.New(cfg.Client.BaseURL, client.WithTimeout(cfg.Client.Timeout))
	s.state = app.New(s.api, s.clock, reminder.WriterNotifier{W: cmd.OutOrStdout()}, app.WithLogger(logger), app.WithRecorder(s.api))
	return s.state.Load(cmd.Context())
}

func (s *session) close() {
	if s.state != nil {
		s.state.Close()
	}
}

func newRootCmd(v *viper.Viper, c clock.Clock) *cobra.Command {
	s := &session{v: v, clock: c}
	root := &cobra.Command{
		Use:   "tasknest",
		Short: "Terminal client for the task API",
		Long: `tasknest talks to a todolist server.

Examples:
  tasknest add "Buy milk" --due 2024-03-10 --priority high
  tasknest list --view today
  tasknest complete 3
  tasknest watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if offline(cmd) {
				return nil
			}
			return s.open(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			s.close()
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "path to a YAML config file")
	pf.String("api", "", "API base URL (default http://localhost:5000)")
	pf.BoolP("verbose", "v", false, "debug logging")
	_ = v.BindPFlags(pf)

	root.AddCommand(
		listCmd(s),
		showCmd(s),
		addCmd(s),
		completeCmd(s, true),
		completeCmd(s, false),
		deleteCmd(s),
		subtaskCmd(s),
		catalogCmd(s, "project"),
		catalogCmd(s, "label"),
		calendarCmd(s),
		watchCmd(s),
	)
	return root
}

// offline reports commands that never talk to the server.
func offline(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "help" || c.Name() == "completion" {
			return true
		}
	}
	return false
}

func parseTaskID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func listCmd(s *session) *cobra.Command {
	var v, sortKey string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in a view",
		Long: `List tasks. Views: all, today, upcoming, important, completed,
project:<name>, label:<name>. Sort keys: dueDate, priority, createdAt, title.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.state.SetView(v)
			s.state.SetSort(sortKey)
			renderGroups(cmd.OutOrStdout(), s.state.Groups(), s.clock.Now())
			return nil
		},
	}
	cmd.Flags().StringVar(&v, "view", view.All, "view to show")
	cmd.Flags().StringVar(&sortKey, "sort", view.SortDueDate, "sort key")
	return cmd
}

func showCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task with its subtasks and reminders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			t, ok := s.state.Task(id)
			if !ok {
				return task.ErrNotFound
			}
			renderDetail(cmd.OutOrStdout(), t, s.clock.Now())
			return nil
		},
	}
}

func addCmd(s *session) *cobra.Command {
	var (
		in        task.Input
		due       string
		section   string
		pattern   string
		priority  string
		reminders []string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = strings.Join(args, " ")
			in.Priority = task.Priority(priority)
			if due != "" {
				in.DueDate = &due
			}
			if section != "" {
				in.Section = &section
			}
			if pattern != "" {
				in.IsRecurring = true
				in.RecurringPattern = &pattern
			}
			for _, r := range reminders {
				ri, err := parseReminder(r)
				if err != nil {
					return err
				}
				in.Reminders = append(in.Reminders, ri)
			}

			t, err := s.state.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created #%d %s\n", t.ID, t.Title)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&in.Description, "description", "d", "", "description")
	f.StringVar(&due, "due", "", "due date, RFC 3339 or YYYY-MM-DD")
	f.StringVarP(&priority, "priority", "p", "", "low, medium, high or urgent")
	f.StringVar(&in.Project, "project", "", "project name")
	f.StringVar(&section, "section", "", "section within the project")
	f.StringSliceVarP(&in.Labels, "label", "l", nil, "label (repeatable)")
	f.StringVar(&pattern, "repeat", "", "recurrence: daily, weekly, monthly or \"every N days|weeks|months\"")
	f.StringSliceVar(&reminders, "remind", nil, "reminder offset before due, e.g. 30m, 2h, 1d (repeatable)")
	return cmd
}

func completeCmd(s *session, completed bool) *cobra.Command {
	use, short := "complete <id>", "Mark a task completed"
	if !completed {
		use, short = "reopen <id>", "Mark a task not completed"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			t, next, err := s.state.Complete(cmd.Context(), id, completed)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			verb := "Reopened"
			if t.Completed {
				verb = "Completed"
			}
			fmt.Fprintf(w, "%s #%d %s\n", verb, t.ID, t.Title)
			if next != nil {
				fmt.Fprintf(w, "Next occurrence #%d due %s\n", next.ID, formatDue(*next.DueDate, s.clock.Now()))
			}
			return nil
		},
	}
}

func deleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			if err := s.state.Remove(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d\n", id)
			return nil
		},
	}
}

func subtaskCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtask",
		Short: "Add or toggle subtasks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <task-id> <title>",
		Short: "Append a subtask",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			t, err := s.state.AddSubtask(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			st := t.Subtasks[len(t.Subtasks)-1]
			fmt.Fprintf(cmd.OutOrStdout(), "Added subtask %s to #%d\n", st.ID, t.ID)
			return nil
		},
	}, &cobra.Command{
		Use:   "toggle <task-id> <subtask-id>",
		Short: "Flip a subtask's completion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			t, err := s.state.ToggleSubtask(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			renderDetail(cmd.OutOrStdout(), t, s.clock.Now())
			return nil
		},
	})
	return cmd
}

func catalogCmd(s *session, kind string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind + " [name]",
		Short: "List " + kind + "s, or register a new one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				create := s.state.CreateProject
				if kind == "label" {
					create = s.state.CreateLabel
				}
				name, err := create(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Added %s %s\n", kind, name)
				return nil
			}
			names := s.state.Projects()
			if kind == "label" {
				names = s.state.Labels()
			}
			for _, n := range names {
				fmt.Fprintln(w, n)
			}
			return nil
		},
	}
	return cmd
}

func calendarCmd(s *session) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "calendar <id>",
		Short: "Export a task as an iCalendar event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			ics, err := s.api.Calendar(cmd.Context(), id)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), ics)
				return err
			}
			return os.WriteFile(out, []byte(ics), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to a file instead of stdout")
	return cmd
}

func watchCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stay running and print reminders as they come due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pending := 0
			for _, t := range s.state.Tasks() {
				pending += s.state.Reminders(t.ID)
			}
			s.logger.WithField("reminders", pending).Info("watching for reminders")
			<-ctx.Done()
			return nil
		},
	}
}
