package reminder

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// LogNotifier reports reminders as structured log entries.
type LogNotifier struct {
	Logger logrus.FieldLogger
}

func (l LogNotifier) Notify(n Notification) {
	l.Logger.WithFields(logrus.Fields{
		"task_id": n.TaskID,
		"method":  n.Method,
		"due":     n.DueDate,
	}).Info("reminder: " + n.Title)
}

// WriterNotifier prints one line per reminder.
type WriterNotifier struct {
	W io.Writer
}

func (w WriterNotifier) Notify(n Notification) {
	fmt.Fprintf(w.W, "Reminder: %s (due %s)\n", n.Title, n.DueDate.Local().Format("Mon Jan 2 15:04"))
}
