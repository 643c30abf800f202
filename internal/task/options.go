package task

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/Sharleen10/todolist/internal/clock"
)

type repoOptions struct {
	clock  clock.Clock
	logger logrus.FieldLogger
}

type Option func(*repoOptions)

func WithClock(c clock.Clock) Option {
	return func(o *repoOptions) { o.clock = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *repoOptions) { o.logger = l }
}

func buildOptions(opts []Option) repoOptions {
	o := repoOptions{clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = discardLogger()
	}
	return o
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
