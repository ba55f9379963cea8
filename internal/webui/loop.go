package webui

import (
	"browser-use-webui/pkg/apperr"
	"browser-use-webui/pkg/logg"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const loopName = "EventLoop"

var ErrLoopStopped = errors.New("event loop stopped")

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// Loop runs every UI event handler on one goroutine, one at a time, so the
// registry and the session state have a single writer.
type Loop struct {
	logger  *zap.Logger
	jobs    chan job
	stopped chan struct{}
}

func NewLoop(logger *zap.Logger) *Loop {
	return &Loop{
		logger:  logger.With(zap.String(logg.Layer, loopName)),
		jobs:    make(chan job),
		stopped: make(chan struct{}),
	}
}

// Run dispatches jobs until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.stopped)

	l.logger.Info("Event loop started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Event loop stopped")

			return
		case j := <-l.jobs:
			j.done <- l.dispatch(j)
		}
	}
}

func (l *Loop) dispatch(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Event handler panicked", zap.Any("panic", r))
			err = apperr.Wrap("dispatch", apperr.CodeInternal, fmt.Errorf("handler panic: %v", r), nil)
		}
	}()

	return j.fn(j.ctx)
}

// Do runs fn on the loop and waits for its result. It gives up when ctx is
// done before the loop picks the job up.
func (l *Loop) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	select {
	case l.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}

	return <-j.done
}

// Stopped is closed once Run returns.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}
