package agent

import (
	"browser-use-webui/internal/entity"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunFunc is the body of a task. It should return promptly once ctx is done.
type RunFunc func(ctx context.Context) (string, error)

// Task is a cancellable handle on a running RunFunc.
type Task struct {
	mu     sync.Mutex
	task   entity.Task
	cancel context.CancelFunc
	done   chan struct{}
}

// Start runs fn on its own goroutine. The task outlives parent's cancellation
// and stops only through Cancel.
func Start(parent context.Context, description, startURL string, fn RunFunc) *Task {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))

	t := &Task{
		task: entity.Task{
			ID:          uuid.New(),
			Description: description,
			StartURL:    startURL,
			Status:      entity.TaskStatusInProgress,
			CreatedAt:   time.Now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go t.run(ctx, fn)

	return t
}

func (t *Task) run(ctx context.Context, fn RunFunc) {
	defer close(t.done)
	defer t.cancel()

	result, err := fn(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.task.CompletedAt = &now
	t.task.Result = result

	switch {
	case err == nil:
		t.task.Status = entity.TaskStatusCompleted
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		t.task.Status = entity.TaskStatusCancelled
		t.task.Error = err.Error()
	default:
		t.task.Status = entity.TaskStatusFailed
		t.task.Error = err.Error()
	}
}

func (t *Task) ID() string {
	return t.task.ID.String()
}

// Cancel requests cancellation without waiting for the task to observe it.
func (t *Task) Cancel() {
	t.cancel()
}

func (t *Task) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the task record.
func (t *Task) Snapshot() entity.Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.task
}
