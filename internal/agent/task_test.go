package agent

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/internal/ports"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func waitDone(t *testing.T, task *Task) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, task.Wait(ctx))
}

func TestTaskCompletes(t *testing.T) {
	task := Start(context.Background(), "say hi", "", func(context.Context) (string, error) {
		return "hi", nil
	})

	waitDone(t, task)

	assert.True(t, task.Done())
	snap := task.Snapshot()
	assert.Equal(t, entity.TaskStatusCompleted, snap.Status)
	assert.Equal(t, "hi", snap.Result)
	assert.NotNil(t, snap.CompletedAt)
	assert.NotEmpty(t, task.ID())
}

func TestTaskCancel(t *testing.T) {
	started := make(chan struct{})
	task := Start(context.Background(), "block", "", func(ctx context.Context) (string, error) {
		close(started)
		<-ctx.Done()

		return "", ctx.Err()
	})

	<-started
	assert.False(t, task.Done())

	task.Cancel()
	waitDone(t, task)

	assert.Equal(t, entity.TaskStatusCancelled, task.Snapshot().Status)
}

func TestTaskOutlivesParentContext(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})

	task := Start(parent, "long", "", func(ctx context.Context) (string, error) {
		select {
		case <-release:
			return "finished", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	cancel()
	close(release)
	waitDone(t, task)

	assert.Equal(t, entity.TaskStatusCompleted, task.Snapshot().Status)
}

func TestTaskFailure(t *testing.T) {
	task := Start(context.Background(), "fail", "", func(context.Context) (string, error) {
		return "", errors.New("page crashed")
	})

	waitDone(t, task)

	snap := task.Snapshot()
	assert.Equal(t, entity.TaskStatusFailed, snap.Status)
	assert.Equal(t, "page crashed", snap.Error)
}

type visitContext struct {
	visited []string
	err     error
}

func (c *visitContext) Visit(_ context.Context, url string) (*entity.PageInfo, error) {
	c.visited = append(c.visited, url)
	if c.err != nil {
		return nil, c.err
	}

	return &entity.PageInfo{URL: url, Title: "Example Domain"}, nil
}

func (c *visitContext) Close(context.Context) error { return nil }

var _ ports.ContextHandle = (*visitContext)(nil)

func TestPageRuntimeVisitsStartURL(t *testing.T) {
	rt := NewPageRuntime(Params{Logger: zap.NewNop()})
	bc := &visitContext{}

	handle, err := rt.Start(context.Background(), bc, entity.TaskRequest{Description: "open", StartURL: "https://example.com"})
	require.NoError(t, err)

	task := handle.(*Task)
	waitDone(t, task)

	assert.Equal(t, []string{"https://example.com"}, bc.visited)
	assert.Equal(t, "Example Domain", task.Snapshot().Result)
}

func TestPageRuntimeVisitFailure(t *testing.T) {
	rt := NewPageRuntime(Params{Logger: zap.NewNop()})

	handle, err := rt.Start(context.Background(), &visitContext{err: errors.New("dns")}, entity.TaskRequest{StartURL: "https://nowhere.invalid"})
	require.NoError(t, err)

	task := handle.(*Task)
	waitDone(t, task)
	assert.Equal(t, entity.TaskStatusFailed, task.Snapshot().Status)
}

func TestPageRuntimeRequiresContext(t *testing.T) {
	rt := NewPageRuntime(Params{Logger: zap.NewNop()})

	_, err := rt.Start(context.Background(), nil, entity.TaskRequest{StartURL: "https://example.com"})
	require.Error(t, err)
}
