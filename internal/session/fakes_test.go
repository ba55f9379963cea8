package session

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/internal/ports"
	"context"
	"errors"
)

// calls records the order in which fakes were released.
type calls struct {
	log []string
}

func (c *calls) add(s string) { c.log = append(c.log, s) }

type fakeTask struct {
	calls    *calls
	done     bool
	canceled bool
}

func (t *fakeTask) ID() string { return "task-1" }
func (t *fakeTask) Done() bool { return t.done }
func (t *fakeTask) Cancel() {
	t.canceled = true
	t.calls.add("task.cancel")
}

type fakeContext struct {
	calls    *calls
	closeErr error
	closed   int
}

func (c *fakeContext) Visit(context.Context, string) (*entity.PageInfo, error) {
	return &entity.PageInfo{}, nil
}

func (c *fakeContext) Close(context.Context) error {
	c.closed++
	c.calls.add("context.close")

	return c.closeErr
}

type fakeBrowser struct {
	calls      *calls
	closeErr   error
	closed     int
	contextErr error
	contexts   int
}

func (b *fakeBrowser) NewContext(context.Context, entity.BrowserSettings) (ports.ContextHandle, error) {
	if b.contextErr != nil {
		return nil, b.contextErr
	}

	b.contexts++

	return &fakeContext{calls: b.calls}, nil
}

func (b *fakeBrowser) Close(context.Context) error {
	b.closed++
	b.calls.add("browser.close")

	return b.closeErr
}

type fakeToolClient struct {
	calls    *calls
	closeErr error
	closed   int
}

func (c *fakeToolClient) Tools(context.Context) ([]string, error) { return []string{"t"}, nil }

func (c *fakeToolClient) Close(context.Context) error {
	c.closed++
	c.calls.add("tool.close")

	return c.closeErr
}

type fakeLauncher struct {
	calls    *calls
	opened   []*fakeBrowser
	openErr  error
	settings []entity.BrowserSettings
}

func (l *fakeLauncher) Open(_ context.Context, s entity.BrowserSettings) (ports.BrowserHandle, error) {
	l.settings = append(l.settings, s)
	if l.openErr != nil {
		return nil, l.openErr
	}

	b := &fakeBrowser{calls: l.calls}
	l.opened = append(l.opened, b)

	return b, nil
}

type fakeConnector struct {
	calls   *calls
	clients []*fakeToolClient
	err     error
}

func (c *fakeConnector) Connect(context.Context, entity.ToolConfig) (ports.ToolClient, error) {
	if c.err != nil {
		return nil, c.err
	}

	client := &fakeToolClient{calls: c.calls}
	c.clients = append(c.clients, client)

	return client, nil
}

type fakeRuntime struct {
	calls *calls
	tasks []*fakeTask
	err   error
}

func (r *fakeRuntime) Start(context.Context, ports.ContextHandle, entity.TaskRequest) (ports.TaskHandle, error) {
	if r.err != nil {
		return nil, r.err
	}

	task := &fakeTask{calls: r.calls}
	r.tasks = append(r.tasks, task)

	return task, nil
}

var errGone = errors.New("connection already gone")
