package session

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/pkg/apperr"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	calls     *calls
	launcher  *fakeLauncher
	connector *fakeConnector
	runtime   *fakeRuntime
	ctrl      *Controller
}

func newHarness() *harness {
	c := &calls{}
	h := &harness{
		calls:     c,
		launcher:  &fakeLauncher{calls: c},
		connector: &fakeConnector{calls: c},
		runtime:   &fakeRuntime{calls: c},
	}

	h.ctrl = NewController(Params{
		Logger:    zap.NewNop(),
		Launcher:  h.launcher,
		Connector: h.connector,
		Runtime:   h.runtime,
	})

	return h
}

func browserSettings() entity.BrowserSettings {
	return entity.BrowserSettings{WindowWidth: 1280, WindowHeight: 1100, KeepBrowserOpen: true}
}

func TestTeardownOrder(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	task, err := h.ctrl.Run(ctx, entity.TaskRequest{Description: "find things"}, browserSettings(), nil)
	require.NoError(t, err)
	require.Equal(t, entity.SessionLive, h.ctrl.Status().State)
	require.True(t, h.ctrl.Status().TaskRunning)

	h.ctrl.Teardown(ctx, "headless changed")

	assert.Equal(t, []string{"task.cancel", "context.close", "browser.close"}, h.calls.log)
	assert.True(t, task.(*fakeTask).canceled)

	state := h.ctrl.State()
	assert.Nil(t, state.Task)
	assert.Nil(t, state.Context)
	assert.Nil(t, state.Browser)
	assert.Equal(t, entity.SessionAbsent, h.ctrl.Status().State)
}

func TestTeardownIdempotent(t *testing.T) {
	h := newHarness()

	assert.NotPanics(t, func() {
		h.ctrl.Teardown(context.Background(), "first")
		h.ctrl.Teardown(context.Background(), "second")
	})
	assert.Empty(t, h.calls.log)
}

func TestTeardownSkipsCancelForFinishedTask(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.ctrl.Run(ctx, entity.TaskRequest{StartURL: "https://example.com"}, browserSettings(), nil)
	require.NoError(t, err)
	h.runtime.tasks[0].done = true

	h.ctrl.Teardown(ctx, "config changed")

	assert.False(t, h.runtime.tasks[0].canceled)
	assert.Nil(t, h.ctrl.State().Task)
	assert.Equal(t, []string{"context.close", "browser.close"}, h.calls.log)
}

func TestTeardownSwallowsCloseFailures(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.ctrl.Launch(ctx, browserSettings(), nil))

	h.ctrl.State().Context.(*fakeContext).closeErr = errGone
	h.launcher.opened[0].closeErr = errGone

	h.ctrl.Teardown(ctx, "disable_security changed")

	assert.Nil(t, h.ctrl.State().Context)
	assert.Nil(t, h.ctrl.State().Browser)
	assert.Equal(t, 1, h.launcher.opened[0].closed)
}

func TestCloseToolClient(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	assert.False(t, h.ctrl.CloseToolClient(ctx))

	cfg := &entity.ToolConfig{Servers: map[string]entity.ToolServer{"a": {Command: "x"}}}
	require.NoError(t, h.ctrl.Launch(ctx, browserSettings(), cfg))
	require.NotNil(t, h.ctrl.State().ToolClient)

	h.connector.clients[0].closeErr = errGone

	assert.True(t, h.ctrl.CloseToolClient(ctx))
	assert.Nil(t, h.ctrl.State().ToolClient)
	assert.Equal(t, 1, h.connector.clients[0].closed)
	assert.False(t, h.ctrl.CloseToolClient(ctx))
}

func TestTeardownKeepsToolClient(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	cfg := &entity.ToolConfig{Servers: map[string]entity.ToolServer{"a": {URL: "http://localhost/mcp"}}}
	require.NoError(t, h.ctrl.Launch(ctx, browserSettings(), cfg))

	h.ctrl.Teardown(ctx, "headless changed")
	assert.NotNil(t, h.ctrl.State().ToolClient)

	h.ctrl.Shutdown(ctx)
	assert.Nil(t, h.ctrl.State().ToolClient)
}

func TestLaunchReusesBrowserWhenKeptOpen(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.ctrl.Launch(ctx, browserSettings(), nil))
	require.NoError(t, h.ctrl.Launch(ctx, browserSettings(), nil))

	assert.Len(t, h.launcher.opened, 1)
	assert.Equal(t, 1, h.launcher.opened[0].contexts)
}

func TestLaunchReopensWhenNotKeptOpen(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	settings := browserSettings()
	settings.KeepBrowserOpen = false

	require.NoError(t, h.ctrl.Launch(ctx, settings, nil))
	require.NoError(t, h.ctrl.Launch(ctx, settings, nil))

	require.Len(t, h.launcher.opened, 2)
	assert.Equal(t, 1, h.launcher.opened[0].closed)
	assert.Equal(t, 0, h.launcher.opened[1].closed)
}

func TestLaunchValidatesSettings(t *testing.T) {
	h := newHarness()

	err := h.ctrl.Launch(context.Background(), entity.BrowserSettings{}, nil)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Empty(t, h.launcher.settings)
}

func TestLaunchOpenFailureLeavesSessionAbsent(t *testing.T) {
	h := newHarness()
	h.launcher.openErr = errors.New("no chromium")

	err := h.ctrl.Launch(context.Background(), browserSettings(), nil)
	assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(err))
	assert.Equal(t, entity.SessionAbsent, h.ctrl.Status().State)
}

func TestRunRejectsSecondActiveTask(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	req := entity.TaskRequest{Description: "task"}

	_, err := h.ctrl.Run(ctx, req, browserSettings(), nil)
	require.NoError(t, err)

	_, err = h.ctrl.Run(ctx, req, browserSettings(), nil)
	assert.Equal(t, apperr.CodeTaskRunning, apperr.CodeOf(err))

	h.runtime.tasks[0].done = true

	_, err = h.ctrl.Run(ctx, req, browserSettings(), nil)
	require.NoError(t, err)
	assert.Len(t, h.runtime.tasks, 2)
}

func TestRunRequiresTask(t *testing.T) {
	h := newHarness()

	_, err := h.ctrl.Run(context.Background(), entity.TaskRequest{}, browserSettings(), nil)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}
