package console

import (
	"browser-use-webui/internal/entity"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type directDispatcher struct{ calls int }

func (d *directDispatcher) Do(ctx context.Context, fn func(context.Context) error) error {
	d.calls++

	return fn(ctx)
}

type fakeBackend struct {
	changes  map[string]any
	runs     [][2]string
	launched int
	stopped  int
	savedTo  string
	loaded   string
}

func (b *fakeBackend) Component(key string) (entity.Component, error) {
	if key != "browser_settings.headless" {
		return entity.Component{}, errors.New("not found")
	}

	return entity.Component{Kind: entity.KindCheckbox, Label: "Headless Mode", Value: false, Visible: true}, nil
}

func (b *fakeBackend) Change(_ context.Context, key string, value any) (map[string]entity.Component, error) {
	if b.changes == nil {
		b.changes = map[string]any{}
	}
	b.changes[key] = value

	return map[string]entity.Component{key: {Value: value, Visible: true}}, nil
}

func (b *fakeBackend) LaunchSession(context.Context) (entity.SessionStatus, error) {
	b.launched++

	return entity.SessionStatus{State: entity.SessionLive, BrowserOpen: true, ContextOpen: true}, nil
}

func (b *fakeBackend) RunTask(_ context.Context, description, startURL string) (entity.SessionStatus, error) {
	b.runs = append(b.runs, [2]string{description, startURL})

	return entity.SessionStatus{State: entity.SessionLive, TaskRunning: true}, nil
}

func (b *fakeBackend) StopSession(context.Context) entity.SessionStatus {
	b.stopped++

	return entity.SessionStatus{State: entity.SessionAbsent}
}

func (b *fakeBackend) SessionStatus() entity.SessionStatus {
	return entity.SessionStatus{State: entity.SessionAbsent}
}

func (b *fakeBackend) SaveConfig(_ context.Context, dir string) (string, error) {
	b.savedTo = dir

	return dir + "/20250101-120000.json", nil
}

func (b *fakeBackend) LoadConfig(_ context.Context, path string) (map[string]entity.Component, error) {
	b.loaded = path

	return map[string]entity.Component{"a.b": {}}, nil
}

func run(t *testing.T, backend *fakeBackend, input string) (string, *directDispatcher) {
	t.Helper()

	var out bytes.Buffer
	dispatcher := &directDispatcher{}
	console := NewInterface(zap.NewNop(), backend, dispatcher, "./tmp/webui_settings", strings.NewReader(input), &out)

	require.NoError(t, console.Start(context.Background()))

	return out.String(), dispatcher
}

func TestConsoleSessionCommands(t *testing.T) {
	backend := &fakeBackend{}

	out, dispatcher := run(t, backend, "launch\nrun find the weather\nvisit https://example.com read the title\nstop\nstatus\n")

	assert.Equal(t, 1, backend.launched)
	assert.Equal(t, 1, backend.stopped)
	assert.Equal(t, [][2]string{
		{"find the weather", ""},
		{"read the title", "https://example.com"},
	}, backend.runs)
	assert.Equal(t, 5, dispatcher.calls)
	assert.Contains(t, out, "session: live browser=true context=true")
	assert.Contains(t, out, "session: absent")
}

func TestConsoleSettingsCommands(t *testing.T) {
	backend := &fakeBackend{}

	out, _ := run(t, backend, "set browser_settings.window_w 1920\nget browser_settings.headless\nsave\nload ./cfg.json\n")

	assert.Equal(t, map[string]any{"browser_settings.window_w": "1920"}, backend.changes)
	assert.Contains(t, out, "browser_settings.window_w = 1920 (visible=true)")
	assert.Contains(t, out, `"label": "Headless Mode"`)
	assert.Equal(t, "./tmp/webui_settings", backend.savedTo)
	assert.Equal(t, "./cfg.json", backend.loaded)
	assert.Contains(t, out, "Loaded 1 components")
}

func TestConsoleExitStopsReading(t *testing.T) {
	backend := &fakeBackend{}

	out, _ := run(t, backend, "exit\nlaunch\n")

	assert.Zero(t, backend.launched)
	assert.Contains(t, out, "Shutting down...")
}

func TestConsoleReportsErrors(t *testing.T) {
	backend := &fakeBackend{}

	out, _ := run(t, backend, "dance\nget nowhere.key\nset onlykey\nrun\n")

	assert.Contains(t, out, `Error: unknown command "dance"`)
	assert.Contains(t, out, "Error: not found")
	assert.Contains(t, out, "Error: usage: set <key> <value>")
	assert.Contains(t, out, "Error: usage: run <task>")
	assert.Empty(t, backend.runs)
}
