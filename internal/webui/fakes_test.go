package webui

import (
	"browser-use-webui/internal/config"
	"browser-use-webui/internal/entity"
	"browser-use-webui/internal/ports"
	"browser-use-webui/internal/registry"
	"browser-use-webui/internal/session"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeContext struct{ closed int }

func (c *fakeContext) Visit(_ context.Context, url string) (*entity.PageInfo, error) {
	return &entity.PageInfo{URL: url}, nil
}

func (c *fakeContext) Close(context.Context) error {
	c.closed++

	return nil
}

type fakeBrowser struct {
	closed   int
	contexts []*fakeContext
}

func (b *fakeBrowser) NewContext(context.Context, entity.BrowserSettings) (ports.ContextHandle, error) {
	c := &fakeContext{}
	b.contexts = append(b.contexts, c)

	return c, nil
}

func (b *fakeBrowser) Close(context.Context) error {
	b.closed++

	return nil
}

type fakeLauncher struct {
	opened   []*fakeBrowser
	settings []entity.BrowserSettings
}

func (l *fakeLauncher) Open(_ context.Context, s entity.BrowserSettings) (ports.BrowserHandle, error) {
	b := &fakeBrowser{}
	l.opened = append(l.opened, b)
	l.settings = append(l.settings, s)

	return b, nil
}

type fakeToolClient struct{ closed int }

func (c *fakeToolClient) Tools(context.Context) ([]string, error) { return nil, nil }

func (c *fakeToolClient) Close(context.Context) error {
	c.closed++

	return nil
}

type fakeConnector struct {
	clients []*fakeToolClient
	configs []entity.ToolConfig
}

func (c *fakeConnector) Connect(_ context.Context, cfg entity.ToolConfig) (ports.ToolClient, error) {
	client := &fakeToolClient{}
	c.clients = append(c.clients, client)
	c.configs = append(c.configs, cfg)

	return client, nil
}

type fakeTask struct {
	done     bool
	canceled bool
}

func (t *fakeTask) ID() string { return "task" }
func (t *fakeTask) Done() bool { return t.done }
func (t *fakeTask) Cancel()    { t.canceled = true }

type fakeRuntime struct {
	tasks    []*fakeTask
	requests []entity.TaskRequest
}

func (r *fakeRuntime) Start(_ context.Context, _ ports.ContextHandle, req entity.TaskRequest) (ports.TaskHandle, error) {
	t := &fakeTask{}
	r.tasks = append(r.tasks, t)
	r.requests = append(r.requests, req)

	return t, nil
}

type fixture struct {
	conf      *config.Config
	launcher  *fakeLauncher
	connector *fakeConnector
	runtime   *fakeRuntime
	session   *session.Controller
	registry  *registry.Registry
	manager   *Manager
}

func testConfig() *config.Config {
	return &config.Config{
		AppConfig:     &config.AppConfig{LogLevel: "debug"},
		ServerConfig:  &config.ServerConfig{Addr: "127.0.0.1:0"},
		AgentConfig:   &config.AgentConfig{DefaultProvider: "google"},
		BrowserConfig: &config.BrowserConfig{KeepBrowserOpen: true},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		conf:      testConfig(),
		launcher:  &fakeLauncher{},
		connector: &fakeConnector{},
		runtime:   &fakeRuntime{},
	}
	f.conf.AgentConfig.SettingsDir = t.TempDir()

	logger := zap.NewNop()

	f.session = session.NewController(session.Params{
		Logger:    logger,
		Launcher:  f.launcher,
		Connector: f.connector,
		Runtime:   f.runtime,
	})
	f.registry = registry.New(logger)

	manager, err := NewManager(Params{
		Config:   f.conf,
		Logger:   logger,
		Registry: f.registry,
		Session:  f.session,
		Table:    config.DefaultModelTable(),
	})
	require.NoError(t, err)

	f.manager = manager

	return f
}
