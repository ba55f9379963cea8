package bootstrap

import (
	"browser-use-webui/internal/agent"
	"browser-use-webui/internal/browser"
	"browser-use-webui/internal/config"
	"browser-use-webui/internal/ports"
	"browser-use-webui/internal/registry"
	"browser-use-webui/internal/session"
	"browser-use-webui/internal/toolclient"
	"browser-use-webui/internal/webui"
	"time"

	"go.uber.org/fx"
)

func NewApp() *fx.App {
	return fx.New(
		fx.Provide(
			config.GetConfig,
			newLogger,
			newTraceProvider,

			config.DefaultModelTable,
			registry.New,

			fx.Annotate(browser.NewLauncher, fx.As(new(ports.BrowserLauncher))),
			fx.Annotate(toolclient.NewConnector, fx.As(new(ports.ToolConnector))),
			fx.Annotate(agent.NewPageRuntime, fx.As(new(ports.AgentRuntime))),

			session.NewController,

			webui.NewLoop,
			webui.NewManager,
			webui.NewHandler,
		),

		fx.Invoke(
			runServer,
			runConsole,
		),

		fx.StartTimeout(10*time.Second),
	)
}
