package bootstrap

import (
	"browser-use-webui/internal/config"
	"browser-use-webui/internal/console"
	"browser-use-webui/internal/webui"
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type consoleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     *config.Config
	Logger     *zap.Logger
	Loop       *webui.Loop
	Manager    *webui.Manager
}

// runConsole attaches the terminal front end when WEBUI_CONSOLE is set.
// Leaving the console shuts the application down.
func runConsole(params consoleParams) {
	if !params.Config.ServerConfig.Console {
		return
	}

	logger := params.Logger
	consoleInterface := console.NewInterface(logger, params.Manager, params.Loop,
		params.Config.AgentConfig.SettingsDir, os.Stdin, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("Starting console interface...")

			go func() {
				if err := consoleInterface.Start(ctx); err != nil {
					logger.Error("Console interface error", zap.Error(err))
				}

				if ctx.Err() == nil {
					if err := params.Shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to request shutdown", zap.Error(err))
					}
				}
			}()

			return nil
		},
		OnStop: func(context.Context) error {
			cancel()

			return nil
		},
	})
}
