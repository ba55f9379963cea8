package bootstrap

import (
	"browser-use-webui/internal/config"
	"browser-use-webui/internal/webui"
	"context"
	"errors"
	"net"
	"net/http"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serverParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger
	Loop      *webui.Loop
	Manager   *webui.Manager
	Handler   *webui.Handler

	// Tracer is requested so the provider is installed before any span starts.
	Tracer *sdktrace.TracerProvider
}

func runServer(params serverParams) {
	logger := params.Logger
	srvCfg := params.Config.ServerConfig

	server := &http.Server{
		Addr:        srvCfg.Addr,
		Handler:     params.Handler.Routes(),
		ReadTimeout: srvCfg.ReadTimeout,
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting browser agent web UI...", zap.String("addr", srvCfg.Addr))

			listener, err := net.Listen("tcp", srvCfg.Addr)
			if err != nil {
				stopLoop()

				return err
			}

			go params.Loop.Run(loopCtx)

			go func() {
				if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server error", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down web UI...")

			shutdownCtx, cancel := context.WithTimeout(ctx, srvCfg.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shut down HTTP server", zap.Error(err))
			}

			err := params.Loop.Do(shutdownCtx, func(ctx context.Context) error {
				params.Manager.Shutdown(ctx)

				return nil
			})
			if err != nil {
				logger.Error("Failed to release session", zap.Error(err))
			}

			stopLoop()
			<-params.Loop.Stopped()

			return nil
		},
	})
}
