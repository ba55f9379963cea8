package agent

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/internal/ports"
	"browser-use-webui/pkg/logg"
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const runtimeName = "PageRuntime"

// PageRuntime is the built-in runtime: it opens the start URL in the session
// context and reports the page title. LLM-driven runtimes plug in through
// ports.AgentRuntime.
type PageRuntime struct {
	logger *zap.Logger
}

type Params struct {
	fx.In

	Logger *zap.Logger
}

func NewPageRuntime(params Params) *PageRuntime {
	return &PageRuntime{
		logger: params.Logger.With(zap.String(logg.Layer, runtimeName)),
	}
}

func (r *PageRuntime) Start(ctx context.Context, browserContext ports.ContextHandle, req entity.TaskRequest) (ports.TaskHandle, error) {
	if browserContext == nil {
		return nil, errors.New("no browser context")
	}

	task := Start(ctx, req.Description, req.StartURL, func(ctx context.Context) (string, error) {
		if req.StartURL == "" {
			return req.Description, nil
		}

		page, err := browserContext.Visit(ctx, req.StartURL)
		if err != nil {
			return "", fmt.Errorf("visit %s: %w", req.StartURL, err)
		}

		return page.Title, nil
	})

	r.logger.Info("Task dispatched", zap.String(logg.TaskID, task.ID()), zap.String(logg.URL, req.StartURL))

	return task, nil
}
