package session

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/internal/ports"
	"browser-use-webui/pkg/apperr"
	"browser-use-webui/pkg/logg"
	"browser-use-webui/pkg/tracing"
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	controllerName   = "SessionController"
	controllerTracer = "session.controller"
)

// State holds the live handles of the UI session. A nil field means the
// resource is absent. Only the Controller writes it.
type State struct {
	Browser    ports.BrowserHandle
	Context    ports.ContextHandle
	Task       ports.TaskHandle
	ToolClient ports.ToolClient
}

// Controller owns the session state and enforces at most one live session
// consistent with the last applied browser settings. It is not safe for
// concurrent use; callers serialize through the UI event loop.
type Controller struct {
	logger    *zap.Logger
	tracer    trace.Tracer
	launcher  ports.BrowserLauncher
	connector ports.ToolConnector
	runtime   ports.AgentRuntime
	state     State
}

type Params struct {
	fx.In

	Logger    *zap.Logger
	Launcher  ports.BrowserLauncher
	Connector ports.ToolConnector
	Runtime   ports.AgentRuntime
}

func NewController(params Params) *Controller {
	return &Controller{
		logger:    params.Logger.With(zap.String(logg.Layer, controllerName)),
		tracer:    otel.Tracer(controllerTracer),
		launcher:  params.Launcher,
		connector: params.Connector,
		runtime:   params.Runtime,
	}
}

// State exposes the handles for handlers that need to inspect them. Any field
// may be nil at any time.
func (c *Controller) State() *State {
	return &c.state
}

func (c *Controller) Status() entity.SessionStatus {
	status := entity.SessionStatus{
		State:          entity.SessionAbsent,
		BrowserOpen:    c.state.Browser != nil,
		ContextOpen:    c.state.Context != nil,
		ToolClientOpen: c.state.ToolClient != nil,
	}

	if c.state.Browser != nil {
		status.State = entity.SessionLive
	}

	if c.state.Task != nil {
		status.TaskID = c.state.Task.ID()
		status.TaskRunning = !c.state.Task.Done()
	}

	return status
}

// Teardown cancels the active task, then closes the browser context, then the
// browser. Cancellation is requested but not awaited. Close failures are
// logged and swallowed; calling Teardown on an absent session is a no-op.
func (c *Controller) Teardown(ctx context.Context, reason string) {
	const op = "Teardown"
	logger := c.logger.With(zap.String(logg.Operation, op), zap.String("reason", reason))

	ctx, step := tracing.StartSpan(ctx, c.tracer, logger, op, attribute.String("reason", reason))
	defer step.End(nil)

	if task := c.state.Task; task != nil {
		if !task.Done() {
			logger.Info("Cancelling running task", zap.String(logg.TaskID, task.ID()))
			task.Cancel()
			step.AddEvent("task cancelled")
		}

		c.state.Task = nil
	}

	if bc := c.state.Context; bc != nil {
		logger.Info("Closing browser context")

		if err := bc.Close(ctx); err != nil {
			logger.Warn("Failed to close browser context", zap.Error(err))
		}

		c.state.Context = nil
		step.AddEvent("context closed")
	}

	if b := c.state.Browser; b != nil {
		logger.Info("Closing browser")

		if err := b.Close(ctx); err != nil {
			logger.Warn("Failed to close browser", zap.Error(err))
		}

		c.state.Browser = nil
		step.AddEvent("browser closed")
	}
}

// CloseToolClient closes and clears the current tool client and reports
// whether one was open.
func (c *Controller) CloseToolClient(ctx context.Context) bool {
	const op = "CloseToolClient"
	logger := c.logger.With(zap.String(logg.Operation, op))

	client := c.state.ToolClient
	if client == nil {
		return false
	}

	logger.Warn("Closing tool client because the tool configuration changed")

	if err := client.Close(ctx); err != nil {
		logger.Warn("Failed to close tool client", zap.Error(err))
	}

	c.state.ToolClient = nil

	return true
}

// Shutdown releases every handle, the tool client included.
func (c *Controller) Shutdown(ctx context.Context) {
	c.Teardown(ctx, "shutdown")
	c.CloseToolClient(ctx)
}

// Launch moves the session from absent to live. A live browser is reused only
// when settings.KeepBrowserOpen is set; otherwise it is torn down and reopened.
// The tool client is connected when toolConfig is non-nil and none is open.
func (c *Controller) Launch(ctx context.Context, settings entity.BrowserSettings, toolConfig *entity.ToolConfig) (err error) {
	const op = "Launch"
	logger := c.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, c.tracer, logger, op,
		attribute.Bool("headless", settings.Headless),
		attribute.Bool("keep_browser_open", settings.KeepBrowserOpen))
	defer func() {
		step.End(err)
	}()

	if err := settings.Validate(); err != nil {
		return apperr.InvalidReqError(op, "browser_settings", err)
	}

	if c.taskRunning() {
		return apperr.WrapErrorWithReason(op, apperr.CodeTaskRunning, "task_running")
	}

	if c.state.Browser != nil && !settings.KeepBrowserOpen {
		c.Teardown(ctx, "relaunch")
	}

	if c.state.Browser == nil {
		step.AddEvent("opening browser")

		browser, err := c.launcher.Open(ctx, settings)
		if err != nil {
			return apperr.Wrap(op, apperr.CodeUnavailable, err, map[string]any{
				apperr.MetaReason: "browser_open_failed",
				apperr.MetaStage:  apperr.StageBrowser,
			})
		}

		c.state.Browser = browser
		logger.Info("Browser opened")
	}

	if c.state.Context == nil {
		step.AddEvent("opening context")

		bc, err := c.state.Browser.NewContext(ctx, settings)
		if err != nil {
			return apperr.Wrap(op, apperr.CodeUnavailable, err, map[string]any{
				apperr.MetaReason: "context_open_failed",
				apperr.MetaStage:  apperr.StageBrowser,
			})
		}

		c.state.Context = bc
		logger.Info("Browser context opened")
	}

	if toolConfig != nil && c.state.ToolClient == nil {
		step.AddEvent("connecting tool client")

		client, err := c.connector.Connect(ctx, *toolConfig)
		if err != nil {
			return apperr.Wrap(op, apperr.CodeUnavailable, err, map[string]any{
				apperr.MetaReason: "tool_client_connect_failed",
				apperr.MetaStage:  apperr.StageToolClient,
			})
		}

		c.state.ToolClient = client
		logger.Info("Tool client connected", zap.Strings(logg.Server, toolConfig.ServerNames()))
	}

	return nil
}

// Run launches the session if needed and starts a task on it. Only one task
// may be active at a time.
func (c *Controller) Run(ctx context.Context, req entity.TaskRequest, settings entity.BrowserSettings, toolConfig *entity.ToolConfig) (handle ports.TaskHandle, err error) {
	const op = "Run"
	logger := c.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, c.tracer, logger, op, attribute.String("start_url", req.StartURL))
	defer func() {
		step.End(err)
	}()

	if req.Description == "" && req.StartURL == "" {
		return nil, apperr.InvalidReqError(op, "task", errors.New("task description or start url is required"))
	}

	if c.taskRunning() {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeTaskRunning, "task_running")
	}

	if err := c.Launch(ctx, settings, toolConfig); err != nil {
		return nil, err
	}

	handle, err = c.runtime.Start(ctx, c.state.Context, req)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "task_start_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}

	c.state.Task = handle
	logger.Info("Task started", zap.String(logg.TaskID, handle.ID()))

	return handle, nil
}

func (c *Controller) taskRunning() bool {
	return c.state.Task != nil && !c.state.Task.Done()
}
