package webui

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/pkg/apperr"
	"context"
)

func (m *Manager) sessionInputs(op string) (entity.BrowserSettings, entity.AgentSettings, *entity.ToolConfig, error) {
	browserSettings, err := m.BrowserSettings()
	if err != nil {
		return entity.BrowserSettings{}, entity.AgentSettings{}, nil, err
	}

	agentSettings, err := m.AgentSettings()
	if err != nil {
		return entity.BrowserSettings{}, entity.AgentSettings{}, nil, err
	}

	toolConfig, err := entity.ParseToolConfig(agentSettings.ToolConfigText)
	if err != nil {
		return entity.BrowserSettings{}, entity.AgentSettings{}, nil, apperr.Wrap(op, apperr.CodeParseFailed, err, map[string]any{
			apperr.MetaReason: "tool_config_malformed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}

	return browserSettings, agentSettings, toolConfig, nil
}

// LaunchSession opens the browser, its context and the tool client from the
// current settings.
func (m *Manager) LaunchSession(ctx context.Context) (entity.SessionStatus, error) {
	const op = "LaunchSession"

	browserSettings, _, toolConfig, err := m.sessionInputs(op)
	if err != nil {
		return m.session.Status(), err
	}

	err = m.session.Launch(ctx, browserSettings, toolConfig)

	return m.session.Status(), err
}

func (m *Manager) RunTask(ctx context.Context, description, startURL string) (entity.SessionStatus, error) {
	const op = "RunTask"

	browserSettings, agentSettings, toolConfig, err := m.sessionInputs(op)
	if err != nil {
		return m.session.Status(), err
	}

	req := entity.TaskRequest{
		Description: description,
		StartURL:    startURL,
		Agent:       agentSettings,
	}

	_, err = m.session.Run(ctx, req, browserSettings, toolConfig)

	return m.session.Status(), err
}

func (m *Manager) StopSession(ctx context.Context) entity.SessionStatus {
	m.session.Teardown(ctx, "stopped by user")

	return m.session.Status()
}

func (m *Manager) SessionStatus() entity.SessionStatus {
	return m.session.Status()
}

// Shutdown releases every session handle, the tool client included.
func (m *Manager) Shutdown(ctx context.Context) {
	m.session.Shutdown(ctx)
}
