package webui

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/internal/registry"
	"context"
)

const BrowserTab = "browser_settings"

const (
	FieldBinaryPath           = "browser_binary_path"
	FieldUserDataDir          = "browser_user_data_dir"
	FieldUseOwnBrowser        = "use_own_browser"
	FieldKeepBrowserOpen      = "keep_browser_open"
	FieldHeadless             = "headless"
	FieldDisableSecurity      = "disable_security"
	FieldWindowWidth          = "window_w"
	FieldWindowHeight         = "window_h"
	FieldCDPURL               = "cdp_url"
	FieldWSSURL               = "wss_url"
	FieldSaveRecordingPath    = "save_recording_path"
	FieldSaveTracePath        = "save_trace_path"
	FieldSaveAgentHistoryPath = "save_agent_history_path"
	FieldSaveDownloadPath     = "save_download_path"
)

// sessionFields invalidate the live browser session when they change.
var sessionFields = []string{FieldHeadless, FieldKeepBrowserOpen, FieldDisableSecurity, FieldUseOwnBrowser}

func (m *Manager) buildBrowserSettingsTab() error {
	defaults := m.config.BrowserConfig

	fields := map[string]*entity.Component{
		FieldBinaryPath:           textbox("Browser binary path", ""),
		FieldUserDataDir:          textbox("Browser user data dir", ""),
		FieldUseOwnBrowser:        checkbox("Use own browser", defaults.UseOwnBrowser),
		FieldKeepBrowserOpen:      checkbox("Keep browser open", defaults.KeepBrowserOpen),
		FieldHeadless:             checkbox("Headless mode", false),
		FieldDisableSecurity:      checkbox("Disable security", false),
		FieldWindowWidth:          number("Window width", 1280),
		FieldWindowHeight:         number("Window height", 1100),
		FieldCDPURL:               textbox("CDP URL", defaults.CDPURL),
		FieldWSSURL:               textbox("WSS URL", ""),
		FieldSaveRecordingPath:    textbox("Recording path", ""),
		FieldSaveTracePath:        textbox("Trace path", ""),
		FieldSaveAgentHistoryPath: textbox("Agent history path", "./tmp/agent_history"),
		FieldSaveDownloadPath:     textbox("Download path", "./tmp/downloads"),
	}

	if err := m.registry.RegisterTab(BrowserTab, fields); err != nil {
		return err
	}

	for _, field := range sessionFields {
		reason := field + " changed"

		err := m.Bind(Rule{
			Name:   field + ".session_teardown",
			Source: registry.Key(BrowserTab, field),
			Apply: func(ctx context.Context, _ any) (map[string]entity.Patch, error) {
				m.session.Teardown(ctx, reason)

				return nil, nil
			},
		})
		if err != nil {
			return err
		}
	}

	return nil
}
