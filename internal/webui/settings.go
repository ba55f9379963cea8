package webui

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/internal/registry"
)

// fieldReader reads typed values out of one namespace and keeps the first
// lookup error.
type fieldReader struct {
	registry  *registry.Registry
	namespace string
	err       error
}

func (r *fieldReader) comp(field string) *entity.Component {
	comp, err := r.registry.Get(r.namespace, field)
	if err != nil {
		if r.err == nil {
			r.err = err
		}

		return &entity.Component{}
	}

	return comp
}

func (r *fieldReader) str(field string) string   { return r.comp(field).StringValue() }
func (r *fieldReader) boolean(field string) bool { return r.comp(field).BoolValue() }
func (r *fieldReader) integer(field string) int  { return r.comp(field).IntValue() }
func (r *fieldReader) float(field string) float64 {
	return r.comp(field).FloatValue()
}

// AgentSettings converts the agent tab into its typed record.
func (m *Manager) AgentSettings() (entity.AgentSettings, error) {
	r := &fieldReader{registry: m.registry, namespace: AgentTab}

	settings := entity.AgentSettings{
		OverrideSystemPrompt: r.str(FieldOverrideSystemPrompt),
		ExtendSystemPrompt:   r.str(FieldExtendSystemPrompt),
		LLM:                  m.llmSettings(r, mainLLM),
		MaxSteps:             r.integer(FieldMaxSteps),
		MaxActions:           r.integer(FieldMaxActions),
		MaxInputTokens:       r.integer(FieldMaxInputTokens),
		ToolCallingMethod:    r.str(FieldToolCallingMethod),
		ToolConfigPath:       r.str(FieldToolConfigFile),
		ToolConfigText:       r.str(FieldToolConfigDisplay),
	}

	if r.str(plannerLLM.Provider) != "" {
		planner := m.llmSettings(r, plannerLLM)
		settings.Planner = &planner
	}

	return settings, r.err
}

func (m *Manager) llmSettings(r *fieldReader, block llmFields) entity.LLMSettings {
	provider := r.str(block.Provider)
	known, _ := m.table.Models(provider)

	return entity.LLMSettings{
		Provider:      provider,
		Model:         entity.NewModelChoice(known, r.str(block.Model)),
		Temperature:   r.float(block.Temperature),
		UseVision:     r.boolean(block.UseVision),
		ContextLength: r.integer(block.ContextLength),
		BaseURL:       r.str(block.BaseURL),
		APIKey:        r.str(block.APIKey),
	}
}

// BrowserSettings converts the browser tab into its typed record.
func (m *Manager) BrowserSettings() (entity.BrowserSettings, error) {
	r := &fieldReader{registry: m.registry, namespace: BrowserTab}

	settings := entity.BrowserSettings{
		BinaryPath:           r.str(FieldBinaryPath),
		UserDataDir:          r.str(FieldUserDataDir),
		UseOwnBrowser:        r.boolean(FieldUseOwnBrowser),
		KeepBrowserOpen:      r.boolean(FieldKeepBrowserOpen),
		Headless:             r.boolean(FieldHeadless),
		DisableSecurity:      r.boolean(FieldDisableSecurity),
		WindowWidth:          r.integer(FieldWindowWidth),
		WindowHeight:         r.integer(FieldWindowHeight),
		CDPURL:               r.str(FieldCDPURL),
		WSSURL:               r.str(FieldWSSURL),
		SaveRecordingPath:    r.str(FieldSaveRecordingPath),
		SaveTracePath:        r.str(FieldSaveTracePath),
		SaveAgentHistoryPath: r.str(FieldSaveAgentHistoryPath),
		SaveDownloadPath:     r.str(FieldSaveDownloadPath),
	}

	return settings, r.err
}
