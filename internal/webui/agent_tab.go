package webui

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/internal/registry"
	"browser-use-webui/internal/rules"
	"context"
)

const AgentTab = "agent_settings"

const (
	FieldOverrideSystemPrompt = "override_system_prompt"
	FieldExtendSystemPrompt   = "extend_system_prompt"
	FieldToolConfigFile       = "mcp_json_file"
	FieldToolConfigDisplay    = "mcp_server_config"
	FieldMaxSteps             = "max_steps"
	FieldMaxActions           = "max_actions"
	FieldMaxInputTokens       = "max_input_tokens"
	FieldToolCallingMethod    = "tool_calling_method"
)

// llmFields names the components of one LLM block; the agent tab has a main
// block and a planner block.
type llmFields struct {
	Provider      string
	Model         string
	Temperature   string
	UseVision     string
	ContextLength string
	BaseURL       string
	APIKey        string
}

var (
	mainLLM = llmFields{
		Provider:      "llm_provider",
		Model:         "llm_model_name",
		Temperature:   "llm_temperature",
		UseVision:     "use_vision",
		ContextLength: "ollama_num_ctx",
		BaseURL:       "llm_base_url",
		APIKey:        "llm_api_key",
	}
	plannerLLM = llmFields{
		Provider:      "planner_llm_provider",
		Model:         "planner_llm_model_name",
		Temperature:   "planner_llm_temperature",
		UseVision:     "planner_use_vision",
		ContextLength: "planner_ollama_num_ctx",
		BaseURL:       "planner_llm_base_url",
		APIKey:        "planner_llm_api_key",
	}
)

var toolCallingMethods = []string{"function_calling", "json_mode", "raw", "auto", "tools", "None"}

func (m *Manager) buildAgentSettingsTab() error {
	providers := m.table.Providers()
	defaultProvider := m.config.AgentConfig.DefaultProvider

	fields := map[string]*entity.Component{
		FieldOverrideSystemPrompt: textbox("Override system prompt", ""),
		FieldExtendSystemPrompt:   textbox("Extend system prompt", ""),
		FieldToolConfigFile: {
			Kind:        entity.KindFile,
			Label:       "MCP server file",
			Value:       "",
			FileTypes:   []string{rules.ToolConfigExtension},
			Visible:     true,
			Interactive: true,
		},
		FieldToolConfigDisplay: {
			Kind:        entity.KindTextbox,
			Label:       "MCP configuration",
			Value:       "",
			Visible:     false,
			Interactive: true,
		},
		FieldMaxSteps:       slider("Max run steps", 1, 1000, 1, 100, true),
		FieldMaxActions:     slider("Max actions per step", 1, 100, 1, 10, true),
		FieldMaxInputTokens: number("Max input tokens", 128000),
		FieldToolCallingMethod: {
			Kind:        entity.KindDropdown,
			Label:       "Tool calling method",
			Value:       "auto",
			Choices:     append([]string{}, toolCallingMethods...),
			AllowCustom: true,
			Visible:     true,
			Interactive: true,
		},
	}

	m.addLLMFields(fields, mainLLM, providers, defaultProvider, 0.6, true)
	m.addLLMFields(fields, plannerLLM, providers, "", 0.6, false)

	if err := m.registry.RegisterTab(AgentTab, fields); err != nil {
		return err
	}

	for _, block := range []llmFields{mainLLM, plannerLLM} {
		if err := m.bindProviderRules(block); err != nil {
			return err
		}
	}

	return m.Bind(Rule{
		Name:    "mcp_json_file.tool_config",
		Source:  registry.Key(AgentTab, FieldToolConfigFile),
		Targets: []string{registry.Key(AgentTab, FieldToolConfigDisplay)},
		Apply: func(ctx context.Context, value any) (map[string]entity.Patch, error) {
			path, _ := value.(string)

			display, err := m.toolRule.Apply(ctx, path)
			if err != nil {
				return nil, err
			}

			return map[string]entity.Patch{
				registry.Key(AgentTab, FieldToolConfigDisplay): entity.Patch{}.
					WithValue(display.Text).
					WithVisible(display.Visible),
			}, nil
		},
	})
}

// addLLMFields adds one LLM block. An empty provider leaves the provider
// dropdown unset, as the planner block starts.
func (m *Manager) addLLMFields(fields map[string]*entity.Component, block llmFields, providers []string, provider string, temperature float64, useVision bool) {
	providerComp := &entity.Component{
		Kind:        entity.KindDropdown,
		Label:       "LLM provider",
		Choices:     append([]string{}, providers...),
		Visible:     true,
		Interactive: true,
	}

	modelComp := &entity.Component{
		Kind:        entity.KindDropdown,
		Label:       "LLM model",
		Value:       "",
		Choices:     []string{},
		AllowCustom: true,
		Visible:     true,
		Interactive: true,
	}

	if provider != "" {
		providerComp.Value = provider
		modelComp.Apply(rules.ModelListPatch(rules.ModelList(m.table, provider)))
	}

	contextLength := slider("Ollama context length", 1<<8, 1<<16, 1, 16000, true)
	contextLength.Visible = rules.ContextLengthVisible(provider)

	fields[block.Provider] = providerComp
	fields[block.Model] = modelComp
	fields[block.Temperature] = slider("LLM temperature", 0, 2, 0.1, temperature, false)
	fields[block.UseVision] = checkbox("Use vision", useVision)
	fields[block.ContextLength] = contextLength
	fields[block.BaseURL] = textbox("Base URL", "")

	apiKey := textbox("API key", "")
	apiKey.Secret = true
	fields[block.APIKey] = apiKey
}

func (m *Manager) bindProviderRules(block llmFields) error {
	source := registry.Key(AgentTab, block.Provider)
	ctxKey := registry.Key(AgentTab, block.ContextLength)
	modelKey := registry.Key(AgentTab, block.Model)

	err := m.Bind(Rule{
		Name:    block.Provider + ".context_length_visibility",
		Source:  source,
		Targets: []string{ctxKey},
		Apply: func(_ context.Context, value any) (map[string]entity.Patch, error) {
			provider, _ := value.(string)

			return map[string]entity.Patch{
				ctxKey: rules.VisibilityPatch(rules.ContextLengthVisible(provider)),
			}, nil
		},
	})
	if err != nil {
		return err
	}

	return m.Bind(Rule{
		Name:    block.Provider + ".model_list",
		Source:  source,
		Targets: []string{modelKey},
		Apply: func(_ context.Context, value any) (map[string]entity.Patch, error) {
			provider, _ := value.(string)

			return map[string]entity.Patch{
				modelKey: rules.ModelListPatch(rules.ModelList(m.table, provider)),
			}, nil
		},
	})
}

func textbox(label, value string) *entity.Component {
	return &entity.Component{Kind: entity.KindTextbox, Label: label, Value: value, Visible: true, Interactive: true}
}

func checkbox(label string, value bool) *entity.Component {
	return &entity.Component{Kind: entity.KindCheckbox, Label: label, Value: value, Visible: true, Interactive: true}
}

func number(label string, value float64) *entity.Component {
	return &entity.Component{Kind: entity.KindNumber, Label: label, Value: value, Integer: true, Visible: true, Interactive: true}
}

func slider(label string, lo, hi, step, value float64, integer bool) *entity.Component {
	return &entity.Component{
		Kind:        entity.KindSlider,
		Label:       label,
		Value:       value,
		Min:         lo,
		Max:         hi,
		Step:        step,
		Integer:     integer,
		Visible:     true,
		Interactive: true,
	}
}
