package config

// LocalProvider is the local-inference provider; only it exposes a
// context-length control.
const LocalProvider = "ollama"

type ProviderModels struct {
	Provider string
	Models   []string
}

// ModelTable is the static provider to model-list mapping. Provider order is
// the order entries were given in.
type ModelTable struct {
	entries []ProviderModels
	index   map[string]int
}

func NewModelTable(entries ...ProviderModels) ModelTable {
	t := ModelTable{
		entries: make([]ProviderModels, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}

	for _, e := range entries {
		if i, ok := t.index[e.Provider]; ok {
			t.entries[i].Models = append([]string(nil), e.Models...)

			continue
		}

		t.index[e.Provider] = len(t.entries)
		t.entries = append(t.entries, ProviderModels{
			Provider: e.Provider,
			Models:   append([]string(nil), e.Models...),
		})
	}

	return t
}

// Models returns a copy of the provider's model list.
func (t ModelTable) Models(provider string) ([]string, bool) {
	i, ok := t.index[provider]
	if !ok {
		return nil, false
	}

	return append([]string(nil), t.entries[i].Models...), true
}

func (t ModelTable) Has(provider string) bool {
	_, ok := t.index[provider]

	return ok
}

func (t ModelTable) Providers() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Provider
	}

	return out
}

func DefaultModelTable() ModelTable {
	return NewModelTable(
		ProviderModels{"anthropic", []string{"claude-3-5-sonnet-20241022", "claude-3-5-sonnet-20240620", "claude-3-opus-20240229"}},
		ProviderModels{"openai", []string{"gpt-4o", "gpt-4", "gpt-3.5-turbo", "o3-mini"}},
		ProviderModels{"deepseek", []string{"deepseek-chat", "deepseek-reasoner"}},
		ProviderModels{"google", []string{
			"gemini-2.0-flash",
			"gemini-2.0-flash-thinking-exp",
			"gemini-1.5-flash-latest",
			"gemini-1.5-flash-8b-latest",
			"gemini-2.0-flash-thinking-exp-01-21",
			"gemini-2.0-pro-exp-02-05",
			"gemini-2.5-pro-preview-03-25",
			"gemini-2.5-flash-preview-04-17",
		}},
		ProviderModels{LocalProvider, []string{
			"qwen2.5:7b",
			"qwen2.5:14b",
			"qwen2.5:32b",
			"qwen2.5-coder:14b",
			"qwen2.5-coder:32b",
			"llama2:7b",
			"deepseek-r1:14b",
			"deepseek-r1:32b",
		}},
		ProviderModels{"azure_openai", []string{"gpt-4o", "gpt-4", "gpt-3.5-turbo"}},
		ProviderModels{"mistral", []string{"pixtral-large-latest", "mistral-large-latest", "mistral-small-latest", "ministral-8b-latest"}},
		ProviderModels{"alibaba", []string{"qwen-plus", "qwen-max", "qwen-vl-max", "qwen-vl-plus", "qwen-turbo", "qwen-long"}},
		ProviderModels{"moonshot", []string{"moonshot-v1-32k-vision-preview", "moonshot-v1-8k-vision-preview"}},
		ProviderModels{"unbound", []string{"gemini-2.0-flash", "gpt-4o-mini", "gpt-4o", "gpt-4.5-preview"}},
		ProviderModels{"grok", []string{"grok-3", "grok-3-fast", "grok-3-mini", "grok-3-mini-fast", "grok-2-vision", "grok-2-image", "grok-2"}},
	)
}
