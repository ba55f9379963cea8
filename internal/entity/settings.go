package entity

import (
	"errors"
	"fmt"
	"slices"
)

// ModelChoice is either a model from the provider's known list or a free-text
// model name typed by the user.
type ModelChoice interface {
	ModelID() string
	isModelChoice()
}

type KnownModel struct {
	ID string
}

func (m KnownModel) ModelID() string { return m.ID }
func (KnownModel) isModelChoice()    {}

type CustomModel struct {
	Name string
}

func (m CustomModel) ModelID() string { return m.Name }
func (CustomModel) isModelChoice()    {}

// NewModelChoice classifies value against the provider's known models.
func NewModelChoice(known []string, value string) ModelChoice {
	if slices.Contains(known, value) {
		return KnownModel{ID: value}
	}

	return CustomModel{Name: value}
}

// ModelListResult is the outcome of the provider to model-list rule.
type ModelListResult struct {
	Choices     []string
	Value       ModelChoice
	AllowCustom bool
}

type LLMSettings struct {
	Provider      string
	Model         ModelChoice
	Temperature   float64
	UseVision     bool
	ContextLength int
	BaseURL       string
	APIKey        string
}

type AgentSettings struct {
	OverrideSystemPrompt string
	ExtendSystemPrompt   string
	LLM                  LLMSettings
	// Planner is nil when no planner provider is selected.
	Planner           *LLMSettings
	MaxSteps          int
	MaxActions        int
	MaxInputTokens    int
	ToolCallingMethod string
	ToolConfigPath    string
	ToolConfigText    string
}

type BrowserSettings struct {
	BinaryPath           string
	UserDataDir          string
	UseOwnBrowser        bool
	KeepBrowserOpen      bool
	Headless             bool
	DisableSecurity      bool
	WindowWidth          int
	WindowHeight         int
	CDPURL               string
	WSSURL               string
	SaveRecordingPath    string
	SaveTracePath        string
	SaveAgentHistoryPath string
	SaveDownloadPath     string
}

func (s BrowserSettings) Validate() error {
	var errs []error

	if s.WindowWidth <= 0 {
		errs = append(errs, fmt.Errorf("window width must be positive, got %d", s.WindowWidth))
	}

	if s.WindowHeight <= 0 {
		errs = append(errs, fmt.Errorf("window height must be positive, got %d", s.WindowHeight))
	}

	if s.CDPURL != "" && s.WSSURL != "" {
		errs = append(errs, errors.New("cdp url and wss url are mutually exclusive"))
	}

	return errors.Join(errs...)
}

// ToolConfigDisplay is the state of the tool-config display component.
type ToolConfigDisplay struct {
	Text    string
	Visible bool
}
