package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig     *AppConfig
	ServerConfig  *ServerConfig
	AgentConfig   *AgentConfig
	BrowserConfig *BrowserConfig
}

type AppConfig struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type ServerConfig struct {
	Addr            string        `envconfig:"WEBUI_ADDR" default:"127.0.0.1:7788"`
	ReadTimeout     time.Duration `envconfig:"WEBUI_READ_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"WEBUI_SHUTDOWN_TIMEOUT" default:"10s"`
	Console         bool          `envconfig:"WEBUI_CONSOLE" default:"false"`
}

// AgentConfig holds the environment-derived defaults of the agent settings tab.
type AgentConfig struct {
	DefaultProvider string `envconfig:"DEFAULT_LLM" default:"google"`
	SettingsDir     string `envconfig:"WEBUI_SETTINGS_DIR" default:"./tmp/webui_settings"`
}

// BrowserConfig holds the environment-derived defaults of the browser settings
// tab plus driver options of the playwright launcher.
type BrowserConfig struct {
	UseOwnBrowser   bool   `envconfig:"USE_OWN_BROWSER" default:"false"`
	KeepBrowserOpen bool   `envconfig:"KEEP_BROWSER_OPEN" default:"true"`
	CDPURL          string `envconfig:"BROWSER_CDP"`
	InstallDriver   bool   `envconfig:"BROWSER_INSTALL" default:"true"`
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	return &conf, nil
}
