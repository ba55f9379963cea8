package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ToolConfig is the typed form of a tool-server file:
//
//	{"mcpServers": {"name": {"command": "npx", "args": ["..."]}}}
type ToolConfig struct {
	Servers map[string]ToolServer `json:"mcpServers"`
}

// ToolServer is started as a subprocess when Command is set, otherwise it is
// reached over streamable HTTP at URL.
type ToolServer struct {
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
}

// ParseToolConfig returns nil for blank text or a document without servers.
func ParseToolConfig(text string) (*ToolConfig, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var cfg ToolConfig
	if err := json.Unmarshal([]byte(text), &cfg); err != nil {
		return nil, fmt.Errorf("decode tool config: %w", err)
	}

	if len(cfg.Servers) == 0 {
		return nil, nil
	}

	var errs []error

	for _, name := range cfg.ServerNames() {
		srv := cfg.Servers[name]
		if srv.Command == "" && srv.URL == "" {
			errs = append(errs, fmt.Errorf("server %q: command or url is required", name))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *ToolConfig) ServerNames() []string {
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
