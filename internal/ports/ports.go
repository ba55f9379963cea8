package ports

import (
	"browser-use-webui/internal/entity"
	"context"
)

// BrowserHandle is a live browser owned by the session.
type BrowserHandle interface {
	NewContext(ctx context.Context, settings entity.BrowserSettings) (ContextHandle, error)
	Close(ctx context.Context) error
}

// ContextHandle is a browsing context of a BrowserHandle; it must be closed
// before or together with its browser.
type ContextHandle interface {
	Visit(ctx context.Context, url string) (*entity.PageInfo, error)
	Close(ctx context.Context) error
}

type TaskHandle interface {
	ID() string
	Cancel()
	Done() bool
}

type ToolClient interface {
	Tools(ctx context.Context) ([]string, error)
	Close(ctx context.Context) error
}

type BrowserLauncher interface {
	Open(ctx context.Context, settings entity.BrowserSettings) (BrowserHandle, error)
}

type ToolConnector interface {
	Connect(ctx context.Context, cfg entity.ToolConfig) (ToolClient, error)
}

type AgentRuntime interface {
	Start(ctx context.Context, browserContext ContextHandle, req entity.TaskRequest) (TaskHandle, error)
}
