package entity

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID
	Description string
	StartURL    string
	Status      TaskStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
	Result      string
	Error       string
}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskRequest is what the launch flow hands to the agent runtime.
type TaskRequest struct {
	Description string
	StartURL    string
	Agent       AgentSettings
}

type PageInfo struct {
	URL   string
	Title string
}

type SessionState string

const (
	SessionAbsent SessionState = "absent"
	SessionLive   SessionState = "live"
)

// SessionStatus is a read-only view of the session handles.
type SessionStatus struct {
	State          SessionState `json:"state"`
	BrowserOpen    bool         `json:"browser_open"`
	ContextOpen    bool         `json:"context_open"`
	TaskID         string       `json:"task_id,omitempty"`
	TaskRunning    bool         `json:"task_running"`
	ToolClientOpen bool         `json:"tool_client_open"`
}
