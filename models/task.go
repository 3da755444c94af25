package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TaskStatus is the lifecycle state of an agent task.
type TaskStatus string

// Task lifecycle states.
const (
	TaskQueued    TaskStatus = "queued"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskTimeout   TaskStatus = "timeout"
	TaskCancelled TaskStatus = "cancelled"
)

// Terminal reports whether the status is final and the task will not change
// state again.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskTimeout, TaskCancelled:
		return true
	}
	return false
}

// Task priorities. Lower values are dispatched first; tasks with equal
// priority are dispatched in submission (FIFO) order.
const (
	PriorityHigh   = 0
	PriorityNormal = 5
	PriorityLow    = 9
)

// Task is one unit of work submitted to an agent. The payload and result are
// stored verbatim; their structure is a contract between the requester and
// the provider backing the agent's service type.
type Task struct {
	// TaskID is the UUID assigned at submission time.
	TaskID string `json:"id"`

	// AgentID references the agent the task was submitted to.
	AgentID string `json:"agent_id"`

	// UserID references the requester, who is charged for the execution.
	UserID int64 `json:"user_id"`

	// Type mirrors the agent's service type at submission time.
	Type ServiceType `json:"type"`

	// Priority orders dispatch; see the Priority* constants.
	Priority int `json:"priority"`

	Status TaskStatus `json:"status"`

	Payload json.RawMessage `json:"payload,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`

	// Error carries the failure reason for failed and timed-out tasks.
	Error string `json:"error,omitempty"`

	// Cost is the amount charged to the requester on successful completion.
	Cost decimal.Decimal `json:"cost"`

	QueuedAt    time.Time  `json:"queued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName returns the name of the database table
// associated with the Task model.
func (t Task) TableName() string {
	return "agent_tasks"
}

// Duration returns the wall-clock execution time, or zero when the task has
// not both started and finished.
func (t Task) Duration() time.Duration {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.Sub(*t.StartedAt)
}
