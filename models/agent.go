package models

import (
	"encoding/json"
	"time"
)

// ServiceType identifies the kind of AI work an agent performs and a task
// requests. The same values key the provider routing and the pricing tables.
type ServiceType string

// Supported service types.
const (
	ServiceText2Text   ServiceType = "text2text"
	ServiceText2Image  ServiceType = "text2image"
	ServiceText2Speech ServiceType = "text2speech"
	ServiceSpeech2Text ServiceType = "speech2text"
	ServiceEmbedding   ServiceType = "embedding"
)

// KnownServiceTypes lists every service type the platform accepts.
var KnownServiceTypes = []ServiceType{
	ServiceText2Text,
	ServiceText2Image,
	ServiceText2Speech,
	ServiceSpeech2Text,
	ServiceEmbedding,
}

// Valid reports whether t is one of the known service types.
func (t ServiceType) Valid() bool {
	for _, known := range KnownServiceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AgentStatus is the lifecycle state of an agent.
type AgentStatus string

// Agent lifecycle states.
const (
	AgentIdle    AgentStatus = "idle"
	AgentBusy    AgentStatus = "busy"
	AgentOffline AgentStatus = "offline"
	AgentError   AgentStatus = "error"
	AgentRetired AgentStatus = "retired"
)

// Valid reports whether s is one of the known lifecycle states.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentIdle, AgentBusy, AgentOffline, AgentError, AgentRetired:
		return true
	}
	return false
}

// Agent represents a user-owned AI agent. An agent binds a service type to a
// configuration blob, accumulates execution metrics, and can be traded on the
// marketplace.
type Agent struct {
	// AgentID is the UUID assigned at creation time.
	AgentID string `json:"id"`

	// OwnerID references the user who currently owns the agent.
	// Ownership changes when a marketplace purchase completes.
	OwnerID int64 `json:"owner_id"`

	// Name is the display name, unique per owner.
	Name string `json:"name"`

	// Description is free-form text shown in marketplace listings.
	Description string `json:"description"`

	// Type selects the provider routing and pricing for the agent's tasks.
	Type ServiceType `json:"type"`

	// Status is the current lifecycle state. Only idle agents accept tasks.
	Status AgentStatus `json:"status"`

	// Config holds the agent's opaque configuration (model, temperature,
	// system prompt, voice id and so on). The platform stores it verbatim.
	Config json.RawMessage `json:"config,omitempty"`

	// Metrics aggregates execution statistics across all completed tasks.
	Metrics AgentMetrics `json:"metrics"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AgentMetrics is the incremental roll-up of an agent's task history.
//
// AvgResponseTime is maintained with the standard running-average formula
// avg' = avg + (sample-avg)/n, so no per-task history has to be retained.
type AgentMetrics struct {
	TotalTasks      int64   `json:"total_tasks"`
	SuccessfulTasks int64   `json:"successful_tasks"`
	FailedTasks     int64   `json:"failed_tasks"`
	AvgResponseTime float64 `json:"avg_response_time"` // seconds
}

// SuccessRate returns the share of successful tasks in [0, 1].
// An agent with no completed tasks reports 0.
func (m AgentMetrics) SuccessRate() float64 {
	if m.TotalTasks == 0 {
		return 0
	}
	return float64(m.SuccessfulTasks) / float64(m.TotalTasks)
}

// Record folds one task outcome into the metrics.
func (m *AgentMetrics) Record(succeeded bool, responseTime float64) {
	m.TotalTasks++
	if succeeded {
		m.SuccessfulTasks++
	} else {
		m.FailedTasks++
	}
	m.AvgResponseTime += (responseTime - m.AvgResponseTime) / float64(m.TotalTasks)
}

// TableName returns the name of the database table
// associated with the Agent model.
func (a Agent) TableName() string {
	return "agents"
}

// CanAcceptTask reports whether the agent may start executing a new task.
func (a Agent) CanAcceptTask() bool {
	return a.Status == AgentIdle
}

// agentTransitions enumerates the allowed status transitions.
var agentTransitions = map[AgentStatus][]AgentStatus{
	AgentIdle:    {AgentBusy, AgentOffline, AgentRetired},
	AgentBusy:    {AgentIdle, AgentError, AgentOffline},
	AgentOffline: {AgentIdle, AgentRetired},
	AgentError:   {AgentIdle, AgentOffline, AgentRetired},
	AgentRetired: {},
}

// CanTransitionTo reports whether moving the agent from its current status
// to target is a legal lifecycle transition. Retired is terminal.
func (a Agent) CanTransitionTo(target AgentStatus) bool {
	for _, allowed := range agentTransitions[a.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}
