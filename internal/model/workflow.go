package model

import "time"

// Workflow is a stored automation definition. Nothing executes it.
type Workflow struct {
	ID          string           `json:"id"`
	WorkspaceID string           `json:"workspace_id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Trigger     string           `json:"trigger"`
	Actions     []WorkflowAction `json:"actions"`
	Active      bool             `json:"active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// WorkflowAction is one step of a workflow.
type WorkflowAction struct {
	Type         string `json:"type"` // "sms", "email", "whatsapp", "webhook"
	Subject      string `json:"subject,omitempty"`
	Template     string `json:"template"`
	DelayMinutes int    `json:"delay_minutes,omitempty"`
}
