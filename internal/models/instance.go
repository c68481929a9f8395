package models

import "time"

// InstanceStatus is the lifecycle state of a running sequence instance.
type InstanceStatus string

const (
	// InstanceStatusActive means the instance is waiting for its next step.
	InstanceStatusActive InstanceStatus = "active"

	// InstanceStatusPaused means a step failed and the instance is waiting
	// for manual resumption. Paused instances are never rescheduled
	// automatically.
	InstanceStatusPaused InstanceStatus = "paused"

	// InstanceStatusCompleted means every step executed. Terminal.
	InstanceStatusCompleted InstanceStatus = "completed"

	// InstanceStatusCancelled means the instance was cancelled before
	// completing. Terminal.
	InstanceStatusCancelled InstanceStatus = "cancelled"
)

// Terminal reports whether the status is a terminal state.
func (s InstanceStatus) Terminal() bool {
	return s == InstanceStatusCompleted || s == InstanceStatusCancelled
}

// SequenceInstance is one running execution of a sequence for one lead.
//
// CurrentStepIndex never decreases. NextExecutionTime is meaningful only
// while Status is active. The scheduler is the sole mutator of instance
// state; everyone else reads snapshots.
type SequenceInstance struct {
	// ID is the unique identifier for the instance.
	ID string `json:"id"`

	// LeadID identifies the lead this instance runs for.
	LeadID string `json:"lead_id"`

	// SequenceID identifies the definition this instance executes.
	SequenceID string `json:"sequence_id"`

	// CurrentStepIndex is the 0-based index of the next step to execute.
	CurrentStepIndex int `json:"current_step_index"`

	// NextExecutionTime is when the step at CurrentStepIndex is due.
	NextExecutionTime time.Time `json:"next_execution_time"`

	// Status is the instance lifecycle state.
	Status InstanceStatus `json:"status"`

	// Context is the read-model snapshot captured at start time.
	Context SequenceContext `json:"context"`

	// StartedAt is when the instance was created.
	StartedAt time.Time `json:"started_at"`
}
