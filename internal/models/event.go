package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType categorizes events in the system.
type EventType string

const (
	// Sequence events
	EventTypeSequenceStarted   EventType = "sequence.started"
	EventTypeSequenceCompleted EventType = "sequence.completed"
	EventTypeSequenceCancelled EventType = "sequence.cancelled"
	EventTypeSequencePaused    EventType = "sequence.paused"

	// Step events
	EventTypeStepExecuted EventType = "step.executed"
	EventTypeStepFailed   EventType = "step.failed"
	EventTypeTaskCreated  EventType = "task.created"

	// Campaign events
	EventTypeCampaignStarted   EventType = "campaign.started"
	EventTypeCampaignCompleted EventType = "campaign.completed"
	EventTypeCampaignAborted   EventType = "campaign.aborted"

	// System events
	EventTypeError   EventType = "error"
	EventTypeWarning EventType = "warning"
)

// EntityType identifies the type of entity an event relates to.
type EntityType string

const (
	EntityTypeInstance EntityType = "instance"
	EntityTypeCampaign EntityType = "campaign"
	EntityTypeLead     EntityType = "lead"
	EntityTypeSystem   EntityType = "system"
)

// Event represents an append-only log entry.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// EntityType identifies what kind of entity this event relates to.
	EntityType EntityType `json:"entity_type"`

	// EntityID is the ID of the related entity.
	EntityID string `json:"entity_id"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate checks if the event is valid.
func (e *Event) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(string(e.Type)) == "" {
		validation.AddMessage("type", "event type is required")
	}
	if strings.TrimSpace(string(e.EntityType)) == "" {
		validation.AddMessage("entity_type", "entity_type is required")
	}
	if strings.TrimSpace(e.EntityID) == "" {
		validation.AddMessage("entity_id", "entity_id is required")
	}
	return validation.Err()
}

// SequenceStartedPayload is the payload for sequence.started events.
type SequenceStartedPayload struct {
	SequenceID   string `json:"sequence_id"`
	SequenceName string `json:"sequence_name"`
	LeadID       string `json:"lead_id"`
}

// StepExecutedPayload is the payload for step.executed events.
type StepExecutedPayload struct {
	StepIndex int    `json:"step_index"`
	StepType  string `json:"step_type"`
	LeadID    string `json:"lead_id"`
}

// StepFailedPayload is the payload for step.failed events.
type StepFailedPayload struct {
	StepIndex int    `json:"step_index"`
	StepType  string `json:"step_type"`
	LeadID    string `json:"lead_id"`
	Error     string `json:"error"`
}

// TaskCreatedPayload is the payload for task.created events.
type TaskCreatedPayload struct {
	LeadID  string `json:"lead_id"`
	Content string `json:"content"`
}

// CampaignFinishedPayload is the payload for campaign.completed and
// campaign.aborted events.
type CampaignFinishedPayload struct {
	ActionType string `json:"action_type"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
}
