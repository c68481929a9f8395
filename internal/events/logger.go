// Package events provides helper functions for logging outreach events.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/homelistingai/outreach/internal/models"
)

// Repository is the minimal interface needed to write events.
type Repository interface {
	Append(ctx context.Context, event *models.Event) error
}

// LogSequenceStarted records that a sequence instance was created.
func LogSequenceStarted(ctx context.Context, repo Repository, instanceID, sequenceID, sequenceName, leadID string) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}

	payload, err := json.Marshal(models.SequenceStartedPayload{
		SequenceID:   sequenceID,
		SequenceName: sequenceName,
		LeadID:       leadID,
	})
	if err != nil {
		return fmt.Errorf("marshal sequence started payload: %w", err)
	}

	return repo.Append(ctx, &models.Event{
		Type:       models.EventTypeSequenceStarted,
		EntityType: models.EntityTypeInstance,
		EntityID:   instanceID,
		Payload:    payload,
	})
}

// LogStepExecuted records a successful step execution for an instance.
func LogStepExecuted(ctx context.Context, repo Repository, instanceID string, stepIndex int, stepType, leadID string) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}

	payload, err := json.Marshal(models.StepExecutedPayload{
		StepIndex: stepIndex,
		StepType:  stepType,
		LeadID:    leadID,
	})
	if err != nil {
		return fmt.Errorf("marshal step executed payload: %w", err)
	}

	return repo.Append(ctx, &models.Event{
		Type:       models.EventTypeStepExecuted,
		EntityType: models.EntityTypeInstance,
		EntityID:   instanceID,
		Payload:    payload,
	})
}

// LogStepFailed records a failed step execution for an instance.
func LogStepFailed(ctx context.Context, repo Repository, instanceID string, stepIndex int, stepType, leadID string, stepErr error) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}

	payload, err := json.Marshal(models.StepFailedPayload{
		StepIndex: stepIndex,
		StepType:  stepType,
		LeadID:    leadID,
		Error:     stepErr.Error(),
	})
	if err != nil {
		return fmt.Errorf("marshal step failed payload: %w", err)
	}

	return repo.Append(ctx, &models.Event{
		Type:       models.EventTypeStepFailed,
		EntityType: models.EntityTypeInstance,
		EntityID:   instanceID,
		Payload:    payload,
	})
}

// LogInstanceStatus records a lifecycle transition (completed, cancelled,
// paused) for an instance.
func LogInstanceStatus(ctx context.Context, repo Repository, instanceID string, status models.InstanceStatus) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}

	var eventType models.EventType
	switch status {
	case models.InstanceStatusCompleted:
		eventType = models.EventTypeSequenceCompleted
	case models.InstanceStatusCancelled:
		eventType = models.EventTypeSequenceCancelled
	case models.InstanceStatusPaused:
		eventType = models.EventTypeSequencePaused
	default:
		return fmt.Errorf("no event type for status %q", status)
	}

	return repo.Append(ctx, &models.Event{
		Type:       eventType,
		EntityType: models.EntityTypeInstance,
		EntityID:   instanceID,
	})
}

// LogTaskCreated records an actionable item surfaced by a task step. The
// event is keyed by lead so the operator's task list can be rebuilt per lead.
func LogTaskCreated(ctx context.Context, repo Repository, leadID, content string) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}

	payload, err := json.Marshal(models.TaskCreatedPayload{
		LeadID:  leadID,
		Content: content,
	})
	if err != nil {
		return fmt.Errorf("marshal task created payload: %w", err)
	}

	return repo.Append(ctx, &models.Event{
		Type:       models.EventTypeTaskCreated,
		EntityType: models.EntityTypeLead,
		EntityID:   leadID,
		Payload:    payload,
	})
}

// LogCampaignFinished records the outcome of a campaign run.
func LogCampaignFinished(ctx context.Context, repo Repository, runID, actionType string, summary models.CampaignSummary, aborted bool) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}

	payload, err := json.Marshal(models.CampaignFinishedPayload{
		ActionType: actionType,
		Sent:       summary.Sent,
		Failed:     summary.Failed,
		Skipped:    summary.Skipped,
	})
	if err != nil {
		return fmt.Errorf("marshal campaign finished payload: %w", err)
	}

	eventType := models.EventTypeCampaignCompleted
	if aborted {
		eventType = models.EventTypeCampaignAborted
	}

	return repo.Append(ctx, &models.Event{
		Type:       eventType,
		EntityType: models.EntityTypeCampaign,
		EntityID:   runID,
		Payload:    payload,
	})
}
