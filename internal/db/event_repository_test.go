package db

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/homelistingai/outreach/internal/models"
)

func setupTestRepo(t *testing.T) *EventRepository {
	t.Helper()

	testDB, err := OpenInMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })

	if err := testDB.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return NewEventRepository(testDB)
}

func newStepEvent(t *testing.T, instanceID string, stepIndex int) *models.Event {
	t.Helper()

	payload, err := json.Marshal(models.StepExecutedPayload{
		StepIndex: stepIndex,
		StepType:  "email",
		LeadID:    "lead-1",
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	return &models.Event{
		Type:       models.EventTypeStepExecuted,
		EntityType: models.EntityTypeInstance,
		EntityID:   instanceID,
		Payload:    payload,
	}
}

func TestEventRepository_AppendAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	event := newStepEvent(t, "inst-1", 0)
	if err := repo.Append(ctx, event); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if event.ID == "" {
		t.Fatal("expected Append to assign an ID")
	}
	if event.Timestamp.IsZero() {
		t.Fatal("expected Append to assign a timestamp")
	}

	got, err := repo.Get(ctx, event.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Type != models.EventTypeStepExecuted {
		t.Errorf("unexpected type: %q", got.Type)
	}
	if got.EntityID != "inst-1" {
		t.Errorf("unexpected entity id: %q", got.EntityID)
	}

	var payload models.StepExecutedPayload
	if err := json.Unmarshal(got.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.LeadID != "lead-1" {
		t.Errorf("unexpected payload lead id: %q", payload.LeadID)
	}
}

func TestEventRepository_AppendRejectsInvalid(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.Append(context.Background(), &models.Event{Type: models.EventTypeStepExecuted})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestEventRepository_GetNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestEventRepository_QueryFilters(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		event := newStepEvent(t, "inst-1", i)
		event.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Append(ctx, event); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	other := &models.Event{
		Type:       models.EventTypeCampaignCompleted,
		EntityType: models.EntityTypeCampaign,
		EntityID:   "run-1",
	}
	if err := repo.Append(ctx, other); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	stepType := models.EventTypeStepExecuted
	events, err := repo.Query(ctx, EventQuery{Type: &stepType})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 step events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Fatal("events not ordered oldest first")
		}
	}

	since := base.Add(90 * time.Second)
	events, err = repo.Query(ctx, EventQuery{Type: &stepType, Since: &since})
	if err != nil {
		t.Fatalf("Query with Since failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event since cutoff, got %d", len(events))
	}

	byEntity, err := repo.ListByEntity(ctx, models.EntityTypeCampaign, "run-1", 10)
	if err != nil {
		t.Fatalf("ListByEntity failed: %v", err)
	}
	if len(byEntity) != 1 || byEntity[0].Type != models.EventTypeCampaignCompleted {
		t.Fatalf("unexpected entity events: %+v", byEntity)
	}
}
