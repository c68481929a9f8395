package scheduler

import (
	"sync"
	"time"

	"github.com/homelistingai/outreach/internal/models"
	"github.com/homelistingai/outreach/internal/sequences"
)

// Store is the process-wide table of in-flight sequence instances. The
// scheduler is its sole writer; every other component reads snapshots.
// A claim marker guarantees at most one pending execution per instance.
type Store struct {
	mu      sync.RWMutex
	records map[string]*instanceRecord
}

type instanceRecord struct {
	instance models.SequenceInstance
	// definition is pinned at start time so later edits to the marketing
	// store cannot shift a running instance's steps.
	definition *sequences.Definition
	executing  bool
}

// work is one claimed step execution handed to the scheduler.
type work struct {
	instanceID string
	stepIndex  int
	step       sequences.Step
	totalSteps int
	context    models.SequenceContext
}

// NewStore creates an empty instance store.
func NewStore() *Store {
	return &Store{records: make(map[string]*instanceRecord)}
}

// Get returns a snapshot of the instance with the given ID.
func (s *Store) Get(id string) (models.SequenceInstance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return models.SequenceInstance{}, false
	}
	return record.instance, true
}

// Snapshot returns a copy of every instance in the store.
func (s *Store) Snapshot() []models.SequenceInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instances := make([]models.SequenceInstance, 0, len(s.records))
	for _, record := range s.records {
		instances = append(instances, record.instance)
	}
	return instances
}

// ForLead returns snapshots of all instances running for a lead.
func (s *Store) ForLead(leadID string) []models.SequenceInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instances := make([]models.SequenceInstance, 0)
	for _, record := range s.records {
		if record.instance.LeadID == leadID {
			instances = append(instances, record.instance)
		}
	}
	return instances
}

// ActiveCount returns the number of active instances.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, record := range s.records {
		if record.instance.Status == models.InstanceStatusActive {
			count++
		}
	}
	return count
}

// put inserts a new instance with its pinned definition.
func (s *Store) put(instance models.SequenceInstance, definition *sequences.Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[instance.ID] = &instanceRecord{instance: instance, definition: definition}
}

// claim marks a single instance as executing and returns its current step.
// It fails if the instance is missing, not active, already claimed, or has
// run out of steps.
func (s *Store) claim(id string) (work, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return work{}, false
	}
	return s.claimLocked(id, record)
}

// claimDue claims every active instance whose next execution time has
// elapsed.
func (s *Store) claimDue(now time.Time) []work {
	s.mu.Lock()
	defer s.mu.Unlock()

	claimed := make([]work, 0)
	for id, record := range s.records {
		if record.instance.NextExecutionTime.After(now) {
			continue
		}
		if w, ok := s.claimLocked(id, record); ok {
			claimed = append(claimed, w)
		}
	}
	return claimed
}

func (s *Store) claimLocked(id string, record *instanceRecord) (work, bool) {
	if record.executing || record.instance.Status != models.InstanceStatusActive {
		return work{}, false
	}
	index := record.instance.CurrentStepIndex
	if index >= len(record.definition.Steps) {
		return work{}, false
	}

	record.executing = true
	return work{
		instanceID: id,
		stepIndex:  index,
		step:       record.definition.Steps[index],
		totalSteps: len(record.definition.Steps),
		context:    record.instance.Context,
	}, true
}

// release drops a claim without advancing the instance.
func (s *Store) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[id]; ok {
		record.executing = false
	}
}

// applySuccess advances a claimed instance past its current step. The next
// execution time is computed from the step's execution time, not from when
// the bookkeeping happens. Instances cancelled mid-flight stay cancelled.
func (s *Store) applySuccess(id string, executedAt time.Time) (models.InstanceStatus, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return "", time.Time{}
	}
	record.executing = false

	if record.instance.Status != models.InstanceStatusActive {
		return record.instance.Status, time.Time{}
	}

	record.instance.CurrentStepIndex++
	if record.instance.CurrentStepIndex >= len(record.definition.Steps) {
		record.instance.Status = models.InstanceStatusCompleted
		return record.instance.Status, time.Time{}
	}

	next := record.definition.Steps[record.instance.CurrentStepIndex]
	record.instance.NextExecutionTime = executedAt.Add(next.Delay.Duration())
	return record.instance.Status, record.instance.NextExecutionTime
}

// applyFailure pauses a claimed instance, leaving its step index unchanged.
func (s *Store) applyFailure(id string) models.InstanceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return ""
	}
	record.executing = false

	if record.instance.Status == models.InstanceStatusActive {
		record.instance.Status = models.InstanceStatusPaused
	}
	return record.instance.Status
}

// cancel marks an instance cancelled. In-flight executions are allowed to
// finish; their result is discarded.
func (s *Store) cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok || record.instance.Status.Terminal() {
		return false
	}
	record.instance.Status = models.InstanceStatusCancelled
	return true
}

// sweepTerminal removes completed and cancelled instances that have no
// in-flight execution. Returns the IDs removed.
func (s *Store) sweepTerminal() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make([]string, 0)
	for id, record := range s.records {
		if record.instance.Status.Terminal() && !record.executing {
			delete(s.records, id)
			removed = append(removed, id)
		}
	}
	return removed
}
