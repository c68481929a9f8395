// Package scheduler drives active sequence instances through their timed
// steps.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/homelistingai/outreach/internal/events"
	"github.com/homelistingai/outreach/internal/logging"
	"github.com/homelistingai/outreach/internal/models"
	"github.com/homelistingai/outreach/internal/sequences"
)

// Scheduler errors.
var (
	ErrSchedulerAlreadyRunning = errors.New("scheduler already running")
	ErrSchedulerNotRunning     = errors.New("scheduler not running")
	ErrInstanceNotFound        = errors.New("instance not found")
	ErrInactiveDefinition      = errors.New("definition is not active")
	ErrEmptyDefinition         = errors.New("definition has no steps")
)

// StepExecutor performs one step's side effect.
type StepExecutor interface {
	Execute(ctx context.Context, step sequences.Step, seqCtx models.SequenceContext) error
}

// Config contains scheduler configuration.
type Config struct {
	// TickInterval is how often the scheduler scans for due instances.
	// Default: 1 minute. Step timing is coarse at this granularity; that
	// is the accepted trade-off for a drip engine.
	TickInterval time.Duration

	// ExecuteTimeout is the maximum time allowed for a single step.
	// Default: 30 seconds.
	ExecuteTimeout time.Duration

	// MaxConcurrentExecutions limits how many steps run at once.
	// Default: 10.
	MaxConcurrentExecutions int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		TickInterval:            time.Minute,
		ExecuteTimeout:          30 * time.Second,
		MaxConcurrentExecutions: 10,
	}
}

// Stats contains scheduler statistics.
type Stats struct {
	// Running indicates if the scheduler loop is active.
	Running bool

	// ActiveInstances is the number of active instances in the store.
	ActiveInstances int

	// TotalExecutions is the number of step executions attempted.
	TotalExecutions int64

	// SucceededExecutions is the number of successful step executions.
	SucceededExecutions int64

	// FailedExecutions is the number of failed step executions.
	FailedExecutions int64

	// LastExecutionAt is when the last step executed.
	LastExecutionAt *time.Time
}

// Scheduler owns the instance store and advances due instances each tick.
type Scheduler struct {
	config    Config
	store     *Store
	executor  StepExecutor
	eventRepo events.Repository
	logger    zerolog.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	execSem chan struct{}

	statsMu sync.RWMutex
	stats   Stats

	now func() time.Time
}

// New creates a Scheduler. The event repository may be nil; lifecycle
// events are then only logged.
func New(config Config, store *Store, executor StepExecutor, eventRepo events.Repository) *Scheduler {
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultConfig().TickInterval
	}
	if config.ExecuteTimeout <= 0 {
		config.ExecuteTimeout = DefaultConfig().ExecuteTimeout
	}
	if config.MaxConcurrentExecutions <= 0 {
		config.MaxConcurrentExecutions = DefaultConfig().MaxConcurrentExecutions
	}

	return &Scheduler{
		config:    config,
		store:     store,
		executor:  executor,
		eventRepo: eventRepo,
		logger:    logging.Component("scheduler"),
		execSem:   make(chan struct{}, config.MaxConcurrentExecutions),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Store returns the instance store for read-only snapshot access.
func (s *Scheduler) Store() *Store {
	return s.store
}

// Start begins the scheduler's recurring tick loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerAlreadyRunning
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.statsMu.Lock()
	s.stats.Running = true
	s.statsMu.Unlock()

	s.logger.Info().
		Dur("tick_interval", s.config.TickInterval).
		Int("max_concurrent", s.config.MaxConcurrentExecutions).
		Msg("scheduler starting")

	s.wg.Add(1)
	go s.runLoop()

	return nil
}

// Stop halts the tick loop and waits for in-flight steps to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}

	s.logger.Info().Msg("scheduler stopping")
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()

	s.statsMu.Lock()
	s.stats.Running = false
	s.statsMu.Unlock()

	s.logger.Info().Msg("scheduler stopped")
	return nil
}

// StartSequence creates an instance of the definition for the lead in the
// context snapshot. A first step with no delay executes synchronously
// before this returns; otherwise the step is scheduled at start + delay.
func (s *Scheduler) StartSequence(ctx context.Context, def *sequences.Definition, seqCtx models.SequenceContext) (string, error) {
	if def == nil || len(def.Steps) == 0 {
		return "", ErrEmptyDefinition
	}
	if !def.Active {
		return "", ErrInactiveDefinition
	}
	if err := seqCtx.Lead.Validate(); err != nil {
		return "", err
	}

	now := s.now()
	instance := models.SequenceInstance{
		ID:         uuid.New().String(),
		LeadID:     seqCtx.Lead.ID,
		SequenceID: def.ID,
		Status:     models.InstanceStatusActive,
		Context:    seqCtx,
		StartedAt:  now,
	}

	firstDelay := def.Steps[0].Delay.Duration()
	instance.NextExecutionTime = now.Add(firstDelay)

	s.store.put(instance, def)

	s.logger.Info().
		Str("instance_id", instance.ID).
		Str("sequence", def.Name).
		Str("lead_id", seqCtx.Lead.ID).
		Msg("sequence started")

	if s.eventRepo != nil {
		if err := events.LogSequenceStarted(ctx, s.eventRepo, instance.ID, def.ID, def.Name, seqCtx.Lead.ID); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record sequence started event")
		}
	}

	if firstDelay == 0 {
		if w, ok := s.store.claim(instance.ID); ok {
			s.execute(ctx, w)
		}
	}

	return instance.ID, nil
}

// TriggerSequences starts every active definition matching the trigger.
// One definition failing to start does not stop the others.
func (s *Scheduler) TriggerSequences(ctx context.Context, trigger sequences.TriggerType, seqCtx models.SequenceContext, defs []*sequences.Definition) []string {
	started := make([]string, 0)
	for _, def := range sequences.Match(trigger, defs) {
		id, err := s.StartSequence(ctx, def, seqCtx)
		if err != nil {
			s.logger.Error().Err(err).
				Str("sequence", def.Name).
				Str("lead_id", seqCtx.Lead.ID).
				Msg("failed to start sequence for trigger")
			continue
		}
		started = append(started, id)
	}
	return started
}

// CancelInstance cancels a running or paused instance. An execution
// already in flight is allowed to finish; its result is discarded.
func (s *Scheduler) CancelInstance(ctx context.Context, id string) error {
	if !s.store.cancel(id) {
		return ErrInstanceNotFound
	}

	s.logger.Info().Str("instance_id", id).Msg("sequence cancelled")

	if s.eventRepo != nil {
		if err := events.LogInstanceStatus(ctx, s.eventRepo, id, models.InstanceStatusCancelled); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record cancellation event")
		}
	}
	return nil
}

// InstancesForLead returns snapshots of the lead's instances.
func (s *Scheduler) InstancesForLead(leadID string) []models.SequenceInstance {
	return s.store.ForLead(leadID)
}

// Stats returns current scheduler statistics.
func (s *Scheduler) Stats() Stats {
	s.statsMu.RLock()
	stats := s.stats
	s.statsMu.RUnlock()

	stats.ActiveInstances = s.store.ActiveCount()
	return stats
}

// runLoop is the recurring tick loop.
func (s *Scheduler) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick performs one scan over the store. Every due instance is dispatched
// as an independent unit of work with its own error capture, so one
// instance's failure cannot stall the rest.
func (s *Scheduler) tick() {
	for _, id := range s.store.sweepTerminal() {
		s.logger.Debug().Str("instance_id", id).Msg("instance swept")
	}

	now := s.now()
	for _, w := range s.store.claimDue(now) {
		select {
		case s.execSem <- struct{}{}:
		default:
			// Concurrency budget exhausted; try again next tick.
			s.store.release(w.instanceID)
			continue
		}

		s.wg.Add(1)
		go func(w work) {
			defer s.wg.Done()
			defer func() { <-s.execSem }()
			s.execute(s.ctx, w)
		}(w)
	}
}

// execute runs one claimed step and applies the resulting state
// transition. Success advances the instance or completes it; failure
// pauses it with the step index unchanged. There is no automatic retry.
func (s *Scheduler) execute(ctx context.Context, w work) {
	execCtx, cancel := context.WithTimeout(ctx, s.config.ExecuteTimeout)
	defer cancel()

	executedAt := s.now()
	err := s.executor.Execute(execCtx, w.step, w.context)
	s.recordExecution(executedAt, err == nil)

	if err != nil {
		status := s.store.applyFailure(w.instanceID)
		s.logger.Error().Err(err).
			Str("instance_id", w.instanceID).
			Int("step_index", w.stepIndex).
			Str("step_type", string(w.step.Type)).
			Msg("step failed, instance paused")

		if s.eventRepo != nil {
			if logErr := events.LogStepFailed(ctx, s.eventRepo, w.instanceID, w.stepIndex, string(w.step.Type), w.context.Lead.ID, err); logErr != nil {
				s.logger.Warn().Err(logErr).Msg("failed to record step failure event")
			}
			if status == models.InstanceStatusPaused {
				if logErr := events.LogInstanceStatus(ctx, s.eventRepo, w.instanceID, status); logErr != nil {
					s.logger.Warn().Err(logErr).Msg("failed to record pause event")
				}
			}
		}
		return
	}

	status, next := s.store.applySuccess(w.instanceID, executedAt)

	logEvent := s.logger.Info().
		Str("instance_id", w.instanceID).
		Int("step_index", w.stepIndex).
		Str("step_type", string(w.step.Type))
	if status == models.InstanceStatusActive {
		logEvent.Time("next_execution", next)
	}
	logEvent.Msg("step executed")

	if s.eventRepo != nil {
		if logErr := events.LogStepExecuted(ctx, s.eventRepo, w.instanceID, w.stepIndex, string(w.step.Type), w.context.Lead.ID); logErr != nil {
			s.logger.Warn().Err(logErr).Msg("failed to record step event")
		}
		if status == models.InstanceStatusCompleted {
			if logErr := events.LogInstanceStatus(ctx, s.eventRepo, w.instanceID, status); logErr != nil {
				s.logger.Warn().Err(logErr).Msg("failed to record completion event")
			}
		}
	}
}

func (s *Scheduler) recordExecution(at time.Time, success bool) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	s.stats.TotalExecutions++
	if success {
		s.stats.SucceededExecutions++
	} else {
		s.stats.FailedExecutions++
	}
	s.stats.LastExecutionAt = &at
}
