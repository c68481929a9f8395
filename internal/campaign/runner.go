// Package campaign bulk-enrolls lead lists into an action in rate-limited
// batches.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/homelistingai/outreach/internal/events"
	"github.com/homelistingai/outreach/internal/logging"
	"github.com/homelistingai/outreach/internal/models"
)

// Runner errors.
var (
	ErrRunInProgress = errors.New("campaign run already in progress")
)

// Defaults applied when the operator supplies no run configuration.
const (
	DefaultBatchSize = 5
	DefaultThrottle  = 30 * time.Second
	maxLogLines      = 50
)

// Assigner enrolls one lead into an action. This is the external HTTP API
// the batch runner drives.
type Assigner interface {
	Assign(ctx context.Context, leadID, actionType string) error
}

// Notifier announces run completion to the initiating user.
type Notifier interface {
	NotifyUser(ctx context.Context, userID, title, body, kind, priority string) error
}

// SafetyPolicy reports whether a lead may be contacted. Leads rejected by
// the policy are skipped before the run starts.
type SafetyPolicy func(lead models.Lead) bool

// DefaultSafetyPolicy excludes hard-bounced and unsubscribed leads.
func DefaultSafetyPolicy(lead models.Lead) bool {
	return lead.Status != models.LeadStatusBounced && lead.Status != models.LeadStatusUnsubscribed
}

// Snapshot is a point-in-time view of a run for progress reporting.
type Snapshot struct {
	Status    models.CampaignStatus
	Progress  int // percent of safe leads processed
	Processed int // leads fully processed, whole batches only
	Total     int // size of the safe subset
	Logs      []string
}

// Runner executes one campaign run at a time. A Runner is created once and
// reused; each Run call is a fresh campaign.
type Runner struct {
	assigner  Assigner
	notifier  Notifier
	policy    SafetyPolicy
	eventRepo events.Repository
	userID    string
	logger    zerolog.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	status    models.CampaignStatus
	paused    bool
	aborted   bool
	abortCh   chan struct{}
	logs      []string
	processed int
	total     int
}

// Option configures the Runner.
type Option func(*Runner)

// WithNotifier wires the completion notification dispatcher.
func WithNotifier(notifier Notifier, userID string) Option {
	return func(r *Runner) {
		r.notifier = notifier
		r.userID = userID
	}
}

// WithSafetyPolicy replaces the default deliverability filter.
func WithSafetyPolicy(policy SafetyPolicy) Option {
	return func(r *Runner) { r.policy = policy }
}

// WithEventRepository wires the event log for run outcomes.
func WithEventRepository(repo events.Repository) Option {
	return func(r *Runner) { r.eventRepo = repo }
}

// New creates a Runner around the external assignment API.
func New(assigner Assigner, opts ...Option) *Runner {
	r := &Runner{
		assigner: assigner,
		policy:   DefaultSafetyPolicy,
		status:   models.CampaignStatusIdle,
		logger:   logging.Component("campaign"),
	}
	r.cond = sync.NewCond(&r.mu)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pause suspends the run at the next batch boundary. A batch already
// dispatched finishes first.
func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.aborted || r.status.Terminal() {
		return
	}
	r.paused = true
}

// Resume releases a paused run immediately.
func (r *Runner) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = false
	r.cond.Broadcast()
}

// Abort stops the run at the next checkpoint: the top of a batch
// iteration, a pause wait, or a throttle wait. Calls already in flight
// finish and are counted.
func (r *Runner) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.aborted {
		return
	}
	r.aborted = true
	if r.abortCh != nil {
		close(r.abortCh)
	}
	r.cond.Broadcast()
}

// Snapshot returns the current run state for progress display.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	progress := 0
	if r.total > 0 {
		progress = r.processed * 100 / r.total
	}

	logs := make([]string, len(r.logs))
	copy(logs, r.logs)

	return Snapshot{
		Status:    r.status,
		Progress:  progress,
		Processed: r.processed,
		Total:     r.total,
		Logs:      logs,
	}
}

// Run enrolls the leads into actionType in throttled batches and blocks
// until the run completes or aborts. Only one run may be active at a time.
func (r *Runner) Run(ctx context.Context, leads []models.Lead, actionType string, batchSize int, throttle time.Duration) (models.CampaignSummary, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if throttle < 0 {
		throttle = 0
	}

	r.mu.Lock()
	if r.status == models.CampaignStatusRunning || r.status == models.CampaignStatusPaused {
		r.mu.Unlock()
		return models.CampaignSummary{}, ErrRunInProgress
	}
	r.status = models.CampaignStatusRunning
	r.paused = false
	r.aborted = false
	r.abortCh = make(chan struct{})
	r.logs = nil
	r.processed = 0
	r.mu.Unlock()

	// Context cancellation is treated as an abort request; it is honored
	// at the same checkpoints.
	stopWatch := context.AfterFunc(ctx, r.Abort)
	defer stopWatch()

	runID := uuid.New().String()

	// The safety partition happens exactly once; skipped is never revised.
	safe := make([]models.Lead, 0, len(leads))
	for _, lead := range leads {
		if r.policy(lead) {
			safe = append(safe, lead)
		}
	}
	skipped := len(leads) - len(safe)

	r.mu.Lock()
	r.total = len(safe)
	r.mu.Unlock()

	r.logf("Initializing campaign %q...", actionType)
	if skipped > 0 {
		r.logf("Safety filter: automatically skipping %d leads.", skipped)
	}
	r.logf("Targeting %d valid leads.", len(safe))
	r.logf("Throttling: %d leads every %s.", batchSize, throttle)

	var sent, failed atomic.Int64

	if len(safe) == 0 {
		r.logf("No valid leads to process. Campaign finished.")
		return r.finish(ctx, runID, actionType, models.CampaignSummary{Skipped: skipped}, false)
	}

	aborted := false
	for i := 0; i < len(safe); i += batchSize {
		if r.isAborted() {
			aborted = true
			break
		}
		if !r.waitWhilePaused() {
			aborted = true
			break
		}

		end := i + batchSize
		if end > len(safe) {
			end = len(safe)
		}
		batch := safe[i:end]
		r.logf("Processing batch %d (%d leads)...", i/batchSize+1, len(batch))

		var wg sync.WaitGroup
		for _, lead := range batch {
			wg.Add(1)
			go func(lead models.Lead) {
				defer wg.Done()
				if err := r.assigner.Assign(ctx, lead.ID, actionType); err != nil {
					failed.Add(1)
					r.logger.Warn().Err(err).
						Str("lead_id", lead.ID).
						Msg("assignment failed")
					return
				}
				sent.Add(1)
			}(lead)
		}
		wg.Wait()

		r.mu.Lock()
		r.processed += len(batch)
		remaining := r.processed < r.total
		r.mu.Unlock()

		if remaining {
			r.logf("Waiting %s before next batch...", throttle)
			if !r.throttleWait(throttle) {
				aborted = true
				break
			}
		}
	}

	summary := models.CampaignSummary{
		Sent:    int(sent.Load()),
		Failed:  int(failed.Load()),
		Skipped: skipped,
	}

	if aborted {
		r.logf("Campaign aborted by user.")
	} else {
		r.logf("Campaign finished!")
	}
	r.logf("Summary: %d sent, %d failed, %d skipped.", summary.Sent, summary.Failed, summary.Skipped)

	return r.finish(ctx, runID, actionType, summary, aborted)
}

func (r *Runner) finish(ctx context.Context, runID, actionType string, summary models.CampaignSummary, aborted bool) (models.CampaignSummary, error) {
	r.mu.Lock()
	if aborted {
		r.status = models.CampaignStatusAborted
	} else {
		r.status = models.CampaignStatusCompleted
	}
	r.mu.Unlock()

	if r.eventRepo != nil {
		if err := events.LogCampaignFinished(ctx, r.eventRepo, runID, actionType, summary, aborted); err != nil {
			r.logger.Warn().Err(err).Msg("failed to record campaign event")
		}
	}

	if r.notifier != nil && r.userID != "" {
		title := "Campaign Completed"
		if aborted {
			title = "Campaign Aborted"
		}
		body := fmt.Sprintf("Campaign %q finished. Sent: %d, Failed: %d, Skipped: %d (Safety).",
			actionType, summary.Sent, summary.Failed, summary.Skipped)
		if err := r.notifier.NotifyUser(ctx, r.userID, title, body, "system", "high"); err != nil {
			r.logger.Warn().Err(err).Msg("failed to notify user")
		}
	}

	r.logger.Info().
		Str("run_id", runID).
		Str("action", actionType).
		Int("sent", summary.Sent).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Bool("aborted", aborted).
		Msg("campaign run finished")

	return summary, nil
}

func (r *Runner) isAborted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.aborted
}

// waitWhilePaused blocks while the run is paused. It returns false when
// the run was aborted during the wait.
func (r *Runner) waitWhilePaused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.paused && !r.aborted {
		r.status = models.CampaignStatusPaused
		r.cond.Wait()
	}

	if r.aborted {
		return false
	}
	r.status = models.CampaignStatusRunning
	return true
}

// throttleWait sleeps for the throttle interval, returning early (false)
// on abort.
func (r *Runner) throttleWait(d time.Duration) bool {
	if d <= 0 {
		return !r.isAborted()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-r.abortCh:
		return false
	}
}

func (r *Runner) logf(format string, args ...any) {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))

	r.mu.Lock()
	r.logs = append(r.logs, line)
	if len(r.logs) > maxLogLines {
		r.logs = r.logs[len(r.logs)-maxLogLines:]
	}
	r.mu.Unlock()

	r.logger.Debug().Msg(line)
}
