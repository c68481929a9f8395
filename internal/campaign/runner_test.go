package campaign

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/homelistingai/outreach/internal/models"
)

type fakeAssigner struct {
	mu      sync.Mutex
	calls   map[string]int
	failFor map[string]bool

	// When set, every Assign call reports on started and then blocks
	// until gate is closed.
	started chan string
	gate    chan struct{}
}

func newFakeAssigner() *fakeAssigner {
	return &fakeAssigner{calls: make(map[string]int), failFor: make(map[string]bool)}
}

func (f *fakeAssigner) Assign(ctx context.Context, leadID, actionType string) error {
	f.mu.Lock()
	f.calls[leadID]++
	f.mu.Unlock()

	if f.started != nil {
		f.started <- leadID
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.failFor[leadID] {
		return errors.New("assignment rejected")
	}
	return nil
}

func (f *fakeAssigner) callCount(leadID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[leadID]
}

func (f *fakeAssigner) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

type fakeNotifier struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func (f *fakeNotifier) NotifyUser(ctx context.Context, userID, title, body, kind, priority string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*models.Event
}

func (f *fakeEventRepo) Append(ctx context.Context, event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func makeLeads(n int) []models.Lead {
	leads := make([]models.Lead, 0, n)
	for i := 0; i < n; i++ {
		leads = append(leads, models.Lead{
			ID:     "lead-" + string(rune('a'+i)),
			Name:   "Lead " + string(rune('A'+i)),
			Email:  "lead@example.com",
			Status: models.LeadStatusNew,
		})
	}
	return leads
}

func countLogLines(snap Snapshot, substr string) int {
	count := 0
	for _, line := range snap.Logs {
		if strings.Contains(line, substr) {
			count++
		}
	}
	return count
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRunSafetyFilterSkipsDisqualifiedLeads(t *testing.T) {
	assigner := newFakeAssigner()
	runner := New(assigner)

	leads := makeLeads(4)
	leads = append(leads, models.Lead{
		ID:     "lead-bounced",
		Name:   "Bounced",
		Email:  "bounced@example.com",
		Status: models.LeadStatusBounced,
	})

	summary, err := runner.Run(context.Background(), leads, "agentSales", 10, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := models.CampaignSummary{Sent: 4, Failed: 0, Skipped: 1}
	if summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}
	if assigner.callCount("lead-bounced") != 0 {
		t.Fatal("disqualified lead must never be assigned")
	}
	if status := runner.Snapshot().Status; status != models.CampaignStatusCompleted {
		t.Fatalf("status = %q, want completed", status)
	}
}

func TestRunBatchesAndThrottles(t *testing.T) {
	assigner := newFakeAssigner()
	runner := New(assigner)

	summary, err := runner.Run(context.Background(), makeLeads(8), "agentSales", 3, time.Millisecond)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Sent != 8 {
		t.Fatalf("sent = %d, want 8", summary.Sent)
	}

	snap := runner.Snapshot()
	if got := countLogLines(snap, "Processing batch"); got != 3 {
		t.Fatalf("batch count = %d, want 3 (sizes 3, 3, 2)", got)
	}
	// The throttle wait happens between batches only, never after the
	// final one.
	if got := countLogLines(snap, "Waiting"); got != 2 {
		t.Fatalf("throttle waits = %d, want 2", got)
	}
	if snap.Progress != 100 {
		t.Fatalf("progress = %d, want 100", snap.Progress)
	}
}

func TestRunCountsPartialFailures(t *testing.T) {
	assigner := newFakeAssigner()
	assigner.failFor["lead-b"] = true
	runner := New(assigner)

	summary, err := runner.Run(context.Background(), makeLeads(5), "agentSales", 2, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := models.CampaignSummary{Sent: 4, Failed: 1, Skipped: 0}
	if summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}
	if status := runner.Snapshot().Status; status != models.CampaignStatusCompleted {
		t.Fatalf("a failed assignment must not halt the run, status = %q", status)
	}
}

func TestRunWithNoSafeLeads(t *testing.T) {
	assigner := newFakeAssigner()
	runner := New(assigner)

	leads := makeLeads(3)
	for i := range leads {
		leads[i].Status = models.LeadStatusUnsubscribed
	}

	summary, err := runner.Run(context.Background(), leads, "agentSales", 5, time.Minute)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := models.CampaignSummary{Sent: 0, Failed: 0, Skipped: 3}
	if summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}
	if assigner.totalCalls() != 0 {
		t.Fatal("no assignments expected")
	}
	if status := runner.Snapshot().Status; status != models.CampaignStatusCompleted {
		t.Fatalf("status = %q, want completed", status)
	}
}

func TestRunPauseResumeProcessesEachLeadOnce(t *testing.T) {
	assigner := newFakeAssigner()
	assigner.started = make(chan string, 16)
	assigner.gate = make(chan struct{})
	runner := New(assigner)

	done := make(chan models.CampaignSummary, 1)
	go func() {
		summary, _ := runner.Run(context.Background(), makeLeads(8), "agentSales", 3, 0)
		done <- summary
	}()

	// Pause while the first batch is in flight; the batch must finish,
	// then the runner parks at the batch boundary.
	for i := 0; i < 3; i++ {
		<-assigner.started
	}
	runner.Pause()
	close(assigner.gate)

	waitFor(t, func() bool { return runner.Snapshot().Status == models.CampaignStatusPaused })
	if got := runner.Snapshot().Processed; got != 3 {
		t.Fatalf("processed while paused = %d, want 3", got)
	}
	if got := assigner.totalCalls(); got != 3 {
		t.Fatalf("assignments while paused = %d, want 3", got)
	}

	runner.Resume()
	summary := <-done

	if summary.Sent != 8 {
		t.Fatalf("sent = %d, want 8", summary.Sent)
	}
	for _, lead := range makeLeads(8) {
		if got := assigner.callCount(lead.ID); got != 1 {
			t.Fatalf("lead %s assigned %d times, want exactly once", lead.ID, got)
		}
	}
}

func TestRunAbortWhilePausedHaltsBeforeNextBatch(t *testing.T) {
	assigner := newFakeAssigner()
	assigner.started = make(chan string, 16)
	assigner.gate = make(chan struct{})
	runner := New(assigner)

	done := make(chan models.CampaignSummary, 1)
	go func() {
		summary, _ := runner.Run(context.Background(), makeLeads(6), "agentSales", 3, 0)
		done <- summary
	}()

	for i := 0; i < 3; i++ {
		<-assigner.started
	}
	runner.Pause()
	close(assigner.gate)
	waitFor(t, func() bool { return runner.Snapshot().Status == models.CampaignStatusPaused })

	runner.Abort()
	summary := <-done

	if summary.Sent != 3 {
		t.Fatalf("sent = %d, want only the first batch", summary.Sent)
	}
	if got := assigner.totalCalls(); got != 3 {
		t.Fatalf("assignments = %d, want 3", got)
	}
	snap := runner.Snapshot()
	if snap.Status != models.CampaignStatusAborted {
		t.Fatalf("status = %q, want aborted", snap.Status)
	}
	if countLogLines(snap, "Campaign aborted by user.") != 1 {
		t.Fatal("missing abort log line")
	}
}

func TestRunAbortDuringThrottleWait(t *testing.T) {
	assigner := newFakeAssigner()
	runner := New(assigner)

	done := make(chan models.CampaignSummary, 1)
	go func() {
		summary, _ := runner.Run(context.Background(), makeLeads(6), "agentSales", 3, time.Hour)
		done <- summary
	}()

	// The first batch runs unthrottled, then the runner sits in an
	// hour-long wait. Abort must cut it short.
	waitFor(t, func() bool { return runner.Snapshot().Processed == 3 })
	runner.Abort()

	summary := <-done
	if summary.Sent != 3 {
		t.Fatalf("sent = %d, want 3", summary.Sent)
	}
	if runner.Snapshot().Status != models.CampaignStatusAborted {
		t.Fatal("status should be aborted")
	}
}

func TestRunContextCancellationAborts(t *testing.T) {
	assigner := newFakeAssigner()
	runner := New(assigner)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan models.CampaignSummary, 1)
	go func() {
		summary, _ := runner.Run(ctx, makeLeads(6), "agentSales", 3, time.Hour)
		done <- summary
	}()

	waitFor(t, func() bool { return runner.Snapshot().Processed == 3 })
	cancel()

	summary := <-done
	if summary.Sent != 3 {
		t.Fatalf("sent = %d, want 3", summary.Sent)
	}
	if runner.Snapshot().Status != models.CampaignStatusAborted {
		t.Fatal("status should be aborted")
	}
}

func TestRunRejectsConcurrentRuns(t *testing.T) {
	assigner := newFakeAssigner()
	assigner.started = make(chan string, 16)
	assigner.gate = make(chan struct{})
	runner := New(assigner)

	done := make(chan struct{})
	go func() {
		runner.Run(context.Background(), makeLeads(2), "agentSales", 2, 0)
		close(done)
	}()

	<-assigner.started
	if _, err := runner.Run(context.Background(), makeLeads(1), "agentSales", 1, 0); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("err = %v, want ErrRunInProgress", err)
	}

	close(assigner.gate)
	<-done

	// A finished runner accepts a new run.
	if _, err := runner.Run(context.Background(), makeLeads(1), "agentSales", 1, 0); err != nil {
		t.Fatalf("rerun failed: %v", err)
	}
}

func TestRunNotifiesAndRecordsEvent(t *testing.T) {
	assigner := newFakeAssigner()
	notifier := &fakeNotifier{}
	repo := &fakeEventRepo{}
	runner := New(assigner,
		WithNotifier(notifier, "user-1"),
		WithEventRepository(repo),
	)

	if _, err := runner.Run(context.Background(), makeLeads(2), "agentSales", 2, 0); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.titles) != 1 || notifier.titles[0] != "Campaign Completed" {
		t.Fatalf("unexpected notifications: %v", notifier.titles)
	}
	if !strings.Contains(notifier.bodies[0], "Sent: 2") {
		t.Fatalf("notification body missing counts: %q", notifier.bodies[0])
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.events) != 1 || repo.events[0].Type != models.EventTypeCampaignCompleted {
		t.Fatalf("unexpected events: %+v", repo.events)
	}
}

func TestDefaultSafetyPolicy(t *testing.T) {
	tests := []struct {
		status models.LeadStatus
		safe   bool
	}{
		{models.LeadStatusNew, true},
		{models.LeadStatusContacted, true},
		{models.LeadStatusQualified, true},
		{models.LeadStatusBounced, false},
		{models.LeadStatusUnsubscribed, false},
	}

	for _, tt := range tests {
		if got := DefaultSafetyPolicy(models.Lead{Status: tt.status}); got != tt.safe {
			t.Errorf("DefaultSafetyPolicy(%q) = %v, want %v", tt.status, got, tt.safe)
		}
	}
}
