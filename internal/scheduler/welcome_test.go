package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/homelistingai/outreach/internal/executor"
	"github.com/homelistingai/outreach/internal/models"
)

// recordingEmailTransport captures sent email and can be told to start
// failing.
type recordingEmailTransport struct {
	mu      sync.Mutex
	sent    []sentEmail
	failing bool
}

type sentEmail struct {
	to      string
	subject string
	html    string
}

func (t *recordingEmailTransport) SendEmail(ctx context.Context, to, subject, html string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failing {
		return false, errors.New("smtp connection refused")
	}
	t.sent = append(t.sent, sentEmail{to: to, subject: subject, html: html})
	return true, nil
}

func (t *recordingEmailTransport) setFailing(failing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failing = failing
}

func (t *recordingEmailTransport) lastSent() (sentEmail, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.sent) == 0 {
		return sentEmail{}, false
	}
	return t.sent[len(t.sent)-1], true
}

// Welcome drip end to end through the real step executor: "Hi Jane" goes
// out at start, the follow-up a day later, and a transport outage pauses
// the instance instead of crashing the tick.
func TestWelcomeSequenceEndToEnd(t *testing.T) {
	email := &recordingEmailTransport{}
	exec := executor.New(email)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s, store, current := newTestScheduler(exec, start)

	id, err := s.StartSequence(context.Background(), welcomeDefinition(), janeContext())
	if err != nil {
		t.Fatalf("StartSequence failed: %v", err)
	}

	msg, ok := email.lastSent()
	if !ok {
		t.Fatal("no email sent at start")
	}
	if msg.to != "jane@x.com" {
		t.Fatalf("sent to %q, want jane@x.com", msg.to)
	}
	if !strings.Contains(msg.html, "Hi Jane") {
		t.Fatalf("body not resolved: %q", msg.html)
	}
	if !strings.Contains(msg.html, "Unsubscribe") {
		t.Fatal("compliance footer missing")
	}

	inst, _ := store.Get(id)
	if inst.CurrentStepIndex != 1 || inst.Status != models.InstanceStatusActive {
		t.Fatalf("unexpected instance state: index=%d status=%q", inst.CurrentStepIndex, inst.Status)
	}
	if want := start.Add(24 * time.Hour); !inst.NextExecutionTime.Equal(want) {
		t.Fatalf("next execution %v, want %v", inst.NextExecutionTime, want)
	}

	// The follow-up fails at the transport; the instance pauses with the
	// index untouched.
	email.setFailing(true)
	*current = start.Add(25 * time.Hour)
	s.tick()
	s.wg.Wait()

	inst, _ = store.Get(id)
	if inst.Status != models.InstanceStatusPaused {
		t.Fatalf("unexpected status after outage: %q", inst.Status)
	}
	if inst.CurrentStepIndex != 1 {
		t.Fatalf("step index changed on failure: %d", inst.CurrentStepIndex)
	}
}
