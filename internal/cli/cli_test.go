package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/homelistingai/outreach/internal/models"
	"github.com/homelistingai/outreach/internal/sequences"
)

func TestWriteTable(t *testing.T) {
	var sb strings.Builder
	err := writeTable(&sb, []string{"ID", "NAME"}, [][]string{
		{"welcome", "Welcome Drip"},
		{"reminder", "Appointment Reminder"},
	})
	if err != nil {
		t.Fatalf("writeTable failed: %v", err)
	}

	out := sb.String()
	if !strings.Contains(out, "ID") || !strings.Contains(out, "Welcome Drip") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
	if got := len(strings.Split(strings.TrimSpace(out), "\n")); got != 3 {
		t.Fatalf("line count = %d, want 3", got)
	}
}

func TestFormatDelay(t *testing.T) {
	if got := formatDelay(sequences.Delay{}); got != "no delay" {
		t.Fatalf("formatDelay(zero) = %q", got)
	}
	if got := formatDelay(sequences.Delay{Value: 2, Unit: sequences.DelayUnitDays}); got != "2 days" {
		t.Fatalf("formatDelay = %q", got)
	}
}

func TestReadLeads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	content := `[
  {"id": "lead-1", "name": "Jane", "email": "jane@example.com", "status": "new"},
  {"id": "lead-2", "name": "Sam", "email": "sam@example.com", "status": "unsubscribed"}
]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write leads file: %v", err)
	}

	leads, err := readLeads(path)
	if err != nil {
		t.Fatalf("readLeads failed: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("lead count = %d, want 2", len(leads))
	}
	if leads[1].Status != models.LeadStatusUnsubscribed {
		t.Fatalf("status = %q, want Unsubscribed", leads[1].Status)
	}

	if _, err := readLeads(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
