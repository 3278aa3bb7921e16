package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/yllada/wg-manager/common"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), common.HistoryFileName))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordAndList(t *testing.T) {
	j := openTestJournal(t)

	events := []struct{ config, action, detail string }{
		{"wg0", "select", "running=false peers=2"},
		{"wg0", "up", ""},
		{"wg1", "select", "running=true peers=1"},
		{"wg0", "peer-add", "abc123"},
	}
	for _, ev := range events {
		if err := j.Record(ev.config, ev.action, ev.detail); err != nil {
			t.Fatalf("Record(%s, %s) error = %v", ev.config, ev.action, err)
		}
	}

	all, err := j.List("", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("List() returned %d events, want 4", len(all))
	}

	wg0, err := j.List("wg0", 0)
	if err != nil {
		t.Fatalf("List(wg0) error = %v", err)
	}
	if len(wg0) != 3 {
		t.Errorf("List(wg0) returned %d events, want 3", len(wg0))
	}
	for _, ev := range wg0 {
		if ev.Config != "wg0" {
			t.Errorf("filtered list contains event for %q", ev.Config)
		}
		if ev.ID == "" {
			t.Error("event missing ID")
		}
		if ev.Time.IsZero() {
			t.Error("event missing timestamp")
		}
	}
}

func TestJournal_ListLimit(t *testing.T) {
	j := openTestJournal(t)

	for i := 0; i < 10; i++ {
		if err := j.Record("wg0", "up", ""); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	limited, err := j.List("wg0", 3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(limited) != 3 {
		t.Errorf("List(limit=3) returned %d events", len(limited))
	}
}

func TestJournal_ListEmpty(t *testing.T) {
	j := openTestJournal(t)

	events, err := j.List("", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("List() on empty journal returned %d events", len(events))
	}
}

func TestJournal_Prune(t *testing.T) {
	j := openTestJournal(t)

	if err := j.Record("wg0", "up", ""); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// A cutoff in the past removes nothing.
	removed, err := j.Prune(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("Prune(past cutoff) removed %d events, want 0", removed)
	}

	// A cutoff in the future removes everything.
	removed, err = j.Prune(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune(future cutoff) removed %d events, want 1", removed)
	}
}

func TestJournal_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), common.HistoryFileName)

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := j.Record("wg0", "select", ""); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	j, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer j.Close()

	events, err := j.List("", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("journal lost events across reopen: got %d, want 1", len(events))
	}
}
