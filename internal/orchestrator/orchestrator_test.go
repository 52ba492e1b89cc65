package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agersant/polaris/internal/vpath"
)

func mustTable(t *testing.T, mounts ...vpath.Mount) *vpath.Table {
	t.Helper()
	table, err := vpath.NewTable(mounts)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestOrchestrator_TriggerPublishesSnapshot(t *testing.T) {
	dir := t.TempDir()
	table := mustTable(t, vpath.Mount{Name: "A", Source: dir})

	o := New(table, nil, false, time.Hour)
	if o.Snapshot() != nil {
		t.Fatalf("expected no snapshot before the first scan")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	o.Trigger()
	waitForIdleAfterScan(t, o)

	if o.Snapshot() == nil {
		t.Fatalf("expected a published snapshot after the first scan")
	}
}

func TestOrchestrator_StatusReflectsScanState(t *testing.T) {
	dir := t.TempDir()
	table := mustTable(t, vpath.Mount{Name: "A", Source: dir})

	o := New(table, nil, false, time.Hour)
	if got := o.Status().State; got != Idle {
		t.Fatalf("expected Idle before any trigger, got %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	o.Trigger()
	waitForIdleAfterScan(t, o)

	if got := o.Status().State; got != Idle {
		t.Fatalf("expected Idle after the scan finishes, got %v", got)
	}
}

func TestOrchestrator_ReloadMountsTriggersRescan(t *testing.T) {
	dir := t.TempDir()
	table := mustTable(t, vpath.Mount{Name: "A", Source: dir})

	o := New(table, nil, false, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	o.Trigger()
	waitForIdleAfterScan(t, o)
	first := o.Snapshot()
	if first == nil {
		t.Fatalf("expected an initial snapshot")
	}

	other := t.TempDir()
	if err := os.WriteFile(filepath.Join(other, "dummy"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	newTable := mustTable(t, vpath.Mount{Name: "B", Source: other})
	o.ReloadMounts(newTable, nil)
	// The first snapshot is still published and the state may still read
	// Idle before the loop picks up the trigger, so wait for a new version.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && o.Snapshot().Version == first.Version {
		time.Sleep(time.Millisecond)
	}
	waitForIdleAfterScan(t, o)

	second := o.Snapshot()
	if second == nil || second.Version == first.Version {
		t.Fatalf("expected a newer snapshot version after ReloadMounts")
	}
}

// waitForIdleAfterScan polls Status until the orchestrator returns to Idle,
// bounding the wait so a bug that wedges the state machine fails the test
// instead of hanging the suite.
func waitForIdleAfterScan(t *testing.T, o *Orchestrator) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.Status().State == Idle && o.Snapshot() != nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("orchestrator did not return to Idle with a published snapshot in time")
}
