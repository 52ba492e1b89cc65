// Package orchestrator implements the scan orchestrator: the single
// long-lived task that owns the scanner-to-builder pipeline's lifecycle,
// tracks Idle/Scanning state, coalesces triggers that arrive while a scan
// is in flight, and republishes an atomic snapshot pointer consumers read
// lock-free. The trigger-coalescing debounce and the start/stop/wg
// lifecycle pattern both follow the same shape used elsewhere in this
// codebase for a single long-lived worker goroutine.
package orchestrator

import (
	"context"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agersant/polaris/internal/collection"
	"github.com/agersant/polaris/internal/scanner"
	"github.com/agersant/polaris/internal/tagreader"
	"github.com/agersant/polaris/internal/vpath"
)

// State is the orchestrator's coarse scan state, returned by Status for
// the index_status endpoint.
type State int

const (
	Idle State = iota
	Scanning
)

// DefaultSleepDuration is how long the orchestrator idles between
// automatic rescans when the caller doesn't override it.
const DefaultSleepDuration = 1800 * time.Second

// Status is a point-in-time snapshot of the orchestrator's scan state.
type Status struct {
	State     State
	StartedAt time.Time
	FilesSeen int
	Errors    int
}

// Orchestrator owns exactly one collection snapshot pointer and the
// scan pipeline that republishes it.
type Orchestrator struct {
	sleepDuration time.Duration
	autoRescan    bool

	mu         sync.Mutex
	mounts     *vpath.Table
	artPattern *regexp.Regexp
	state      State
	startedAt  time.Time
	lastStats  scanner.Stats
	dirty      bool
	cancelScan context.CancelFunc

	wake chan struct{}

	snapshot atomic.Pointer[collection.Snapshot]
	version  atomic.Uint64
}

// New builds an Orchestrator over an initial mount table and art pattern.
// Call Run in its own goroutine to start its loop; the orchestrator does
// nothing until Trigger starts the first scan.
func New(mounts *vpath.Table, artPattern *regexp.Regexp, autoRescan bool, sleepDuration time.Duration) *Orchestrator {
	if artPattern == nil {
		artPattern, _ = tagreader.CompileArtPattern("")
	}
	if sleepDuration <= 0 {
		sleepDuration = DefaultSleepDuration
	}
	return &Orchestrator{
		mounts:        mounts,
		artPattern:    artPattern,
		autoRescan:    autoRescan,
		sleepDuration: sleepDuration,
		wake:          make(chan struct{}, 1),
	}
}

// Snapshot returns the current published collection snapshot, or nil
// before the first scan has ever completed.
func (o *Orchestrator) Snapshot() *collection.Snapshot {
	return o.snapshot.Load()
}

// Status reports the orchestrator's current scan state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{State: o.state, StartedAt: o.startedAt, FilesSeen: o.lastStats.FilesSeen, Errors: o.lastStats.Errors}
}

// Trigger marks the collection dirty. If idle, a scan starts shortly;
// if a scan is already in flight, this coalesces into a single pending
// rescan that starts as soon as the current one finishes.
func (o *Orchestrator) Trigger() {
	o.mu.Lock()
	o.dirty = true
	o.mu.Unlock()
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// ReloadMounts installs a new mount table and art pattern, cancels any
// in-flight scan (its partial results are discarded, never published),
// and triggers a fresh one.
func (o *Orchestrator) ReloadMounts(mounts *vpath.Table, artPattern *regexp.Regexp) {
	o.mu.Lock()
	o.mounts = mounts
	if artPattern != nil {
		o.artPattern = artPattern
	}
	cancel := o.cancelScan
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	o.Trigger()
}

// Run is the orchestrator's main loop; it blocks until ctx is canceled.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.wake:
		}
		o.runIfDirty(ctx)
	}
}

func (o *Orchestrator) runIfDirty(ctx context.Context) {
	o.mu.Lock()
	if o.state == Scanning || !o.dirty {
		o.mu.Unlock()
		return
	}
	o.dirty = false
	o.state = Scanning
	o.startedAt = time.Now()
	scanCtx, cancel := context.WithCancel(ctx)
	o.cancelScan = cancel
	mounts := o.mounts
	artPattern := o.artPattern
	o.mu.Unlock()

	o.runScan(scanCtx, mounts, artPattern)

	o.mu.Lock()
	o.state = Idle
	o.cancelScan = nil
	again := o.dirty
	o.mu.Unlock()

	if again {
		o.Trigger()
	} else if o.autoRescan {
		time.AfterFunc(o.sleepDuration, o.Trigger)
	}
}

func (o *Orchestrator) runScan(ctx context.Context, mounts *vpath.Table, artPattern *regexp.Regexp) {
	prev := o.snapshot.Load()
	builder := collection.NewBuilder(mounts, prev)
	sc := scanner.New(artPattern)

	stats, err := sc.Scan(ctx, mounts.Mounts(), builder)
	o.mu.Lock()
	o.lastStats = stats
	o.mu.Unlock()
	if err != nil {
		return
	}
	if ctx.Err() != nil {
		// Canceled mid-scan: partial results are never published.
		return
	}

	next, err := builder.Finish(o.version.Add(1))
	if err != nil {
		return
	}
	o.snapshot.Store(next)
}
