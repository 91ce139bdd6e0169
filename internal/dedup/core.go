package dedup

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/cowpool/samepaged/internal/errors"
)

// DefaultQueueDepth bounds how many control commands may wait for the core.
const DefaultQueueDepth = 16

// Observer receives core lifecycle notifications. Implementations must be
// fast; they run on the command loop.
type Observer interface {
	PassCompleted(ctx context.Context, stats PassStats)
	TaskEvent(ctx context.Context, pid uint64, event TaskEventKind)
}

// Options tune a Core. Zero values select defaults.
type Options struct {
	// QueueDepth is the command queue capacity. Submissions beyond it
	// report busy instead of blocking.
	QueueDepth int

	// ScanConcurrency caps how many tasks scan in parallel.
	ScanConcurrency int

	// Fingerprint overrides the page hash. Only tests should.
	Fingerprint FingerprintFunc

	// Observer, when set, is notified of passes and task changes.
	Observer Observer
}

// Core serializes the control protocol onto a single goroutine that
// exclusively owns the registry and the merge records. No command bypasses
// the queue, so callers never observe a half-applied pass.
type Core struct {
	registry *Registry
	engine   *Engine
	scanner  *Scanner
	accessor MemoryAccessor
	regions  RegionSource
	observer Observer

	commands chan coreCommand
	done     chan struct{}
}

type commandKind int

const (
	cmdAdd commandKind = iota
	cmdDel
	cmdMerge
	cmdRefresh
)

type coreCommand struct {
	kind  commandKind
	pid   uint64
	start uint64
	end   uint64
	reply chan error
}

// NewCore assembles the dedup stack over a memory backend. Run must be
// called before any command completes.
func NewCore(accessor MemoryAccessor, regions RegionSource, opts Options) *Core {
	depth := opts.QueueDepth
	if depth < 1 {
		depth = DefaultQueueDepth
	}
	return &Core{
		registry: NewRegistry(accessor.PageSize()),
		engine:   NewEngine(accessor),
		scanner:  NewScanner(accessor, regions, opts.Fingerprint, opts.ScanConcurrency),
		accessor: accessor,
		regions:  regions,
		observer: opts.Observer,
		commands: make(chan coreCommand, depth),
		done:     make(chan struct{}),
	}
}

// Run drains the command queue until the context ends. It must be called
// exactly once.
func (c *Core) Run(ctx context.Context) error {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-c.commands:
			cmd.reply <- c.dispatch(ctx, cmd)
		}
	}
}

// Add registers a process for monitoring. A zero start and end monitors the
// whole process; anything else monitors one page-aligned range.
func (c *Core) Add(ctx context.Context, pid, start, end uint64) error {
	return c.submit(ctx, coreCommand{kind: cmdAdd, pid: pid, start: start, end: end})
}

// Del withdraws a process and unmerges everything it shares. Deleting a pid
// that was never added succeeds.
func (c *Core) Del(ctx context.Context, pid uint64) error {
	return c.submit(ctx, coreCommand{kind: cmdDel, pid: pid})
}

// Merge runs one full scan-and-merge pass over the monitored tasks.
func (c *Core) Merge(ctx context.Context) error {
	return c.submit(ctx, coreCommand{kind: cmdMerge})
}

// Refresh reconciles existing records against current memory, then merges.
func (c *Core) Refresh(ctx context.Context) error {
	return c.submit(ctx, coreCommand{kind: cmdRefresh})
}

func (c *Core) submit(ctx context.Context, cmd coreCommand) error {
	cmd.reply = make(chan error, 1)
	select {
	case c.commands <- cmd:
	case <-c.done:
		return apperrors.New(apperrors.CodeShuttingDown, "daemon is shutting down")
	default:
		return apperrors.New(apperrors.CodeBusy, "command queue is full")
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-c.done:
		return apperrors.New(apperrors.CodeShuttingDown, "daemon is shutting down")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Core) dispatch(ctx context.Context, cmd coreCommand) error {
	switch cmd.kind {
	case cmdAdd:
		return c.handleAdd(ctx, cmd.pid, cmd.start, cmd.end)
	case cmdDel:
		return c.handleDel(ctx, cmd.pid)
	case cmdMerge:
		return c.runPass(ctx, PassMerge)
	case cmdRefresh:
		return c.runPass(ctx, PassRefresh)
	default:
		return fmt.Errorf("unknown command kind %d", cmd.kind)
	}
}

func (c *Core) handleAdd(ctx context.Context, pid, start, end uint64) error {
	if !c.regions.Alive(pid) {
		return apperrors.WithMetadata(apperrors.CodeProcessNotFound,
			"process does not exist",
			map[string]string{"pid": fmt.Sprintf("%d", pid)})
	}

	var err error
	if start == 0 && end == 0 {
		err = c.registry.AddAll(pid)
	} else {
		err = c.registry.AddRegion(pid, start, end)
	}
	if err != nil {
		return err
	}

	c.notifyTask(ctx, pid, TaskEventAdd)
	return nil
}

func (c *Core) handleDel(ctx context.Context, pid uint64) error {
	var stats PassStats
	c.engine.releasePID(ctx, pid, &stats)
	if c.registry.Remove(pid) {
		c.notifyTask(ctx, pid, TaskEventDel)
	}
	return nil
}

func (c *Core) runPass(ctx context.Context, kind PassKind) error {
	started := time.Now()
	stats := PassStats{Kind: kind}

	tasks := c.registry.Snapshot()
	stats.Tasks = len(tasks)
	if len(tasks) == 0 {
		stats.RecordsLive = c.engine.RecordsLive()
		stats.Duration = time.Since(started)
		c.notifyPass(ctx, stats)
		return nil
	}

	if preparer, ok := c.accessor.(PassPreparer); ok {
		if err := preparer.PreparePass(ctx); err != nil {
			return apperrors.Wrap(apperrors.CodeDriverUnavailable, "prepare pass", err)
		}
	}

	scan, err := c.scanner.Scan(ctx, tasks)
	if err != nil {
		return err
	}
	stats.PagesScanned = len(scan.Pages)
	stats.ReadFailures += scan.ReadFailures()

	// Prune departed tasks before touching records so reconciliation never
	// chases pages of a dead process.
	for pid, taskScan := range scan.PerTask {
		if !taskScan.Gone {
			continue
		}
		c.registry.MarkRemoved(pid)
		c.engine.releasePID(ctx, pid, &stats)
		c.registry.Remove(pid)
		stats.Pruned++
		c.notifyTask(ctx, pid, TaskEventPrune)
	}

	if kind == PassRefresh {
		c.engine.reconcile(ctx, scan, &stats)
	}

	ix := BuildIndex(scan.Pages)
	c.engine.mergePass(ctx, ix, &stats)

	stats.RecordsLive = c.engine.RecordsLive()
	stats.Duration = time.Since(started)
	c.notifyPass(ctx, stats)
	return nil
}

func (c *Core) notifyPass(ctx context.Context, stats PassStats) {
	if c.observer != nil {
		c.observer.PassCompleted(ctx, stats)
	}
}

func (c *Core) notifyTask(ctx context.Context, pid uint64, event TaskEventKind) {
	if c.observer != nil {
		c.observer.TaskEvent(ctx, pid, event)
	}
}

// Records reports the live merge records. Safe only between commands.
func (c *Core) Records() []MergeRecord {
	return c.engine.Snapshot()
}

// Tasks reports the monitored tasks.
func (c *Core) Tasks() []Task {
	return c.registry.Snapshot()
}
