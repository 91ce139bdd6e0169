// Package journal keeps a persistent history of passes and task changes so
// operators can see what the daemon did after the fact.
package journal

import (
	"context"
	"log"
	"time"

	"github.com/cowpool/samepaged/internal/dedup"
)

// PassRecord is one completed pass.
type PassRecord struct {
	Kind         string
	Tasks        int
	PagesScanned int
	ReadFailures int
	Groups       int
	Merged       int
	Unmerged     int
	Conflicts    int
	Pruned       int
	RecordsLive  int
	Duration     time.Duration
	CompletedAt  time.Time
}

// TaskChange is one registry change: a pid added, deleted, or pruned.
type TaskChange struct {
	PID        uint64
	Change     string
	OccurredAt time.Time
}

// Store persists journal entries.
type Store interface {
	AppendPass(ctx context.Context, rec PassRecord) error
	AppendTaskChange(ctx context.Context, change TaskChange) error
}

// Recorder writes pass and task notifications to a store. It is a no-op
// when the store is nil, and a store error never disturbs the pass that
// produced the entry.
type Recorder struct {
	store Store
	clock func() time.Time
}

// NewRecorder creates a recorder over a store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, clock: time.Now}
}

// PassCompleted records one finished pass.
func (r *Recorder) PassCompleted(ctx context.Context, stats dedup.PassStats) {
	if r == nil || r.store == nil {
		return
	}
	rec := PassRecord{
		Kind:         string(stats.Kind),
		Tasks:        stats.Tasks,
		PagesScanned: stats.PagesScanned,
		ReadFailures: stats.ReadFailures,
		Groups:       stats.Groups,
		Merged:       stats.Merged,
		Unmerged:     stats.Unmerged,
		Conflicts:    stats.Conflicts,
		Pruned:       stats.Pruned,
		RecordsLive:  stats.RecordsLive,
		Duration:     stats.Duration,
		CompletedAt:  r.now(),
	}
	if err := r.store.AppendPass(ctx, rec); err != nil {
		log.Printf("append pass to journal: %v", err)
	}
}

// TaskEvent records one registry change.
func (r *Recorder) TaskEvent(ctx context.Context, pid uint64, event dedup.TaskEventKind) {
	if r == nil || r.store == nil {
		return
	}
	change := TaskChange{PID: pid, Change: string(event), OccurredAt: r.now()}
	if err := r.store.AppendTaskChange(ctx, change); err != nil {
		log.Printf("append task change to journal: %v", err)
	}
}

func (r *Recorder) now() time.Time {
	if r.clock == nil {
		return time.Now().UTC()
	}
	return r.clock().UTC()
}

var _ dedup.Observer = (*Recorder)(nil)
