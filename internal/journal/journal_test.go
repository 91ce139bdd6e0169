package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cowpool/samepaged/internal/dedup"
)

type fakeStore struct {
	passes  []PassRecord
	changes []TaskChange
	err     error
}

func (f *fakeStore) AppendPass(_ context.Context, rec PassRecord) error {
	if f.err != nil {
		return f.err
	}
	f.passes = append(f.passes, rec)
	return nil
}

func (f *fakeStore) AppendTaskChange(_ context.Context, change TaskChange) error {
	if f.err != nil {
		return f.err
	}
	f.changes = append(f.changes, change)
	return nil
}

func TestRecorderMapsPassStats(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec.clock = func() time.Time { return now }

	rec.PassCompleted(context.Background(), dedup.PassStats{
		Kind:         dedup.PassRefresh,
		Tasks:        3,
		PagesScanned: 128,
		Merged:       5,
		Unmerged:     2,
		Conflicts:    1,
		RecordsLive:  4,
		Duration:     250 * time.Millisecond,
	})

	if len(store.passes) != 1 {
		t.Fatalf("got %d pass records, want 1", len(store.passes))
	}
	got := store.passes[0]
	if got.Kind != "refresh" || got.Tasks != 3 || got.PagesScanned != 128 ||
		got.Merged != 5 || got.Unmerged != 2 || got.Conflicts != 1 ||
		got.RecordsLive != 4 || got.Duration != 250*time.Millisecond {
		t.Errorf("pass record = %+v", got)
	}
	if !got.CompletedAt.Equal(now) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, now)
	}
}

func TestRecorderMapsTaskEvents(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store)

	rec.TaskEvent(context.Background(), 100, dedup.TaskEventAdd)
	rec.TaskEvent(context.Background(), 100, dedup.TaskEventDel)

	if len(store.changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(store.changes))
	}
	if store.changes[0].Change != "add" || store.changes[1].Change != "del" {
		t.Errorf("changes = %+v", store.changes)
	}
	if store.changes[0].PID != 100 {
		t.Errorf("PID = %d, want 100", store.changes[0].PID)
	}
}

func TestRecorderNilSafety(t *testing.T) {
	// None of these may panic.
	var nilRec *Recorder
	nilRec.PassCompleted(context.Background(), dedup.PassStats{})
	nilRec.TaskEvent(context.Background(), 1, dedup.TaskEventAdd)

	noStore := NewRecorder(nil)
	noStore.PassCompleted(context.Background(), dedup.PassStats{})
	noStore.TaskEvent(context.Background(), 1, dedup.TaskEventDel)
}

func TestRecorderSwallowsStoreErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	rec := NewRecorder(store)

	// The pass must not be disturbed by journaling failures.
	rec.PassCompleted(context.Background(), dedup.PassStats{Kind: dedup.PassMerge})
	rec.TaskEvent(context.Background(), 7, dedup.TaskEventPrune)
}
