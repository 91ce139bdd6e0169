package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cowpool/samepaged/internal/journal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func TestAppendPassRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	completed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := journal.PassRecord{
		Kind:         "merge",
		Tasks:        2,
		PagesScanned: 512,
		ReadFailures: 1,
		Groups:       3,
		Merged:       7,
		Unmerged:     2,
		Conflicts:    1,
		Pruned:       0,
		RecordsLive:  5,
		Duration:     1500 * time.Microsecond,
		CompletedAt:  completed,
	}
	if err := store.AppendPass(ctx, rec); err != nil {
		t.Fatalf("AppendPass: %v", err)
	}
	if err := store.AppendPass(ctx, journal.PassRecord{Kind: "refresh", CompletedAt: completed.Add(time.Minute)}); err != nil {
		t.Fatalf("AppendPass: %v", err)
	}

	passes, err := store.RecentPasses(ctx, 10)
	if err != nil {
		t.Fatalf("RecentPasses: %v", err)
	}
	if len(passes) != 2 {
		t.Fatalf("got %d passes, want 2", len(passes))
	}
	if passes[0].Kind != "refresh" {
		t.Errorf("newest pass kind = %q, want refresh first", passes[0].Kind)
	}
	if passes[1] != rec {
		t.Errorf("stored pass = %+v, want %+v", passes[1], rec)
	}
}

func TestRecentPassesLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		rec := journal.PassRecord{Kind: "merge", CompletedAt: time.Now()}
		if err := store.AppendPass(ctx, rec); err != nil {
			t.Fatalf("AppendPass: %v", err)
		}
	}

	passes, err := store.RecentPasses(ctx, 2)
	if err != nil {
		t.Fatalf("RecentPasses: %v", err)
	}
	if len(passes) != 2 {
		t.Errorf("got %d passes, want 2", len(passes))
	}
}

func TestAppendTaskChangeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	occurred := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, change := range []string{"add", "del"} {
		if err := store.AppendTaskChange(ctx, journal.TaskChange{
			PID:        100,
			Change:     change,
			OccurredAt: occurred,
		}); err != nil {
			t.Fatalf("AppendTaskChange(%s): %v", change, err)
		}
	}
	if err := store.AppendTaskChange(ctx, journal.TaskChange{PID: 200, Change: "prune", OccurredAt: occurred}); err != nil {
		t.Fatalf("AppendTaskChange: %v", err)
	}

	changes, err := store.TaskChanges(ctx, 100)
	if err != nil {
		t.Fatalf("TaskChanges: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	if changes[0].Change != "add" || changes[1].Change != "del" {
		t.Errorf("changes = %+v, want add then del", changes)
	}
	if !changes[0].OccurredAt.Equal(occurred) {
		t.Errorf("OccurredAt = %v, want %v", changes[0].OccurredAt, occurred)
	}
}

func TestOpenValidation(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Open with empty path succeeded")
	}
	if _, err := Open("   "); err == nil {
		t.Error("Open with blank path succeeded")
	}
}

func TestOpenTwiceReusesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := first.AppendPass(ctx, journal.PassRecord{Kind: "merge", CompletedAt: time.Now()}); err != nil {
		t.Fatalf("AppendPass: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()

	passes, err := second.RecentPasses(ctx, 10)
	if err != nil {
		t.Fatalf("RecentPasses: %v", err)
	}
	if len(passes) != 1 {
		t.Errorf("got %d passes after reopen, want 1", len(passes))
	}
}

func TestAppendValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.AppendPass(ctx, journal.PassRecord{}); err == nil {
		t.Error("AppendPass without kind succeeded")
	}
	if err := store.AppendTaskChange(ctx, journal.TaskChange{PID: 1}); err == nil {
		t.Error("AppendTaskChange without change succeeded")
	}

	var nilStore *Store
	if err := nilStore.AppendPass(ctx, journal.PassRecord{Kind: "merge"}); err == nil {
		t.Error("nil store AppendPass succeeded")
	}
	if err := nilStore.Close(); err != nil {
		t.Errorf("nil store Close: %v", err)
	}
}
