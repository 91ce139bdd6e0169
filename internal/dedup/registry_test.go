package dedup

import (
	"testing"

	apperrors "github.com/cowpool/samepaged/internal/errors"
)

func TestAddRegionRejectsBadRanges(t *testing.T) {
	tests := []struct {
		name  string
		start uint64
		end   uint64
	}{
		{name: "empty", start: 0x1000, end: 0x1000},
		{name: "inverted", start: 0x3000, end: 0x1000},
		{name: "unaligned start", start: 0x1001, end: 0x3000},
		{name: "unaligned end", start: 0x1000, end: 0x2fff},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg := NewRegistry(0x1000)
			err := reg.AddRegion(100, tc.start, tc.end)
			if !apperrors.IsCode(err, apperrors.CodeInvalidRange) {
				t.Fatalf("AddRegion(%#x, %#x) = %v, want CodeInvalidRange", tc.start, tc.end, err)
			}
			if reg.Len() != 0 {
				t.Error("rejected range left a task behind")
			}
		})
	}
}

func TestAddRegionRejectsOverlap(t *testing.T) {
	reg := NewRegistry(0x1000)
	if err := reg.AddRegion(100, 0x1000, 0x3000); err != nil {
		t.Fatalf("AddRegion: %v", err)
	}

	overlapping := []struct {
		name  string
		start uint64
		end   uint64
	}{
		{name: "identical", start: 0x1000, end: 0x3000},
		{name: "head", start: 0x0, end: 0x2000},
		{name: "tail", start: 0x2000, end: 0x4000},
		{name: "superset", start: 0x0, end: 0x5000},
		{name: "inner page", start: 0x1000, end: 0x2000},
	}
	for _, tc := range overlapping {
		t.Run(tc.name, func(t *testing.T) {
			err := reg.AddRegion(100, tc.start, tc.end)
			if !apperrors.IsCode(err, apperrors.CodeAlreadyMonitored) {
				t.Fatalf("AddRegion(%#x, %#x) = %v, want CodeAlreadyMonitored", tc.start, tc.end, err)
			}
		})
	}

	// Adjacent ranges share no page and are fine, as is the same range on
	// another pid.
	if err := reg.AddRegion(100, 0x3000, 0x4000); err != nil {
		t.Errorf("adjacent AddRegion: %v", err)
	}
	if err := reg.AddRegion(200, 0x1000, 0x3000); err != nil {
		t.Errorf("other-pid AddRegion: %v", err)
	}
}

func TestAddAllConflictsWithAnyRegistration(t *testing.T) {
	reg := NewRegistry(0x1000)
	if err := reg.AddAll(100); err != nil {
		t.Fatalf("AddAll: %v", err)
	}
	if err := reg.AddAll(100); !apperrors.IsCode(err, apperrors.CodeAlreadyMonitored) {
		t.Errorf("second AddAll = %v, want CodeAlreadyMonitored", err)
	}
	if err := reg.AddRegion(100, 0x1000, 0x2000); !apperrors.IsCode(err, apperrors.CodeAlreadyMonitored) {
		t.Errorf("AddRegion on whole-process pid = %v, want CodeAlreadyMonitored", err)
	}

	reg2 := NewRegistry(0x1000)
	if err := reg2.AddRegion(100, 0x1000, 0x2000); err != nil {
		t.Fatalf("AddRegion: %v", err)
	}
	if err := reg2.AddAll(100); !apperrors.IsCode(err, apperrors.CodeAlreadyMonitored) {
		t.Errorf("AddAll on ranged pid = %v, want CodeAlreadyMonitored", err)
	}
}

func TestRemoveReportsPresence(t *testing.T) {
	reg := NewRegistry(0x1000)
	if err := reg.AddAll(100); err != nil {
		t.Fatalf("AddAll: %v", err)
	}

	if !reg.Remove(100) {
		t.Error("Remove existing pid = false, want true")
	}
	if reg.Remove(100) {
		t.Error("Remove removed pid = true, want false")
	}

	// A removed pid registers again from scratch.
	if err := reg.AddRegion(100, 0x1000, 0x2000); err != nil {
		t.Errorf("AddRegion after Remove: %v", err)
	}
}

func TestSnapshotOrderAndIsolation(t *testing.T) {
	reg := NewRegistry(0x1000)
	for _, pid := range []uint64{300, 100, 200} {
		if err := reg.AddRegion(pid, 0x5000, 0x7000); err != nil {
			t.Fatalf("AddRegion(%d): %v", pid, err)
		}
	}
	if err := reg.AddRegion(100, 0x1000, 0x3000); err != nil {
		t.Fatalf("AddRegion: %v", err)
	}

	tasks := reg.Snapshot()
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	for i, want := range []uint64{100, 200, 300} {
		if tasks[i].PID != want {
			t.Errorf("snapshot[%d].PID = %d, want %d", i, tasks[i].PID, want)
		}
	}
	if got := tasks[0].Regions; len(got) != 2 || got[0].Start != 0x1000 {
		t.Errorf("pid 100 regions = %+v, want sorted by start", got)
	}

	// Mutating the snapshot must not leak into the registry.
	tasks[0].Regions[0] = Region{Start: 0xdead0000, End: 0xdead1000}
	if again := reg.Snapshot(); again[0].Regions[0].Start != 0x1000 {
		t.Error("snapshot mutation reached the registry")
	}
}

func TestMarkRemovedHidesTaskFromSnapshot(t *testing.T) {
	reg := NewRegistry(0x1000)
	if err := reg.AddAll(100); err != nil {
		t.Fatalf("AddAll: %v", err)
	}
	if err := reg.AddAll(200); err != nil {
		t.Fatalf("AddAll: %v", err)
	}

	reg.MarkRemoved(100)
	tasks := reg.Snapshot()
	if len(tasks) != 1 || tasks[0].PID != 200 {
		t.Fatalf("snapshot after MarkRemoved = %+v, want only pid 200", tasks)
	}
	if reg.Len() != 2 {
		t.Errorf("Len = %d, want 2 until the tombstone is finalized", reg.Len())
	}
	if !reg.Remove(100) {
		t.Error("tombstoned pid should still remove")
	}
}
