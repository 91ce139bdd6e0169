package dedup_test

import (
	"context"
	"testing"

	"github.com/cowpool/samepaged/internal/accessor/memsim"
	"github.com/cowpool/samepaged/internal/dedup"
)

func TestScanFingerprintsMonitoredPages(t *testing.T) {
	ctx := context.Background()
	sim := memsim.New(0x1000)
	sim.Spawn(100)
	sim.Spawn(200)
	mustWrite(t, sim, 100, 0x1000, []byte("shared content"))
	mustWrite(t, sim, 100, 0x2000, []byte("only in pid 100"))
	mustWrite(t, sim, 200, 0x5000, []byte("shared content"))
	mustWrite(t, sim, 200, 0x6000, []byte("only in pid 200"))

	scanner := dedup.NewScanner(sim, sim, nil, 0)
	scan, err := scanner.Scan(ctx, []dedup.Task{
		{PID: 100, Regions: []dedup.Region{{Start: 0x1000, End: 0x3000}}},
		{PID: 200, Regions: []dedup.Region{{Start: 0x5000, End: 0x7000}}},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(scan.Pages) != 4 {
		t.Fatalf("scanned %d pages, want 4", len(scan.Pages))
	}
	left := scan.Pages[dedup.PageRef{PID: 100, Addr: 0x1000}]
	right := scan.Pages[dedup.PageRef{PID: 200, Addr: 0x5000}]
	if left != right {
		t.Error("identical pages produced different fingerprints")
	}
	if other := scan.Pages[dedup.PageRef{PID: 100, Addr: 0x2000}]; other == left {
		t.Error("different pages produced the same fingerprint")
	}
	if ts := scan.PerTask[100]; ts.Readable != 2 || ts.ReadFailures != 0 || ts.Gone {
		t.Errorf("PerTask[100] = %+v, want 2 readable", ts)
	}
}

func TestScanDiscoversWholeProcessRegions(t *testing.T) {
	ctx := context.Background()
	sim := memsim.New(0x1000)
	sim.Spawn(100)
	mustWrite(t, sim, 100, 0x1000, []byte("a"))
	mustWrite(t, sim, 100, 0x2000, []byte("b"))
	mustWrite(t, sim, 100, 0x9000, []byte("c"))

	scanner := dedup.NewScanner(sim, sim, nil, 0)
	scan, err := scanner.Scan(ctx, []dedup.Task{{PID: 100, All: true}})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(scan.Pages) != 3 {
		t.Fatalf("scanned %d pages, want 3", len(scan.Pages))
	}
	for _, addr := range []uint64{0x1000, 0x2000, 0x9000} {
		if _, ok := scan.Pages[dedup.PageRef{PID: 100, Addr: addr}]; !ok {
			t.Errorf("page %#x missing from scan", addr)
		}
	}
}

func TestScanCountsUnreadablePages(t *testing.T) {
	ctx := context.Background()
	sim := memsim.New(0x1000)
	sim.Spawn(100)
	mustWrite(t, sim, 100, 0x1000, []byte("mapped"))

	scanner := dedup.NewScanner(sim, sim, nil, 0)
	scan, err := scanner.Scan(ctx, []dedup.Task{
		{PID: 100, Regions: []dedup.Region{{Start: 0x1000, End: 0x3000}}},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	ts := scan.PerTask[100]
	if ts.Readable != 1 || ts.ReadFailures != 1 {
		t.Errorf("PerTask = %+v, want 1 readable and 1 failure", ts)
	}
	if ts.Gone {
		t.Error("task with readable pages marked gone")
	}
	if scan.ReadFailures() != 1 {
		t.Errorf("ReadFailures = %d, want 1", scan.ReadFailures())
	}
}

func TestScanMarksDepartedTasksGone(t *testing.T) {
	ctx := context.Background()
	sim := memsim.New(0x1000)
	scanner := dedup.NewScanner(sim, sim, nil, 0)

	scan, err := scanner.Scan(ctx, []dedup.Task{
		{PID: 999, All: true},
		{PID: 998, Regions: []dedup.Region{{Start: 0x1000, End: 0x3000}}},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !scan.PerTask[999].Gone {
		t.Error("whole-process task of a missing pid not marked gone")
	}
	if !scan.PerTask[998].Gone {
		t.Error("ranged task of a missing pid not marked gone")
	}
	if len(scan.Pages) != 0 {
		t.Errorf("scanned %d pages of missing pids", len(scan.Pages))
	}
}

func TestScanStopsOnCancelledContext(t *testing.T) {
	sim := memsim.New(0x1000)
	sim.Spawn(100)
	mustWrite(t, sim, 100, 0x1000, []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := dedup.NewScanner(sim, sim, nil, 0)
	if _, err := scanner.Scan(ctx, []dedup.Task{{PID: 100, All: true}}); err == nil {
		t.Fatal("Scan with cancelled context returned nil error")
	}
}
