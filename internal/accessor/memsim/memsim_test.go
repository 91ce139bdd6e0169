package memsim

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/cowpool/samepaged/internal/dedup"
)

func TestMergeSharesIdenticalPages(t *testing.T) {
	ctx := context.Background()
	sim := New(0)
	sim.Spawn(100)
	sim.Spawn(200)

	content := bytes.Repeat([]byte{0xAB}, int(sim.PageSize()))
	if err := sim.WritePage(100, 0x1000, content); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	if err := sim.WritePage(200, 0x5000, content); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	canonical := dedup.PageRef{PID: 100, Addr: 0x1000}
	member := dedup.PageRef{PID: 200, Addr: 0x5000}
	results := sim.Merge(ctx, canonical, []dedup.PageRef{member})
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("Merge results = %+v, want one success", results)
	}

	if !sim.SameFrame(canonical, member) {
		t.Error("pages do not share a frame after merge")
	}
	if got := sim.FrameRefs(canonical); got != 2 {
		t.Errorf("FrameRefs = %d, want 2", got)
	}
}

func TestMergeRejectsDifferentContent(t *testing.T) {
	ctx := context.Background()
	sim := New(0)
	sim.Spawn(100)
	sim.Spawn(200)

	if err := sim.WritePage(100, 0x1000, []byte("left")); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	if err := sim.WritePage(200, 0x5000, []byte("right")); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	canonical := dedup.PageRef{PID: 100, Addr: 0x1000}
	member := dedup.PageRef{PID: 200, Addr: 0x5000}
	results := sim.Merge(ctx, canonical, []dedup.PageRef{member})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !errors.Is(results[0].Err, ErrPagesDiffer) {
		t.Fatalf("Merge err = %v, want ErrPagesDiffer", results[0].Err)
	}
	if sim.SameFrame(canonical, member) {
		t.Error("differing pages share a frame")
	}
}

func TestMergeReportsGoneProcess(t *testing.T) {
	ctx := context.Background()
	sim := New(0)
	sim.Spawn(100)
	if err := sim.WritePage(100, 0x1000, []byte("alive")); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	canonical := dedup.PageRef{PID: 100, Addr: 0x1000}
	member := dedup.PageRef{PID: 999, Addr: 0x1000}
	results := sim.Merge(ctx, canonical, []dedup.PageRef{member})
	if !errors.Is(results[0].Err, dedup.ErrNoProcess) {
		t.Fatalf("Merge err = %v, want ErrNoProcess", results[0].Err)
	}
}

func TestWritePageBreaksSharedFrame(t *testing.T) {
	ctx := context.Background()
	sim := New(0)
	sim.Spawn(100)
	sim.Spawn(200)

	content := bytes.Repeat([]byte{0x11}, 64)
	if err := sim.WritePage(100, 0x1000, content); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	if err := sim.WritePage(200, 0x5000, content); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	canonical := dedup.PageRef{PID: 100, Addr: 0x1000}
	member := dedup.PageRef{PID: 200, Addr: 0x5000}
	sim.Merge(ctx, canonical, []dedup.PageRef{member})

	if err := sim.WritePage(200, 0x5000, []byte("diverged")); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	if sim.SameFrame(canonical, member) {
		t.Fatal("write did not break the shared frame")
	}
	if got := sim.FrameRefs(canonical); got != 1 {
		t.Errorf("canonical FrameRefs = %d, want 1", got)
	}

	data, err := sim.ReadPage(ctx, 100, 0x1000)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if !bytes.Equal(data[:64], content) {
		t.Error("canonical content changed by the member's write")
	}
}

func TestUnmergeRestoresPrivateFrame(t *testing.T) {
	ctx := context.Background()
	sim := New(0)
	sim.Spawn(100)
	sim.Spawn(200)

	content := bytes.Repeat([]byte{0x22}, 32)
	sim.WritePage(100, 0x1000, content)
	sim.WritePage(200, 0x5000, content)

	canonical := dedup.PageRef{PID: 100, Addr: 0x1000}
	member := dedup.PageRef{PID: 200, Addr: 0x5000}
	sim.Merge(ctx, canonical, []dedup.PageRef{member})

	if err := sim.Unmerge(ctx, 200, 0x5000); err != nil {
		t.Fatalf("Unmerge: %v", err)
	}
	if sim.SameFrame(canonical, member) {
		t.Fatal("pages still share a frame after unmerge")
	}

	data, err := sim.ReadPage(ctx, 200, 0x5000)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if !bytes.Equal(data[:32], content) {
		t.Error("unmerge lost the page content")
	}

	// Both below are already satisfied and must not error.
	if err := sim.Unmerge(ctx, 200, 0x5000); err != nil {
		t.Errorf("Unmerge private page: %v", err)
	}
	if err := sim.Unmerge(ctx, 999, 0x1000); err != nil {
		t.Errorf("Unmerge missing pid: %v", err)
	}
}

func TestReadPageReturnsCopy(t *testing.T) {
	ctx := context.Background()
	sim := New(0)
	sim.Spawn(100)
	sim.WritePage(100, 0x1000, []byte("stable"))

	data, err := sim.ReadPage(ctx, 100, 0x1000)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	data[0] = 'X'

	again, err := sim.ReadPage(ctx, 100, 0x1000)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if again[0] != 's' {
		t.Error("mutating a read buffer changed the stored page")
	}
}

func TestReadPageErrors(t *testing.T) {
	ctx := context.Background()
	sim := New(0)
	sim.Spawn(100)

	if _, err := sim.ReadPage(ctx, 999, 0x1000); !errors.Is(err, dedup.ErrNoProcess) {
		t.Errorf("missing pid err = %v, want ErrNoProcess", err)
	}
	if _, err := sim.ReadPage(ctx, 100, 0x1000); !errors.Is(err, ErrNoPage) {
		t.Errorf("missing page err = %v, want ErrNoPage", err)
	}
}

func TestRegionsCoalescesContiguousPages(t *testing.T) {
	ctx := context.Background()
	sim := New(0)
	sim.Spawn(100)
	for _, addr := range []uint64{0x5000, 0x1000, 0x2000} {
		if err := sim.WritePage(100, addr, nil); err != nil {
			t.Fatalf("WritePage %#x: %v", addr, err)
		}
	}

	regions, err := sim.Regions(ctx, 100)
	if err != nil {
		t.Fatalf("Regions: %v", err)
	}
	want := []dedup.Region{
		{Start: 0x1000, End: 0x3000},
		{Start: 0x5000, End: 0x6000},
	}
	if len(regions) != len(want) {
		t.Fatalf("got %d regions, want %d", len(regions), len(want))
	}
	for i, region := range regions {
		if region != want[i] {
			t.Errorf("region %d = %+v, want %+v", i, region, want[i])
		}
	}
}

func TestKillProcessReleasesFrames(t *testing.T) {
	ctx := context.Background()
	sim := New(0)
	sim.Spawn(100)
	sim.Spawn(200)

	content := bytes.Repeat([]byte{0x33}, 16)
	sim.WritePage(100, 0x1000, content)
	sim.WritePage(200, 0x5000, content)

	canonical := dedup.PageRef{PID: 100, Addr: 0x1000}
	member := dedup.PageRef{PID: 200, Addr: 0x5000}
	sim.Merge(ctx, canonical, []dedup.PageRef{member})

	sim.KillProcess(200)
	if sim.Alive(200) {
		t.Fatal("killed process still alive")
	}
	if got := sim.FrameRefs(canonical); got != 1 {
		t.Errorf("FrameRefs after kill = %d, want 1", got)
	}
	if _, err := sim.Regions(ctx, 200); !errors.Is(err, dedup.ErrNoProcess) {
		t.Errorf("Regions err = %v, want ErrNoProcess", err)
	}
}

func TestWritePageValidation(t *testing.T) {
	sim := New(0)
	sim.Spawn(100)

	if err := sim.WritePage(100, 0x1001, []byte("x")); err == nil {
		t.Error("unaligned address accepted")
	}
	long := make([]byte, sim.PageSize()+1)
	if err := sim.WritePage(100, 0x1000, long); err == nil {
		t.Error("oversized content accepted")
	}
	if err := sim.WritePage(999, 0x1000, []byte("x")); !errors.Is(err, dedup.ErrNoProcess) {
		t.Errorf("missing pid err = %v, want ErrNoProcess", err)
	}
}
