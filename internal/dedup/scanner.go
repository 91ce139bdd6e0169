package dedup

import (
	"context"
	"errors"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultScanConcurrency bounds how many tasks are scanned in parallel.
const DefaultScanConcurrency = 4

// FingerprintFunc hashes one page of content.
type FingerprintFunc func([]byte) Fingerprint

// XXHash fingerprints a page with xxhash64. It is the default fingerprint
// function.
func XXHash(data []byte) Fingerprint {
	return Fingerprint(xxhash.Sum64(data))
}

// TaskScan summarizes the scan outcome for one task.
type TaskScan struct {
	Readable     int
	ReadFailures int
	// Gone is set when the process disappeared: reads reported no process
	// and not a single page was readable.
	Gone bool
}

// ScanResult is the outcome of one full pass over every monitored page.
type ScanResult struct {
	Pages   map[PageRef]Fingerprint
	PerTask map[uint64]TaskScan
}

// ReadFailures totals per-task read failures.
func (s *ScanResult) ReadFailures() int {
	total := 0
	for _, ts := range s.PerTask {
		total += ts.ReadFailures
	}
	return total
}

// Scanner reads and fingerprints every monitored page. Tasks scan
// concurrently; each page is read exactly once per pass.
type Scanner struct {
	accessor    MemoryAccessor
	regions     RegionSource
	fingerprint FingerprintFunc
	concurrency int
}

// NewScanner creates a scanner over the given backend. A nil fingerprint
// selects XXHash; concurrency values below one select the default.
func NewScanner(accessor MemoryAccessor, regions RegionSource, fingerprint FingerprintFunc, concurrency int) *Scanner {
	if fingerprint == nil {
		fingerprint = XXHash
	}
	if concurrency < 1 {
		concurrency = DefaultScanConcurrency
	}
	return &Scanner{
		accessor:    accessor,
		regions:     regions,
		fingerprint: fingerprint,
		concurrency: concurrency,
	}
}

type taskScanResult struct {
	pid   uint64
	pages map[PageRef]Fingerprint
	scan  TaskScan
}

// Scan reads every page of every task. Individual read failures are counted
// and skipped; only context cancellation aborts the scan.
func (s *Scanner) Scan(ctx context.Context, tasks []Task) (*ScanResult, error) {
	results := make([]taskScanResult, len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			results[i] = s.scanTask(ctx, task)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := &ScanResult{
		Pages:   make(map[PageRef]Fingerprint),
		PerTask: make(map[uint64]TaskScan, len(tasks)),
	}
	for _, res := range results {
		for ref, fp := range res.pages {
			combined.Pages[ref] = fp
		}
		combined.PerTask[res.pid] = res.scan
	}
	return combined, nil
}

func (s *Scanner) scanTask(ctx context.Context, task Task) taskScanResult {
	res := taskScanResult{pid: task.PID, pages: make(map[PageRef]Fingerprint)}
	noProcess := false

	regions := task.Regions
	if task.All {
		discovered, err := s.regions.Regions(ctx, task.PID)
		if err != nil {
			if errors.Is(err, ErrNoProcess) {
				noProcess = true
			} else {
				res.scan.ReadFailures++
			}
			regions = nil
		} else {
			regions = discovered
		}
	}

	pageSize := s.accessor.PageSize()
	for _, region := range regions {
		for addr := region.Start; addr < region.End; addr += pageSize {
			if ctx.Err() != nil {
				return res
			}
			data, err := s.accessor.ReadPage(ctx, task.PID, addr)
			if err != nil {
				res.scan.ReadFailures++
				if errors.Is(err, ErrNoProcess) {
					noProcess = true
				}
				continue
			}
			res.pages[PageRef{PID: task.PID, Addr: addr}] = s.fingerprint(data)
			res.scan.Readable++
		}
	}

	res.scan.Gone = noProcess && res.scan.Readable == 0
	return res
}
