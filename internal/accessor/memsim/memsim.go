// Package memsim provides an in-memory page backend with copy-on-write
// frame sharing. It backs the dedup tests and the daemon's sim mode, where
// real /proc access is unavailable or unwanted.
package memsim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cowpool/samepaged/internal/dedup"
)

// DefaultPageSize is used when New receives zero.
const DefaultPageSize = 4096

// ErrNoPage reports an access to an address the process never mapped.
var ErrNoPage = errors.New("page is not mapped")

// ErrPagesDiffer reports a merge whose pages were not byte-identical.
var ErrPagesDiffer = errors.New("pages differ")

// frame is a physical page. Pages of any process may share one; refs counts
// the holders.
type frame struct {
	data []byte
	refs int
}

type page struct {
	frame *frame
}

type process struct {
	pages map[uint64]*page
}

// Accessor simulates process memory as pid -> addr -> frame mappings. It
// implements both dedup.MemoryAccessor and dedup.RegionSource.
type Accessor struct {
	mu       sync.RWMutex
	pageSize uint64
	procs    map[uint64]*process
}

// New creates an empty simulator.
func New(pageSize uint64) *Accessor {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	return &Accessor{
		pageSize: pageSize,
		procs:    make(map[uint64]*process),
	}
}

// PageSize reports the simulated page size.
func (a *Accessor) PageSize() uint64 {
	return a.pageSize
}

// Spawn creates a process with no mappings. Spawning an existing pid is a
// no-op.
func (a *Accessor) Spawn(pid uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.procs[pid]; !ok {
		a.procs[pid] = &process{pages: make(map[uint64]*page)}
	}
}

// KillProcess drops a process and releases its frames.
func (a *Accessor) KillProcess(pid uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	proc, ok := a.procs[pid]
	if !ok {
		return
	}
	for _, pg := range proc.pages {
		pg.frame.refs--
	}
	delete(a.procs, pid)
}

// WritePage stores page content, mapping the address first if needed. Data
// shorter than a page is zero-padded; longer is an error. Writing a shared
// frame breaks the share, exactly like a hardware copy-on-write fault.
func (a *Accessor) WritePage(pid, addr uint64, data []byte) error {
	if addr%a.pageSize != 0 {
		return fmt.Errorf("address %#x is not page aligned", addr)
	}
	if uint64(len(data)) > a.pageSize {
		return fmt.Errorf("content of %d bytes exceeds the page size", len(data))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	proc, ok := a.procs[pid]
	if !ok {
		return fmt.Errorf("pid %d: %w", pid, dedup.ErrNoProcess)
	}

	content := make([]byte, a.pageSize)
	copy(content, data)

	pg, ok := proc.pages[addr]
	if !ok {
		proc.pages[addr] = &page{frame: &frame{data: content, refs: 1}}
		return nil
	}
	if pg.frame.refs > 1 {
		pg.frame.refs--
		pg.frame = &frame{data: content, refs: 1}
		return nil
	}
	pg.frame.data = content
	return nil
}

// ReadPage returns a copy of the page content.
func (a *Accessor) ReadPage(_ context.Context, pid, addr uint64) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	proc, ok := a.procs[pid]
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", pid, dedup.ErrNoProcess)
	}
	pg, ok := proc.pages[addr]
	if !ok {
		return nil, fmt.Errorf("pid %d addr %#x: %w", pid, addr, ErrNoPage)
	}
	out := make([]byte, len(pg.frame.data))
	copy(out, pg.frame.data)
	return out, nil
}

// Merge points each byte-identical member at the canonical's frame. Results
// come back in member order; a failed member leaves the rest untouched.
func (a *Accessor) Merge(_ context.Context, canonical dedup.PageRef, members []dedup.PageRef) []dedup.MemberResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	results := make([]dedup.MemberResult, 0, len(members))
	for _, member := range members {
		results = append(results, dedup.MemberResult{
			Ref: member,
			Err: a.mergeLocked(canonical, member),
		})
	}
	return results
}

func (a *Accessor) mergeLocked(canonical, member dedup.PageRef) error {
	canonPage, err := a.pageLocked(canonical.PID, canonical.Addr)
	if err != nil {
		return err
	}
	memberPage, err := a.pageLocked(member.PID, member.Addr)
	if err != nil {
		return err
	}
	if canonPage.frame == memberPage.frame {
		return nil
	}
	if !bytes.Equal(canonPage.frame.data, memberPage.frame.data) {
		return ErrPagesDiffer
	}
	memberPage.frame.refs--
	memberPage.frame = canonPage.frame
	canonPage.frame.refs++
	return nil
}

// Unmerge gives the page a private frame again. A missing process or page
// already satisfies the unmerge.
func (a *Accessor) Unmerge(_ context.Context, pid, addr uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	proc, ok := a.procs[pid]
	if !ok {
		return nil
	}
	pg, ok := proc.pages[addr]
	if !ok {
		return nil
	}
	if pg.frame.refs <= 1 {
		return nil
	}
	content := make([]byte, len(pg.frame.data))
	copy(content, pg.frame.data)
	pg.frame.refs--
	pg.frame = &frame{data: content, refs: 1}
	return nil
}

// Regions reports the mapped address space as coalesced page-aligned runs.
func (a *Accessor) Regions(_ context.Context, pid uint64) ([]dedup.Region, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	proc, ok := a.procs[pid]
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", pid, dedup.ErrNoProcess)
	}

	addrs := make([]uint64, 0, len(proc.pages))
	for addr := range proc.pages {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	var regions []dedup.Region
	for _, addr := range addrs {
		if n := len(regions); n > 0 && regions[n-1].End == addr {
			regions[n-1].End = addr + a.pageSize
			continue
		}
		regions = append(regions, dedup.Region{Start: addr, End: addr + a.pageSize})
	}
	return regions, nil
}

// Alive reports whether the pid exists.
func (a *Accessor) Alive(pid uint64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.procs[pid]
	return ok
}

// SameFrame reports whether two pages share one frame. It is a test hook.
func (a *Accessor) SameFrame(x, y dedup.PageRef) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	px, err := a.pageLocked(x.PID, x.Addr)
	if err != nil {
		return false
	}
	py, err := a.pageLocked(y.PID, y.Addr)
	if err != nil {
		return false
	}
	return px.frame == py.frame
}

// FrameRefs reports how many pages share the frame behind ref, zero when
// the page is unmapped. It is a test hook.
func (a *Accessor) FrameRefs(ref dedup.PageRef) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	pg, err := a.pageLocked(ref.PID, ref.Addr)
	if err != nil {
		return 0
	}
	return pg.frame.refs
}

func (a *Accessor) pageLocked(pid, addr uint64) (*page, error) {
	proc, ok := a.procs[pid]
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", pid, dedup.ErrNoProcess)
	}
	pg, ok := proc.pages[addr]
	if !ok {
		return nil, fmt.Errorf("pid %d addr %#x: %w", pid, addr, ErrNoPage)
	}
	return pg, nil
}
