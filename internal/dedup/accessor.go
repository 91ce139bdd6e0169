package dedup

import (
	"context"
	"errors"
)

// ErrNoProcess is reported by accessors when the target process is gone.
// The engine treats it as terminal for the process rather than a transient
// read failure.
var ErrNoProcess = errors.New("process is gone")

// MemberResult reports the per-member outcome of a merge submission.
// Partial success is normal: failed members stay unmerged and are retried
// on a later pass.
type MemberResult struct {
	Ref PageRef
	Err error
}

// MemoryAccessor is the narrow boundary between the engine and a memory
// backend. The engine never touches process memory or the kernel driver
// directly; everything flows through these four calls.
type MemoryAccessor interface {
	// PageSize returns the backend page size in bytes.
	PageSize() uint64

	// ReadPage returns the current content of one page.
	ReadPage(ctx context.Context, pid, addr uint64) ([]byte, error)

	// Merge points every member page at the canonical page's frame. The
	// backend re-verifies content; a member whose content no longer matches
	// fails individually without affecting the rest.
	Merge(ctx context.Context, canonical PageRef, members []PageRef) []MemberResult

	// Unmerge restores a private copy for one page. Unmerging a page whose
	// process is gone reports success: the departure already satisfied it.
	Unmerge(ctx context.Context, pid, addr uint64) error
}

// RegionSource resolves monitorable regions and process liveness for a
// backend. Whole-process tasks are expanded through it at scan time.
type RegionSource interface {
	// Regions lists the anonymous, page-aligned regions of a process.
	Regions(ctx context.Context, pid uint64) ([]Region, error)

	// Alive reports whether the process currently exists.
	Alive(pid uint64) bool
}

// PassPreparer is an optional accessor capability invoked once before each
// pass touches the backend.
type PassPreparer interface {
	PreparePass(ctx context.Context) error
}
