// Package dedup implements the page deduplication engine behind the control
// protocol: a registry of monitored tasks, a content scanner, a per-pass
// candidate index, and the merge bookkeeping that tracks which pages share a
// canonical copy.
package dedup

import "time"

// PageRef identifies one monitored page by owning process and page-aligned
// address.
type PageRef struct {
	PID  uint64
	Addr uint64
}

// Less orders refs by pid, then address. Canonical selection and pass
// iteration both rely on this order being reproducible.
func (r PageRef) Less(other PageRef) bool {
	if r.PID != other.PID {
		return r.PID < other.PID
	}
	return r.Addr < other.Addr
}

// Region is a half-open, page-aligned address range [Start, End).
type Region struct {
	Start uint64
	End   uint64
}

// Overlaps reports whether two regions share at least one page.
func (r Region) Overlaps(other Region) bool {
	return r.Start < other.End && other.Start < r.End
}

// Contains reports whether addr falls inside the region.
func (r Region) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

// Fingerprint is the content hash of one page. Equal fingerprints nominate
// candidates; only a byte comparison proves pages identical.
type Fingerprint uint64

// TaskState tracks registry membership of a monitored process.
type TaskState int

const (
	// TaskActive tasks are scanned on every pass.
	TaskActive TaskState = iota
	// TaskRemoved marks a task whose process vanished mid-pass; it is
	// finalized and deleted before the pass completes.
	TaskRemoved
)

// Task is one monitored process. All marks whole-address-space monitoring,
// with regions discovered from the backend at scan time; otherwise Regions
// holds the explicitly registered ranges.
type Task struct {
	PID     uint64
	Regions []Region
	All     bool
	State   TaskState
}

// MergeRecord tracks one established merge: every member page shares the
// canonical page's frame. Members includes the canonical. A record holds at
// least two members or is dissolved.
type MergeRecord struct {
	Canonical   PageRef
	Members     map[PageRef]struct{}
	Fingerprint Fingerprint
}

// PassKind distinguishes the two full-pass flavors.
type PassKind string

const (
	// PassMerge scans and merges.
	PassMerge PassKind = "merge"
	// PassRefresh scans, demotes diverged members, then merges.
	PassRefresh PassKind = "refresh"
)

// PassStats summarizes one completed pass for logs and the journal.
type PassStats struct {
	Kind         PassKind
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
}

// TaskEventKind labels registry changes reported to the observer.
type TaskEventKind string

const (
	TaskEventAdd   TaskEventKind = "add"
	TaskEventDel   TaskEventKind = "del"
	TaskEventPrune TaskEventKind = "prune"
)
