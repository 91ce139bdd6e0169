package dedup

import (
	"bytes"
	"context"
	"errors"
)

// Engine owns the merge records and drives the accessor. Methods assume a
// single caller; the command loop in Core provides that.
type Engine struct {
	accessor MemoryAccessor
	records  *recordSet
}

// NewEngine creates an engine with empty bookkeeping.
func NewEngine(accessor MemoryAccessor) *Engine {
	return &Engine{accessor: accessor, records: newRecordSet()}
}

// RecordsLive reports the number of live merge records.
func (e *Engine) RecordsLive() int {
	return e.records.live()
}

// Snapshot returns a copy of the live records sorted by canonical. It is
// safe only between commands; callers must not race an in-flight pass.
func (e *Engine) Snapshot() []MergeRecord {
	records := make([]MergeRecord, 0, e.records.live())
	for _, canonical := range e.records.canonicals() {
		rec := e.records.byCanonical[canonical]
		members := make(map[PageRef]struct{}, len(rec.Members))
		for member := range rec.Members {
			members[member] = struct{}{}
		}
		records = append(records, MergeRecord{
			Canonical:   rec.Canonical,
			Members:     members,
			Fingerprint: rec.Fingerprint,
		})
	}
	return records
}

// mergePass walks every candidate group of the index and merges what proves
// byte-identical.
func (e *Engine) mergePass(ctx context.Context, ix *Index, stats *PassStats) {
	for _, fp := range ix.Candidates() {
		stats.Groups++
		e.mergeGroup(ctx, fp, ix.Bucket(fp), stats)
	}
}

// mergeGroup partitions one fingerprint bucket by actual content. Existing
// records whose canonical scanned into the bucket accept new members first;
// the remaining refs partition among themselves. Refs already held by a
// record never re-enter partitioning.
func (e *Engine) mergeGroup(ctx context.Context, fp Fingerprint, refs []PageRef, stats *PassStats) {
	var free []PageRef
	var targets []*MergeRecord
	for _, ref := range refs {
		rec := e.records.recordOf(ref)
		if rec == nil {
			free = append(free, ref)
			continue
		}
		if rec.Canonical == ref {
			targets = append(targets, rec)
		}
	}

	for _, rec := range targets {
		if len(free) == 0 {
			break
		}
		free = e.attachToRecord(ctx, rec, free, stats)
	}

	for len(free) >= 2 {
		canonical := free[0]
		canonBytes, err := e.accessor.ReadPage(ctx, canonical.PID, canonical.Addr)
		if err != nil {
			stats.ReadFailures++
			free = free[1:]
			continue
		}

		matched, rest := e.verifyAgainst(ctx, canonBytes, free[1:], stats)
		if len(matched) == 0 {
			free = rest
			continue
		}

		merged := e.submitMerge(ctx, canonical, matched, stats)
		if len(merged) > 0 {
			rec := e.records.create(canonical, fp)
			for _, ref := range merged {
				e.records.attach(rec, ref)
				stats.Merged++
			}
		}
		free = rest
	}
}

// attachToRecord byte-verifies free refs against an existing record's
// canonical and attaches the ones that merge. It returns the refs still
// free afterwards.
func (e *Engine) attachToRecord(ctx context.Context, rec *MergeRecord, free []PageRef, stats *PassStats) []PageRef {
	canonBytes, err := e.accessor.ReadPage(ctx, rec.Canonical.PID, rec.Canonical.Addr)
	if err != nil {
		stats.ReadFailures++
		return free
	}

	matched, rest := e.verifyAgainst(ctx, canonBytes, free, stats)
	if len(matched) == 0 {
		return rest
	}

	for _, ref := range e.submitMerge(ctx, rec.Canonical, matched, stats) {
		e.records.attach(rec, ref)
		stats.Merged++
	}
	return rest
}

// verifyAgainst splits refs into byte-identical matches and the rest. A ref
// with the right fingerprint but different bytes is a collision or a raced
// write; it stays free and counts as a conflict.
func (e *Engine) verifyAgainst(ctx context.Context, canonBytes []byte, refs []PageRef, stats *PassStats) (matched, rest []PageRef) {
	for _, ref := range refs {
		data, err := e.accessor.ReadPage(ctx, ref.PID, ref.Addr)
		if err != nil {
			stats.ReadFailures++
			continue
		}
		if bytes.Equal(canonBytes, data) {
			matched = append(matched, ref)
		} else {
			stats.Conflicts++
			rest = append(rest, ref)
		}
	}
	return matched, rest
}

// submitMerge hands verified members to the accessor and returns the ones
// that merged. Members the backend rejects are dropped this pass and picked
// up again by the next scan.
func (e *Engine) submitMerge(ctx context.Context, canonical PageRef, members []PageRef, stats *PassStats) []PageRef {
	var merged []PageRef
	for _, res := range e.accessor.Merge(ctx, canonical, members) {
		if res.Err != nil {
			if !errors.Is(res.Err, ErrNoProcess) {
				stats.Conflicts++
			}
			continue
		}
		merged = append(merged, res.Ref)
	}
	return merged
}

// reconcile demotes members whose scanned fingerprint no longer matches
// their record canonical's. Divergence detection uses the scan, not fresh
// byte reads, so a colliding divergence goes unnoticed until content moves
// again.
func (e *Engine) reconcile(ctx context.Context, scan *ScanResult, stats *PassStats) {
	for _, canonical := range e.records.canonicals() {
		rec := e.records.byCanonical[canonical]
		canonFP, canonScanned := scan.Pages[rec.Canonical]
		if !canonScanned {
			// Canonical unreadable or gone: the whole record is stale.
			e.demoteAll(ctx, rec, stats)
			continue
		}

		for _, member := range rec.memberList() {
			if member == rec.Canonical {
				continue
			}
			if memberFP, ok := scan.Pages[member]; ok && memberFP == canonFP {
				continue
			}
			e.unmergeRef(ctx, member, stats)
			e.records.detach(rec, member)
		}
		e.collapse(ctx, rec, stats)
	}
}

// releasePID unmerges every membership of a departing pid and collapses the
// records it leaves behind.
func (e *Engine) releasePID(ctx context.Context, pid uint64, stats *PassStats) {
	for _, ref := range e.records.membersOf(pid) {
		rec := e.records.recordOf(ref)
		if rec == nil {
			continue
		}
		e.unmergeRef(ctx, ref, stats)
		e.records.detach(rec, ref)
		e.collapse(ctx, rec, stats)
	}
}

func (e *Engine) demoteAll(ctx context.Context, rec *MergeRecord, stats *PassStats) {
	for _, member := range rec.memberList() {
		e.unmergeRef(ctx, member, stats)
	}
	e.records.dissolve(rec)
}

// collapse dissolves a record that fell below two members, unmerging the
// survivor so no page stays marked shared without a partner.
func (e *Engine) collapse(ctx context.Context, rec *MergeRecord, stats *PassStats) {
	if len(rec.Members) >= 2 {
		return
	}
	for _, member := range rec.memberList() {
		e.unmergeRef(ctx, member, stats)
	}
	e.records.dissolve(rec)
}

// unmergeRef restores a private mapping. A gone process already satisfies
// the unmerge; other backend errors are ignored because unmerging an
// unmerged page is a no-op.
func (e *Engine) unmergeRef(ctx context.Context, ref PageRef, stats *PassStats) {
	_ = e.accessor.Unmerge(ctx, ref.PID, ref.Addr)
	stats.Unmerged++
}
