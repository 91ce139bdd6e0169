package dedup

import "sort"

// recordSet is the engine's persistent bookkeeping: which pages currently
// share a canonical frame. It maintains the one-record-per-page invariant
// through the memberOf index.
type recordSet struct {
	byCanonical map[PageRef]*MergeRecord
	memberOf    map[PageRef]PageRef
}

func newRecordSet() *recordSet {
	return &recordSet{
		byCanonical: make(map[PageRef]*MergeRecord),
		memberOf:    make(map[PageRef]PageRef),
	}
}

// holds reports whether the ref belongs to any record.
func (s *recordSet) holds(ref PageRef) bool {
	_, ok := s.memberOf[ref]
	return ok
}

// recordOf returns the record a ref belongs to, if any.
func (s *recordSet) recordOf(ref PageRef) *MergeRecord {
	canonical, ok := s.memberOf[ref]
	if !ok {
		return nil
	}
	return s.byCanonical[canonical]
}

// create starts a record with the canonical as its sole member. Callers
// attach at least one more member before the pass completes.
func (s *recordSet) create(canonical PageRef, fp Fingerprint) *MergeRecord {
	rec := &MergeRecord{
		Canonical:   canonical,
		Members:     map[PageRef]struct{}{canonical: {}},
		Fingerprint: fp,
	}
	s.byCanonical[canonical] = rec
	s.memberOf[canonical] = canonical
	return rec
}

// attach adds a member to a record.
func (s *recordSet) attach(rec *MergeRecord, ref PageRef) {
	rec.Members[ref] = struct{}{}
	s.memberOf[ref] = rec.Canonical
}

// detach removes a member. A departing canonical promotes the lowest
// remaining member, reindexing the rest of the record.
func (s *recordSet) detach(rec *MergeRecord, ref PageRef) {
	delete(rec.Members, ref)
	delete(s.memberOf, ref)

	if ref != rec.Canonical || len(rec.Members) == 0 {
		return
	}

	members := rec.memberList()
	promoted := members[0]
	delete(s.byCanonical, rec.Canonical)
	rec.Canonical = promoted
	s.byCanonical[promoted] = rec
	for _, member := range members {
		s.memberOf[member] = promoted
	}
}

// dissolve drops a record and all its membership bookkeeping.
func (s *recordSet) dissolve(rec *MergeRecord) {
	for member := range rec.Members {
		delete(s.memberOf, member)
	}
	delete(s.byCanonical, rec.Canonical)
}

// membersOf lists every ref of a pid held by any record, sorted.
func (s *recordSet) membersOf(pid uint64) []PageRef {
	var refs []PageRef
	for ref := range s.memberOf {
		if ref.PID == pid {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	return refs
}

// canonicals lists record canonicals in sorted order for deterministic
// iteration.
func (s *recordSet) canonicals() []PageRef {
	refs := make([]PageRef, 0, len(s.byCanonical))
	for ref := range s.byCanonical {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	return refs
}

// live reports the number of records.
func (s *recordSet) live() int {
	return len(s.byCanonical)
}

// memberList returns the record's members sorted by (pid, addr).
func (r *MergeRecord) memberList() []PageRef {
	members := make([]PageRef, 0, len(r.Members))
	for member := range r.Members {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Less(members[j]) })
	return members
}
