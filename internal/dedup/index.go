package dedup

import "sort"

// Index buckets scanned pages by fingerprint. It lives for a single pass and
// is rebuilt from scratch on the next one.
type Index struct {
	buckets map[Fingerprint][]PageRef
}

// BuildIndex groups every scanned page by fingerprint. Bucket refs are sorted
// by (pid, addr) so canonical selection is reproducible.
func BuildIndex(pages map[PageRef]Fingerprint) *Index {
	ix := &Index{buckets: make(map[Fingerprint][]PageRef)}
	for ref, fp := range pages {
		ix.buckets[fp] = append(ix.buckets[fp], ref)
	}
	for fp := range ix.buckets {
		refs := ix.buckets[fp]
		sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	}
	return ix
}

// Candidates returns the fingerprints shared by at least two pages, sorted
// for deterministic pass order.
func (ix *Index) Candidates() []Fingerprint {
	fps := make([]Fingerprint, 0, len(ix.buckets))
	for fp, refs := range ix.buckets {
		if len(refs) >= 2 {
			fps = append(fps, fp)
		}
	}
	sort.Slice(fps, func(i, j int) bool { return fps[i] < fps[j] })
	return fps
}

// Bucket returns the refs sharing a fingerprint.
func (ix *Index) Bucket(fp Fingerprint) []PageRef {
	return ix.buckets[fp]
}

// Len reports the number of distinct fingerprints.
func (ix *Index) Len() int {
	return len(ix.buckets)
}
