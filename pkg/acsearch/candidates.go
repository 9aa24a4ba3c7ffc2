package acsearch

import (
	"bytes"
	"sort"

	"acsearch/pkg/acsearch/acx"
)

// substringCandidates implements §4.5's candidate selection for
// substring mode: short queries (fewer code points than the index's
// k) are matched by scanning the ACX directory's keys for a literal
// substring hit, since no full k-gram exists to look up; queries of
// k code points or more are matched by unioning the postings of every
// distinct k-gram the query contains. Either way, the result is
// capped at maxCandidates, preferring the ids with the most matching
// grams and breaking ties by id.
func substringCandidates(idx *acx.Index, queryNorm string, maxCandidates int) map[uint32]struct{} {
	qRunes := []rune(queryNorm)
	if len(qRunes) == 0 {
		return nil
	}

	hits := make(map[uint32]int)
	k := idx.K()

	if len(qRunes) < k {
		qBytes := []byte(queryNorm)
		for item := range idx.IterItems() {
			if !bytes.Contains(item.Key, qBytes) {
				continue
			}
			for _, id := range item.Postings {
				hits[id]++
			}
		}
	} else {
		seen := make(map[string]bool)
		for i := 0; i+k <= len(qRunes); i++ {
			g := string(qRunes[i : i+k])
			if seen[g] {
				continue
			}
			seen[g] = true
			for _, id := range idx.Get([]byte(g)) {
				hits[id]++
			}
		}
	}

	return capByHitCount(hits, maxCandidates)
}

// capByHitCount returns every id in hits when the set already fits
// within max; otherwise it returns the max ids with the highest hit
// count, breaking ties by ascending id.
func capByHitCount(hits map[uint32]int, max int) map[uint32]struct{} {
	if len(hits) <= max {
		out := make(map[uint32]struct{}, len(hits))
		for id := range hits {
			out[id] = struct{}{}
		}
		return out
	}

	ids := make([]uint32, 0, len(hits))
	for id := range hits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if hits[ids[i]] != hits[ids[j]] {
			return hits[ids[i]] > hits[ids[j]]
		}
		return ids[i] < ids[j]
	})

	out := make(map[uint32]struct{}, max)
	for i := 0; i < max; i++ {
		out[ids[i]] = struct{}{}
	}
	return out
}
