// Package wordindex implements the in-memory word prefix index: a
// sorted term lexicon plus positional postings, used by the prefix
// search mode to find candidates whose last token is a typed-prefix
// (possibly off by one edit) of a corpus term.
package wordindex

import (
	"sort"
	"strings"

	"acsearch/pkg/acsearch/model"
)

// Posting locates one occurrence of a term: the sentence it appears
// in and its 0-based token position within that sentence's normalized
// text.
type Posting struct {
	SentenceID uint32
	TokenPos   uint32
}

// Index is the word lexicon and its positional postings.
type Index struct {
	lexicon  []string // sorted, distinct
	postings map[string][]Posting
}

// Build tokenizes every sentence's normalized text on ASCII spaces and
// accumulates positional postings per distinct token.
func Build(sentences []model.Sentence) *Index {
	postings := make(map[string][]Posting)
	for _, s := range sentences {
		if s.Normalized == "" {
			continue
		}
		for pos, tok := range strings.Split(s.Normalized, " ") {
			postings[tok] = append(postings[tok], Posting{SentenceID: s.ID, TokenPos: uint32(pos)})
		}
	}
	lexicon := make([]string, 0, len(postings))
	for term := range postings {
		lexicon = append(lexicon, term)
	}
	sort.Strings(lexicon)
	return &Index{lexicon: lexicon, postings: postings}
}

// Lexicon returns the sorted list of distinct terms.
func (idx *Index) Lexicon() []string { return idx.lexicon }

// Postings returns the positional postings for an exact term, or nil.
func (idx *Index) Postings(term string) []Posting { return idx.postings[term] }

// TermFrequency is the number of occurrences of term across the corpus.
func (idx *Index) TermFrequency(term string) int { return len(idx.postings[term]) }

const neighborhoodWidth = 2000

// bisect returns the index of the first lexicon entry >= prefix.
func (idx *Index) bisect(prefix string) int {
	return sort.SearchStrings(idx.lexicon, prefix)
}

// CandidatesForTermPrefix returns the sentence ids of every posting
// reachable from terms matching prefix: every lexicon term that has
// prefix as a literal prefix, plus — within a bounded neighborhood of
// width neighborhoodWidth on each side of prefix's bisect point, and
// capped at maxTerms extra terms — any term within one edit of prefix.
// Unions postings until maxCandidates sentence ids are collected.
func (idx *Index) CandidatesForTermPrefix(prefix string, maxTerms, maxCandidates int) map[uint32]struct{} {
	out := make(map[uint32]struct{})
	termsUsed := 0

	addTerm := func(term string) bool {
		for _, p := range idx.postings[term] {
			out[p.SentenceID] = struct{}{}
			if len(out) >= maxCandidates {
				return false
			}
		}
		return true
	}

	start := idx.bisect(prefix)
	for i := start; i < len(idx.lexicon) && strings.HasPrefix(idx.lexicon[i], prefix); i++ {
		if !addTerm(idx.lexicon[i]) {
			return out
		}
	}

	if prefix == "" {
		return out
	}

	lo := start - neighborhoodWidth
	if lo < 0 {
		lo = 0
	}
	hi := start + neighborhoodWidth
	if hi > len(idx.lexicon) {
		hi = len(idx.lexicon)
	}
	for i := lo; i < hi && termsUsed < maxTerms; i++ {
		term := idx.lexicon[i]
		if strings.HasPrefix(term, prefix) {
			continue // already counted above
		}
		if prefixEditDistance(term, prefix) > 1 {
			continue
		}
		termsUsed++
		if !addTerm(term) {
			return out
		}
	}
	return out
}

// CandidatesForPrefixQuery tokenizes queryNorm and returns the
// candidate sentence ids: head tokens must appear as whole terms in
// the lexicon, the last token is matched as a prefix (per
// CandidatesForTermPrefix) — unless queryNorm ends in whitespace, in
// which case the pattern requires a full extra word after the last
// token (so the last token itself must match a whole term, and any
// following term is acceptable).
func (idx *Index) CandidatesForPrefixQuery(queryNorm string, endsInWhitespace bool, maxTerms, maxCandidates int) map[uint32]struct{} {
	tokens := strings.Split(strings.TrimRight(queryNorm, " "), " ")
	if queryNorm == "" {
		return map[uint32]struct{}{}
	}

	head := tokens
	var lastToken string
	if !endsInWhitespace {
		head = tokens[:len(tokens)-1]
		lastToken = tokens[len(tokens)-1]
	}

	// Sentences that contain every head token as a whole term,
	// indexed by head-token occurrence (position-agnostic: the prefix
	// scanner later verifies contiguity over the normalized text).
	var headSets []map[uint32]struct{}
	for _, h := range head {
		set := make(map[uint32]struct{})
		for _, p := range idx.postings[h] {
			set[p.SentenceID] = struct{}{}
		}
		headSets = append(headSets, set)
	}

	var tail map[uint32]struct{}
	if endsInWhitespace {
		// Require a whole extra word after the head: any sentence
		// containing every head token suffices; the strict "followed
		// by another word" check is enforced later by the prefix
		// scanner over the normalized text.
		tail = intersectAll(headSets)
	} else {
		tail = idx.CandidatesForTermPrefix(lastToken, maxTerms, maxCandidates)
		if len(head) > 0 {
			headCandidates := intersectAll(headSets)
			tail = intersect(tail, headCandidates)
		}
	}

	if len(tail) > maxCandidates {
		return capSet(tail, maxCandidates)
	}
	return tail
}

func intersectAll(sets []map[uint32]struct{}) map[uint32]struct{} {
	if len(sets) == 0 {
		return make(map[uint32]struct{})
	}
	out := sets[0]
	for _, s := range sets[1:] {
		out = intersect(out, s)
	}
	return out
}

func intersect(a, b map[uint32]struct{}) map[uint32]struct{} {
	if len(a) > len(b) {
		a, b = b, a
	}
	out := make(map[uint32]struct{}, len(a))
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func capSet(s map[uint32]struct{}, max int) map[uint32]struct{} {
	ids := make([]uint32, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make(map[uint32]struct{}, max)
	for i := 0; i < max && i < len(ids); i++ {
		out[ids[i]] = struct{}{}
	}
	return out
}

// prefixEditDistance is the minimum Levenshtein distance between
// prefix and any prefix-window of term whose length is within one of
// len(prefix), covering the substitution/insertion/deletion cases a
// single typo can produce.
func prefixEditDistance(term, prefix string) int {
	termRunes := []rune(term)
	prefixRunes := []rune(prefix)
	best := -1
	for _, l := range []int{len(prefixRunes) - 1, len(prefixRunes), len(prefixRunes) + 1} {
		if l < 0 {
			continue
		}
		if l > len(termRunes) {
			l = len(termRunes)
		}
		d := levenshtein(prefixRunes, termRunes[:l])
		if best == -1 || d < best {
			best = d
		}
	}
	if best == -1 {
		return 0
	}
	return best
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
