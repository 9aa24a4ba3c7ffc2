// Package augment implements the query augmenter (§4.7): correcting
// each token of a raw query by at most one edit against the word
// lexicon, for use by prefix search mode before candidate selection.
package augment

import (
	"sort"
	"strings"
	"unicode"

	"acsearch/pkg/acsearch/normalize"
	"acsearch/pkg/acsearch/scorer"
	"acsearch/pkg/acsearch/wordindex"
)

// Lexicon is the slice of term/frequency lookups the augmenter needs
// from a built word index.
type Lexicon interface {
	Lexicon() []string
	TermFrequency(term string) int
}

var _ Lexicon = (*wordindex.Index)(nil)

const neighborhoodWidth = 3000

// TokenCorrection records one token's outcome: Corrected equals
// Original when the token was already in the lexicon (Penalty 0).
type TokenCorrection struct {
	Original  string
	Corrected string
	Penalty   int32
}

// Result is the augmenter's output: the corrected query text, the sum
// of every token's penalty, and the per-token trace.
type Result struct {
	CorrectedQuery string
	TotalPenalty   int32
	Tokens         []TokenCorrection
}

// Augment normalizes raw, splits it into tokens, and corrects each
// token independently against lex. If raw ends in whitespace,
// CorrectedQuery ends in a single space.
func Augment(raw string, lex Lexicon) Result {
	norm := normalize.Normalize(raw).Text
	trailingSpace := strings.TrimRightFunc(raw, unicode.IsSpace) != raw
	trimmed := strings.TrimRight(norm, " ")

	if trimmed == "" {
		return Result{CorrectedQuery: norm}
	}

	tokens := strings.Split(trimmed, " ")
	lexicon := lex.Lexicon()

	corrections := make([]TokenCorrection, len(tokens))
	var total int32
	for i, t := range tokens {
		c := correctToken(t, lex, lexicon)
		corrections[i] = c
		total += c.Penalty
	}

	corrected := make([]string, len(tokens))
	for i, c := range corrections {
		corrected[i] = c.Corrected
	}
	result := strings.Join(corrected, " ")
	if trailingSpace {
		result += " "
	}

	return Result{CorrectedQuery: result, TotalPenalty: total, Tokens: corrections}
}

func correctToken(t string, lex Lexicon, lexicon []string) TokenCorrection {
	at := bisect(lexicon, t)
	if at < len(lexicon) && lexicon[at] == t {
		return TokenCorrection{Original: t, Corrected: t, Penalty: 0}
	}

	lo := at - neighborhoodWidth
	if lo < 0 {
		lo = 0
	}
	hi := at + neighborhoodWidth
	if hi > len(lexicon) {
		hi = len(lexicon)
	}

	tHasLetter := hasLetter(t)

	var best string
	var bestPenalty int32
	haveBest := false
	bestTF := -1

	consider := func(u string, penalty int32) {
		tf := lex.TermFrequency(u)
		if !haveBest {
			best, bestPenalty, bestTF, haveBest = u, penalty, tf, true
			return
		}
		if better(tf, penalty, u, tHasLetter, bestTF, bestPenalty, best) {
			best, bestPenalty, bestTF = u, penalty, tf
		}
	}

	for i := lo; i < hi; i++ {
		u := lexicon[i]
		if u == t {
			continue
		}
		penalty, ok := editPenalty(t, u)
		if !ok {
			continue
		}
		consider(u, penalty)
	}

	if !haveBest {
		return TokenCorrection{Original: t, Corrected: t, Penalty: 0}
	}
	return TokenCorrection{Original: t, Corrected: best, Penalty: bestPenalty}
}

// better reports whether candidate (tf, penalty, term) beats the
// current best under §4.7's preference ordering: term frequency desc,
// penalty closer to zero, lexicographically smaller, alphabetic
// preferred when the original token has any letters.
func better(tf int, penalty int32, term string, tHasLetter bool, bestTF int, bestPenalty int32, bestTerm string) bool {
	if tf != bestTF {
		return tf > bestTF
	}
	if penalty != bestPenalty {
		return penalty > bestPenalty // closer to zero (less negative)
	}
	if term != bestTerm {
		return term < bestTerm
	}
	if tHasLetter {
		tAlpha := hasLetter(term)
		bAlpha := hasLetter(bestTerm)
		if tAlpha != bAlpha {
			return tAlpha
		}
	}
	return false
}

// hasLetter reports whether s contains any Unicode letter, as opposed
// to being purely digits.
func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func bisect(lexicon []string, t string) int {
	return sort.SearchStrings(lexicon, t)
}

// editPenalty reports the §4.6 penalty for the single edit that turns
// candidate term u into token t (or t into u), if they differ by
// exactly one code point via substitution, insertion, or deletion.
func editPenalty(t, u string) (int32, bool) {
	tr := []rune(t)
	ur := []rune(u)

	switch {
	case len(tr) == len(ur):
		if p, ok := exactlyOneDiff(tr, ur); ok {
			return scorer.SubPenalty(p), true
		}
	case len(tr) == len(ur)+1:
		// t has one extra code point relative to the lexicon term.
		if p, ok := oneDeleteMatch(tr, ur); ok {
			return scorer.IndelPenalty(p + 1), true
		}
	case len(ur) == len(tr)+1:
		// t is missing one code point the lexicon term has.
		if p, ok := oneDeleteMatch(ur, tr); ok {
			return scorer.IndelPenalty(p + 1), true
		}
	}
	return 0, false
}

func exactlyOneDiff(a, b []rune) (int, bool) {
	if len(a) != len(b) {
		return 0, false
	}
	pos := -1
	for i := range a {
		if a[i] != b[i] {
			if pos != -1 {
				return 0, false
			}
			pos = i
		}
	}
	if pos == -1 {
		return 0, false
	}
	return pos + 1, true
}

// oneDeleteMatch reports whether removing exactly one code point from
// long reproduces short (len(long) == len(short)+1), and if so the
// 0-based index in long that would be removed.
func oneDeleteMatch(long, short []rune) (int, bool) {
	if len(long) != len(short)+1 {
		return 0, false
	}
	skip := -1
	i, j := 0, 0
	for i < len(long) {
		if j < len(short) && long[i] == short[j] {
			i++
			j++
			continue
		}
		if skip != -1 {
			return 0, false
		}
		skip = i
		i++
	}
	if j != len(short) {
		return 0, false
	}
	if skip == -1 {
		skip = len(long) - 1
	}
	return skip, true
}
