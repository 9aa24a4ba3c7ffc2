// Package scorer implements the core matching algorithm: exact
// substring plus the three single-edit variants (substitution,
// insertion, deletion), each with a deterministic position-based
// penalty, over a candidate sentence's normalized text.
package scorer

// Match is the best-scoring alignment of a query against a sentence's
// normalized text.
type Match struct {
	Score  int32
	Start  int // rune offset into the sentence's normalized text
	Window int // length in runes of the matched span
}

// SubPenalty is the position-based penalty table for a single
// substitution, shared with the query augmenter (§4.7) since both
// strategies degrade the same way as the edit moves later in the
// query.
func SubPenalty(p int) int32 {
	switch p {
	case 1:
		return -5
	case 2:
		return -4
	case 3:
		return -3
	case 4:
		return -2
	default:
		return -1
	}
}

// IndelPenalty is the position-based penalty table for a single
// insertion or deletion, shared with the query augmenter.
func IndelPenalty(p int) int32 {
	switch p {
	case 1:
		return -10
	case 2:
		return -8
	case 3:
		return -6
	case 4:
		return -4
	default:
		return -2
	}
}

// Score finds the best match of query within sentence (both already
// normalized), considering exact substring and the three single-edit
// strategies of §4.6. Returns ok=false if none of the strategies
// produce any candidate span (e.g. sentence shorter than any viable
// window).
func Score(query, sentence string) (Match, bool) {
	q := []rune(query)
	s := []rune(sentence)
	if len(q) == 0 {
		return Match{}, false
	}

	best := Match{}
	found := false
	consider := func(m Match) {
		if !found || better(m, best) {
			best = m
			found = true
		}
	}

	for _, m := range exactMatches(q, s) {
		consider(m)
	}
	for _, m := range substitutionMatches(q, s) {
		consider(m)
	}
	for _, m := range insertionInQueryMatches(q, s) {
		consider(m)
	}
	for _, m := range deletionInQueryMatches(q, s) {
		consider(m)
	}

	return best, found
}

// better reports whether a beats b under the mandated tie-break:
// higher score first, then earlier start, then longer window.
func better(a, b Match) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.Window > b.Window
}

// exactMatches returns every leftmost-anchored exact occurrence of q
// in s (§4.6 strategy 1: score = 2*len(q)).
func exactMatches(q, s []rune) []Match {
	var out []Match
	if len(q) > len(s) {
		return out
	}
	for i := 0; i+len(q) <= len(s); i++ {
		if runesEqual(s[i:i+len(q)], q) {
			out = append(out, Match{Score: 2 * int32(len(q)), Start: i, Window: len(q)})
		}
	}
	return out
}

// substitutionMatches returns every window of s the same length as q
// that differs from q in exactly one code point (§4.6 strategy 2).
func substitutionMatches(q, s []rune) []Match {
	var out []Match
	if len(q) > len(s) {
		return out
	}
	for i := 0; i+len(q) <= len(s); i++ {
		p, ok := exactlyOneDiff(q, s[i:i+len(q)])
		if !ok {
			continue
		}
		score := 2*int32(len(q)-1) + SubPenalty(p)
		out = append(out, Match{Score: score, Start: i, Window: len(q)})
	}
	return out
}

// insertionInQueryMatches handles the case where the query has one
// extra character relative to the sentence window (§4.6 strategy 3):
// skipping exactly one position of q should reproduce a window of s
// of length len(q)-1.
func insertionInQueryMatches(q, s []rune) []Match {
	var out []Match
	winLen := len(q) - 1
	if winLen <= 0 || winLen > len(s) {
		return out
	}
	for i := 0; i+winLen <= len(s); i++ {
		skip, ok := oneDeleteMatch(q, s[i:i+winLen])
		if !ok {
			continue
		}
		p := skip + 1
		score := 2*int32(winLen) + IndelPenalty(p)
		out = append(out, Match{Score: score, Start: i, Window: winLen})
	}
	return out
}

// deletionInQueryMatches handles the case where the sentence window is
// one longer than the query (§4.6 strategy 4): skipping exactly one
// position of the sentence window should reproduce q.
func deletionInQueryMatches(q, s []rune) []Match {
	var out []Match
	winLen := len(q) + 1
	if winLen > len(s) {
		return out
	}
	for i := 0; i+winLen <= len(s); i++ {
		skip, ok := oneDeleteMatch(s[i:i+winLen], q)
		if !ok {
			continue
		}
		p := skip + 1
		score := 2*int32(len(q)) + IndelPenalty(p)
		out = append(out, Match{Score: score, Start: i, Window: winLen})
	}
	return out
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// exactlyOneDiff reports whether a and b (equal length) differ in
// exactly one position, and if so its 1-based index.
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
