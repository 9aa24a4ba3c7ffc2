// Package prefixscan hand-rolls the scanning regexp construction would
// otherwise be used for in prefix search mode: locating a head-token +
// last-token-prefix pattern inside a sentence's normalized text, and
// verifying the span it resolves to in the original text never
// silently swallows a punctuation boundary that normalization dropped.
package prefixscan

import (
	"unicode"
	"unicode/utf8"
)

// IsWordRune reports whether r counts as part of a word for boundary
// purposes: a letter or digit, matching the normalizer's own
// classification (see package normalize).
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// FindPrefixMatch scans normalized (tokens separated by single ASCII
// spaces, per the normalizer's output contract) for the leftmost
// occurrence of headTokens matched as whole, contiguous, space-
// separated words, followed by a word whose prefix equals lastPrefix.
// If requireFullWord is true, lastPrefix is ignored and the trailing
// word may be of any non-empty length (used when the raw query ended
// in whitespace, so the user has started but not yet typed any
// character of the next word). Returns the rune-offset span [start,
// end) of the full match, including the head tokens.
func FindPrefixMatch(normalized []rune, headTokens []string, lastPrefix string, requireFullWord bool) (start, end int, ok bool) {
	n := len(normalized)
	isBoundary := func(i int) bool { return i == 0 || normalized[i-1] == ' ' }

	for i := 0; i < n; i++ {
		if !isBoundary(i) {
			continue
		}
		pos := i
		matched := true
		for _, tok := range headTokens {
			tr := []rune(tok)
			if pos+len(tr) > n || string(normalized[pos:pos+len(tr)]) != tok {
				matched = false
				break
			}
			pos += len(tr)
			if pos >= n || normalized[pos] != ' ' {
				matched = false
				break
			}
			pos++
		}
		if !matched {
			continue
		}

		if requireFullWord {
			if pos >= n || normalized[pos] == ' ' {
				continue
			}
			wordEnd := pos
			for wordEnd < n && normalized[wordEnd] != ' ' {
				wordEnd++
			}
			return i, wordEnd, true
		}

		pr := []rune(lastPrefix)
		if pos+len(pr) > n || string(normalized[pos:pos+len(pr)]) != lastPrefix {
			continue
		}
		return i, pos + len(pr), true
	}
	return 0, 0, false
}

// SpanIsCleanWordPrefix reports whether orig[start:end] (a byte range
// into a sentence's original text) has no punctuation or symbol run
// between two word runes: punctuation next to whitespace or at an end
// of the span (a word break) is allowed. A hit whose original span
// fails this check spans a dropped-punctuation boundary that
// normalization flattened into a single contiguous word (e.g. a
// hyphenated compound), and must be rejected in prefix search mode.
func SpanIsCleanWordPrefix(orig string, start, end int) bool {
	if start < 0 || end > len(orig) || start > end {
		return false
	}
	afterWord, inPunct := false, false
	for i := start; i < end; {
		r, size := utf8.DecodeRuneInString(orig[i:end])
		if r == utf8.RuneError && size <= 1 {
			return false
		}
		switch {
		case IsWordRune(r):
			if afterWord && inPunct {
				return false
			}
			afterWord, inPunct = true, false
		case unicode.IsSpace(r):
			afterWord, inPunct = false, false
		default:
			inPunct = true
		}
		i += size
	}
	return true
}
