// Package normalize turns raw corpus bytes into the matchable form the
// rest of acsearch operates on, while preserving a position mapping back
// to the original bytes.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Result holds a normalized string alongside the byte-offset mapping
// from each normalized code point back into the original input.
type Result struct {
	Text string
	// Map[i] is the byte offset into the original input that produced
	// the i-th code point of Text. len(Map) == utf8.RuneCountInString(Text).
	Map []uint32
}

// Normalize performs the single-pass transform specified for the
// corpus normalizer: casefold letters/digits, drop punctuation and
// symbols, collapse runs of Unicode whitespace into a single ASCII
// space, and trim the result. It never emits leading, trailing, or
// doubled spaces.
func Normalize(original string) Result {
	var buf strings.Builder
	buf.Grow(len(original))
	var res Result
	res.Map = make([]uint32, 0, len(original))

	pendingSpace := false
	var pendingSpaceOffset uint32
	haveOutput := false

	for offset := 0; offset < len(original); {
		r, size := utf8.DecodeRuneInString(original[offset:])
		if r == utf8.RuneError && size <= 1 {
			// Skip invalid byte sequences; they carry no matchable content.
			offset++
			continue
		}

		switch {
		case unicode.IsSpace(r):
			if !pendingSpace {
				pendingSpace = true
				pendingSpaceOffset = uint32(offset)
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && haveOutput {
				buf.WriteByte(' ')
				res.Map = append(res.Map, pendingSpaceOffset)
			}
			pendingSpace = false

			buf.WriteRune(foldRune(r))
			res.Map = append(res.Map, uint32(offset))
			haveOutput = true
		default:
			// Punctuation/symbol: dropped, does not flush a pending space.
		}

		offset += size
	}

	res.Text = buf.String()
	if len(res.Map) > 0 && res.Text[len(res.Text)-1] == ' ' {
		res.Text = res.Text[:len(res.Text)-1]
		res.Map = res.Map[:len(res.Map)-1]
	}

	return res
}

// foldRune casefolds a single code point, first normalizing fullwidth
// and halfwidth variants (common in ingested CJK-adjacent corpora) to
// their canonical form. Normalization and folding here are always
// rune-for-rune: the spec's norm_to_orig mapping is one entry per
// normalized code point, so any transform that could expand a single
// code point into several (e.g. full Unicode special casing of "ß")
// would break that invariant and is deliberately not used — see
// DESIGN.md.
func foldRune(r rune) rune {
	widened, _, err := width.Fold.String(string(r))
	if err == nil {
		if wr, size := utf8.DecodeRuneInString(widened); size == len(widened) && wr != utf8.RuneError {
			r = wr
		}
	}
	return unicode.ToLower(r)
}
