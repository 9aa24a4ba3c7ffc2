// Package model holds the data types shared by every acsearch
// component (store, index, scorer, engine) so that leaf packages can
// depend on them without importing the root engine package.
package model

// Sentence is the unit of retrieval: one logical block of text
// (a line, paragraph, or sliding window, depending on TextUnit) drawn
// from an ingested source file.
type Sentence struct {
	ID   uint32
	Path string
	// LineNo is the first line of the block in the source file (0-based).
	LineNo uint32
	// Original is the exact bytes of the block as read, without
	// trailing line terminators.
	Original string
	// Normalized is the normalized form of Original (see package
	// normalize).
	Normalized string
	// NormToOrig maps each code point of Normalized back to the byte
	// offset in Original it was produced from. Strictly increasing;
	// len(NormToOrig) == utf8.RuneCountInString(Normalized).
	NormToOrig []uint32
}

// AutoCompleteData is a single ranked autocomplete result.
type AutoCompleteData struct {
	CompletedSentence string
	SourceText        string
	Offset            uint64
	Score             int32
}

// TextUnit selects how source files are split into Sentence blocks.
type TextUnit int

const (
	UnitLine TextUnit = iota
	UnitParagraph
	UnitWindow
)

// SearchMode selects the query-time matching strategy.
type SearchMode int

const (
	// ModeSubstring scores candidates with the exact + one-edit scorer
	// (§4.6) against the whole normalized query.
	ModeSubstring SearchMode = iota
	// ModePrefix treats the query's last token as a word prefix, using
	// the word index and a one-edit token corrector.
	ModePrefix
)
