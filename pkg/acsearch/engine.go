package acsearch

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"acsearch/internal/acconfig"
	"acsearch/internal/prefixscan"
	"acsearch/pkg/acsearch/acx"
	"acsearch/pkg/acsearch/augment"
	"acsearch/pkg/acsearch/cdb"
	"acsearch/pkg/acsearch/model"
	"acsearch/pkg/acsearch/normalize"
	"acsearch/pkg/acsearch/scorer"
	"acsearch/pkg/acsearch/wordindex"
)

// Engine is a loaded corpus: the memory-mapped k-gram index and
// sentence store, the in-memory word index rebuilt from them, and the
// configuration governing candidate selection and scoring.
type Engine struct {
	mu sync.RWMutex

	acxIndex   *acx.Index
	store      *cdb.Store
	wordIdx    *wordindex.Index
	prefixSums map[string][]uint64

	cfg acconfig.Config
	log logrus.FieldLogger
}

// Load memory-maps the ACX and CDB files at paths, reads the
// prefix-sums sidecar, and rebuilds the in-memory word index by
// streaming every sentence out of the store. The word index is never
// persisted on its own: it is reconstructible in O(sentence count)
// from the CDB, so keeping a fourth on-disk format in sync would buy
// nothing. Overlay edits are not persisted and start empty on Load.
func Load(paths Paths, cfg acconfig.Config, log logrus.FieldLogger) (*Engine, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	acxIndex, err := acx.Open(paths.ACXPath)
	if err != nil {
		return nil, err
	}
	store, err := cdb.Open(paths.CDBPath)
	if err != nil {
		acxIndex.Close()
		return nil, err
	}
	prefixSums, err := cdb.OpenPrefixSums(paths.PrefixSumsPath)
	if err != nil {
		store.Close()
		acxIndex.Close()
		return nil, err
	}

	ids := make([]uint32, store.Count())
	for i := range ids {
		ids[i] = uint32(i)
	}
	var sentences []model.Sentence
	for s := range store.Iter(ids) {
		sentences = append(sentences, s)
	}
	wordIdx := wordindex.Build(sentences)

	log.WithFields(logrus.Fields{
		"sentences": len(sentences),
		"kgrams":    acxIndex.NumKeys(),
		"terms":     len(wordIdx.Lexicon()),
	}).Info("loaded corpus")

	return &Engine{
		acxIndex:   acxIndex,
		store:      store,
		wordIdx:    wordIdx,
		prefixSums: prefixSums,
		cfg:        cfg,
		log:        log,
	}, nil
}

// Shutdown unmaps the underlying ACX and CDB files. The Engine must
// not be used afterward.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	storeErr := e.store.Close()
	acxErr := e.acxIndex.Close()
	if storeErr != nil {
		return storeErr
	}
	return acxErr
}

// Put installs sentence as an overlay edit, never written back to the
// base files. The word index is rebuilt, so prefix-mode Complete calls
// see the new text. The k-gram index is not updated: substring-mode
// Complete selects candidates from the k-grams recorded at build time,
// so it finds id only through k-grams its base sentence contained.
func (e *Engine) Put(id uint32, sentence model.Sentence) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.OverlayPut(id, sentence)
	e.wordIdx = wordindex.Build(e.liveSentencesLocked())
}

// Delete marks id as removed for the life of the Engine.
func (e *Engine) Delete(id uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.OverlayDelete(id)
	e.wordIdx = wordindex.Build(e.liveSentencesLocked())
}

// liveSentencesLocked reconstructs the current sentence set (base
// records plus overlay, minus deletions) for rebuilding the word
// index after a Put/Delete. Callers must hold e.mu.
func (e *Engine) liveSentencesLocked() []model.Sentence {
	ids := make([]uint32, e.store.Count())
	for i := range ids {
		ids[i] = uint32(i)
	}
	var out []model.Sentence
	for s := range e.store.Iter(ids) {
		out = append(out, s)
	}
	return out
}

// Complete returns the top-k autocomplete results for raw, dispatched
// to substring or prefix matching per the Engine's configured
// SearchMode. An empty query (or one that normalizes to empty)
// returns an empty, non-nil-error result.
func (e *Engine) Complete(raw string, k uint) ([]AutoCompleteData, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if raw == "" {
		return nil, nil
	}

	var results []AutoCompleteData
	var err error
	switch e.cfg.SearchMode {
	case model.ModePrefix:
		results, err = e.completePrefix(raw)
	default:
		results, err = e.completeSubstring(raw)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CompletedSentence < results[j].CompletedSentence
	})
	if uint(len(results)) > k {
		results = results[:k]
	}
	return results, nil
}

func (e *Engine) completeSubstring(raw string) ([]AutoCompleteData, error) {
	queryNorm := normalize.Normalize(raw).Text
	if queryNorm == "" {
		return nil, nil
	}

	candidates := substringCandidates(e.acxIndex, queryNorm, e.cfg.MaxCandidates)
	var out []AutoCompleteData
	for id := range candidates {
		sent, err := e.store.Get(id)
		if err != nil {
			continue
		}
		m, ok := scorer.Score(queryNorm, sent.Normalized)
		if !ok {
			continue
		}
		data, ok := e.buildResult(sent, m.Start, m.Start+m.Window, m.Score)
		if !ok {
			continue
		}
		out = append(out, data)
	}
	return out, nil
}

func (e *Engine) completePrefix(raw string) ([]AutoCompleteData, error) {
	aug := augment.Augment(raw, e.wordIdx)
	correctedNorm := aug.CorrectedQuery
	trimmed := correctedNorm
	endsInWhitespace := len(trimmed) > 0 && trimmed[len(trimmed)-1] == ' '
	for len(trimmed) > 0 && trimmed[len(trimmed)-1] == ' ' {
		trimmed = trimmed[:len(trimmed)-1]
	}
	if trimmed == "" {
		return nil, nil
	}

	tokens := splitOnSpace(trimmed)
	head := tokens
	var lastPrefix string
	if !endsInWhitespace {
		head = tokens[:len(tokens)-1]
		lastPrefix = tokens[len(tokens)-1]
	}

	candidates := e.wordIdx.CandidatesForPrefixQuery(correctedNorm, endsInWhitespace, e.cfg.MaxPrefixTerms, e.cfg.MaxPrefixCandidates)

	var out []AutoCompleteData
	for id := range candidates {
		sent, err := e.store.Get(id)
		if err != nil {
			continue
		}
		runes := []rune(sent.Normalized)
		start, end, ok := prefixscan.FindPrefixMatch(runes, head, lastPrefix, endsInWhitespace)
		if !ok {
			continue
		}
		score := 2*int32(end-start) + aug.TotalPenalty
		data, ok := e.buildResult(sent, start, end, score)
		if !ok {
			continue
		}
		out = append(out, data)
	}
	return out, nil
}

// buildResult maps the normalized match span [start, end) back to the
// sentence's original bytes, applies the prefix-mode word-prefix
// guard, and resolves the absolute file offset via the prefix-sums
// sidecar.
func (e *Engine) buildResult(sent model.Sentence, start, end int, score int32) (AutoCompleteData, bool) {
	if start < 0 || start >= len(sent.NormToOrig) || end > len(sent.NormToOrig) || start > end {
		return AutoCompleteData{}, false
	}
	origStart := int(sent.NormToOrig[start])
	var origEnd int
	if end < len(sent.NormToOrig) {
		origEnd = int(sent.NormToOrig[end])
	} else {
		origEnd = len(sent.Original)
	}

	if e.cfg.SearchMode == model.ModePrefix && !prefixscan.SpanIsCleanWordPrefix(sent.Original, origStart, origEnd) {
		return AutoCompleteData{}, false
	}

	offset, err := e.resolveOffset(sent, origStart)
	if err != nil {
		return AutoCompleteData{}, false
	}

	return AutoCompleteData{
		CompletedSentence: sent.Original,
		SourceText:        sent.Path,
		Offset:            offset,
		Score:             score,
	}, true
}

// resolveOffset converts a byte offset within sent.Original into an
// absolute offset within its source file, using the line the sentence
// started on plus the prefix-sums table recorded at build time.
func (e *Engine) resolveOffset(sent model.Sentence, origStart int) (uint64, error) {
	lines, ok := e.prefixSums[sent.Path]
	if !ok || int(sent.LineNo) >= len(lines) {
		return 0, &model.CorruptMappingError{SentenceID: sent.ID}
	}
	return lines[sent.LineNo] + uint64(origStart), nil
}

func splitOnSpace(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

