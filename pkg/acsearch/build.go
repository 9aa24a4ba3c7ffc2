package acsearch

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"acsearch/internal/acconfig"
	"acsearch/internal/telemetry"
	"acsearch/pkg/acsearch/acx"
	"acsearch/pkg/acsearch/cdb"
	"acsearch/pkg/acsearch/model"
	"acsearch/pkg/acsearch/normalize"
)

// Paths names the three on-disk artifacts a build produces and a load
// opens: the k-gram index, the sentence store, and the per-file line
// prefix-sum sidecar.
type Paths struct {
	ACXPath        string
	CDBPath        string
	PrefixSumsPath string
}

const (
	progressEveryFiles     = 500
	progressEverySentences = 10000
)

// Build discovers every *.txt file under roots, splits each into
// Sentence blocks per cfg.TextUnit, normalizes them, and writes the
// k-gram index, sentence store, and prefix-sum sidecar to paths. File
// reads run in parallel (bounded by GOMAXPROCS); block-splitting and
// id assignment happen afterward, single-threaded, so the result is
// always the same regardless of how the reads were scheduled.
func Build(roots []string, cfg acconfig.Config, paths Paths, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}

	files, err := discoverFiles(roots)
	if err != nil {
		return err
	}
	log.WithField("files", len(files)).Info("discovered source files")

	fileBodies := make([][]byte, len(files))
	fileErrs := make([]error, len(files))

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			data, err := os.ReadFile(f.abs)
			if err != nil {
				fileErrs[i] = &model.IOError{Path: f.abs, Err: err}
				return nil
			}
			fileBodies[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, ferr := range fileErrs {
		if ferr != nil {
			return ferr
		}
	}

	sampler := telemetry.NewSampler(log, progressEveryFiles)

	var sentences []model.Sentence
	byLine := make(map[string][]uint64, len(files))
	nextID := uint32(0)

	for i, f := range files {
		lines, offsets := splitLines(fileBodies[i])
		byLine[f.rel] = offsets

		blocks := blocksForUnit(lines, cfg)
		for _, b := range blocks {
			norm := normalize.Normalize(b.text)
			sentences = append(sentences, model.Sentence{
				ID:         nextID,
				Path:       f.rel,
				LineNo:     uint32(b.lineNo),
				Original:   b.text,
				Normalized: norm.Text,
				NormToOrig: norm.Map,
			})
			nextID++
		}

		sampler.Tick(i+1, len(sentences))
		if len(sentences)%progressEverySentences == 0 {
			log.WithFields(logrus.Fields{"files_done": i + 1, "sentences_done": len(sentences)}).Debug("ingestion progress")
		}
	}
	sampler.Final(len(files), len(sentences))

	log.WithField("sentences", len(sentences)).Info("split source files into sentences")

	items := buildGramIndex(sentences, int(cfg.K))
	log.WithField("distinct_kgrams", len(items)).Info("built k-gram index in memory")

	if err := acx.Build(paths.ACXPath, int(cfg.K), items); err != nil {
		return fmt.Errorf("acsearch: writing k-gram index: %w", err)
	}
	if err := cdb.WriteAtomic(paths.CDBPath, sentences); err != nil {
		return fmt.Errorf("acsearch: writing sentence store: %w", err)
	}
	if err := cdb.WritePrefixSums(paths.PrefixSumsPath, byLine); err != nil {
		return fmt.Errorf("acsearch: writing prefix sums: %w", err)
	}

	log.Info("build complete")
	return nil
}

// sourceFile pairs a file's absolute path (for reading) with its path
// relative to whichever root contains it (the identity recorded on
// every Sentence drawn from it).
type sourceFile struct {
	abs string
	rel string
}

// discoverFiles walks every root for *.txt files, in deterministic
// order: roots are visited in sorted (absolute-path) order, and
// within a root, files in the order filepath.WalkDir's lexical
// traversal yields them. A file reachable from more than one root is
// recorded once, under the shortest relative path to any root (ties
// broken lexically). This ordering is what assigns dense sentence
// ids, so it must not depend on the order roots were passed in.
func discoverFiles(roots []string) ([]sourceFile, error) {
	rootsAbs := make([]string, len(roots))
	for i, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, &model.IOError{Path: r, Err: err}
		}
		rootsAbs[i] = abs
	}
	sort.Strings(rootsAbs)

	seen := make(map[string]bool)
	var out []sourceFile
	for _, root := range rootsAbs {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".txt") {
				return nil
			}
			if seen[path] {
				return nil
			}
			seen[path] = true
			out = append(out, sourceFile{abs: path, rel: relToAnyRoot(path, rootsAbs)})
			return nil
		})
		if err != nil {
			return nil, &model.IOError{Path: root, Err: err}
		}
	}
	return out, nil
}

// relToAnyRoot returns path's relative form against whichever of
// rootsAbs yields the shortest result, breaking ties lexically.
func relToAnyRoot(path string, rootsAbs []string) string {
	best := path
	haveBest := false
	for _, root := range rootsAbs {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if !haveBest || len(rel) < len(best) || (len(rel) == len(best) && rel < best) {
			best, haveBest = rel, true
		}
	}
	return filepath.ToSlash(best)
}

// splitLines splits raw file bytes on '\n', stripping a trailing '\r'
// from each line, and records the absolute byte offset in data where
// each line begins (including terminators consumed by prior lines),
// used later to resolve a sentence's normalized match span back to an
// absolute file offset.
func splitLines(data []byte) (lines []string, lineStartOffsets []uint64) {
	start := 0
	lineStart := uint64(0)
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' {
			lineStartOffsets = append(lineStartOffsets, lineStart)
			lines = append(lines, trimCR(data[start:i]))
			lineStart = uint64(i + 1)
			start = i + 1
		}
	}
	if start < len(data) {
		lineStartOffsets = append(lineStartOffsets, lineStart)
		lines = append(lines, trimCR(data[start:]))
	}
	return lines, lineStartOffsets
}

func trimCR(b []byte) string {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		b = b[:len(b)-1]
	}
	return string(b)
}

// block is one unsplit, unnormalized unit of text pulled from a
// file's lines, ready for normalize.Normalize.
type block struct {
	lineNo int
	text   string
}

// blocksForUnit splits lines into blocks per cfg.TextUnit: one block
// per line, one block per run of consecutive non-blank lines
// (paragraph), or a fixed-size sliding window advanced by a fixed
// step (window). Paragraph and window blocks join their constituent
// lines with "\n", matching the file's own line separator so a
// block's internal byte layout lines up with the file_prefix_sums
// table (see splitLines).
func blocksForUnit(lines []string, cfg acconfig.Config) []block {
	switch cfg.TextUnit {
	case model.UnitParagraph:
		return paragraphBlocks(lines)
	case model.UnitWindow:
		return windowBlocks(lines, int(cfg.WindowSize), int(cfg.WindowStep))
	default:
		return lineBlocks(lines)
	}
}

func lineBlocks(lines []string) []block {
	out := make([]block, 0, len(lines))
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, block{lineNo: i, text: l})
	}
	return out
}

func paragraphBlocks(lines []string) []block {
	var out []block
	var cur []string
	start := -1
	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, block{lineNo: start, text: strings.Join(cur, "\n")})
		cur = nil
		start = -1
	}
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			flush()
			continue
		}
		if start == -1 {
			start = i
		}
		cur = append(cur, l)
	}
	flush()
	return out
}

func windowBlocks(lines []string, size, step int) []block {
	if size < 1 {
		size = 1
	}
	if step < 1 {
		step = 1
	}
	var out []block
	for i := 0; i < len(lines); i += step {
		end := i + size
		if end > len(lines) {
			end = len(lines)
		}
		chunk := lines[i:end]
		if allBlank(chunk) {
			if end == len(lines) {
				break
			}
			continue
		}
		out = append(out, block{lineNo: i, text: strings.Join(chunk, "\n")})
		if end == len(lines) {
			break
		}
	}
	return out
}

func allBlank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

// buildGramIndex extracts every distinct sliding-window k-gram (in
// code points) of each sentence's normalized text and accumulates the
// sentence ids that contain it. acx.Build deduplicates and sorts each
// key's postings, so duplicate ids within one sentence are harmless.
func buildGramIndex(sentences []model.Sentence, k int) map[string][]uint32 {
	items := make(map[string][]uint32)
	if k < 1 {
		return items
	}
	for _, s := range sentences {
		runes := []rune(s.Normalized)
		if len(runes) < k {
			continue
		}
		seen := make(map[string]bool, len(runes))
		for i := 0; i+k <= len(runes); i++ {
			g := string(runes[i : i+k])
			if seen[g] {
				continue
			}
			seen[g] = true
			items[g] = append(items[g], s.ID)
		}
	}
	return items
}

