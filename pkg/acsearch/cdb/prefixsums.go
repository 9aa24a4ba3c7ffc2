package cdb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"

	"acsearch/pkg/acsearch/model"
)

const prefixSumsMagic = "FPS1"

// WritePrefixSums persists, per source path, the cumulative byte
// offset at which each line begins (byLine[path][lineNo] == byte
// offset of that line's first byte in the original file). The engine
// uses this to resolve a sentence's LineNo into an absolute file
// offset without re-reading source files after load.
func WritePrefixSums(path string, byLine map[string][]uint64) error {
	tmp := fmt.Sprintf("%s.tmp-%s", path, uuid.NewString())
	if err := writePrefixSumsFile(tmp, byLine); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cdb: rename %s to %s: %w", tmp, path, err)
	}
	return nil
}

func writePrefixSumsFile(path string, byLine map[string][]uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cdb: create %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	paths := make([]string, 0, len(byLine))
	for p := range byLine {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	if _, err := w.WriteString(prefixSumsMagic); err != nil {
		return err
	}
	if err := writeBinU32(w, uint32(len(paths))); err != nil {
		return err
	}
	for _, p := range paths {
		if len(p) > 0xFFFF {
			return fmt.Errorf("cdb: path %q too long for prefix sums entry", p)
		}
		if err := writeBinU16(w, uint16(len(p))); err != nil {
			return err
		}
		if _, err := w.WriteString(p); err != nil {
			return err
		}
		lines := byLine[p]
		if err := writeBinU32(w, uint32(len(lines))); err != nil {
			return err
		}
		for _, off := range lines {
			if err := writeBinU64(w, off); err != nil {
				return err
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// OpenPrefixSums reads a file written by WritePrefixSums back into a
// per-path slice of line-start byte offsets.
func OpenPrefixSums(path string) (map[string][]uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cdb: %w", err)
	}
	if len(data) < 4 || string(data[0:4]) != prefixSumsMagic {
		return nil, &model.InvalidFormatError{Path: path, Reason: "missing or mismatched magic"}
	}
	r := byteReader{data: data, pos: 4}
	numPaths, err := r.u32()
	if err != nil {
		return nil, &model.InvalidFormatError{Path: path, Reason: "truncated header"}
	}
	out := make(map[string][]uint64, numPaths)
	for i := uint32(0); i < numPaths; i++ {
		pLen, err := r.u16()
		if err != nil {
			return nil, &model.InvalidFormatError{Path: path, Reason: "truncated path length"}
		}
		pBytes, err := r.bytes(int(pLen))
		if err != nil {
			return nil, &model.InvalidFormatError{Path: path, Reason: "truncated path"}
		}
		numLines, err := r.u32()
		if err != nil {
			return nil, &model.InvalidFormatError{Path: path, Reason: "truncated line count"}
		}
		lines := make([]uint64, numLines)
		for j := range lines {
			v, err := r.u64()
			if err != nil {
				return nil, &model.InvalidFormatError{Path: path, Reason: "truncated line offset"}
			}
			lines[j] = v
		}
		out[string(pBytes)] = lines
	}
	return out, nil
}

func (r *byteReader) u64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func writeBinU16(w *bufio.Writer, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeBinU32(w *bufio.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeBinU64(w *bufio.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}
