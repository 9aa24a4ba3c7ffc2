// Package acx implements the k-gram inverted index: a sorted-key,
// memory-mappable on-disk format mapping k-gram byte strings to sorted,
// deduplicated sentence-id postings lists.
package acx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash"
	"io"
	"iter"
	"os"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"acsearch/internal/mmapfile"
	"acsearch/pkg/acsearch/model"
)

// hashingWriter tees every write to the destination file and a
// running checksum hash.
type hashingWriter struct {
	f io.Writer
	h hash.Hash
}

func (w *hashingWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, err
	}
	w.h.Write(p[:n])
	return n, nil
}

const (
	magic            = "ACX1"
	headerSize       = 12 // magic + k + keyCount
	directoryEntryHd = 9  // len:u8 + off:u32 + cnt:u32 (key bytes follow len)
	checksumSize     = blake2b.Size256
	maxKeyLen        = 255
)

// dirEntry is an in-memory directory row: the key and where its
// postings live in the postings region.
type dirEntry struct {
	key    []byte
	offset uint32
	count  uint32
}

// Index is an opened, memory-mapped k-gram index.
type Index struct {
	mapping      *mmapfile.Mapping
	data         []byte
	k            uint32
	dir          []dirEntry
	postingsBase int
}

// Open memory-maps path, verifies its magic and checksum, and loads
// the sorted key directory (not the postings bytes) into memory.
func Open(path string) (*Index, error) {
	m, err := mmapfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("acx: %w", err)
	}
	data := m.Data

	if len(data) < headerSize || string(data[0:4]) != magic {
		m.Close()
		return nil, &model.InvalidFormatError{Path: path, Reason: "missing or mismatched magic"}
	}
	if len(data) < headerSize+checksumSize {
		m.Close()
		return nil, &model.InvalidFormatError{Path: path, Reason: "file too short for checksum footer"}
	}

	body := data[:len(data)-checksumSize]
	wantSum := data[len(data)-checksumSize:]
	gotSum := blake2b.Sum256(body)
	if !bytes.Equal(gotSum[:], wantSum) {
		m.Close()
		return nil, &model.InvalidFormatError{Path: path, Reason: "checksum mismatch"}
	}

	k := binary.LittleEndian.Uint32(data[4:8])
	numKeys := binary.LittleEndian.Uint32(data[8:12])

	dir := make([]dirEntry, 0, numKeys)
	pos := headerSize
	for i := uint32(0); i < numKeys; i++ {
		if pos+1 > len(body) {
			m.Close()
			return nil, &model.InvalidFormatError{Path: path, Reason: "truncated directory"}
		}
		keyLen := int(body[pos])
		pos++
		if keyLen > maxKeyLen || pos+keyLen+8 > len(body) {
			m.Close()
			return nil, &model.InvalidFormatError{Path: path, Reason: "truncated or oversized key"}
		}
		key := body[pos : pos+keyLen]
		pos += keyLen
		off := binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		cnt := binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		dir = append(dir, dirEntry{key: key, offset: off, count: cnt})
	}

	return &Index{
		mapping:      m,
		data:         data,
		k:            k,
		dir:          dir,
		postingsBase: pos,
	}, nil
}

// Close unmaps the underlying file.
func (idx *Index) Close() error {
	if idx.mapping == nil {
		return nil
	}
	return idx.mapping.Close()
}

// K returns the k-gram size this index was built with.
func (idx *Index) K() int { return int(idx.k) }

// Get returns the ascending, deduplicated sentence-id postings for
// key, or nil if key is absent.
func (idx *Index) Get(key []byte) []uint32 {
	i := sort.Search(len(idx.dir), func(i int) bool {
		return bytes.Compare(idx.dir[i].key, key) >= 0
	})
	if i >= len(idx.dir) || !bytes.Equal(idx.dir[i].key, key) {
		return nil
	}
	return idx.postings(idx.dir[i])
}

func (idx *Index) postings(e dirEntry) []uint32 {
	start := idx.postingsBase + int(e.offset)*4
	end := start + int(e.count)*4
	if end > len(idx.data) || start < 0 {
		return nil
	}
	out := make([]uint32, e.count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(idx.data[start+i*4 : start+i*4+4])
	}
	return out
}

// Item is a single key and its postings, as yielded by IterItems.
type Item struct {
	Key      []byte
	Postings []uint32
}

// IterItems yields every (key, postings) pair in key-ascending order.
func (idx *Index) IterItems() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, e := range idx.dir {
			if !yield(Item{Key: e.key, Postings: idx.postings(e)}) {
				return
			}
		}
	}
}

// NumKeys returns the number of distinct keys in the directory.
func (idx *Index) NumKeys() int { return len(idx.dir) }

// Build deduplicates and sorts ids for each key, then writes a new
// ACX file to path via a temp-file-then-rename, so a reader never
// observes a partial file. k is recorded in the header for open-time
// bookkeeping only; callers are responsible for only ever querying an
// index with keys of the length they built it with.
func Build(path string, k int, items map[string][]uint32) error {
	tmp := fmt.Sprintf("%s.tmp-%s", path, uuid.NewString())
	if err := writeFile(tmp, k, items); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("acx: rename %s to %s: %w", tmp, path, err)
	}
	return nil
}

func writeFile(path string, k int, items map[string][]uint32) error {
	keys := make([]string, 0, len(items))
	for key := range items {
		if len(key) > maxKeyLen {
			return fmt.Errorf("acx: key %q exceeds %d bytes", key, maxKeyLen)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("acx: create %s: %w", path, err)
	}
	defer f.Close()

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return fmt.Errorf("acx: init checksum: %w", err)
	}
	w := hashingWriter{f: f, h: hasher}

	var header [headerSize]byte
	copy(header[0:4], magic)
	binary.LittleEndian.PutUint32(header[4:8], uint32(k))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(keys)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	postingOffset := uint32(0)
	for _, key := range keys {
		ids := dedupSorted(items[key])
		var entry bytes.Buffer
		entry.WriteByte(byte(len(key)))
		entry.WriteString(key)
		var off4, cnt4 [4]byte
		binary.LittleEndian.PutUint32(off4[:], postingOffset)
		binary.LittleEndian.PutUint32(cnt4[:], uint32(len(ids)))
		entry.Write(off4[:])
		entry.Write(cnt4[:])
		if _, err := w.Write(entry.Bytes()); err != nil {
			return err
		}
		postingOffset += uint32(len(ids))
	}

	for _, key := range keys {
		ids := dedupSorted(items[key])
		buf := make([]byte, 4*len(ids))
		for i, id := range ids {
			binary.LittleEndian.PutUint32(buf[i*4:i*4+4], id)
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}

	sum := hasher.Sum(nil)
	if _, err := f.Write(sum); err != nil {
		return fmt.Errorf("acx: write checksum: %w", err)
	}
	return f.Sync()
}

func dedupSorted(ids []uint32) []uint32 {
	out := append([]uint32(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, id := range out {
		if i == 0 || id != out[n-1] {
			out[n] = id
			n++
		}
	}
	return out[:n]
}
