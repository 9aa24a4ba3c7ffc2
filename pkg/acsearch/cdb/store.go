// Package cdb implements the sentence store: a flat, memory-mappable
// file giving O(1) random access to full sentence records by id, with
// a small in-memory overlay for post-load edits.
package cdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash"
	"io"
	"iter"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"acsearch/internal/mmapfile"
	"acsearch/pkg/acsearch/model"
)

const (
	magic        = "CDB1"
	headerSize   = 8
	tableEntry   = 12 // id:u32 + offset:u64
	checksumSize = blake2b.Size256
)

// Store is an opened, memory-mapped sentence store.
type Store struct {
	mapping *mmapfile.Mapping
	data    []byte
	// offsetByID[id] is the absolute byte offset of that id's record
	// within data, or noOffset if the id has no base record.
	offsetByID []uint64

	overlay map[uint32]model.Sentence
	deleted map[uint32]bool
}

const noOffset = ^uint64(0)

// Open memory-maps path, verifies its magic and checksum, and loads
// the id→offset table into memory. Record bodies are decoded lazily
// on Get/Iter.
func Open(path string) (*Store, error) {
	m, err := mmapfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cdb: %w", err)
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

	count := binary.LittleEndian.Uint32(data[4:8])
	tableEnd := headerSize + int(count)*tableEntry
	if len(body) < tableEnd {
		m.Close()
		return nil, &model.InvalidFormatError{Path: path, Reason: "truncated id table"}
	}

	offsetByID := make([]uint64, count)
	for i := range offsetByID {
		offsetByID[i] = noOffset
	}
	pos := headerSize
	for i := uint32(0); i < count; i++ {
		id := binary.LittleEndian.Uint32(data[pos : pos+4])
		off := binary.LittleEndian.Uint64(data[pos+4 : pos+12])
		if id < count {
			offsetByID[id] = off
		}
		pos += tableEntry
	}

	return &Store{
		mapping:    m,
		data:       data,
		offsetByID: offsetByID,
		overlay:    make(map[uint32]model.Sentence),
		deleted:    make(map[uint32]bool),
	}, nil
}

// Close unmaps the underlying file.
func (s *Store) Close() error {
	if s.mapping == nil {
		return nil
	}
	return s.mapping.Close()
}

// Count returns the number of base records (overlay additions beyond
// the base id space are not counted; the overlay is a patch surface,
// not a growable store).
func (s *Store) Count() int { return len(s.offsetByID) }

// Get looks up a sentence by id: overlay first, deleted set second,
// base records third.
func (s *Store) Get(id uint32) (model.Sentence, error) {
	if sent, ok := s.overlay[id]; ok {
		return sent, nil
	}
	if s.deleted[id] {
		return model.Sentence{}, &model.NotFoundError{ID: id}
	}
	if int(id) >= len(s.offsetByID) || s.offsetByID[id] == noOffset {
		return model.Sentence{}, &model.NotFoundError{ID: id}
	}
	return decodeRecord(s.data, s.offsetByID[id], id)
}

// Iter yields sentences for the given ids in order, silently skipping
// ids that are absent or deleted.
func (s *Store) Iter(ids []uint32) iter.Seq[model.Sentence] {
	return func(yield func(model.Sentence) bool) {
		for _, id := range ids {
			sent, err := s.Get(id)
			if err != nil {
				continue
			}
			if !yield(sent) {
				return
			}
		}
	}
}

// OverlayPut stashes sentence under id, visible through Get/Iter but
// never written back to the base file.
func (s *Store) OverlayPut(id uint32, sent model.Sentence) {
	delete(s.deleted, id)
	s.overlay[id] = sent
}

// OverlayDelete marks id as removed for the life of this Store.
func (s *Store) OverlayDelete(id uint32) {
	delete(s.overlay, id)
	s.deleted[id] = true
}

func decodeRecord(data []byte, offset uint64, id uint32) (model.Sentence, error) {
	r := byteReader{data: data, pos: offset}

	pathLen, err := r.u16()
	if err != nil {
		return model.Sentence{}, corrupt(id, err)
	}
	path, err := r.bytes(int(pathLen))
	if err != nil {
		return model.Sentence{}, corrupt(id, err)
	}
	lineNo, err := r.u32()
	if err != nil {
		return model.Sentence{}, corrupt(id, err)
	}
	origLen, err := r.u32()
	if err != nil {
		return model.Sentence{}, corrupt(id, err)
	}
	orig, err := r.bytes(int(origLen))
	if err != nil {
		return model.Sentence{}, corrupt(id, err)
	}
	normLen, err := r.u32()
	if err != nil {
		return model.Sentence{}, corrupt(id, err)
	}
	norm, err := r.bytes(int(normLen))
	if err != nil {
		return model.Sentence{}, corrupt(id, err)
	}
	mapLen, err := r.u32()
	if err != nil {
		return model.Sentence{}, corrupt(id, err)
	}
	var mapping []uint32
	if mapLen > 0 {
		mapping = make([]uint32, mapLen)
	}
	for i := range mapping {
		v, err := r.u32()
		if err != nil {
			return model.Sentence{}, corrupt(id, err)
		}
		mapping[i] = v
	}

	return model.Sentence{
		ID:         id,
		Path:       string(path),
		LineNo:     lineNo,
		Original:   string(orig),
		Normalized: string(norm),
		NormToOrig: mapping,
	}, nil
}

// byteReader is a tiny bounds-checked cursor over the mmap'd file.
type byteReader struct {
	data []byte
	pos  uint64
}

var errTruncated = fmt.Errorf("truncated record")

func (r *byteReader) bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+uint64(n) > uint64(len(r.data)) {
		return nil, errTruncated
	}
	b := r.data[r.pos : r.pos+uint64(n)]
	r.pos += uint64(n)
	return b, nil
}

func (r *byteReader) u16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *byteReader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func corrupt(id uint32, err error) error {
	return fmt.Errorf("cdb: decoding sentence %d: %w", id, err)
}

// hashingWriter tees every write to the destination file and a
// running checksum hash, so the footer digest can be computed in one
// pass over the data as it's written.
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

// WriteAtomic builds a CDB file from sentences (which must carry
// dense ids 0..len(sentences)-1) and installs it at path via a
// temp-file-then-rename so a reader never observes a partial file.
func WriteAtomic(path string, sentences []model.Sentence) error {
	tmp := fmt.Sprintf("%s.tmp-%s", path, uuid.NewString())
	if err := writeFile(tmp, sentences); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cdb: rename %s to %s: %w", tmp, path, err)
	}
	return nil
}

func writeFile(path string, sentences []model.Sentence) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cdb: create %s: %w", path, err)
	}
	defer f.Close()

	var header [headerSize]byte
	copy(header[0:4], magic)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(sentences)))

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return fmt.Errorf("cdb: init checksum: %w", err)
	}
	w := hashingWriter{f: f, h: hasher}

	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	// Table: one (id, offset) tuple per sentence, in id order. Record
	// bodies are laid out immediately after the table in the same order.
	recordStart := uint64(headerSize) + uint64(len(sentences))*tableEntry
	offset := recordStart
	for _, s := range sentences {
		var entry [tableEntry]byte
		binary.LittleEndian.PutUint32(entry[0:4], s.ID)
		binary.LittleEndian.PutUint64(entry[4:12], offset)
		if _, err := w.Write(entry[:]); err != nil {
			return err
		}
		offset += recordSize(s)
	}

	for _, s := range sentences {
		if err := writeRecord(&w, s); err != nil {
			return err
		}
	}

	sum := hasher.Sum(nil)
	if _, err := f.Write(sum); err != nil {
		return fmt.Errorf("cdb: write checksum: %w", err)
	}
	return f.Sync()
}

func recordSize(s model.Sentence) uint64 {
	return uint64(2+len(s.Path)) + 4 + uint64(4+len(s.Original)) + uint64(4+len(s.Normalized)) + uint64(4+4*len(s.NormToOrig))
}

func writeRecord(w *hashingWriter, s model.Sentence) error {
	if len(s.Path) > 0xFFFF {
		return fmt.Errorf("cdb: path too long for sentence %d", s.ID)
	}
	var u16buf [2]byte
	binary.LittleEndian.PutUint16(u16buf[:], uint16(len(s.Path)))
	if _, err := w.Write(u16buf[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte(s.Path)); err != nil {
		return err
	}

	if err := writeU32(w, s.LineNo); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(s.Original))); err != nil {
		return err
	}
	if _, err := w.Write([]byte(s.Original)); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(s.Normalized))); err != nil {
		return err
	}
	if _, err := w.Write([]byte(s.Normalized)); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(s.NormToOrig))); err != nil {
		return err
	}
	for _, v := range s.NormToOrig {
		if err := writeU32(w, v); err != nil {
			return err
		}
	}
	return nil
}

func writeU32(w *hashingWriter, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}
