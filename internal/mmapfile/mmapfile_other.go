//go:build !unix

package mmapfile

import (
	"fmt"
	"os"
)

// Mapping is a read-only view of a file's bytes. On platforms without
// a unix mmap syscall this falls back to reading the file fully into
// the heap, preserving the same read-only []byte contract at the cost
// of the O(1)-open guarantee.
type Mapping struct {
	Data []byte
}

// Open reads path into memory, presenting the same interface as the
// unix mmap-backed implementation.
func Open(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mmapfile: read %s: %w", path, err)
	}
	return &Mapping{Data: data}, nil
}

// Close releases the reference to the mapped bytes.
func (m *Mapping) Close() error {
	m.Data = nil
	return nil
}
