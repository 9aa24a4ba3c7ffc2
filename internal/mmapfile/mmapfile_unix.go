//go:build unix

// Package mmapfile memory-maps a read-only file into a byte slice,
// giving the ACX and CDB readers O(1) open cost regardless of file
// size: the kernel faults pages in on first touch instead of the
// process reading the whole file up front.
package mmapfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Mapping is a memory-mapped read-only view of a file.
type Mapping struct {
	Data []byte
}

// Open memory-maps path for reading. The returned Mapping must be
// closed with Close to unmap before the process exits, though the
// kernel reclaims it on process exit regardless.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmapfile: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("mmapfile: stat %s: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		return &Mapping{Data: nil}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmapfile: mmap %s: %w", path, err)
	}
	return &Mapping{Data: data}, nil
}

// Close unmaps the file's pages.
func (m *Mapping) Close() error {
	if m.Data == nil {
		return nil
	}
	err := unix.Munmap(m.Data)
	m.Data = nil
	return err
}
