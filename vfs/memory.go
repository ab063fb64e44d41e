package vfs

import (
	"fmt"
	"sync"

	"github.com/colbase/tsmerge/errs"
	"github.com/colbase/tsmerge/region"
)

// Memory is an in-memory FS fake backed by plain growable []byte buffers,
// used by every test in this module instead of touching the real
// filesystem.
//
// Unlike OS, Mmap here returns a Region sharing the backing array directly
// (no real page mapping), so writes through the Region are immediately
// visible to a subsequent Mmap of the same path.
type Memory struct {
	mu    sync.Mutex
	files map[string]*memFile
}

type memFile struct {
	data []byte
}

// NewMemory creates an empty in-memory file-system fake.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]*memFile)}
}

type memHandle struct {
	fs   *Memory
	path string
	open bool
}

func (h *memHandle) Valid() bool { return h != nil && h.open }

var _ FS = (*Memory)(nil)

// Open opens (creating if absent) the named in-memory file.
func (m *Memory) Open(path string) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[path]; !ok {
		m.files[path] = &memFile{}
	}

	return &memHandle{fs: m, path: path, open: true}, nil
}

// Close marks h closed. Idempotent.
func (m *Memory) Close(h Handle) error {
	mh, ok := h.(*memHandle)
	if !ok || !mh.Valid() {
		return nil
	}

	mh.open = false

	return nil
}

// Mmap returns a Region over the first size bytes of h's file, growing the
// backing buffer with zero bytes if it is currently shorter.
func (m *Memory) Mmap(h Handle, size int) (region.Region, error) {
	if size == 0 {
		return region.Region{}, nil
	}

	mh, ok := h.(*memHandle)
	if !ok || !mh.Valid() {
		return region.Region{}, fmt.Errorf("mmap on invalid handle: %w", errs.ErrIOFailure)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.files[mh.path]
	if len(f.data) < size {
		grown := make([]byte, size)
		copy(grown, f.data)
		f.data = grown
	}

	return region.New(f.data[:size]), nil
}

// Munmap is a no-op for the in-memory fake: the Region shares the backing
// array directly, so there is nothing to release.
func (m *Memory) Munmap(r region.Region) error { return nil }

// Truncate resizes the in-memory file to size bytes, zero-extending if grown.
func (m *Memory) Truncate(h Handle, size int64) error {
	mh, ok := h.(*memHandle)
	if !ok || !mh.Valid() {
		return fmt.Errorf("truncate on invalid handle: %w", errs.ErrIOFailure)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.files[mh.path]
	if int64(len(f.data)) == size {
		return nil
	}

	grown := make([]byte, size)
	copy(grown, f.data)
	f.data = grown

	return nil
}

// Size returns the current size of h's in-memory file.
func (m *Memory) Size(h Handle) (int64, error) {
	mh, ok := h.(*memHandle)
	if !ok || !mh.Valid() {
		return 0, fmt.Errorf("size on invalid handle: %w", errs.ErrIOFailure)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return int64(len(m.files[mh.path].data)), nil
}

// Sync is a no-op for the in-memory fake: there is no backing storage to flush.
func (m *Memory) Sync(h Handle) error {
	mh, ok := h.(*memHandle)
	if !ok || !mh.Valid() {
		return fmt.Errorf("sync on invalid handle: %w", errs.ErrIOFailure)
	}

	return nil
}

// Exists reports whether path names a known in-memory file.
func (m *Memory) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.files[path]

	return ok, nil
}

// PageSize returns a fixed 4096 for the in-memory fake.
func (m *Memory) PageSize() int { return 4096 }
