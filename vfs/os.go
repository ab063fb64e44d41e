package vfs

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/colbase/tsmerge/errs"
	"github.com/colbase/tsmerge/region"
)

// OS is the real file-system façade, backed by os.File and
// golang.org/x/sys/unix.Mmap/Munmap: open-or-create, Truncate to size,
// Mmap with PROT_READ|PROT_WRITE and MAP_SHARED.
type OS struct{}

var _ FS = OS{}

// osHandle wraps an *os.File so it satisfies the opaque Handle interface.
type osHandle struct {
	f *os.File
}

func (h *osHandle) Valid() bool { return h != nil && h.f != nil }

// Open opens path for read/write, creating it (mode 0644) if it does not exist.
func (OS) Open(path string) (Handle, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, errs.ErrIOFailure, err)
	}

	return &osHandle{f: f}, nil
}

// Close closes h. Closing an invalid handle is a no-op.
func (OS) Close(h Handle) error {
	oh, ok := h.(*osHandle)
	if !ok || !oh.Valid() {
		return nil
	}

	if err := oh.f.Close(); err != nil {
		return fmt.Errorf("close: %w: %w", errs.ErrIOFailure, err)
	}

	oh.f = nil

	return nil
}

// Mmap maps the first size bytes of h's backing file.
func (OS) Mmap(h Handle, size int) (region.Region, error) {
	if size == 0 {
		return region.Region{}, nil
	}

	oh, ok := h.(*osHandle)
	if !ok || !oh.Valid() {
		return region.Region{}, fmt.Errorf("mmap on invalid handle: %w", errs.ErrIOFailure)
	}

	b, err := unix.Mmap(int(oh.f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return region.Region{}, fmt.Errorf("mmap: %w: %w", errs.ErrIOFailure, err)
	}

	return region.New(b), nil
}

// Munmap unmaps r. A zero-length region is a no-op, matching the
// "unmap is skipped for a region whose address or size is zero" teardown rule.
func (OS) Munmap(r region.Region) error {
	if r.Empty() {
		return nil
	}

	if err := unix.Munmap(r.Bytes()); err != nil {
		return fmt.Errorf("munmap: %w: %w", errs.ErrIOFailure, err)
	}

	return nil
}

// Truncate resizes h's backing file to size bytes.
func (OS) Truncate(h Handle, size int64) error {
	oh, ok := h.(*osHandle)
	if !ok || !oh.Valid() {
		return fmt.Errorf("truncate on invalid handle: %w", errs.ErrIOFailure)
	}

	if err := oh.f.Truncate(size); err != nil {
		return fmt.Errorf("truncate: %w: %w", errs.ErrIOFailure, err)
	}

	return nil
}

// Size returns the current size of h's backing file.
func (OS) Size(h Handle) (int64, error) {
	oh, ok := h.(*osHandle)
	if !ok || !oh.Valid() {
		return 0, fmt.Errorf("size on invalid handle: %w", errs.ErrIOFailure)
	}

	info, err := oh.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat: %w: %w", errs.ErrIOFailure, err)
	}

	return info.Size(), nil
}

// Sync flushes h's backing file to stable storage via fsync.
func (OS) Sync(h Handle) error {
	oh, ok := h.(*osHandle)
	if !ok || !oh.Valid() {
		return fmt.Errorf("sync on invalid handle: %w", errs.ErrIOFailure)
	}

	if err := oh.f.Sync(); err != nil {
		return fmt.Errorf("sync: %w: %w", errs.ErrIOFailure, err)
	}

	return nil
}

// Exists reports whether path names an existing file.
func (OS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, fmt.Errorf("stat %s: %w: %w", path, errs.ErrIOFailure, err)
}

// PageSize returns the host's mmap page size.
func (OS) PageSize() int {
	return os.Getpagesize()
}
