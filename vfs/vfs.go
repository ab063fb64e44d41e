// Package vfs is the file-system façade the engine consumes: open, close,
// mmap, munmap, truncate, exists, and the host's mmap page size. All
// errors surface as a typed error wrapping errs.ErrIOFailure; the
// engine never recovers from one, it propagates it up to the worker loop.
package vfs

import "github.com/colbase/tsmerge/region"

// FS is the file-system façade. Handle is an opaque per-implementation file
// reference (a wrapped *os.File for OS, a path into the in-memory file map
// for Memory).
type FS interface {
	// Open opens path for read/write, creating it if it does not exist.
	Open(path string) (Handle, error)
	// Close releases a handle. Idempotent: closing an already-closed handle
	// (fd <= 0 in the O3 teardown sense) is a no-op, not an error.
	Close(h Handle) error
	// Mmap maps the first size bytes of h into memory.
	Mmap(h Handle, size int) (region.Region, error)
	// Munmap unmaps a region previously returned by Mmap. A zero-length or
	// zero-address region is a no-op.
	Munmap(r region.Region) error
	// Truncate resizes the file backing h to size bytes.
	Truncate(h Handle, size int64) error
	// Size returns the current size in bytes of the file backing h.
	Size(h Handle) (int64, error)
	// Exists reports whether path names an existing file.
	Exists(path string) (bool, error)
	// PageSize returns the host's mmap page size.
	PageSize() int
	// Sync flushes h's backing file to stable storage. The bitmap index
	// writer's fsync sync policy calls this after a header commit when
	// configured to do so. Sync is a thin passthrough with no retry logic.
	Sync(h Handle) error
}

// Handle is an opaque file reference returned by FS.Open.
type Handle interface {
	// Valid reports whether this handle refers to an open file. A Handle
	// obtained from an unopened/never-created column is invalid and is
	// skipped at close time.
	Valid() bool
}
