// Package region exposes a memory-mapped byte range as an owning handle with
// explicit length, presenting byte-level access through a typed, bounds-checked
// view instead of raw pointer-plus-offset arithmetic.
//
// Every access goes through Region, which always bounds-checks. There is no
// release-mode fast path that elides the check — for this module, correctness
// of the merge matters more than shaving the branch.
package region

import (
	"encoding/binary"
	"fmt"

	"github.com/colbase/tsmerge/errs"
)

// Region is an owning view over a byte range, typically backed by an mmap'd
// file but equally satisfied by a plain heap slice (used by vfs.Memory in
// tests).
//
// The zero Region is a valid empty region of length 0.
type Region struct {
	b []byte
}

// New wraps b as a Region. The Region takes ownership in the sense that
// callers should not resize b out from under it; it does not copy.
func New(b []byte) Region {
	return Region{b: b}
}

// Len returns the region's length in bytes.
func (r Region) Len() int { return len(r.b) }

// Empty reports whether the region has zero length or a nil backing slice.
func (r Region) Empty() bool { return len(r.b) == 0 }

// Bytes returns the raw backing slice. Callers needing bulk copy() should use
// this rather than looping byte accessors.
func (r Region) Bytes() []byte { return r.b }

// Slice returns the sub-region [lo, hi), bounds-checked.
func (r Region) Slice(lo, hi int) (Region, error) {
	if lo < 0 || hi < lo || hi > len(r.b) {
		return Region{}, fmt.Errorf("region.Slice[%d:%d] len=%d: %w", lo, hi, len(r.b), errs.ErrRegionOutOfBounds)
	}

	return Region{b: r.b[lo:hi]}, nil
}

func (r Region) checkRange(off, width int) error {
	if off < 0 || width < 0 || off+width > len(r.b) {
		return fmt.Errorf("region access at %d width %d len=%d: %w", off, width, len(r.b), errs.ErrRegionOutOfBounds)
	}

	return nil
}

// Uint8 reads a single byte at off.
func (r Region) Uint8(off int) (uint8, error) {
	if err := r.checkRange(off, 1); err != nil {
		return 0, err
	}

	return r.b[off], nil
}

// PutUint8 writes a single byte at off.
func (r Region) PutUint8(off int, v uint8) error {
	if err := r.checkRange(off, 1); err != nil {
		return err
	}

	r.b[off] = v

	return nil
}

// Uint16 reads a little-endian uint16 at off.
func (r Region) Uint16(off int) (uint16, error) {
	if err := r.checkRange(off, 2); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(r.b[off : off+2]), nil
}

// PutUint16 writes a little-endian uint16 at off.
func (r Region) PutUint16(off int, v uint16) error {
	if err := r.checkRange(off, 2); err != nil {
		return err
	}

	binary.LittleEndian.PutUint16(r.b[off:off+2], v)

	return nil
}

// Uint32 reads a little-endian uint32 at off.
func (r Region) Uint32(off int) (uint32, error) {
	if err := r.checkRange(off, 4); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(r.b[off : off+4]), nil
}

// PutUint32 writes a little-endian uint32 at off.
func (r Region) PutUint32(off int, v uint32) error {
	if err := r.checkRange(off, 4); err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(r.b[off:off+4], v)

	return nil
}

// Uint64 reads a little-endian uint64 at off.
func (r Region) Uint64(off int) (uint64, error) {
	if err := r.checkRange(off, 8); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(r.b[off : off+8]), nil
}

// PutUint64 writes a little-endian uint64 at off.
func (r Region) PutUint64(off int, v uint64) error {
	if err := r.checkRange(off, 8); err != nil {
		return err
	}

	binary.LittleEndian.PutUint64(r.b[off:off+8], v)

	return nil
}

// CopyFrom bulk-copies src into this region starting at dstOff, bounds-checked
// on both ends. Returns the number of bytes copied.
func (r Region) CopyFrom(dstOff int, src []byte) (int, error) {
	if err := r.checkRange(dstOff, len(src)); err != nil {
		return 0, err
	}

	return copy(r.b[dstOff:], src), nil
}

// CopyRange bulk-copies count bytes from src[srcOff:] into this region at
// dstOff, bounds-checked on both regions.
func CopyRange(dst Region, dstOff int, src Region, srcOff, count int) error {
	if count == 0 {
		return nil
	}

	if err := src.checkRange(srcOff, count); err != nil {
		return err
	}

	if err := dst.checkRange(dstOff, count); err != nil {
		return err
	}

	copy(dst.b[dstOff:dstOff+count], src.b[srcOff:srcOff+count])

	return nil
}
