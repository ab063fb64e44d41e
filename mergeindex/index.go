// Package mergeindex encodes the per-output-row merge descriptor: a dense
// array of uint64 entries, one per output row, each packing a source-side
// selector bit and a source-row index.
//
// The index is produced upstream by a sort+merge pass and is read-only to
// this engine. Index wraps it with the ref-counted lifetime the engine needs:
// the last copy task to finish with it calls Release, which frees the
// backing array exactly once (the Go analogue of freeMergedIndex).
package mergeindex

import (
	"fmt"

	"github.com/colbase/tsmerge/errs"
)

// sideBit is bit 63: 0 = out-of-order side, 1 = on-disk side.
const sideBit = uint64(1) << 63

// rowMask isolates bits 0..62.
const rowMask = sideBit - 1

// Side identifies which batch a merge-index entry's row belongs to.
type Side uint8

const (
	// SideOOO is the out-of-order (newly arrived) batch.
	SideOOO Side = 0
	// SideOnDisk is the existing on-disk partition.
	SideOnDisk Side = 1
)

func (s Side) String() string {
	if s == SideOnDisk {
		return "on-disk"
	}

	return "ooo"
}

// Entry is a single packed merge-index descriptor. It is never exposed as a
// raw uint64 to callers outside this package; callers only ever see
// Side()/Row().
type Entry uint64

// Pack builds an Entry from a side selector and row index. Row must fit in
// 63 bits; Pack does not validate this since row indices in this engine are
// always well within range, but a pathological caller would silently lose
// the top bit of row rather than panic — callers constructing entries
// themselves (as opposed to reading them from an upstream sort) are
// expected to know their row counts fit.
func Pack(side Side, row uint64) Entry {
	e := row & rowMask
	if side == SideOnDisk {
		e |= sideBit
	}

	return Entry(e)
}

// Side returns which batch this entry's row belongs to.
func (e Entry) Side() Side {
	if uint64(e)&sideBit != 0 {
		return SideOnDisk
	}

	return SideOOO
}

// Row returns the source-side row index this entry points at.
func (e Entry) Row() uint64 {
	return uint64(e) & rowMask
}

// Index is a ref-counted, read-only view over a merge index array. Multiple
// copy tasks for the same partition share one Index; the partition's
// columnCounter (see package o3) governs when the last one calls Release.
type Index struct {
	entries []Entry
}

// New wraps a slice of packed entries as an Index. The slice is not copied;
// callers should not mutate it after handing it to New, since the merge
// index is read-only to the engine by contract.
func New(entries []Entry) *Index {
	return &Index{entries: entries}
}

// FromUint64 builds an Index from a raw packed uint64 array, as produced by
// the upstream sort+merge pass.
func FromUint64(raw []uint64) *Index {
	entries := make([]Entry, len(raw))
	for i, v := range raw {
		entries[i] = Entry(v)
	}

	return &Index{entries: entries}
}

// Len returns the row count of the merge index.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}

	return len(idx.entries)
}

// At returns the entry for output row i.
func (idx *Index) At(i int) (Entry, error) {
	if idx == nil || i < 0 || i >= len(idx.entries) {
		return 0, fmt.Errorf("merge index entry %d out of range (len=%d): %w", i, idx.Len(), errs.ErrInvariantViolation)
	}

	return idx.entries[i], nil
}

// Entries exposes the backing slice for bulk iteration by the MergeShuffle
// primitives, which need to range over all entries without a bounds-checked
// call per row for performance.
func (idx *Index) Entries() []Entry {
	if idx == nil {
		return nil
	}

	return idx.entries
}

// Release drops this Index's backing storage. It is the Go analogue of
// freeMergedIndex: the caller (package o3's partition teardown) must only
// call it once, after columnCounter has reached zero for the partition, at
// which point the job's snapshot-then-ack discipline guarantees no
// in-flight copy task can still be reading it.
func (idx *Index) Release() {
	if idx == nil {
		return
	}

	idx.entries = nil
}
