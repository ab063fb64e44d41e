// Package errs holds the sentinel errors returned across tsmerge.
//
// Call sites wrap these with fmt.Errorf("...: %w", errs.ErrX) rather than
// constructing ad hoc errors.New values. Each narrower sentinel itself
// wraps its taxonomy bucket, so wrapping only the narrow sentinel is
// enough for errors.Is to recover the bucket too.
package errs

import (
	"errors"
	"fmt"
)

// Taxonomy buckets from the bitmap writer / O3 engine error model.
//
// All three are fatal at this layer: a copy task or bitmap write either
// completes or propagates one of these up to the worker loop, which
// terminates the partition with its completion latch un-signalled.
var (
	// ErrCorruptIndex signals that a bitmap index file failed signature,
	// length, or offset validation.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrIOFailure signals a file-system façade error (open/mmap/truncate/...).
	ErrIOFailure = errors.New("io failure")

	// ErrInvariantViolation signals an assert on counters or offsets failed.
	ErrInvariantViolation = errors.New("invariant violation")
)

// Narrower sentinels under ErrCorruptIndex.
var (
	// ErrShortKeyFile: key file is shorter than the 64-byte header.
	ErrShortKeyFile = fmt.Errorf("key file shorter than header: %w", ErrCorruptIndex)
	// ErrBadSignature: a file's signature/magic byte does not match.
	ErrBadSignature = fmt.Errorf("bad signature: %w", ErrCorruptIndex)
	// ErrKeyFileSizeMismatch: key file length does not cover K*32+64 bytes.
	ErrKeyFileSizeMismatch = fmt.Errorf("key file size does not match key count: %w", ErrCorruptIndex)
	// ErrValueFileSizeMismatch: value file length is shorter than the committed V.
	ErrValueFileSizeMismatch = fmt.Errorf("value file size shorter than committed size: %w", ErrCorruptIndex)
	// ErrSequenceMismatch: header S != S', header is mid-write.
	ErrSequenceMismatch = fmt.Errorf("header sequence mismatch: %w", ErrCorruptIndex)
	// ErrValueCountMismatch: entry valueCount != valueCountCheck, entry is mid-write.
	ErrValueCountMismatch = fmt.Errorf("entry value count mismatch: %w", ErrCorruptIndex)
	// ErrBlockOffsetOutOfRange: a block offset referenced from a committed
	// key entry falls outside the first V bytes of the value file.
	ErrBlockOffsetOutOfRange = fmt.Errorf("value block offset out of range: %w", ErrCorruptIndex)
)

// Narrower sentinels under ErrInvariantViolation.
var (
	// ErrBlockSizeNotPowerOfTwo: B is not a power of two.
	ErrBlockSizeNotPowerOfTwo = fmt.Errorf("block value count is not a power of two: %w", ErrInvariantViolation)
	// ErrCounterUnderflow: a reference counter was decremented past zero.
	ErrCounterUnderflow = fmt.Errorf("reference counter underflow: %w", ErrInvariantViolation)
	// ErrLatchDoubleSignal: a completion latch was signalled more than once.
	ErrLatchDoubleSignal = fmt.Errorf("completion latch signalled more than once: %w", ErrInvariantViolation)
	// ErrEmptyMergeIndex: operation required a non-empty merge index.
	ErrEmptyMergeIndex = fmt.Errorf("merge index is empty: %w", ErrInvariantViolation)
	// ErrRegionOutOfBounds: a region accessor was called with an out-of-range offset.
	ErrRegionOutOfBounds = fmt.Errorf("region access out of bounds: %w", ErrInvariantViolation)
	// ErrUnknownBlockType: a copy task declared a block type the dispatcher does not recognize.
	ErrUnknownBlockType = fmt.Errorf("unknown block type: %w", ErrInvariantViolation)
	// ErrUnknownSizeClass: a column declared a size class the copier does not recognize.
	ErrUnknownSizeClass = fmt.Errorf("unknown size class: %w", ErrInvariantViolation)
	// ErrUnknownColumnType: a copy task declared a column type the dispatcher does not recognize.
	ErrUnknownColumnType = fmt.Errorf("unknown column type: %w", ErrInvariantViolation)
)
