package bitmap

import (
	"fmt"
	"iter"

	"github.com/colbase/tsmerge/errs"
	"github.com/colbase/tsmerge/region"
	"github.com/colbase/tsmerge/vfs"
)

// Reader is a read-only view over a committed (key, value) bitmap index
// pair, used by query execution to walk a key's value list. Unlike Writer
// it never mutates the files and maps them once for its lifetime.
type Reader struct {
	fs vfs.FS

	keyHandle   vfs.Handle
	valueHandle vfs.Handle

	keyRegion   region.Region
	valueRegion region.Region

	header Header
}

// OpenReader opens the (dir/name.key, dir/name.val) pair for read-only
// traversal, validating the header's signature, commit state and checksum.
func OpenReader(fs vfs.FS, dir, name string) (*Reader, error) {
	keyPath := dir + "/" + name + ".key"
	valuePath := dir + "/" + name + ".val"

	keyHandle, err := fs.Open(keyPath)
	if err != nil {
		return nil, err
	}

	keySize, err := fs.Size(keyHandle)
	if err != nil {
		return nil, err
	}

	if keySize < HeaderSize {
		return nil, fmt.Errorf("key file %s: %w", keyPath, errs.ErrShortKeyFile)
	}

	keyRegion, err := fs.Mmap(keyHandle, int(keySize))
	if err != nil {
		return nil, err
	}

	hdr, err := ParseHeader(keyRegion.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyPath, err)
	}

	if !hdr.Committed() {
		return nil, fmt.Errorf("%s: header S=%d S'=%d: %w", keyPath, hdr.Seq, hdr.SeqCheck, errs.ErrSequenceMismatch)
	}

	if !hdr.ChecksumValid() {
		return nil, fmt.Errorf("%s: header checksum mismatch: %w", keyPath, errs.ErrCorruptIndex)
	}

	valueHandle, err := fs.Open(valuePath)
	if err != nil {
		return nil, err
	}

	var valueRegion region.Region
	if hdr.ValueFileSize > 0 {
		valueRegion, err = fs.Mmap(valueHandle, int(hdr.ValueFileSize))
		if err != nil {
			return nil, err
		}
	}

	return &Reader{
		fs:          fs,
		keyHandle:   keyHandle,
		valueHandle: valueHandle,
		keyRegion:   keyRegion,
		valueRegion: valueRegion,
		header:      hdr,
	}, nil
}

// KeyCount returns the number of key slots in the index.
func (r *Reader) KeyCount() uint64 { return r.header.KeyCount }

// Entry returns key's committed entry, or ok==false if key is out of range
// or has never received a value (a sparse hole).
func (r *Reader) Entry(key uint64) (Entry, bool, error) {
	if key >= r.header.KeyCount {
		return Entry{}, false, nil
	}

	off := entryOffset(key)
	if off+EntrySize > int64(r.keyRegion.Len()) {
		return Entry{}, false, nil
	}

	e, err := ParseEntry(r.keyRegion.Bytes()[off : off+EntrySize])
	if err != nil {
		return Entry{}, false, err
	}

	if !e.Committed() {
		return Entry{}, false, fmt.Errorf("key %d: %w", key, errs.ErrValueCountMismatch)
	}

	if e.ValueCount == 0 {
		return Entry{}, false, nil
	}

	// A committed entry may only reference blocks inside the committed
	// portion of the value file.
	capacity := blockCapacityFor(r.header.BlockValues)
	for _, block := range []uint64{e.FirstBlock, e.LastBlock} {
		if block+uint64(capacity) > r.header.ValueFileSize {
			return Entry{}, false, fmt.Errorf("key %d block at %d: %w", key, block, errs.ErrBlockOffsetOutOfRange)
		}
	}

	return e, true, nil
}

// Values returns an iterator over key's values in insertion order, oldest
// first, walking the block chain from FirstBlock forward via each block's
// next-link. A key with no values (sparse hole or out of range) yields
// nothing.
func (r *Reader) Values(key uint64) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		entry, ok, err := r.Entry(key)
		if err != nil || !ok {
			return
		}

		blockValues := uint64(r.header.BlockValues)

		block := int64(entry.FirstBlock)
		remaining := entry.ValueCount

		for remaining > 0 {
			count := blockValues
			if remaining < blockValues {
				count = remaining
			}

			for i := uint64(0); i < count; i++ {
				off := block + int64(i)*8
				v := le.Uint64(r.valueRegion.Bytes()[off : off+8])
				if !yield(v) {
					return
				}
			}

			remaining -= count
			if remaining == 0 {
				return
			}

			nextOff := blockNextOffset(r.header.BlockValues)
			next := le.Uint64(r.valueRegion.Bytes()[block+nextOff : block+nextOff+8])
			block = int64(next)
		}
	}
}

// ValuesReverse returns an iterator over key's values newest first, walking
// the block chain backward from LastBlock via each block's prev-link.
func (r *Reader) ValuesReverse(key uint64) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		entry, ok, err := r.Entry(key)
		if err != nil || !ok {
			return
		}

		blockValues := r.header.BlockValues
		mod := uint64(blockValues - 1)

		block := int64(entry.LastBlock)
		remaining := entry.ValueCount
		lastBlockCount := remaining & mod
		if lastBlockCount == 0 {
			lastBlockCount = uint64(blockValues)
		}

		count := lastBlockCount

		for remaining > 0 {
			for i := int64(count) - 1; i >= 0; i-- {
				off := block + i*8
				v := le.Uint64(r.valueRegion.Bytes()[off : off+8])
				if !yield(v) {
					return
				}
			}

			remaining -= count
			if remaining == 0 {
				return
			}

			prevOff := blockPrevOffset(blockValues)
			prev := le.Uint64(r.valueRegion.Bytes()[block+prevOff : block+prevOff+8])
			block = int64(prev)
			count = uint64(blockValues)
		}
	}
}

// Close releases the reader's mappings and handles.
func (r *Reader) Close() error {
	if err := r.fs.Munmap(r.keyRegion); err != nil {
		return err
	}

	if err := r.fs.Close(r.keyHandle); err != nil {
		return err
	}

	if !r.valueRegion.Empty() {
		if err := r.fs.Munmap(r.valueRegion); err != nil {
			return err
		}
	}

	return r.fs.Close(r.valueHandle)
}
