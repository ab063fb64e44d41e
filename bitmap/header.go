// Package bitmap implements the two-file (key, value) inverted bitmap index
// writer: a crash-safe, lock-free atomic-update
// protocol appending (key, rowId) pairs, with committed state detected via a
// sequence/sequence-check pair on the header and a count/count-check pair on
// each key entry.
package bitmap

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/colbase/tsmerge/errs"
)

// HeaderSize is the fixed 64-byte reserved region at the start of the key
// file.
const HeaderSize = 64

// EntrySize is the fixed size of one per-key entry in the key file.
const EntrySize = 32

// Signature is the 1-byte magic identifying a bitmap key file.
const Signature byte = 0xB1

// Key file header byte offsets: signature(1)+padding(7), S(8),
// V(8), B(4)+padding(4), K(8), S'(8), remainder padding to 64. The checksum
// is stored in that trailing padding region, after S', so the layout of the
// documented fixed fields is undisturbed.
const (
	offSignature = 0
	offSeq       = 8
	offValueSize = 16
	offBlockVals = 24
	offKeyCount  = 32
	offSeqCheck  = 40
	offChecksum  = 48 // full 8-byte xxhash64, within the remainder padding to 64
)

// Header is the key file's fixed 64-byte header.
//
// Sequence (S) and sequence-check (S') form the lock-free commit protocol
// for the header: S == S' indicates a committed header; a reader that
// observes S != S' knows a writer is mid-update and must retry.
type Header struct {
	Seq           uint64 // S
	ValueFileSize uint64 // V: bytes of the value file considered committed
	BlockValues   uint32 // B: values per value block (power of two)
	KeyCount      uint64 // K: number of key entries
	SeqCheck      uint64 // S'

	// Checksum is an optional xxhash64 over (Seq, ValueFileSize,
	// BlockValues, KeyCount) stored in the header's otherwise-unused
	// padding, checked only when non-zero so existing pre-checksum key
	// files remain valid.
	Checksum uint64
}

// NewHeader builds the initial header for a freshly created key file:
// S=1, V=0, K=0, S'=1.
func NewHeader(blockValues uint32) Header {
	h := Header{Seq: 1, BlockValues: blockValues, SeqCheck: 1}
	h.Checksum = h.computeChecksum()

	return h
}

// Committed reports whether S == S', i.e. no writer is mid-update.
func (h Header) Committed() bool {
	return h.Seq == h.SeqCheck
}

func (h Header) computeChecksum() uint64 {
	var buf [28]byte
	le.PutUint64(buf[0:8], h.Seq)
	le.PutUint64(buf[8:16], h.ValueFileSize)
	le.PutUint32(buf[16:20], h.BlockValues)
	le.PutUint64(buf[20:28], h.KeyCount)

	return xxhash.Sum64(buf[:])
}

// ChecksumValid reports whether the stored checksum matches the header's
// committed fields, treating a zero checksum as "absent, always valid."
func (h Header) ChecksumValid() bool {
	return h.Checksum == 0 || h.Checksum == h.computeChecksum()
}

// Bytes serializes the header into a 64-byte slice.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	b[offSignature] = Signature
	le.PutUint64(b[offSeq:], h.Seq)
	le.PutUint64(b[offValueSize:], h.ValueFileSize)
	le.PutUint32(b[offBlockVals:], h.BlockValues)
	le.PutUint64(b[offKeyCount:], h.KeyCount)
	le.PutUint64(b[offSeqCheck:], h.SeqCheck)
	le.PutUint64(b[offChecksum:], h.Checksum)

	return b
}

// ParseHeader parses a Header from a byte slice, validating its signature.
// It does not validate S==S' or file-length consistency; callers perform
// those checks against the open files.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("key file header: %w", errs.ErrShortKeyFile)
	}

	if data[offSignature] != Signature {
		return Header{}, fmt.Errorf("key file signature %#x: %w", data[offSignature], errs.ErrBadSignature)
	}

	h := Header{
		Seq:           le.Uint64(data[offSeq:]),
		ValueFileSize: le.Uint64(data[offValueSize:]),
		BlockValues:   le.Uint32(data[offBlockVals:]),
		KeyCount:      le.Uint64(data[offKeyCount:]),
		SeqCheck:      le.Uint64(data[offSeqCheck:]),
		Checksum:      le.Uint64(data[offChecksum:]),
	}

	return h, nil
}

// Entry is one fixed-size 32-byte per-key entry in the key file.
// valueCount == valueCountCheck signals a committed entry.
type Entry struct {
	ValueCount      uint64
	FirstBlock      uint64 // byte offset of the key's first value block
	LastBlock       uint64 // byte offset of the key's last (most recent) value block
	ValueCountCheck uint64
}

// Committed reports whether ValueCount == ValueCountCheck.
func (e Entry) Committed() bool {
	return e.ValueCount == e.ValueCountCheck
}

// Bytes serializes the entry into a 32-byte slice.
func (e Entry) Bytes() []byte {
	b := make([]byte, EntrySize)
	le.PutUint64(b[0:8], e.ValueCount)
	le.PutUint64(b[8:16], e.FirstBlock)
	le.PutUint64(b[16:24], e.LastBlock)
	le.PutUint64(b[24:32], e.ValueCountCheck)

	return b
}

// ParseEntry parses a 32-byte key entry.
func ParseEntry(data []byte) (Entry, error) {
	if len(data) < EntrySize {
		return Entry{}, fmt.Errorf("key entry: %w", errs.ErrShortKeyFile)
	}

	return Entry{
		ValueCount:      le.Uint64(data[0:8]),
		FirstBlock:      le.Uint64(data[8:16]),
		LastBlock:       le.Uint64(data[16:24]),
		ValueCountCheck: le.Uint64(data[24:32]),
	}, nil
}

// entryOffset returns the byte offset of key k's entry within the key file.
func entryOffset(key uint64) int64 {
	return HeaderSize + int64(key)*EntrySize
}
