package bitmap

import (
	"fmt"
	"sync"

	"github.com/colbase/tsmerge/errs"
	"github.com/colbase/tsmerge/internal/options"
	"github.com/colbase/tsmerge/region"
	"github.com/colbase/tsmerge/vfs"
)

// Writer is the two-file (key, value) bitmap index writer:
// Open maps both files, Add appends one (key, value) pair under the
// lock-free sequence/sequence-check and count/count-check commit protocols,
// and Close releases the mappings and truncates both files down to their
// committed size.
//
// A Writer is not safe for concurrent use by multiple goroutines; the O3
// copy job that drives it serializes calls to Add per partition, so the
// internal mutex only guards against accidental misuse, not a designed
// concurrent-writer scenario.
type Writer struct {
	fs vfs.FS

	keyPath   string
	valuePath string

	keyHandle   vfs.Handle
	valueHandle vfs.Handle

	keyRegion   region.Region
	valueRegion region.Region

	header Header

	blockValueMod uint32 // BlockValues - 1, valid since BlockValues is a power of two
	blockCapacity int64  // BlockValues*8 + 16 (values plus prev/next links)

	syncOnCommit bool // set by WithFsync

	mu sync.Mutex
}

// blockCapacityFor, blockPrevOffset and blockNextOffset describe a value
// block's layout: the prev-block and next-block byte offsets follow the B
// values.
func blockCapacityFor(blockValues uint32) int64 {
	return int64(blockValues)*8 + 16
}

func blockPrevOffset(blockValues uint32) int64 { return int64(blockValues) * 8 }
func blockNextOffset(blockValues uint32) int64 { return int64(blockValues)*8 + 8 }

// Open opens or creates the (dir/name.key, dir/name.val) file pair. A fresh
// pair is initialized with NewHeader(blockValues); an existing pair is
// validated for signature, length consistency between the committed header
// fields and the actual file sizes, and checksum, failing closed with
// errs.ErrCorruptIndex wrapping the specific mismatch on any inconsistency.
func Open(fs vfs.FS, dir, name string, blockValues uint32, opts ...Option) (*Writer, error) {
	if blockValues == 0 || blockValues&(blockValues-1) != 0 {
		return nil, fmt.Errorf("block size %d: %w", blockValues, errs.ErrBlockSizeNotPowerOfTwo)
	}

	keyPath := dir + "/" + name + ".key"
	valuePath := dir + "/" + name + ".val"

	existed, err := fs.Exists(keyPath)
	if err != nil {
		return nil, err
	}

	keyHandle, err := fs.Open(keyPath)
	if err != nil {
		return nil, err
	}

	valueHandle, err := fs.Open(valuePath)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		fs:            fs,
		keyPath:       keyPath,
		valuePath:     valuePath,
		keyHandle:     keyHandle,
		valueHandle:   valueHandle,
		blockValueMod: blockValues - 1,
		blockCapacity: blockCapacityFor(blockValues),
	}

	if err := options.Apply(w, opts...); err != nil {
		return nil, err
	}

	if !existed {
		if err := w.initFresh(blockValues); err != nil {
			return nil, err
		}

		return w, nil
	}

	if err := w.openExisting(); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *Writer) initFresh(blockValues uint32) error {
	if err := w.fs.Truncate(w.keyHandle, HeaderSize); err != nil {
		return err
	}

	if err := w.fs.Truncate(w.valueHandle, 0); err != nil {
		return err
	}

	keyRegion, err := w.fs.Mmap(w.keyHandle, HeaderSize)
	if err != nil {
		return err
	}

	w.keyRegion = keyRegion
	w.valueRegion = region.Region{}
	w.header = NewHeader(blockValues)

	return w.writeHeader(w.header)
}

func (w *Writer) openExisting() error {
	keySize, err := w.fs.Size(w.keyHandle)
	if err != nil {
		return err
	}

	if keySize < HeaderSize {
		return fmt.Errorf("key file %s: %w", w.keyPath, errs.ErrShortKeyFile)
	}

	keyRegion, err := w.fs.Mmap(w.keyHandle, int(keySize))
	if err != nil {
		return err
	}

	w.keyRegion = keyRegion

	hdr, err := ParseHeader(keyRegion.Bytes())
	if err != nil {
		return fmt.Errorf("%s: %w", w.keyPath, err)
	}

	if !hdr.Committed() {
		return fmt.Errorf("%s: header S=%d S'=%d: %w", w.keyPath, hdr.Seq, hdr.SeqCheck, errs.ErrSequenceMismatch)
	}

	if !hdr.ChecksumValid() {
		return fmt.Errorf("%s: header checksum mismatch: %w", w.keyPath, errs.ErrCorruptIndex)
	}

	wantKeySize := HeaderSize + int64(hdr.KeyCount)*EntrySize
	if keySize < wantKeySize {
		return fmt.Errorf("%s: %w", w.keyPath, errs.ErrKeyFileSizeMismatch)
	}

	valueSize, err := w.fs.Size(w.valueHandle)
	if err != nil {
		return err
	}

	if valueSize < int64(hdr.ValueFileSize) {
		return fmt.Errorf("%s: %w", w.valuePath, errs.ErrValueFileSizeMismatch)
	}

	if valueSize > 0 {
		valueRegion, err := w.fs.Mmap(w.valueHandle, int(valueSize))
		if err != nil {
			return err
		}

		w.valueRegion = valueRegion
	}

	w.header = hdr
	w.blockValueMod = hdr.BlockValues - 1
	w.blockCapacity = blockCapacityFor(hdr.BlockValues)

	return nil
}

func (w *Writer) writeHeader(h Header) error {
	copy(w.keyRegion.Bytes(), h.Bytes())

	return nil
}

// commitHeader runs the header through the S++ / mutate / S':=S protocol of
// the key file header: bump Seq first (marks the header dirty/mid-update to any
// concurrent reader), apply mutate to the in-memory copy and flush the
// non-sequence fields, then store SeqCheck == Seq last so Committed()
// becomes true only after every other field is durably in place.
func (w *Writer) commitHeader(mutate func(*Header)) error {
	w.header.Seq++
	if err := w.keyRegion.AtomicStoreUint64(offSeq, w.header.Seq); err != nil {
		return err
	}

	mutate(&w.header)
	w.header.Checksum = w.header.computeChecksum()

	b := w.header.Bytes()
	copy(w.keyRegion.Bytes()[offValueSize:offSeqCheck], b[offValueSize:offSeqCheck])
	copy(w.keyRegion.Bytes()[offChecksum:offChecksum+8], b[offChecksum:offChecksum+8])

	w.header.SeqCheck = w.header.Seq
	if err := w.keyRegion.AtomicStoreUint64(offSeqCheck, w.header.SeqCheck); err != nil {
		return err
	}

	if w.syncOnCommit {
		if err := w.fs.Sync(w.keyHandle); err != nil {
			return err
		}
	}

	return nil
}

// ensureKeySlot grows the key file/mapping so key's entry fits, remapping
// if necessary.
func (w *Writer) ensureKeySlot(key uint64) error {
	need := entryOffset(key) + EntrySize
	if int64(w.keyRegion.Len()) >= need {
		return nil
	}

	if err := w.remapKey(need); err != nil {
		return err
	}

	return nil
}

func (w *Writer) remapKey(newSize int64) error {
	if err := w.fs.Truncate(w.keyHandle, newSize); err != nil {
		return err
	}

	if err := w.fs.Munmap(w.keyRegion); err != nil {
		return err
	}

	r, err := w.fs.Mmap(w.keyHandle, int(newSize))
	if err != nil {
		return err
	}

	w.keyRegion = r

	return nil
}

func (w *Writer) remapValue(newSize int64) error {
	if err := w.fs.Truncate(w.valueHandle, newSize); err != nil {
		return err
	}

	if !w.valueRegion.Empty() {
		if err := w.fs.Munmap(w.valueRegion); err != nil {
			return err
		}
	}

	r, err := w.fs.Mmap(w.valueHandle, int(newSize))
	if err != nil {
		return err
	}

	w.valueRegion = r

	return nil
}

// allocateValueBlock grows the value file by one block, writes initial at
// the block's first cell, and bumps the header's committed value-file size
// (V) to cover the new block. It returns the byte offset of the new block.
func (w *Writer) allocateValueBlock(initial uint64) (int64, error) {
	blockOffset := int64(w.header.ValueFileSize)
	newV := blockOffset + w.blockCapacity

	if err := w.remapValue(newV); err != nil {
		return 0, err
	}

	le.PutUint64(w.valueRegion.Bytes()[blockOffset:blockOffset+8], initial)

	if err := w.commitHeader(func(h *Header) { h.ValueFileSize = uint64(newV) }); err != nil {
		return 0, err
	}

	return blockOffset, nil
}

func (w *Writer) readEntry(key uint64) (Entry, error) {
	off := entryOffset(key)

	return ParseEntry(w.keyRegion.Bytes()[off : off+EntrySize])
}

// Add appends value under key. There are four scenarios, selected by
// whether key is new (key >= K), whether key is known
// but has never received a value (sparse hole, ValueCount == 0), whether
// key's last block still has room, or whether key's last block is full and
// a new one must be linked in.
func (w *Writer) Add(key, value uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if key >= w.header.KeyCount {
		return w.addNewKey(key, value)
	}

	if err := w.ensureKeySlot(key); err != nil {
		return err
	}

	entry, err := w.readEntry(key)
	if err != nil {
		return err
	}

	if entry.ValueCount == 0 {
		return w.addNewKeySparse(key, value)
	}

	if entry.ValueCount&uint64(w.blockValueMod) != 0 {
		return w.appendToLastBlock(key, entry, value)
	}

	return w.addValueBlockAndStoreValue(key, entry, value)
}

// addNewKey handles key >= K: allocate the key's first value block, write
// its entry, then extend K to key+1 last so a concurrent reader never sees
// a key count that outruns its entries.
func (w *Writer) addNewKey(key, value uint64) error {
	if err := w.ensureKeySlot(key); err != nil {
		return err
	}

	blockOffset, err := w.allocateValueBlock(value)
	if err != nil {
		return err
	}

	entry := Entry{ValueCount: 1, FirstBlock: uint64(blockOffset), LastBlock: uint64(blockOffset), ValueCountCheck: 1}
	if err := w.writeEntryCommitted(key, entry); err != nil {
		return err
	}

	return w.commitHeader(func(h *Header) {
		if key+1 > h.KeyCount {
			h.KeyCount = key + 1
		}
	})
}

// addNewKeySparse handles a key below K that has never received a value
// (a sparse hole left by an out-of-order key sequence): identical to
// addNewKey but K is already large enough, so no header K update is needed.
func (w *Writer) addNewKeySparse(key, value uint64) error {
	blockOffset, err := w.allocateValueBlock(value)
	if err != nil {
		return err
	}

	entry := Entry{ValueCount: 1, FirstBlock: uint64(blockOffset), LastBlock: uint64(blockOffset), ValueCountCheck: 1}

	return w.writeEntryCommitted(key, entry)
}

// appendToLastBlock handles a key whose last block has at least one free
// cell: write the value into the next cell, then bump ValueCount and
// ValueCountCheck, count first so a crash mid-append is detected by
// ValueCount != ValueCountCheck rather than silently accepted.
func (w *Writer) appendToLastBlock(key uint64, entry Entry, value uint64) error {
	cellIndex := entry.ValueCount & uint64(w.blockValueMod)
	cellOffset := int64(entry.LastBlock) + int64(cellIndex)*8

	le.PutUint64(w.valueRegion.Bytes()[cellOffset:cellOffset+8], value)

	newCount := entry.ValueCount + 1
	entry.ValueCount = newCount
	entry.ValueCountCheck = newCount

	return w.writeEntryCommitted(key, entry)
}

// addValueBlockAndStoreValue handles a key whose last block is full
// (ValueCount is a nonzero multiple of BlockValues): allocate a new block,
// link it to the old last block in both directions, store value in the
// new block's first cell, and repoint the entry's LastBlock at the NEW
// block's offset — never at the block that has just become full.
func (w *Writer) addValueBlockAndStoreValue(key uint64, entry Entry, value uint64) error {
	oldLast := int64(entry.LastBlock)

	newBlockOffset, err := w.allocateValueBlock(value)
	if err != nil {
		return err
	}

	le.PutUint64(w.valueRegion.Bytes()[newBlockOffset+blockPrevOffset(w.header.BlockValues):newBlockOffset+blockPrevOffset(w.header.BlockValues)+8], uint64(oldLast))
	le.PutUint64(w.valueRegion.Bytes()[oldLast+blockNextOffset(w.header.BlockValues):oldLast+blockNextOffset(w.header.BlockValues)+8], uint64(newBlockOffset))

	newCount := entry.ValueCount + 1
	entry.ValueCount = newCount
	entry.LastBlock = uint64(newBlockOffset)
	entry.ValueCountCheck = newCount

	return w.writeEntryCommitted(key, entry)
}

// writeEntryCommitted writes ValueCount and the block pointers first, then
// ValueCountCheck last, mirroring the header's Seq/SeqCheck ordering so a
// reader sees a torn entry as ValueCount != ValueCountCheck rather than as
// committed.
func (w *Writer) writeEntryCommitted(key uint64, e Entry) error {
	off := entryOffset(key)
	b := e.Bytes()

	copy(w.keyRegion.Bytes()[off:off+24], b[0:24])

	return w.keyRegion.AtomicStoreUint64(int(off)+24, e.ValueCountCheck)
}

// Close truncates both files down to their committed sizes and releases
// the mappings and handles.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	keySize := HeaderSize + int64(w.header.KeyCount)*EntrySize

	if err := w.fs.Munmap(w.keyRegion); err != nil {
		return err
	}

	if err := w.fs.Truncate(w.keyHandle, keySize); err != nil {
		return err
	}

	if err := w.fs.Close(w.keyHandle); err != nil {
		return err
	}

	if !w.valueRegion.Empty() {
		if err := w.fs.Munmap(w.valueRegion); err != nil {
			return err
		}
	}

	if err := w.fs.Truncate(w.valueHandle, int64(w.header.ValueFileSize)); err != nil {
		return err
	}

	return w.fs.Close(w.valueHandle)
}

// Stats exposes the writer's committed header fields for diagnostics.
type Stats struct {
	KeyCount      uint64
	ValueFileSize uint64
	BlockValues   uint32
}

// Stats returns the writer's current committed header state.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Stats{
		KeyCount:      w.header.KeyCount,
		ValueFileSize: w.header.ValueFileSize,
		BlockValues:   w.header.BlockValues,
	}
}
