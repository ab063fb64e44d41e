package column

import (
	"fmt"

	"github.com/colbase/tsmerge/errs"
	"github.com/colbase/tsmerge/mergeindex"
	"github.com/colbase/tsmerge/region"
)

// pick picks one of two regions by a merge-index entry's source selector.
func pick(e mergeindex.Entry, ooo, disk region.Region) region.Region {
	if e.Side() == mergeindex.SideOnDisk {
		return disk
	}

	return ooo
}

// Shuffle8 implements the 1-byte-fixed MergeShuffle: for each
// merge-index entry in order, copies 1 byte from the side selected by the
// entry's high bit at the entry's row index to the destination's next byte
// slot.
func Shuffle8(ooo, disk region.Region, idx *mergeindex.Index, dst region.Region) error {
	return shuffleFixed(ooo, disk, idx, dst, 1)
}

// Shuffle16 is Shuffle8 for 2-byte fixed columns.
func Shuffle16(ooo, disk region.Region, idx *mergeindex.Index, dst region.Region) error {
	return shuffleFixed(ooo, disk, idx, dst, 2)
}

// Shuffle32 is Shuffle8 for 4-byte fixed columns.
func Shuffle32(ooo, disk region.Region, idx *mergeindex.Index, dst region.Region) error {
	return shuffleFixed(ooo, disk, idx, dst, 4)
}

// Shuffle64 is Shuffle8 for 8-byte fixed columns.
func Shuffle64(ooo, disk region.Region, idx *mergeindex.Index, dst region.Region) error {
	return shuffleFixed(ooo, disk, idx, dst, 8)
}

func shuffleFixed(ooo, disk region.Region, idx *mergeindex.Index, dst region.Region, width int) error {
	entries := idx.Entries()
	for i, e := range entries {
		src := pick(e, ooo, disk)
		srcOff := int(e.Row()) * width
		dstOff := i * width

		if err := region.CopyRange(dst, dstOff, src, srcOff, width); err != nil {
			return fmt.Errorf("shuffle(width=%d) entry %d: %w", width, i, err)
		}
	}

	return nil
}

// TimestampRowIDMerge writes only the timestamp half of each merge-index
// entry: the selected side's source row is a 16-byte (timestamp, rowId)
// pair, and only the 8-byte timestamp survives into dst.
func TimestampRowIDMerge(ooo, disk region.Region, idx *mergeindex.Index, dst region.Region) error {
	entries := idx.Entries()
	for i, e := range entries {
		src := pick(e, ooo, disk)

		ts, err := src.Uint64(int(e.Row()) * 16)
		if err != nil {
			return fmt.Errorf("TimestampRowIDMerge: read entry %d: %w", i, err)
		}

		if err := dst.PutUint64(i*8, ts); err != nil {
			return fmt.Errorf("TimestampRowIDMerge: write entry %d: %w", i, err)
		}
	}

	return nil
}

// StringMerge interleaves two string columns under a merge index.
//
// For each merge-index entry in order: write destVarOffset into the
// destination fixed slot, look up the source's var-file offset via the
// selected side's fixed file, read the 4-byte length prefix, write it to
// dst, then copy max(0,len)*2 payload bytes (UTF-16 code units). A length of
// -1 (null) still advances the fixed slot by the current destVarOffset and
// writes no payload.
//
// startVarOffset is the destination var file's starting write offset
// (usually 0 for a freshly allocated destination var region). StringMerge
// returns the final destVarOffset after all entries are written.
func StringMerge(srcFixOOO, srcVarOOO, srcFixDisk, srcVarDisk region.Region, idx *mergeindex.Index, dstFix, dstVar region.Region, startVarOffset int) (int, error) {
	destVarOffset := startVarOffset

	entries := idx.Entries()
	for i, e := range entries {
		srcFix, srcVar := srcFixOOO, srcVarOOO
		if e.Side() == mergeindex.SideOnDisk {
			srcFix, srcVar = srcFixDisk, srcVarDisk
		}

		if err := dstFix.PutUint64(i*8, uint64(destVarOffset)); err != nil {
			return 0, fmt.Errorf("StringMerge: write dstFix[%d]: %w", i, err)
		}

		srcOffset, err := srcFix.Uint64(int(e.Row()) * 8)
		if err != nil {
			return 0, fmt.Errorf("StringMerge: read srcFix entry %d: %w", i, err)
		}

		addr := int(srcOffset)

		lenBits, err := srcVar.Uint32(addr)
		if err != nil {
			return 0, fmt.Errorf("StringMerge: read length at entry %d: %w", i, err)
		}
		length := int32(lenBits)

		if err := dstVar.PutUint32(destVarOffset, lenBits); err != nil {
			return 0, fmt.Errorf("StringMerge: write length at entry %d: %w", i, err)
		}

		payloadLen := 0
		if length > 0 {
			payloadLen = int(length) * 2
			if err := region.CopyRange(dstVar, destVarOffset+4, srcVar, addr+4, payloadLen); err != nil {
				return 0, fmt.Errorf("StringMerge: copy payload at entry %d: %w", i, err)
			}
		}

		destVarOffset += 4 + payloadLen
	}

	return destVarOffset, nil
}

// BinaryMerge interleaves two binary columns under a merge index: as
// StringMerge but with an 8-byte length word and raw-byte payload (no UTF-16
// doubling). When len>0 a single contiguous copy moves the 8-byte length
// word plus payload together.
func BinaryMerge(srcFixOOO, srcVarOOO, srcFixDisk, srcVarDisk region.Region, idx *mergeindex.Index, dstFix, dstVar region.Region, startVarOffset int) (int, error) {
	destVarOffset := startVarOffset

	entries := idx.Entries()
	for i, e := range entries {
		srcFix, srcVar := srcFixOOO, srcVarOOO
		if e.Side() == mergeindex.SideOnDisk {
			srcFix, srcVar = srcFixDisk, srcVarDisk
		}

		if err := dstFix.PutUint64(i*8, uint64(destVarOffset)); err != nil {
			return 0, fmt.Errorf("BinaryMerge: write dstFix[%d]: %w", i, err)
		}

		srcOffset, err := srcFix.Uint64(int(e.Row()) * 8)
		if err != nil {
			return 0, fmt.Errorf("BinaryMerge: read srcFix entry %d: %w", i, err)
		}

		addr := int(srcOffset)

		lenBits, err := srcVar.Uint64(addr)
		if err != nil {
			return 0, fmt.Errorf("BinaryMerge: read length at entry %d: %w", i, err)
		}
		length := int64(lenBits)

		if length > 0 {
			if err := region.CopyRange(dstVar, destVarOffset, srcVar, addr, 8+int(length)); err != nil {
				return 0, fmt.Errorf("BinaryMerge: copy length+payload at entry %d: %w", i, err)
			}

			destVarOffset += 8 + int(length)

			continue
		}

		if err := dstVar.PutUint64(destVarOffset, lenBits); err != nil {
			return 0, fmt.Errorf("BinaryMerge: write length at entry %d: %w", i, err)
		}

		destVarOffset += 8
	}

	return destVarOffset, nil
}

// ShuffleForSizeClass dispatches a fixed-width MERGE copy to the
// size-class-appropriate shuffle primitive.
func ShuffleForSizeClass(ooo, disk region.Region, idx *mergeindex.Index, dst region.Region, width int) error {
	switch width {
	case 1:
		return Shuffle8(ooo, disk, idx, dst)
	case 2:
		return Shuffle16(ooo, disk, idx, dst)
	case 4:
		return Shuffle32(ooo, disk, idx, dst)
	case 8:
		return Shuffle64(ooo, disk, idx, dst)
	default:
		return fmt.Errorf("shuffle width %d: %w", width, errs.ErrUnknownSizeClass)
	}
}
