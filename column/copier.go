// Package column implements the Column Copier: copying a
// contiguous slice of one source column into a destination offset, for both
// fixed-width and variable-width column layouts, plus the
// timestamp-with-row-index special case.
package column

import (
	"fmt"

	"github.com/colbase/tsmerge/errs"
	"github.com/colbase/tsmerge/format"
	"github.com/colbase/tsmerge/region"
)

// CopyFixed copies rows [srcLo, srcHi] (inclusive) of a size-class-k
// fixed-width column from src into dst at byte offset dstOffset.
//
// Exactly (srcHi-srcLo+1)<<k bytes move from src+(srcLo<<k); no
// reinterpretation, no endian conversion — this is a pure memcpy over the
// row range.
//
// An empty range (srcHi < srcLo) copies zero bytes and is not an error.
func CopyFixed(src region.Region, srcLo, srcHi int, dst region.Region, dstOffset int, k format.SizeClass) error {
	if srcHi < srcLo {
		return nil
	}

	if !k.IsValid() {
		return fmt.Errorf("size class %v: %w", k, errs.ErrUnknownSizeClass)
	}

	width := k.Width()
	n := (srcHi - srcLo + 1) * width
	srcOff := srcLo * width

	if err := region.CopyRange(dst, dstOffset, src, srcOff, n); err != nil {
		return fmt.Errorf("CopyFixed: %w", err)
	}

	return nil
}

// VarCopy copies rows [srcLo, srcHi] (inclusive) of a variable-width column
// (string or binary) from (srcFix, srcVar) into (dstFix, dstVar).
//
// srcFix holds one 8-byte var-file offset per row. hi is the end-of-range
// var offset: if srcHi is the last row of the source, hi is the var file's
// total size; otherwise it is srcFix[srcHi+1]. The payload bytes
// [lo, hi) are copied verbatim into dstVar at dstVarOffset, and the fixed
// offsets for the destination range are rewritten: copied verbatim when
// lo == dstVarOffset (no shift needed), otherwise shifted by lo-dstVarOffset.
func VarCopy(srcFix, srcVar region.Region, srcLo, srcHi int, dstFix, dstVar region.Region, dstFixOffset, dstVarOffset int) error {
	if srcHi < srcLo {
		return nil
	}

	lo, err := srcFix.Uint64(srcLo * 8)
	if err != nil {
		return fmt.Errorf("VarCopy: read srcFix[%d]: %w", srcLo, err)
	}

	srcRowCount := srcFix.Len() / 8

	var hi uint64
	if srcHi+1 == srcRowCount {
		hi = uint64(srcVar.Len())
	} else {
		hi, err = srcFix.Uint64((srcHi + 1) * 8)
		if err != nil {
			return fmt.Errorf("VarCopy: read srcFix[%d]: %w", srcHi+1, err)
		}
	}

	if hi < lo {
		return fmt.Errorf("VarCopy: srcFix offsets not monotonic (lo=%d hi=%d): %w", lo, hi, errs.ErrInvariantViolation)
	}

	n := int(hi - lo)
	if err := region.CopyRange(dstVar, dstVarOffset, srcVar, int(lo), n); err != nil {
		return fmt.Errorf("VarCopy: payload copy: %w", err)
	}

	return rewriteFixedOffsets(srcFix, srcLo, srcHi, dstFix, dstFixOffset, int64(lo)-int64(dstVarOffset))
}

// rewriteFixedOffsets copies (or shifts) the destination range's fixed-file
// offset entries. When shift is zero the source offsets are valid verbatim
// in the destination var file and are copied as-is; otherwise each 8-byte
// entry is adjusted by subtracting shift.
func rewriteFixedOffsets(srcFix region.Region, srcLo, srcHi int, dstFix region.Region, dstFixOffset int, shift int64) error {
	count := srcHi - srcLo + 1

	if shift == 0 {
		if err := region.CopyRange(dstFix, dstFixOffset, srcFix, srcLo*8, count*8); err != nil {
			return fmt.Errorf("rewriteFixedOffsets: verbatim copy: %w", err)
		}

		return nil
	}

	for i := 0; i < count; i++ {
		v, err := srcFix.Uint64((srcLo + i) * 8)
		if err != nil {
			return fmt.Errorf("rewriteFixedOffsets: read srcFix[%d]: %w", srcLo+i, err)
		}

		shifted := int64(v) - shift
		if shifted < 0 {
			return fmt.Errorf("rewriteFixedOffsets: shifted offset negative at row %d: %w", srcLo+i, errs.ErrInvariantViolation)
		}

		if err := dstFix.PutUint64(dstFixOffset+i*8, uint64(shifted)); err != nil {
			return fmt.Errorf("rewriteFixedOffsets: write dstFix[%d]: %w", i, err)
		}
	}

	return nil
}

// CopyTimestampRowID copies a timestamp-with-auxiliary-row-index column:
// the source fixed file holds 16-byte (timestamp, rowId) pairs; only the
// 8-byte timestamp half is written to dst, yielding a standard 8-byte
// timestamp column.
func CopyTimestampRowID(src region.Region, srcLo, srcHi int, dst region.Region, dstOffset int) error {
	if srcHi < srcLo {
		return nil
	}

	for i := srcLo; i <= srcHi; i++ {
		ts, err := src.Uint64(i * 16)
		if err != nil {
			return fmt.Errorf("CopyTimestampRowID: read src[%d]: %w", i, err)
		}

		off := dstOffset + (i-srcLo)*8
		if err := dst.PutUint64(off, ts); err != nil {
			return fmt.Errorf("CopyTimestampRowID: write dst[%d]: %w", off, err)
		}
	}

	return nil
}
