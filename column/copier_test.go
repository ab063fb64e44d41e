package column_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbase/tsmerge/column"
	"github.com/colbase/tsmerge/format"
	"github.com/colbase/tsmerge/region"
)

// ==============================================================================
// CopyFixed
// ==============================================================================

func TestCopyFixed_BytewiseEqual(t *testing.T) {
	src := region.New([]byte{
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00,
		0x04, 0x00, 0x00, 0x00,
	})
	dst := region.New(make([]byte, 16))

	require.NoError(t, column.CopyFixed(src, 1, 2, dst, 8, format.SizeClass4))

	assert.Equal(t, []byte{0x02, 0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00}, dst.Bytes()[8:16])
	// Untouched destination bytes stay zero.
	assert.Equal(t, make([]byte, 8), dst.Bytes()[0:8])
}

// TestCopyFixed_EmptyRange: srcLo=5,
// srcHi=4 copies zero bytes and is not an error.
func TestCopyFixed_EmptyRange(t *testing.T) {
	src := region.New([]byte{1, 2, 3, 4})
	dst := region.New([]byte{9, 9, 9, 9})

	require.NoError(t, column.CopyFixed(src, 5, 4, dst, 0, format.SizeClass1))
	assert.Equal(t, []byte{9, 9, 9, 9}, dst.Bytes())
}

func TestCopyFixed_InvalidSizeClass(t *testing.T) {
	src := region.New([]byte{1, 2, 3, 4})
	dst := region.New(make([]byte, 4))

	err := column.CopyFixed(src, 0, 0, dst, 0, format.SizeClass(7))
	require.Error(t, err)
}

// ==============================================================================
// VarCopy (string)
// ==============================================================================

// TestVarCopy_StringSingleRow mirrors the single-row merge scenario's source
// side data, but exercised through the single-sided VarCopy path (OO/DATA
// blocks, not MERGE): one on-disk row "bb".
func TestVarCopy_StringSingleRow(t *testing.T) {
	srcFix := region.New([]byte{0, 0, 0, 0, 0, 0, 0, 0}) // row 0 -> var offset 0
	srcVar := region.New([]byte{0x02, 0x00, 0x00, 0x00, 'b', 0x00, 'b', 0x00})

	dstFix := region.New(make([]byte, 8))
	dstVar := region.New(make([]byte, 8))

	require.NoError(t, column.VarCopy(srcFix, srcVar, 0, 0, dstFix, dstVar, 0, 0))

	assert.Equal(t, srcVar.Bytes(), dstVar.Bytes())
	assert.EqualValues(t, 0, mustUint64(t, dstFix, 0))
}

// TestVarCopy_NullString: a length of -1
// propagates verbatim. The destination fixed slot still advances by one
// 8-byte entry and no payload is copied.
func TestVarCopy_NullString(t *testing.T) {
	// Two rows: row 0 is null (len=-1, no payload), row 1 is "a".
	negOne := uint32(0xFFFFFFFF)
	varBytes := make([]byte, 0, 10)
	varBytes = append(varBytes, byteLE32(negOne)...) // row0: len=-1
	varBytes = append(varBytes, byteLE32(1)...)      // row1: len=1
	varBytes = append(varBytes, 'a', 0x00)           // row1 payload
	srcVar := region.New(varBytes)

	srcFix := region.New([]byte{
		0, 0, 0, 0, 0, 0, 0, 0, // row0 offset = 0
		4, 0, 0, 0, 0, 0, 0, 0, // row1 offset = 4
	})

	dstFix := region.New(make([]byte, 16))
	dstVar := region.New(make([]byte, 10))

	// Copy only row 0 (the null row): hi = srcFix[1] = 4, so 4 bytes move.
	require.NoError(t, column.VarCopy(srcFix, srcVar, 0, 0, dstFix, dstVar, 0, 0))

	assert.EqualValues(t, negOne, mustUint32(t, dstVar, 0))
	assert.EqualValues(t, 0, mustUint64(t, dstFix, 0))
}

// TestVarCopy_LastRowExtendsToEnd checks the "srcHi+1 == rowCount" branch:
// hi becomes srcVarSize rather than reading past the fixed array.
func TestVarCopy_LastRowExtendsToEnd(t *testing.T) {
	srcFix := region.New([]byte{0, 0, 0, 0, 0, 0, 0, 0})
	srcVar := region.New([]byte{0x01, 0x00, 0x00, 0x00, 'z', 0x00})

	dstFix := region.New(make([]byte, 8))
	dstVar := region.New(make([]byte, 6))

	require.NoError(t, column.VarCopy(srcFix, srcVar, 0, 0, dstFix, dstVar, 0, 0))
	assert.Equal(t, srcVar.Bytes(), dstVar.Bytes())
}

// TestVarCopy_ShiftedOffsets exercises lo != dstVarOffset: the destination
// fixed slots must be shifted, not copied verbatim.
func TestVarCopy_ShiftedOffsets(t *testing.T) {
	// Source var holds two strings; we copy only row 1 starting at dst
	// offset 0, so the source offset (6) must be shifted down by 6.
	srcFix := region.New([]byte{
		0, 0, 0, 0, 0, 0, 0, 0,
		6, 0, 0, 0, 0, 0, 0, 0,
	})
	srcVar := region.New([]byte{
		0x01, 0x00, 0x00, 0x00, 'a', 0x00,
		0x01, 0x00, 0x00, 0x00, 'b', 0x00,
	})

	dstFix := region.New(make([]byte, 8))
	dstVar := region.New(make([]byte, 6))

	require.NoError(t, column.VarCopy(srcFix, srcVar, 1, 1, dstFix, dstVar, 0, 0))

	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00, 'b', 0x00}, dstVar.Bytes())
	assert.EqualValues(t, 0, mustUint64(t, dstFix, 0))
}

// ==============================================================================
// CopyTimestampRowID
// ==============================================================================

func TestCopyTimestampRowID(t *testing.T) {
	src := region.New(make([]byte, 32))
	putU64(src, 0, 1000)  // t0
	putU64(src, 8, 1)     // r0
	putU64(src, 16, 2000) // t1
	putU64(src, 24, 2)    // r1

	dst := region.New(make([]byte, 16))
	require.NoError(t, column.CopyTimestampRowID(src, 0, 1, dst, 0))

	assert.EqualValues(t, 1000, mustUint64(t, dst, 0))
	assert.EqualValues(t, 2000, mustUint64(t, dst, 8))
}

func TestCopyTimestampRowID_EmptyRange(t *testing.T) {
	src := region.New(make([]byte, 16))
	dst := region.New([]byte{9, 9, 9, 9, 9, 9, 9, 9})

	require.NoError(t, column.CopyTimestampRowID(src, 3, 2, dst, 0))
	assert.Equal(t, []byte{9, 9, 9, 9, 9, 9, 9, 9}, dst.Bytes())
}

// ==============================================================================
// helpers
// ==============================================================================

func mustUint64(t *testing.T, r region.Region, off int) uint64 {
	t.Helper()
	v, err := r.Uint64(off)
	require.NoError(t, err)

	return v
}

func mustUint32(t *testing.T, r region.Region, off int) uint32 {
	t.Helper()
	v, err := r.Uint32(off)
	require.NoError(t, err)

	return v
}

func putU64(r region.Region, off int, v uint64) {
	_ = r.PutUint64(off, v)
}

func byteLE32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
