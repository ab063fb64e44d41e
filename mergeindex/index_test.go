package mergeindex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbase/tsmerge/mergeindex"
)

func TestPack_SideAndRowRoundTrip(t *testing.T) {
	e := mergeindex.Pack(mergeindex.SideOnDisk, 42)
	assert.Equal(t, mergeindex.SideOnDisk, e.Side())
	assert.EqualValues(t, 42, e.Row())

	e = mergeindex.Pack(mergeindex.SideOOO, 0)
	assert.Equal(t, mergeindex.SideOOO, e.Side())
	assert.EqualValues(t, 0, e.Row())
}

func TestFromUint64_TopBitSelectsSide(t *testing.T) {
	// bit 63 set, row bits 0..62: on-disk row 0, then ooo row 0.
	raw := []uint64{0x8000000000000000, 0x0000000000000000}
	idx := mergeindex.FromUint64(raw)

	require.Equal(t, 2, idx.Len())

	e0, err := idx.At(0)
	require.NoError(t, err)
	assert.Equal(t, mergeindex.SideOnDisk, e0.Side())
	assert.EqualValues(t, 0, e0.Row())

	e1, err := idx.At(1)
	require.NoError(t, err)
	assert.Equal(t, mergeindex.SideOOO, e1.Side())
	assert.EqualValues(t, 0, e1.Row())
}

func TestIndex_AtOutOfRange(t *testing.T) {
	idx := mergeindex.New([]mergeindex.Entry{mergeindex.Pack(mergeindex.SideOOO, 0)})

	_, err := idx.At(1)
	require.Error(t, err)

	_, err = idx.At(-1)
	require.Error(t, err)
}

func TestIndex_ReleaseIsIdempotentAndNilSafe(t *testing.T) {
	idx := mergeindex.New([]mergeindex.Entry{mergeindex.Pack(mergeindex.SideOOO, 0)})
	idx.Release()
	assert.Equal(t, 0, idx.Len())
	idx.Release() // second release must not panic

	var nilIdx *mergeindex.Index
	assert.Equal(t, 0, nilIdx.Len())
	assert.Nil(t, nilIdx.Entries())
	nilIdx.Release()
}
