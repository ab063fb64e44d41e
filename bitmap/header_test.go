package bitmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbase/tsmerge/bitmap"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := bitmap.NewHeader(16)
	h.KeyCount = 7
	h.ValueFileSize = 256
	h.Checksum = 0 // zero means absent; this test checks only the fixed fields

	data := h.Bytes()
	got, err := bitmap.ParseHeader(data)
	require.NoError(t, err)

	assert.Equal(t, h.Seq, got.Seq)
	assert.Equal(t, h.ValueFileSize, got.ValueFileSize)
	assert.Equal(t, h.BlockValues, got.BlockValues)
	assert.Equal(t, h.KeyCount, got.KeyCount)
	assert.Equal(t, h.SeqCheck, got.SeqCheck)
	assert.True(t, got.Committed())
}

// TestHeaderChecksumSurvivesFullWidth guards against truncating the stored
// checksum to 32 bits: xxhash64 routinely sets bits above bit 31, so a
// checksum round-trip must preserve the full uint64, not just its low half.
func TestHeaderChecksumSurvivesFullWidth(t *testing.T) {
	h := bitmap.NewHeader(16)
	h.KeyCount = 7
	h.ValueFileSize = 256
	h.Checksum = 0xA5A5A5A5DEADBEEF
	require.NotZero(t, h.Checksum>>32, "test checksum must exercise bits above 31")

	got, err := bitmap.ParseHeader(h.Bytes())
	require.NoError(t, err)

	assert.Equal(t, h.Checksum, got.Checksum)
}

func TestHeaderChecksumValidRoundTrip(t *testing.T) {
	h := bitmap.NewHeader(16)

	got, err := bitmap.ParseHeader(h.Bytes())
	require.NoError(t, err)

	assert.True(t, got.ChecksumValid())
}

func TestHeaderParseRejectsShortBuffer(t *testing.T) {
	_, err := bitmap.ParseHeader(make([]byte, 10))
	require.Error(t, err)
}

func TestHeaderParseRejectsBadSignature(t *testing.T) {
	data := bitmap.NewHeader(8).Bytes()
	data[0] = 0x00

	_, err := bitmap.ParseHeader(data)
	require.Error(t, err)
}

func TestEntryRoundTrip(t *testing.T) {
	e := bitmap.Entry{ValueCount: 3, FirstBlock: 64, LastBlock: 192, ValueCountCheck: 3}
	got, err := bitmap.ParseEntry(e.Bytes())
	require.NoError(t, err)

	assert.Equal(t, e, got)
	assert.True(t, got.Committed())
}

func TestShardHashStableAndDistinct(t *testing.T) {
	a := bitmap.ShardHash("tags.host")
	b := bitmap.ShardHash("tags.host")
	c := bitmap.ShardHash("tags.region")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
