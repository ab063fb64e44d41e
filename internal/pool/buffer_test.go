package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferAppendAndReset(t *testing.T) {
	var b Buffer

	b.Append([]byte{1, 2, 3})
	b.Append([]byte{4})

	assert.Equal(t, []byte{1, 2, 3, 4}, b.Bytes())
	assert.Equal(t, 4, b.Len())

	b.Reset()
	assert.Zero(t, b.Len())
}

func TestBufferPoolReusesReset(t *testing.T) {
	p := NewBufferPool(16, 1024)

	buf := p.Get()
	buf.Append([]byte("stale contents"))
	p.Put(buf)

	got := p.Get()
	assert.Zero(t, got.Len(), "pooled buffer must come back empty")
}

func TestBufferPoolDropsOversized(t *testing.T) {
	p := NewBufferPool(16, 32)

	buf := p.Get()
	buf.Append(make([]byte, 1024))
	require.Greater(t, cap(buf.Bytes()), 32)

	// Must not panic; the oversized buffer is simply discarded.
	p.Put(buf)
	p.Put(nil)
}
