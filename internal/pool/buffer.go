// Package pool recycles the staging buffers the archive path assembles
// snapshot bytes in, so repeated exports don't allocate a fresh multi-MB
// slice each time.
package pool

import "sync"

// SnapshotBufferSize is the initial capacity of a pooled staging buffer,
// sized for a typical compressed partition snapshot.
const SnapshotBufferSize = 64 * 1024

// SnapshotBufferMaxRetain caps the capacity of buffers returned to the
// pool; anything larger is dropped so one huge snapshot doesn't pin its
// allocation forever.
const SnapshotBufferMaxRetain = 8 * 1024 * 1024

// Buffer is a reusable append-only byte buffer obtained from a BufferPool.
type Buffer struct {
	b []byte
}

// Append appends p to the buffer.
func (b *Buffer) Append(p []byte) {
	b.b = append(b.b, p...)
}

// Bytes returns the accumulated bytes. The slice is only valid until the
// buffer is returned to its pool.
func (b *Buffer) Bytes() []byte {
	return b.b
}

// Len returns the number of accumulated bytes.
func (b *Buffer) Len() int {
	return len(b.b)
}

// Reset truncates the buffer to zero length, keeping its capacity.
func (b *Buffer) Reset() {
	b.b = b.b[:0]
}

// BufferPool hands out reset Buffers backed by sync.Pool.
type BufferPool struct {
	pool      sync.Pool
	maxRetain int
}

// NewBufferPool creates a pool whose fresh buffers start at defaultSize
// capacity and whose returned buffers are retained only up to maxRetain
// capacity.
func NewBufferPool(defaultSize, maxRetain int) *BufferPool {
	p := &BufferPool{maxRetain: maxRetain}
	p.pool.New = func() any {
		return &Buffer{b: make([]byte, 0, defaultSize)}
	}

	return p
}

// Get returns an empty buffer, reusing a previously returned one when
// available.
func (p *BufferPool) Get() *Buffer {
	buf := p.pool.Get().(*Buffer)
	buf.Reset()

	return buf
}

// Put returns buf to the pool. Buffers grown past the retain cap are
// dropped.
func (p *BufferPool) Put(buf *Buffer) {
	if buf == nil || cap(buf.b) > p.maxRetain {
		return
	}

	p.pool.Put(buf)
}
