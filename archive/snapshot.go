package archive

import (
	"fmt"

	"github.com/colbase/tsmerge/errs"
	"github.com/colbase/tsmerge/format"
	"github.com/colbase/tsmerge/internal/pool"
	"github.com/colbase/tsmerge/vfs"
)

// headerSize is the fixed prefix written ahead of every archive's payload:
// a 1-byte magic, the CompressionType, and the uncompressed payload length
// (for callers that want to pre-size a decompression buffer).
const headerSize = 1 + 1 + 8

const magic = 0xA7

// snapshotBufPool stages the [header][compressed] byte sequence before it's
// copied into the mmap'd archive file, instead of allocating fresh on every
// snapshot.
var snapshotBufPool = pool.NewBufferPool(pool.SnapshotBufferSize, pool.SnapshotBufferMaxRetain)

// Snapshot compresses data with compressionType and writes a self-describing
// archive file to path: [magic][compressionType][uncompressedLen][payload].
// It is the O3 merge engine's cold-storage export path — run after a
// partition's merge completes and its files are closed, never on the
// copy-task critical path.
func Snapshot(fs vfs.FS, path string, data []byte, compressionType format.CompressionType) error {
	codec, err := CreateCodec(compressionType, "snapshot")
	if err != nil {
		return err
	}

	compressed, err := codec.Compress(data)
	if err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}

	buf := snapshotBufPool.Get()
	defer snapshotBufPool.Put(buf)

	var header [headerSize]byte
	header[0] = magic
	header[1] = byte(compressionType)
	le.PutUint64(header[2:10], uint64(len(data)))

	buf.Append(header[:])
	buf.Append(compressed)
	out := buf.Bytes()

	h, err := fs.Open(path)
	if err != nil {
		return err
	}

	if err := fs.Truncate(h, int64(len(out))); err != nil {
		return err
	}

	r, err := fs.Mmap(h, len(out))
	if err != nil {
		return err
	}

	copy(r.Bytes(), out)

	if err := fs.Munmap(r); err != nil {
		return err
	}

	return fs.Close(h)
}

// Restore reads an archive written by Snapshot and returns its decompressed
// payload.
func Restore(fs vfs.FS, path string) ([]byte, error) {
	h, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer fs.Close(h)

	size, err := fs.Size(h)
	if err != nil {
		return nil, err
	}

	if size < headerSize {
		return nil, fmt.Errorf("archive %s shorter than header: %w", path, errs.ErrShortKeyFile)
	}

	r, err := fs.Mmap(h, int(size))
	if err != nil {
		return nil, err
	}
	defer fs.Munmap(r)

	data := r.Bytes()
	if data[0] != magic {
		return nil, fmt.Errorf("archive %s: bad magic %#x: %w", path, data[0], errs.ErrBadSignature)
	}

	compressionType := format.CompressionType(data[1])

	codec, err := CreateCodec(compressionType, "restore")
	if err != nil {
		return nil, err
	}

	payload, err := codec.Decompress(data[headerSize:])
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}

	return payload, nil
}
