// Package format holds the small typed enums shared across the engine:
// column storage shapes, copy-task block provenance, fixed-width size
// classes, and snapshot compression codecs.
package format

import "fmt"

// CompressionType selects the codec the archive package runs over a
// partition snapshot. The value is recorded in the archive header, so the
// numeric assignments are part of the on-disk format.
type CompressionType uint8

const (
	// CompressionNone stores the snapshot payload uncompressed.
	CompressionNone CompressionType = 0x1
	// CompressionZstd selects Zstandard, the best ratio of the built-ins.
	CompressionZstd CompressionType = 0x2
	// CompressionS2 selects S2, the fastest of the built-ins.
	CompressionS2 CompressionType = 0x3
	// CompressionLZ4 selects LZ4, favoring decompression speed.
	CompressionLZ4 CompressionType = 0x4
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return fmt.Sprintf("CompressionType(%d)", uint8(c))
	}
}

// IsValid reports whether c names a built-in codec.
func (c CompressionType) IsValid() bool {
	return c >= CompressionNone && c <= CompressionLZ4
}
