// Package endian pins the byte order for everything this module persists.
//
// Column files, bitmap index headers and entries, and archive headers are
// all little-endian, so the packages that serialize them share one
// little-endian engine rather than calling encoding/binary with an
// explicit order at every site:
//
//	var le = endian.GetLittleEndianEngine()
//	v := le.Uint64(buf)
//
// GetBigEndianEngine exists for symmetry and tests; nothing in the on-disk
// format is big-endian.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines the ByteOrder and AppendByteOrder interfaces from
// encoding/binary, so one value covers fixed-offset reads/writes and
// append-style encoding. binary.LittleEndian and binary.BigEndian both
// satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine, the byte order of
// every file this module writes.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// Native returns the host's byte order, probed by inspecting the in-memory
// layout of a known 16-bit value.
func Native() binary.ByteOrder {
	v := uint16(0x0100)
	b := (*[2]byte)(unsafe.Pointer(&v))

	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host stores integers
// little-endian, i.e. whether mmap'd column files can be read back without
// byte swapping.
func IsNativeLittleEndian() bool {
	return Native() == binary.LittleEndian
}
