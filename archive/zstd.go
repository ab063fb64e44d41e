package archive

// ZstdCodec gives the best compression ratio of the built-in codecs, for
// partitions headed to long-term cold storage where decompression is rare.
// Its Compress/Decompress bodies live in zstd_pure.go (pure-Go
// klauspost/compress/zstd, the default) or zstd_cgo.go (cgo-backed
// valyala/gozstd, opt-in) depending on build tags.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

func NewZstdCodec() ZstdCodec { return ZstdCodec{} }
