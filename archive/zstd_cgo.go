//go:build cgo && use_gozstd

package archive

import "github.com/valyala/gozstd"

// Compress is the cgo-backed alternative to zstd_pure.go, opted into via
// the use_gozstd build tag for deployments that can pay the cgo cost for
// gozstd's faster native encoder.
func (c ZstdCodec) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, 3), nil
}

func (c ZstdCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, data)
}
