// Package compress provides the block codecs of the flexmesh format.
//
// Data blocks (one item at one time step, element-axis float32 values) are run
// through a Codec before framing. The codec is chosen per file and recorded in
// the header flag, so readers pick the matching codec without configuration.
//
// Available codecs:
//   - None: no compression (fastest, largest)
//   - Zstd: best ratio, moderate speed
//   - S2: balanced ratio and speed
//   - LZ4: fast decompression, moderate ratio
package compress

import (
	"fmt"

	"github.com/coastalkit/flexmesh/format"
)

// Compressor compresses one data-block payload.
//
// Memory management:
//   - The returned slice is newly allocated and owned by the caller
//     (the no-op codec returns the input unchanged).
//   - The input slice is not modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a data-block payload compressed by the matching
// Compressor. It validates the payload format and returns an error for
// corrupted or mismatched data.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines compression and decompression.
//
// All built-in codecs are stateless values and safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	codec, ok := builtinCodecs[compressionType]
	if !ok {
		return nil, fmt.Errorf("invalid block compression: %s", compressionType)
	}

	return codec, nil
}
