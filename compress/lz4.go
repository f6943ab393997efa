package compress

import (
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances for reuse.
// The lz4.Compressor maintains internal state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor compresses blocks with LZ4 block format. Decompression is
// very fast, which suits the read-dominated access pattern of result files.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input data using the LZ4 block format.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Incompressible input: CompressBlock signals this with n == 0.
		// Store raw with a zero-byte marker stripped by Decompress.
		out := make([]byte, len(data)+1)
		out[0] = 0
		copy(out[1:], data)

		return out, nil
	}

	out := make([]byte, n+1)
	out[0] = 1
	copy(out[1:], dst[:n])

	return out, nil
}

// Decompress decompresses the input data using the LZ4 block format.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == 0 {
		out := make([]byte, len(data)-1)
		copy(out, data[1:])

		return out, nil
	}

	payload := data[1:]

	// Element blocks compress at modest ratios; grow the guess until the
	// block fits.
	size := 4 * len(payload)
	for {
		dst := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, dst)
		if err == nil {
			return dst[:n], nil
		}
		if size > 1<<30 {
			return nil, err
		}
		size *= 2
	}
}
