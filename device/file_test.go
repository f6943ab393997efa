package device

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coastalkit/flexmesh/compress"
	"github.com/coastalkit/flexmesh/endian"
	"github.com/coastalkit/flexmesh/errs"
	"github.com/coastalkit/flexmesh/format"
)

const (
	testSteps  = 3
	testItems  = 2
	testValues = 4
)

func blockValues(step, item int) []float32 {
	values := make([]float32, testValues)
	for e := range values {
		values[e] = float32(100*step + 10*item + e)
	}

	return values
}

// writeStream writes the full (step, item) block grid after prefix bytes and
// returns the stream contents.
func writeStream(t *testing.T, codec compress.Codec, prefix []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(prefix)

	bw := NewFileBlockWriter(&buf, endian.GetLittleEndianEngine(), codec, testItems, testValues)
	for step := 0; step < testSteps; step++ {
		for item := 0; item < testItems; item++ {
			require.NoError(t, bw.WriteBlock(step, item, blockValues(step, item)))
		}
	}

	return buf.Bytes()
}

func newReader(t *testing.T, stream []byte, codec compress.Codec, dataStart int64) *FileBlockReader {
	t.Helper()

	br, err := NewFileBlockReader(bytes.NewReader(stream), dataStart, endian.GetLittleEndianEngine(), codec, testSteps, testItems, testValues)
	require.NoError(t, err)

	return br
}

func TestBlockRoundTrip(t *testing.T) {
	codecs := map[string]format.CompressionType{
		"None": format.CompressionNone,
		"Zstd": format.CompressionZstd,
		"S2":   format.CompressionS2,
		"LZ4":  format.CompressionLZ4,
	}

	for name, typ := range codecs {
		t.Run(name, func(t *testing.T) {
			codec, err := compress.GetCodec(typ)
			require.NoError(t, err)

			prefix := []byte("header bytes")
			stream := writeStream(t, codec, prefix)
			br := newReader(t, stream, codec, int64(len(prefix)))

			for step := 0; step < testSteps; step++ {
				for item := 0; item < testItems; item++ {
					values, err := br.ReadBlock(step, item)
					require.NoError(t, err)
					require.Equal(t, blockValues(step, item), values)
				}
			}
		})
	}
}

func TestReadBlockSkips(t *testing.T) {
	codec, err := compress.GetCodec(format.CompressionS2)
	require.NoError(t, err)

	stream := writeStream(t, codec, nil)
	br := newReader(t, stream, codec, 0)

	// Jumping straight to the last block skips everything before it.
	values, err := br.ReadBlock(2, 1)
	require.NoError(t, err)
	require.Equal(t, blockValues(2, 1), values)
}

func TestReadBlockOrdering(t *testing.T) {
	codec, err := compress.GetCodec(format.CompressionNone)
	require.NoError(t, err)

	stream := writeStream(t, codec, nil)
	br := newReader(t, stream, codec, 0)

	_, err = br.ReadBlock(1, 0)
	require.NoError(t, err)

	// The stream is forward-only.
	_, err = br.ReadBlock(0, 1)
	require.ErrorIs(t, err, errs.ErrBlockOutOfOrder)

	// Rewind resets the cursor to the first block.
	require.NoError(t, br.Rewind())
	values, err := br.ReadBlock(0, 1)
	require.NoError(t, err)
	require.Equal(t, blockValues(0, 1), values)
}

func TestReadBlockBounds(t *testing.T) {
	codec, err := compress.GetCodec(format.CompressionNone)
	require.NoError(t, err)

	stream := writeStream(t, codec, nil)
	br := newReader(t, stream, codec, 0)

	_, err = br.ReadBlock(testSteps, 0)
	require.ErrorIs(t, err, errs.ErrIndexOutOfRange)
	_, err = br.ReadBlock(0, testItems)
	require.ErrorIs(t, err, errs.ErrIndexOutOfRange)
	_, err = br.ReadBlock(-1, 0)
	require.ErrorIs(t, err, errs.ErrIndexOutOfRange)
}

func TestReadBlockChecksum(t *testing.T) {
	codec, err := compress.GetCodec(format.CompressionNone)
	require.NoError(t, err)

	stream := writeStream(t, codec, nil)

	// Flip one payload byte of the first block; its frame head holds the
	// checksum of the untouched payload.
	stream[frameHeadSize] ^= 0xFF

	br := newReader(t, stream, codec, 0)
	_, err = br.ReadBlock(0, 0)
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)
}

func TestReadBlockTruncated(t *testing.T) {
	codec, err := compress.GetCodec(format.CompressionNone)
	require.NoError(t, err)

	stream := writeStream(t, codec, nil)
	br := newReader(t, stream[:len(stream)-2], codec, 0)

	_, err = br.ReadBlock(testSteps-1, testItems-1)
	require.ErrorIs(t, err, errs.ErrIOFailure)
}

func TestWriteBlockOrdering(t *testing.T) {
	codec, err := compress.GetCodec(format.CompressionNone)
	require.NoError(t, err)

	var buf bytes.Buffer
	bw := NewFileBlockWriter(&buf, endian.GetLittleEndianEngine(), codec, testItems, testValues)

	require.NoError(t, bw.WriteBlock(0, 0, blockValues(0, 0)))

	// No gaps, no repeats.
	err = bw.WriteBlock(1, 0, blockValues(1, 0))
	require.ErrorIs(t, err, errs.ErrBlockOutOfOrder)
	err = bw.WriteBlock(0, 0, blockValues(0, 0))
	require.ErrorIs(t, err, errs.ErrBlockOutOfOrder)
}

func TestWriteBlockShape(t *testing.T) {
	codec, err := compress.GetCodec(format.CompressionNone)
	require.NoError(t, err)

	var buf bytes.Buffer
	bw := NewFileBlockWriter(&buf, endian.GetLittleEndianEngine(), codec, testItems, testValues)

	err = bw.WriteBlock(0, 0, []float32{1, 2})
	require.ErrorIs(t, err, errs.ErrShapeMismatch)
}

func TestBigEndianStream(t *testing.T) {
	codec, err := compress.GetCodec(format.CompressionNone)
	require.NoError(t, err)

	engine := endian.GetBigEndianEngine()

	var buf bytes.Buffer
	bw := NewFileBlockWriter(&buf, engine, codec, 1, testValues)
	require.NoError(t, bw.WriteBlock(0, 0, blockValues(0, 0)))

	br, err := NewFileBlockReader(bytes.NewReader(buf.Bytes()), 0, engine, codec, 1, 1, testValues)
	require.NoError(t, err)

	values, err := br.ReadBlock(0, 0)
	require.NoError(t, err)
	require.Equal(t, blockValues(0, 0), values)
}
