package device

import (
	"fmt"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/coastalkit/flexmesh/compress"
	"github.com/coastalkit/flexmesh/endian"
	"github.com/coastalkit/flexmesh/errs"
	"github.com/coastalkit/flexmesh/internal/pool"
)

// frameHeadSize is the fixed per-block frame overhead: u32 payload length
// plus u64 checksum.
const frameHeadSize = 12

// FileBlockReader reads framed blocks from a seekable stream, typically an
// *os.File positioned anywhere; the data section starts at dataStart.
type FileBlockReader struct {
	r           io.ReadSeeker
	engine      endian.EndianEngine
	codec       compress.Codec
	dataStart   int64
	nSteps      int
	nItems      int
	blockValues int
	cursor      int
}

var _ BlockReader = (*FileBlockReader)(nil)

// NewFileBlockReader creates a reader over the data section of an open file.
// blockValues is the element count of every block. The cursor starts at the
// first block; the constructor seeks there.
func NewFileBlockReader(r io.ReadSeeker, dataStart int64, engine endian.EndianEngine, codec compress.Codec, nSteps, nItems, blockValues int) (*FileBlockReader, error) {
	br := &FileBlockReader{
		r:           r,
		engine:      engine,
		codec:       codec,
		dataStart:   dataStart,
		nSteps:      nSteps,
		nItems:      nItems,
		blockValues: blockValues,
	}

	if err := br.Rewind(); err != nil {
		return nil, err
	}

	return br, nil
}

// ReadBlock returns the values of block (step, item), skipping intermediate
// blocks without decoding them. Blocks before the cursor require a Rewind
// first.
func (br *FileBlockReader) ReadBlock(step, item int) ([]float32, error) {
	if step < 0 || step >= br.nSteps {
		return nil, fmt.Errorf("%w: time step index %d outside [0, %d)",
			errs.ErrIndexOutOfRange, step, br.nSteps)
	}
	if item < 0 || item >= br.nItems {
		return nil, fmt.Errorf("%w: item index %d outside [0, %d)",
			errs.ErrIndexOutOfRange, item, br.nItems)
	}

	ordinal := step*br.nItems + item
	if ordinal < br.cursor {
		return nil, fmt.Errorf("%w: block (%d, %d) is behind the stream cursor",
			errs.ErrBlockOutOfOrder, step, item)
	}

	for br.cursor < ordinal {
		if err := br.skipBlock(); err != nil {
			return nil, err
		}
	}

	length, sum, err := br.readFrameHead()
	if err != nil {
		return nil, err
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(br.r, payload); err != nil {
		return nil, fmt.Errorf("%w: truncated data block: %v", errs.ErrIOFailure, err)
	}

	if xxhash.Sum64(payload) != sum {
		return nil, fmt.Errorf("%w: block (%d, %d)", errs.ErrChecksumMismatch, step, item)
	}

	raw, err := br.codec.Decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: block (%d, %d): %v", errs.ErrIOFailure, step, item, err)
	}

	if len(raw) != 4*br.blockValues {
		return nil, fmt.Errorf("%w: block (%d, %d) decodes to %d bytes, want %d",
			errs.ErrIOFailure, step, item, len(raw), 4*br.blockValues)
	}

	values := make([]float32, br.blockValues)
	for i := range values {
		values[i] = math.Float32frombits(br.engine.Uint32(raw[4*i:]))
	}

	br.cursor = ordinal + 1

	return values, nil
}

// Rewind repositions the stream at the first data block.
func (br *FileBlockReader) Rewind() error {
	if _, err := br.r.Seek(br.dataStart, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIOFailure, err)
	}
	br.cursor = 0

	return nil
}

// Close closes the underlying handle when it supports closing.
func (br *FileBlockReader) Close() error {
	if c, ok := br.r.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIOFailure, err)
		}
	}

	return nil
}

// skipBlock advances past the next block without decoding its payload.
func (br *FileBlockReader) skipBlock() error {
	length, _, err := br.readFrameHead()
	if err != nil {
		return err
	}

	if _, err := br.r.Seek(int64(length), io.SeekCurrent); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIOFailure, err)
	}
	br.cursor++

	return nil
}

func (br *FileBlockReader) readFrameHead() (uint32, uint64, error) {
	var head [frameHeadSize]byte
	if _, err := io.ReadFull(br.r, head[:]); err != nil {
		return 0, 0, fmt.Errorf("%w: truncated block frame: %v", errs.ErrIOFailure, err)
	}

	return br.engine.Uint32(head[:4]), br.engine.Uint64(head[4:]), nil
}

// FileBlockWriter appends framed blocks to a stream in strict order. The
// caller owns buffering and flushing of the underlying writer.
type FileBlockWriter struct {
	w           io.Writer
	engine      endian.EndianEngine
	codec       compress.Codec
	nItems      int
	blockValues int
	cursor      int
}

var _ BlockWriter = (*FileBlockWriter)(nil)

// NewFileBlockWriter creates a writer appending blocks of blockValues values
// each, nItems blocks per time step.
func NewFileBlockWriter(w io.Writer, engine endian.EndianEngine, codec compress.Codec, nItems, blockValues int) *FileBlockWriter {
	return &FileBlockWriter{
		w:           w,
		engine:      engine,
		codec:       codec,
		nItems:      nItems,
		blockValues: blockValues,
	}
}

// WriteBlock appends block (step, item). Blocks must arrive in ascending
// (step, item) order with no gaps.
func (bw *FileBlockWriter) WriteBlock(step, item int, values []float32) error {
	ordinal := step*bw.nItems + item
	if ordinal != bw.cursor {
		return fmt.Errorf("%w: block (%d, %d) written at stream position %d",
			errs.ErrBlockOutOfOrder, step, item, bw.cursor)
	}
	if len(values) != bw.blockValues {
		return fmt.Errorf("%w: block (%d, %d) has %d values, want %d",
			errs.ErrShapeMismatch, step, item, len(values), bw.blockValues)
	}

	bb := pool.GetBlockBuffer()
	defer pool.PutBlockBuffer(bb)

	buf := bb.B
	for _, v := range values {
		buf = bw.engine.AppendUint32(buf, math.Float32bits(v))
	}
	bb.B = buf

	payload, err := bw.codec.Compress(buf)
	if err != nil {
		return fmt.Errorf("%w: block (%d, %d): %v", errs.ErrIOFailure, step, item, err)
	}

	var head [frameHeadSize]byte
	bw.engine.PutUint32(head[:4], uint32(len(payload)))
	bw.engine.PutUint64(head[4:], xxhash.Sum64(payload))

	if _, err := bw.w.Write(head[:]); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIOFailure, err)
	}
	if _, err := bw.w.Write(payload); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIOFailure, err)
	}

	bw.cursor = ordinal + 1

	return nil
}
