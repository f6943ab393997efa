package pool

import "sync"

const (
	// HeaderBufferDefaultSize is the initial capacity of buffers used for
	// header encoding. Headers carry the full node and element tables, so
	// they dominate buffer sizes for small meshes.
	HeaderBufferDefaultSize  = 1024 * 64   // 64KiB
	HeaderBufferMaxThreshold = 1024 * 1024 // 1MiB

	// BlockBufferDefaultSize is the initial capacity of buffers used for
	// encoding one data block (one item at one time step).
	BlockBufferDefaultSize  = 1024 * 16  // 16KiB
	BlockBufferMaxThreshold = 1024 * 256 // 256KiB
)

// ByteBuffer is a reusable byte buffer with explicit growth control.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// Grow ensures the buffer has capacity for at least n more bytes.
// Small buffers grow by a fixed chunk, larger buffers by 25% of capacity,
// which amortizes reallocations under repeated appends.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}

	grow := 256
	if cap(bb.B) > 4096 {
		grow = cap(bb.B) / 4
	}
	if grow < n {
		grow = n
	}

	nb := make([]byte, len(bb.B), cap(bb.B)+grow)
	copy(nb, bb.B)
	bb.B = nb
}

var headerBufferPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(HeaderBufferDefaultSize)
	},
}

var blockBufferPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(BlockBufferDefaultSize)
	},
}

// GetHeaderBuffer returns a pooled buffer sized for header encoding.
func GetHeaderBuffer() *ByteBuffer {
	bb, _ := headerBufferPool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// PutHeaderBuffer returns a header buffer to the pool. Oversized buffers are
// dropped instead of retained.
func PutHeaderBuffer(bb *ByteBuffer) {
	if bb == nil || bb.Cap() > HeaderBufferMaxThreshold {
		return
	}
	headerBufferPool.Put(bb)
}

// GetBlockBuffer returns a pooled buffer sized for data-block encoding.
func GetBlockBuffer() *ByteBuffer {
	bb, _ := blockBufferPool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// PutBlockBuffer returns a block buffer to the pool. Oversized buffers are
// dropped instead of retained.
func PutBlockBuffer(bb *ByteBuffer) {
	if bb == nil || bb.Cap() > BlockBufferMaxThreshold {
		return
	}
	blockBufferPool.Put(bb)
}
