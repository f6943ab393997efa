// Package device implements the sequential binary block device the flexmesh
// reader and writer operate on.
//
// The data section of a file is a stream of framed blocks in strict
// (time-step, item) nested order, one block per item per step, each holding
// the element-axis float32 values. The format has no random-access index, so
// readers traverse the stream in file order; the frame layout makes skipping
// an unwanted block a single seek.
//
// Frame layout: u32 payload length, u64 xxHash64 of the payload, payload.
// The payload is the little/big-endian float32 block run through the file's
// block codec.
//
// A device handle is not safe for concurrent use; a single reader or writer
// must own it for the duration of one read or write call.
package device

// BlockReader reads data blocks from the stream. Access is forward-only:
// requesting a block earlier than the cursor fails with ErrBlockOutOfOrder
// until Rewind is called.
type BlockReader interface {
	// ReadBlock returns the element-axis values of the given item at the
	// given time step, skipping any intermediate blocks.
	ReadBlock(step, item int) ([]float32, error)

	// Rewind repositions the cursor at the first data block.
	Rewind() error

	// Close releases the underlying handle.
	Close() error
}

// BlockWriter appends data blocks to the stream. Blocks must be written in
// strict (time-step, item) nested order with no gaps.
type BlockWriter interface {
	WriteBlock(step, item int, values []float32) error
}
