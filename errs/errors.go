// Package errs defines the sentinel errors shared across the flexmesh packages.
//
// Callers should test error kinds with errors.Is; most errors returned by the
// library wrap one of these sentinels with additional context via fmt.Errorf
// and the %w verb.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptHeader indicates the file header could not be parsed or its
	// magic/version markers do not match a known format revision.
	ErrCorruptHeader = errors.New("corrupt file header")

	// ErrUnknownItem indicates an item name did not exactly match any item
	// in the catalog.
	ErrUnknownItem = errors.New("unknown item")

	// ErrIndexOutOfRange indicates a time-step or element index outside the
	// valid bounds of the axis it addresses.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrShapeMismatch indicates a dataset array shape that disagrees with
	// the target geometry or item catalog at write time.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrUnsupportedTimeAxis indicates a time axis the on-disk format cannot
	// represent, e.g. non-equidistant step spacing supplied to the writer.
	ErrUnsupportedTimeAxis = errors.New("unsupported time axis")

	// ErrIOFailure indicates an error reported by the underlying block device.
	ErrIOFailure = errors.New("i/o failure")
)

// Header-level sentinels. Each wraps ErrCorruptHeader so that callers checking
// for the coarse kind still match.
var (
	ErrInvalidHeaderSize  = fmt.Errorf("%w: invalid header size", ErrCorruptHeader)
	ErrInvalidMagicNumber = fmt.Errorf("%w: invalid magic number", ErrCorruptHeader)
	ErrInvalidElementType = fmt.Errorf("%w: invalid element type", ErrCorruptHeader)
)

// Device-level sentinels.
var (
	// ErrChecksumMismatch indicates a data block whose stored checksum does
	// not match its payload.
	ErrChecksumMismatch = errors.New("block checksum mismatch")

	// ErrBlockOutOfOrder indicates a block access that violates the strict
	// (time-step, item) stream order of the format. Readers must Rewind
	// before revisiting earlier blocks.
	ErrBlockOutOfOrder = errors.New("block access out of stream order")
)

// Geometry construction sentinels.
var (
	// ErrInvalidNodeRef indicates an element referencing a node id outside
	// the node table.
	ErrInvalidNodeRef = errors.New("element references unknown node")
)
