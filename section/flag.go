package section

import (
	"fmt"

	"github.com/coastalkit/flexmesh/endian"
	"github.com/coastalkit/flexmesh/errs"
	"github.com/coastalkit/flexmesh/format"
)

const (
	// Bit masks for the packed Options field.
	EndiannessMask   = 0x0001 // endianness bit (bit 0): 0=little, 1=big
	GeoMask          = 0x0002 // geographic-coordinates bit (bit 1)
	ReservedBitsMask = 0x000C // reserved bits (bits 2-3), must be zero
	MagicNumberMask  = 0xFFF0 // magic number (bits 4-15)

	// MagicFlexMeshV1Opt is the version 1 magic number of the flexmesh file
	// format, stored in bits 4-15 of the Options field.
	MagicFlexMeshV1Opt = 0xF3D0

	// FlagSize is the encoded size of the FileFlag in bytes.
	FlagSize = 4
)

// FileFlag is the packed leading word of the file header. It carries the magic
// number, the byte order of everything that follows, the coordinate-system
// kind and the data-block compression type.
type FileFlag struct {
	// Options is a packed field.
	// Bit 0 is the endianness flag, 0 means little-endian, 1 means big-endian.
	// Bit 1 is the geographic flag, 1 means lon/lat coordinates.
	// Bits 2-3 are reserved and must be zero.
	// Bits 4-15 are the magic number identifying the format revision:
	//   - 0xF3D0: flexmesh file format v1
	Options uint16

	// Compression is the block compression applied to every data block.
	Compression uint8

	// Reserved must be zero.
	Reserved uint8
}

var validCompressions = map[uint8]struct{}{
	uint8(format.CompressionNone): {},
	uint8(format.CompressionZstd): {},
	uint8(format.CompressionS2):   {},
	uint8(format.CompressionLZ4):  {},
}

// NewFileFlag creates a v1 flag with little-endian byte order and no
// compression.
func NewFileFlag() FileFlag {
	return FileFlag{
		Options:     MagicFlexMeshV1Opt,
		Compression: uint8(format.CompressionNone),
	}
}

// ParseFileFlag decodes and validates a flag from the first FlagSize bytes of
// a file. The Options field itself is always little-endian, regardless of the
// byte order it declares for the rest of the header.
func ParseFileFlag(data []byte) (FileFlag, error) {
	if len(data) < FlagSize {
		return FileFlag{}, errs.ErrInvalidHeaderSize
	}

	flag := FileFlag{
		Options:     uint16(data[0]) | uint16(data[1])<<8,
		Compression: data[2],
		Reserved:    data[3],
	}

	if err := flag.Validate(); err != nil {
		return FileFlag{}, err
	}

	return flag, nil
}

// Validate checks the magic number, reserved bits and compression type.
func (f FileFlag) Validate() error {
	if f.Options&MagicNumberMask != MagicFlexMeshV1Opt {
		return fmt.Errorf("%w: 0x%04X", errs.ErrInvalidMagicNumber, f.Options&MagicNumberMask)
	}

	if f.Options&ReservedBitsMask != 0 || f.Reserved != 0 {
		return fmt.Errorf("%w: reserved bits set", errs.ErrCorruptHeader)
	}

	if _, ok := validCompressions[f.Compression]; !ok {
		return fmt.Errorf("%w: unknown block compression 0x%02X", errs.ErrCorruptHeader, f.Compression)
	}

	return nil
}

// Encode appends the flag to buf in its fixed on-disk layout.
func (f FileFlag) Encode(buf []byte) []byte {
	return append(buf,
		byte(f.Options),
		byte(f.Options>>8),
		f.Compression,
		f.Reserved,
	)
}

// IsBigEndian reports the declared byte order of the header body and data
// blocks.
func (f FileFlag) IsBigEndian() bool {
	return f.Options&EndiannessMask != 0
}

// Engine returns the endian engine matching the declared byte order.
func (f FileFlag) Engine() endian.EndianEngine {
	if f.IsBigEndian() {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}

// WithBigEndian returns a copy of the flag with the endianness bit set
// accordingly.
func (f FileFlag) WithBigEndian(big bool) FileFlag {
	if big {
		f.Options |= EndiannessMask
	} else {
		f.Options &^= EndiannessMask
	}

	return f
}

// IsGeo reports whether node coordinates are geographic lon/lat.
func (f FileFlag) IsGeo() bool {
	return f.Options&GeoMask != 0
}

// WithGeo returns a copy of the flag with the geographic bit set accordingly.
func (f FileFlag) WithGeo(geo bool) FileFlag {
	if geo {
		f.Options |= GeoMask
	} else {
		f.Options &^= GeoMask
	}

	return f
}

// CompressionType returns the block compression type.
func (f FileFlag) CompressionType() format.CompressionType {
	return format.CompressionType(f.Compression)
}

// WithCompression returns a copy of the flag with the given block compression.
func (f FileFlag) WithCompression(c format.CompressionType) FileFlag {
	f.Compression = uint8(c)

	return f
}
