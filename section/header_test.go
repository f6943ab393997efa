package section

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coastalkit/flexmesh/errs"
	"github.com/coastalkit/flexmesh/format"
)

func testHeader() *Header {
	start := time.Date(2020, 3, 11, 12, 0, 0, 0, time.UTC)

	return &Header{
		Flag:       NewFileFlag().WithCompression(format.CompressionS2),
		Projection: "UTM-33",
		Nodes: []NodeRecord{
			{X: 0, Y: 0, Z: -10, Code: 1},
			{X: 100, Y: 0, Z: -10, Code: 1},
			{X: 100, Y: 100, Z: -12, Code: 0},
			{X: 0, Y: 100, Z: -12, Code: 2},
		},
		Elements: []ElementRecord{
			{Type: format.ElemTri3, Nodes: []uint32{1, 2, 3}},
			{Type: format.ElemTri3, Nodes: []uint32{1, 3, 4}},
		},
		Items: []ItemRecord{
			{Name: "Surface elevation", Unit: "meter", ValueType: format.ValueInstantaneous},
			{Name: "Current speed", Unit: "meter per sec", ValueType: format.ValueInstantaneous},
		},
		StartTime:  start.UnixMicro(),
		StepMicros: int64(time.Hour / time.Microsecond),
		StepCount:  9,
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	t.Run("2D", func(t *testing.T) {
		hdr := testHeader()

		data, err := hdr.Encode()
		require.NoError(t, err)

		parsed, err := ParseHeader(data)
		require.NoError(t, err)
		require.Equal(t, hdr, parsed)

		size, err := Size(data)
		require.NoError(t, err)
		require.Equal(t, len(data), size)
	})

	t.Run("3DLayered", func(t *testing.T) {
		hdr := testHeader()
		hdr.Elements = []ElementRecord{
			{Type: format.ElemPrism6, Nodes: []uint32{1, 2, 3, 1, 2, 3}},
			{Type: format.ElemPrism6, Nodes: []uint32{1, 2, 3, 1, 2, 3}},
		}
		hdr.NLayers = 2
		hdr.NSigma = 2
		hdr.LayerIndex = []uint32{0, 1}

		data, err := hdr.Encode()
		require.NoError(t, err)

		parsed, err := ParseHeader(data)
		require.NoError(t, err)
		require.Equal(t, hdr, parsed)
	})

	t.Run("BigEndian", func(t *testing.T) {
		hdr := testHeader()
		hdr.Flag = hdr.Flag.WithBigEndian(true)

		data, err := hdr.Encode()
		require.NoError(t, err)

		parsed, err := ParseHeader(data)
		require.NoError(t, err)
		require.Equal(t, hdr, parsed)
		require.True(t, parsed.Flag.IsBigEndian())
	})
}

func TestHeaderParseErrors(t *testing.T) {
	t.Run("TooShort", func(t *testing.T) {
		_, err := ParseHeader([]byte{0x01})
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
		require.ErrorIs(t, err, errs.ErrCorruptHeader)
	})

	t.Run("BadMagic", func(t *testing.T) {
		hdr := testHeader()
		data, err := hdr.Encode()
		require.NoError(t, err)

		data[1] = 0x00 // clobber the magic bits

		_, err = ParseHeader(data)
		require.ErrorIs(t, err, errs.ErrInvalidMagicNumber)
		require.ErrorIs(t, err, errs.ErrCorruptHeader)
	})

	t.Run("TruncatedBody", func(t *testing.T) {
		hdr := testHeader()
		data, err := hdr.Encode()
		require.NoError(t, err)

		_, err = ParseHeader(data[:len(data)-4])
		require.ErrorIs(t, err, errs.ErrCorruptHeader)
	})

	t.Run("HugeNodeCount", func(t *testing.T) {
		// A tiny body declaring millions of nodes must fail the count bound,
		// not size an allocation by the declared count.
		flag := NewFileFlag()
		raw := flag.Encode(nil)
		raw = flag.Engine().AppendUint32(raw, 9) // body length
		raw = append(raw, 0)                     // empty projection
		raw = flag.Engine().AppendUint32(raw, 10_000_000)
		raw = flag.Engine().AppendUint32(raw, 1)
		require.Len(t, raw, 17)

		_, err := ParseHeader(raw)
		require.ErrorIs(t, err, errs.ErrCorruptHeader)
	})

	t.Run("HugeElementCount", func(t *testing.T) {
		flag := NewFileFlag()
		raw := flag.Encode(nil)
		raw = flag.Engine().AppendUint32(raw, 9)
		raw = append(raw, 0)
		raw = flag.Engine().AppendUint32(raw, 0)
		raw = flag.Engine().AppendUint32(raw, 0xFFFFFFFF)

		_, err := ParseHeader(raw)
		require.ErrorIs(t, err, errs.ErrCorruptHeader)
	})

	t.Run("LayerIndexOutOfRange", func(t *testing.T) {
		hdr := testHeader()
		hdr.Elements = []ElementRecord{
			{Type: format.ElemPrism6, Nodes: []uint32{1, 2, 3, 1, 2, 3}},
			{Type: format.ElemPrism6, Nodes: []uint32{1, 2, 3, 1, 2, 3}},
		}
		hdr.NLayers = 2
		hdr.NSigma = 2
		hdr.LayerIndex = []uint32{0, 5}

		data, err := hdr.Encode()
		require.NoError(t, err)

		_, err = ParseHeader(data)
		require.ErrorIs(t, err, errs.ErrCorruptHeader)
	})

	t.Run("UnknownElementType", func(t *testing.T) {
		hdr := testHeader()
		hdr.Elements[0].Type = format.ElementType(0x7F)

		_, err := hdr.Encode()
		require.ErrorIs(t, err, errs.ErrInvalidElementType)
	})

	t.Run("NodeCountMismatch", func(t *testing.T) {
		hdr := testHeader()
		hdr.Elements[0].Nodes = []uint32{1, 2}

		_, err := hdr.Encode()
		require.ErrorIs(t, err, errs.ErrInvalidElementType)
	})
}

func TestFileFlag(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		flag := NewFileFlag()
		require.NoError(t, flag.Validate())
		require.False(t, flag.IsBigEndian())
		require.False(t, flag.IsGeo())
		require.Equal(t, format.CompressionNone, flag.CompressionType())
	})

	t.Run("RoundTrip", func(t *testing.T) {
		flag := NewFileFlag().
			WithGeo(true).
			WithCompression(format.CompressionLZ4)

		parsed, err := ParseFileFlag(flag.Encode(nil))
		require.NoError(t, err)
		require.Equal(t, flag, parsed)
		require.True(t, parsed.IsGeo())
		require.Equal(t, format.CompressionLZ4, parsed.CompressionType())
	})

	t.Run("ReservedBits", func(t *testing.T) {
		flag := NewFileFlag()
		flag.Options |= 0x0004

		_, err := ParseFileFlag(flag.Encode(nil))
		require.ErrorIs(t, err, errs.ErrCorruptHeader)
	})

	t.Run("UnknownCompression", func(t *testing.T) {
		flag := NewFileFlag().WithCompression(format.CompressionType(0x7E))
		_, err := ParseFileFlag(flag.Encode(nil))
		require.ErrorIs(t, err, errs.ErrCorruptHeader)
	})
}

func TestVarString(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		buf, err := AppendVarString(nil, "Surface elevation")
		require.NoError(t, err)

		s, next, err := ReadVarString(buf, 0)
		require.NoError(t, err)
		require.Equal(t, "Surface elevation", s)
		require.Equal(t, len(buf), next)
	})

	t.Run("Empty", func(t *testing.T) {
		buf, err := AppendVarString(nil, "")
		require.NoError(t, err)
		require.Equal(t, []byte{0}, buf)

		s, next, err := ReadVarString(buf, 0)
		require.NoError(t, err)
		require.Equal(t, "", s)
		require.Equal(t, 1, next)
	})

	t.Run("TooLong", func(t *testing.T) {
		long := make([]byte, MaxStringLength+1)
		_, err := AppendVarString(nil, string(long))
		require.Error(t, err)
	})

	t.Run("Truncated", func(t *testing.T) {
		buf, err := AppendVarString(nil, "abc")
		require.NoError(t, err)

		_, _, err = ReadVarString(buf[:2], 0)
		require.ErrorIs(t, err, errs.ErrCorruptHeader)
	})
}
