// Package section implements the on-disk header of the flexmesh file format.
//
// A file starts with a fixed 4-byte FileFlag, a 4-byte body length, and the
// header body: projection string, node table, element table, layer section,
// item descriptors and time-axis parameters. The sequential data-block stream
// follows immediately after the header.
package section

import (
	"fmt"
	"math"

	"github.com/coastalkit/flexmesh/endian"
	"github.com/coastalkit/flexmesh/errs"
	"github.com/coastalkit/flexmesh/format"
	"github.com/coastalkit/flexmesh/internal/pool"
)

// HeaderPrefixSize is the size of the flag plus the body-length field.
const HeaderPrefixSize = FlagSize + 4

// Minimum encoded record sizes, used to bound declared counts against the
// remaining body before any count-sized allocation.
const (
	nodeRecordSize    = 28 // 3 x f64 + i32
	elementRecordMin  = 13 // type byte + at least 3 node ids
	layerIndexSize    = 4
	itemRecordMinSize = 3 // two empty varstrings + value-type byte
)

// NodeRecord is the on-disk representation of one mesh node. Node ids are
// implicit: record i holds node id i+1.
type NodeRecord struct {
	X, Y, Z float64
	Code    int32
}

// ElementRecord is the on-disk representation of one mesh element. Element
// ids are implicit: record i holds element id i+1. Node ids are 1-based.
type ElementRecord struct {
	Type  format.ElementType
	Nodes []uint32
}

// ItemRecord describes one data item stored in the file.
type ItemRecord struct {
	Name      string
	Unit      string
	ValueType format.ValueType
}

// Header is the parsed form of the complete file header.
type Header struct {
	Flag       FileFlag
	Projection string

	Nodes    []NodeRecord
	Elements []ElementRecord

	// NLayers is the total vertical layer count; 0 or 1 means a 2D mesh.
	NLayers uint16
	// NSigma is the number of terrain-following sigma layers.
	NSigma uint16
	// LayerIndex holds the 0-based layer index of each element within its
	// vertical column. Present iff NLayers > 1, in element order.
	LayerIndex []uint32

	Items []ItemRecord

	// StartTime is the first time step as a unix timestamp in microseconds.
	StartTime int64
	// StepMicros is the equidistant step duration in microseconds.
	StepMicros int64
	// StepCount is the number of time steps in the data section.
	StepCount uint32
}

// Encode serializes the header into its on-disk layout: flag, body length,
// body. The body byte order follows the flag's endianness bit.
func (h *Header) Encode() ([]byte, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}

	engine := h.Flag.Engine()

	bb := pool.GetHeaderBuffer()
	defer pool.PutHeaderBuffer(bb)

	buf := h.Flag.Encode(bb.B)
	buf = engine.AppendUint32(buf, 0) // body length, patched below

	var err error
	buf, err = AppendVarString(buf, h.Projection)
	if err != nil {
		return nil, err
	}

	buf = engine.AppendUint32(buf, uint32(len(h.Nodes)))
	buf = engine.AppendUint32(buf, uint32(len(h.Elements)))

	for i := range h.Nodes {
		n := &h.Nodes[i]
		buf = engine.AppendUint64(buf, math.Float64bits(n.X))
		buf = engine.AppendUint64(buf, math.Float64bits(n.Y))
		buf = engine.AppendUint64(buf, math.Float64bits(n.Z))
		buf = engine.AppendUint32(buf, uint32(n.Code))
	}

	for i := range h.Elements {
		el := &h.Elements[i]
		buf = append(buf, uint8(el.Type))
		for _, nid := range el.Nodes {
			buf = engine.AppendUint32(buf, nid)
		}
	}

	buf = engine.AppendUint16(buf, h.NLayers)
	buf = engine.AppendUint16(buf, h.NSigma)
	for _, li := range h.LayerIndex {
		buf = engine.AppendUint32(buf, li)
	}

	buf = engine.AppendUint16(buf, uint16(len(h.Items)))
	for i := range h.Items {
		item := &h.Items[i]
		buf, err = AppendVarString(buf, item.Name)
		if err != nil {
			return nil, err
		}
		buf, err = AppendVarString(buf, item.Unit)
		if err != nil {
			return nil, err
		}
		buf = append(buf, uint8(item.ValueType))
	}

	buf = engine.AppendUint64(buf, uint64(h.StartTime))
	buf = engine.AppendUint64(buf, uint64(h.StepMicros))
	buf = engine.AppendUint32(buf, h.StepCount)

	engine.PutUint32(buf[FlagSize:HeaderPrefixSize], uint32(len(buf)-HeaderPrefixSize))
	bb.B = buf

	out := make([]byte, len(buf))
	copy(out, buf)

	return out, nil
}

func (h *Header) validate() error {
	if len(h.Elements) == 0 || len(h.Nodes) == 0 {
		return fmt.Errorf("%w: empty node or element table", errs.ErrShapeMismatch)
	}

	for i := range h.Elements {
		el := &h.Elements[i]
		if el.Type.NodeCount() != len(el.Nodes) {
			return fmt.Errorf("%w: element %d has %d nodes, %s requires %d",
				errs.ErrInvalidElementType, i+1, len(el.Nodes), el.Type, el.Type.NodeCount())
		}
	}

	if h.NLayers > 1 && len(h.LayerIndex) != len(h.Elements) {
		return fmt.Errorf("%w: layer index length %d does not match element count %d",
			errs.ErrShapeMismatch, len(h.LayerIndex), len(h.Elements))
	}

	return nil
}

// ParseHeader decodes a complete header record. data must contain at least
// the full header; trailing bytes are ignored.
func ParseHeader(data []byte) (*Header, error) {
	flag, err := ParseFileFlag(data)
	if err != nil {
		return nil, err
	}

	engine := flag.Engine()
	if len(data) < HeaderPrefixSize {
		return nil, errs.ErrInvalidHeaderSize
	}

	bodyLen := int(engine.Uint32(data[FlagSize:HeaderPrefixSize]))
	if len(data) < HeaderPrefixSize+bodyLen {
		return nil, fmt.Errorf("%w: truncated header body", errs.ErrCorruptHeader)
	}

	r := &bodyReader{
		data:   data[HeaderPrefixSize : HeaderPrefixSize+bodyLen],
		engine: engine,
	}

	h := &Header{Flag: flag}

	if h.Projection, err = r.str(); err != nil {
		return nil, err
	}

	nodeCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	elemCount, err := r.u32()
	if err != nil {
		return nil, err
	}

	if err := r.bound(nodeCount, nodeRecordSize); err != nil {
		return nil, err
	}
	h.Nodes = make([]NodeRecord, nodeCount)
	for i := range h.Nodes {
		if h.Nodes[i], err = r.node(); err != nil {
			return nil, err
		}
	}

	if err := r.bound(elemCount, elementRecordMin); err != nil {
		return nil, err
	}
	h.Elements = make([]ElementRecord, elemCount)
	for i := range h.Elements {
		if h.Elements[i], err = r.element(); err != nil {
			return nil, err
		}
	}

	if h.NLayers, err = r.u16(); err != nil {
		return nil, err
	}
	if h.NSigma, err = r.u16(); err != nil {
		return nil, err
	}
	if h.NLayers > 1 {
		if err := r.bound(elemCount, layerIndexSize); err != nil {
			return nil, err
		}
		h.LayerIndex = make([]uint32, elemCount)
		for i := range h.LayerIndex {
			if h.LayerIndex[i], err = r.u32(); err != nil {
				return nil, err
			}
			if h.LayerIndex[i] >= uint32(h.NLayers) {
				return nil, fmt.Errorf("%w: element %d layer index %d outside [0, %d)",
					errs.ErrCorruptHeader, i+1, h.LayerIndex[i], h.NLayers)
			}
		}
	}

	itemCount, err := r.u16()
	if err != nil {
		return nil, err
	}
	if err := r.bound(uint32(itemCount), itemRecordMinSize); err != nil {
		return nil, err
	}
	h.Items = make([]ItemRecord, itemCount)
	for i := range h.Items {
		if h.Items[i], err = r.item(); err != nil {
			return nil, err
		}
	}

	start, err := r.u64()
	if err != nil {
		return nil, err
	}
	step, err := r.u64()
	if err != nil {
		return nil, err
	}
	h.StartTime = int64(start)
	h.StepMicros = int64(step)

	if h.StepCount, err = r.u32(); err != nil {
		return nil, err
	}

	if err := h.validate(); err != nil {
		return nil, err
	}

	return h, nil
}

// Size returns the encoded size of the header record described by data,
// without parsing the body. Used by readers to locate the data section.
func Size(data []byte) (int, error) {
	flag, err := ParseFileFlag(data)
	if err != nil {
		return 0, err
	}

	if len(data) < HeaderPrefixSize {
		return 0, errs.ErrInvalidHeaderSize
	}

	bodyLen := int(flag.Engine().Uint32(data[FlagSize:HeaderPrefixSize]))

	return HeaderPrefixSize + bodyLen, nil
}

// bodyReader is a cursor over the header body with truncation checks on every
// read.
type bodyReader struct {
	data   []byte
	engine endian.EndianEngine
	pos    int
}

// bound rejects a declared record count that cannot possibly fit in the
// remaining body bytes. Counts come from the untrusted file, so they must be
// checked before sizing any allocation by them.
func (r *bodyReader) bound(count uint32, recordSize int) error {
	if uint64(count)*uint64(recordSize) > uint64(len(r.data)-r.pos) {
		return fmt.Errorf("%w: declared count %d exceeds remaining header body",
			errs.ErrCorruptHeader, count)
	}

	return nil
}

func (r *bodyReader) need(n int) error {
	if r.pos+n > len(r.data) {
		return fmt.Errorf("%w: truncated header body at offset %d", errs.ErrCorruptHeader, r.pos)
	}

	return nil
}

func (r *bodyReader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++

	return v, nil
}

func (r *bodyReader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := r.engine.Uint16(r.data[r.pos:])
	r.pos += 2

	return v, nil
}

func (r *bodyReader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := r.engine.Uint32(r.data[r.pos:])
	r.pos += 4

	return v, nil
}

func (r *bodyReader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := r.engine.Uint64(r.data[r.pos:])
	r.pos += 8

	return v, nil
}

func (r *bodyReader) f64() (float64, error) {
	v, err := r.u64()
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(v), nil
}

func (r *bodyReader) str() (string, error) {
	s, next, err := ReadVarString(r.data, r.pos)
	if err != nil {
		return "", err
	}
	r.pos = next

	return s, nil
}

func (r *bodyReader) node() (NodeRecord, error) {
	var n NodeRecord
	var err error

	if n.X, err = r.f64(); err != nil {
		return n, err
	}
	if n.Y, err = r.f64(); err != nil {
		return n, err
	}
	if n.Z, err = r.f64(); err != nil {
		return n, err
	}

	code, err := r.u32()
	if err != nil {
		return n, err
	}
	n.Code = int32(code)

	return n, nil
}

func (r *bodyReader) element() (ElementRecord, error) {
	var el ElementRecord

	typ, err := r.u8()
	if err != nil {
		return el, err
	}

	el.Type = format.ElementType(typ)
	count := el.Type.NodeCount()
	if count == 0 {
		return el, fmt.Errorf("%w: 0x%02X", errs.ErrInvalidElementType, typ)
	}

	el.Nodes = make([]uint32, count)
	for i := range el.Nodes {
		if el.Nodes[i], err = r.u32(); err != nil {
			return el, err
		}
	}

	return el, nil
}

func (r *bodyReader) item() (ItemRecord, error) {
	var item ItemRecord
	var err error

	if item.Name, err = r.str(); err != nil {
		return item, err
	}
	if item.Unit, err = r.str(); err != nil {
		return item, err
	}

	vt, err := r.u8()
	if err != nil {
		return item, err
	}
	item.ValueType = format.ValueType(vt)

	return item, nil
}
