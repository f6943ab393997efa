// Package file implements the flexmesh format reader and writer: header
// parsing into geometry, item catalog and time axis, selective streamed
// reads, and validated atomic writes.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/coastalkit/flexmesh/compress"
	"github.com/coastalkit/flexmesh/dataset"
	"github.com/coastalkit/flexmesh/device"
	"github.com/coastalkit/flexmesh/errs"
	"github.com/coastalkit/flexmesh/internal/options"
	"github.com/coastalkit/flexmesh/mesh"
	"github.com/coastalkit/flexmesh/section"
)

// Reader reads one flexmesh file. The geometry, item catalog and time axis
// are parsed once at Open and immutable afterwards; they may be shared by
// concurrent callers. Read calls are serialized internally, since the
// underlying device handle supports one traversal at a time.
type Reader struct {
	path  string
	geom  *mesh.Geometry
	items []dataset.ItemInfo
	axis  dataset.TimeAxis
	flag  section.FileFlag

	mu     sync.Mutex
	blocks device.BlockReader
}

// Open parses the header of the file at path and prepares for streamed data
// access. It fails with an error wrapping errs.ErrCorruptHeader when the
// magic or version markers do not match or the header is truncated.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIOFailure, err)
	}

	r, err := newReader(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}

	return r, nil
}

func newReader(f *os.File, path string) (*Reader, error) {
	prefix := make([]byte, section.HeaderPrefixSize)
	if _, err := io.ReadFull(f, prefix); err != nil {
		return nil, errs.ErrInvalidHeaderSize
	}

	total, err := section.Size(prefix)
	if err != nil {
		return nil, err
	}

	// The declared header size comes from the file itself; bound it by the
	// file size before allocating.
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIOFailure, err)
	}
	if int64(total) > info.Size() {
		return nil, fmt.Errorf("%w: declared header size %d exceeds file size %d",
			errs.ErrCorruptHeader, total, info.Size())
	}

	raw := make([]byte, total)
	copy(raw, prefix)
	if _, err := io.ReadFull(f, raw[len(prefix):]); err != nil {
		return nil, fmt.Errorf("%w: truncated header body", errs.ErrCorruptHeader)
	}

	hdr, err := section.ParseHeader(raw)
	if err != nil {
		return nil, err
	}

	geom, err := geometryFromHeader(hdr)
	if err != nil {
		return nil, err
	}

	items := make([]dataset.ItemInfo, len(hdr.Items))
	for i, it := range hdr.Items {
		items[i] = dataset.ItemInfo{Name: it.Name, Unit: it.Unit, ValueType: it.ValueType}
	}

	axis, err := dataset.NewEquidistantAxis(
		time.UnixMicro(hdr.StartTime).UTC(),
		time.Duration(hdr.StepMicros)*time.Microsecond,
		int(hdr.StepCount),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCorruptHeader, err)
	}

	codec, err := compress.GetCodec(hdr.Flag.CompressionType())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCorruptHeader, err)
	}

	blocks, err := device.NewFileBlockReader(
		f, int64(total), hdr.Flag.Engine(), codec,
		int(hdr.StepCount), len(items), geom.NElements(),
	)
	if err != nil {
		return nil, err
	}

	return &Reader{
		path:   path,
		geom:   geom,
		items:  items,
		axis:   axis,
		flag:   hdr.Flag,
		blocks: blocks,
	}, nil
}

func geometryFromHeader(hdr *section.Header) (*mesh.Geometry, error) {
	nodes := make([]mesh.Node, len(hdr.Nodes))
	for i, n := range hdr.Nodes {
		nodes[i] = mesh.Node{ID: i + 1, X: n.X, Y: n.Y, Z: n.Z, Code: int(n.Code)}
	}

	elements := make([]mesh.Element, len(hdr.Elements))
	for i, el := range hdr.Elements {
		nids := make([]int, len(el.Nodes))
		for j, nid := range el.Nodes {
			nids[j] = int(nid)
		}
		elements[i] = mesh.Element{ID: i + 1, Type: el.Type, Nodes: nids}
	}

	var layers *mesh.LayerInfo
	if hdr.NLayers > 1 {
		li := make([]int, len(hdr.LayerIndex))
		for i, l := range hdr.LayerIndex {
			li[i] = int(l)
		}
		layers = &mesh.LayerInfo{
			NLayers:      int(hdr.NLayers),
			NSigma:       int(hdr.NSigma),
			ElementLayer: li,
		}
	}

	geom, err := mesh.NewGeometry(nodes, elements, layers, hdr.Projection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCorruptHeader, err)
	}

	return geom, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.blocks.Close()
}

// Path returns the path the reader was opened from.
func (r *Reader) Path() string { return r.path }

// Geometry returns the immutable mesh geometry.
func (r *Reader) Geometry() *mesh.Geometry { return r.geom }

// Items returns the item catalog in file order.
func (r *Reader) Items() []dataset.ItemInfo {
	cp := make([]dataset.ItemInfo, len(r.items))
	copy(cp, r.items)

	return cp
}

// TimeAxis returns the file's equidistant time axis.
func (r *Reader) TimeAxis() dataset.TimeAxis { return r.axis }

// NTimesteps returns the declared time-step count.
func (r *Reader) NTimesteps() int { return r.axis.Len() }

// NItems returns the declared item count.
func (r *Reader) NItems() int { return len(r.items) }

// NElements returns the element count of the mesh.
func (r *Reader) NElements() int { return r.geom.NElements() }

// NNodes returns the node count of the mesh.
func (r *Reader) NNodes() int { return r.geom.NNodes() }

// Is2D reports whether the mesh has no vertical layer structure.
func (r *Reader) Is2D() bool { return r.geom.Is2D() }

// IsGeo reports whether coordinates are geographic lon/lat.
func (r *Reader) IsGeo() bool { return r.geom.IsGeo() }

// NLayers returns the total vertical layer count, 0 for 2D meshes.
func (r *Reader) NLayers() int { return r.geom.NLayers() }

// NSigmaLayers returns the sigma layer count, 0 for 2D meshes.
func (r *Reader) NSigmaLayers() int { return r.geom.NSigmaLayers() }

// NZLayers returns the z layer count, 0 for 2D meshes.
func (r *Reader) NZLayers() int { return r.geom.NZLayers() }

// BoundaryCodes returns the distinct non-zero boundary codes of the mesh.
func (r *Reader) BoundaryCodes() []int { return r.geom.BoundaryCodes() }

// TopElementIDs returns the top-layer element ids of a 3D mesh, nil for 2D.
func (r *Reader) TopElementIDs() []int { return r.geom.TopElementIDs() }

// BottomElementIDs returns the bottom-layer element ids of a 3D mesh, nil for
// 2D.
func (r *Reader) BottomElementIDs() []int { return r.geom.BottomElementIDs() }

// FindClosestElementIndex returns the element-axis index of the element whose
// centroid is nearest to (x, y).
func (r *Reader) FindClosestElementIndex(x, y float64) int {
	return r.geom.FindClosestElementIndex(x, y)
}

// ElementAreas returns the horizontal element areas in element-axis order.
func (r *Reader) ElementAreas() []float64 { return r.geom.ElementAreas() }

// To2DGeometry derives the top-layer 2D geometry of a 3D mesh together with
// the per-2D-element source element ids.
func (r *Reader) To2DGeometry() (*mesh.Geometry, []int, error) {
	return mesh.TopLayerGeometry(r.geom)
}

// Writer returns a writer targeting this file's geometry and item catalog,
// producing files with the same block compression.
func (r *Reader) Writer() *Writer {
	return &Writer{
		geom:        r.geom,
		items:       r.Items(),
		compression: r.flag.CompressionType(),
	}
}

// Read streams the selected items, time steps and elements into a Dataset.
//
// Selection resolves before any I/O: unknown item names, out-of-range
// indices and invalid element ids fail without touching the data section.
// Arrays are laid out time-step-major regardless of on-disk order, and only
// the data blocks covering the selection are decoded; everything else is
// skipped at the frame level while the stream is traversed in file order.
func (r *Reader) Read(opts ...ReadOption) (*dataset.Dataset, error) {
	cfg := &readConfig{ctx: context.Background()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	itemIdx, err := dataset.ResolveItems(r.items, cfg.items)
	if err != nil {
		return nil, err
	}

	axis, stepIdx, err := r.axis.Select(cfg.steps)
	if err != nil {
		return nil, err
	}

	elemIdx, err := r.resolveElementIDs(cfg.elementIDs)
	if err != nil {
		return nil, err
	}

	// wants maps a file item index to the output positions that requested
	// it, so a block read once can serve repeated selectors.
	wants := make(map[int][]int, len(itemIdx))
	fileItems := make([]int, 0, len(itemIdx))
	for pos, k := range itemIdx {
		if _, ok := wants[k]; !ok {
			fileItems = append(fileItems, k)
		}
		wants[k] = append(wants[k], pos)
	}
	// The device is forward-only, so blocks must be visited in file order
	// even when selectors name items out of order.
	slices.Sort(fileItems)

	nOut := r.geom.NElements()
	if elemIdx != nil {
		nOut = len(elemIdx)
	}

	data := make([][][]float64, len(itemIdx))
	for i := range data {
		data[i] = make([][]float64, len(stepIdx))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.blocks.Rewind(); err != nil {
		return nil, err
	}

	for si, step := range stepIdx {
		if err := cfg.ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: read cancelled: %v", errs.ErrIOFailure, err)
		}

		for _, k := range fileItems {
			values, err := r.blocks.ReadBlock(step, k)
			if err != nil {
				return nil, err
			}

			for _, pos := range wants[k] {
				row := make([]float64, nOut)
				if elemIdx == nil {
					for j, v := range values {
						row[j] = float64(v)
					}
				} else {
					for j, e := range elemIdx {
						row[j] = float64(values[e])
					}
				}
				data[pos][si] = row
			}
		}
	}

	items := make([]dataset.ItemInfo, len(itemIdx))
	for i, k := range itemIdx {
		items[i] = r.items[k]
	}

	return dataset.New(items, axis, data)
}

// resolveElementIDs maps 1-based element ids to 0-based element-axis indices,
// preserving caller order. Returns nil for an empty selection, meaning all
// elements.
func (r *Reader) resolveElementIDs(ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	nElem := r.geom.NElements()
	idx := make([]int, len(ids))
	for i, id := range ids {
		if id < 1 || id > nElem {
			return nil, fmt.Errorf("%w: element id %d outside [1, %d]",
				errs.ErrIndexOutOfRange, id, nElem)
		}
		idx[i] = id - 1
	}

	return idx, nil
}
