package file

import (
	"bufio"
	"context"
	"fmt"
	"slices"

	"github.com/coastalkit/flexmesh/compress"
	"github.com/coastalkit/flexmesh/dataset"
	"github.com/coastalkit/flexmesh/device"
	"github.com/coastalkit/flexmesh/errs"
	"github.com/coastalkit/flexmesh/format"
	"github.com/coastalkit/flexmesh/internal/options"
	"github.com/coastalkit/flexmesh/mesh"
	"github.com/coastalkit/flexmesh/section"
)

// Writer produces flexmesh files against a fixed target geometry and
// optional item catalog. A Writer is immutable after construction and may be
// reused for multiple Write calls.
//
// Every validation failure aborts before any byte is committed: a failed or
// cancelled write leaves no file on disk.
type Writer struct {
	geom        *mesh.Geometry
	items       []dataset.ItemInfo
	compression format.CompressionType
}

// NewWriter creates a writer targeting the given geometry. Without a catalog
// option the writer accepts any dataset items (mesh-only target); with one,
// written items must resolve in the catalog by exact name.
func NewWriter(geom *mesh.Geometry, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		geom:        geom,
		compression: format.CompressionNone,
	}

	if err := options.Apply(w, opts...); err != nil {
		return nil, err
	}

	if _, err := compress.GetCodec(w.compression); err != nil {
		return nil, err
	}

	return w, nil
}

// Geometry returns the writer's source geometry.
func (w *Writer) Geometry() *mesh.Geometry { return w.geom }

// Write validates the dataset against the target geometry and catalog, then
// writes the file: header first, data blocks in (time-step, item) order.
//
// With element ids the element axis of the dataset must hold exactly those
// elements; on a layered 3D source the ids must be the top-layer elements
// and the file is written against the derived 2D geometry, realizing a
// 3D-to-2D extraction.
//
// On any validation error, I/O error or context cancellation the partially
// written file is deleted before the error is returned; callers never
// observe a truncated file.
func (w *Writer) Write(path string, ds *dataset.Dataset, opts ...WriteOption) error {
	cfg := &writeConfig{ctx: context.Background()}
	if err := options.Apply(cfg, opts...); err != nil {
		return err
	}

	if ds == nil {
		return fmt.Errorf("%w: nil dataset", errs.ErrShapeMismatch)
	}

	geom, err := w.targetGeometry(cfg.elementIDs)
	if err != nil {
		return err
	}

	if ds.NElements() != geom.NElements() {
		return fmt.Errorf("%w: dataset has %d elements, target geometry has %d",
			errs.ErrShapeMismatch, ds.NElements(), geom.NElements())
	}

	axis := ds.Time()
	if !axis.IsEquidistant() {
		return fmt.Errorf("%w: the format cannot represent non-equidistant step spacing",
			errs.ErrUnsupportedTimeAxis)
	}

	items := ds.Items()
	if len(w.items) > 0 {
		sels := make([]dataset.ItemSelector, len(items))
		for i, it := range items {
			sels[i] = dataset.ItemName(it.Name)
		}
		if _, err := dataset.ResolveItems(w.items, sels); err != nil {
			return err
		}
	}

	hdr, err := headerFromGeometry(geom, items, axis, w.compression)
	if err != nil {
		return err
	}

	raw, err := hdr.Encode()
	if err != nil {
		return err
	}

	codec, err := compress.GetCodec(w.compression)
	if err != nil {
		return err
	}

	guard, err := newWriteGuard(path)
	if err != nil {
		return err
	}
	defer guard.Abort()

	bw := bufio.NewWriter(guard.File())
	if _, err := bw.Write(raw); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIOFailure, err)
	}

	blocks := device.NewFileBlockWriter(bw, hdr.Flag.Engine(), codec, ds.NItems(), geom.NElements())
	data := ds.Data()
	values := make([]float32, geom.NElements())

	for step := 0; step < axis.Len(); step++ {
		if err := cfg.ctx.Err(); err != nil {
			return fmt.Errorf("%w: write cancelled: %v", errs.ErrIOFailure, err)
		}

		for item := range data {
			row := data[item][step]
			for j, v := range row {
				values[j] = float32(v)
			}
			if err := blocks.WriteBlock(step, item, values); err != nil {
				return err
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIOFailure, err)
	}

	return guard.Commit()
}

// targetGeometry resolves the geometry the file is written against: the
// source geometry, its top-layer 2D projection, or a renumbered 2D subset.
func (w *Writer) targetGeometry(elementIDs []int) (*mesh.Geometry, error) {
	if len(elementIDs) == 0 {
		return w.geom, nil
	}

	if !w.geom.Is2D() {
		g2d, mapping, err := mesh.TopLayerGeometry(w.geom)
		if err != nil {
			return nil, err
		}
		if !slices.Equal(elementIDs, mapping) {
			return nil, fmt.Errorf("%w: element ids of a 3D source must be its top-layer element ids",
				errs.ErrShapeMismatch)
		}

		return g2d, nil
	}

	return w.geom.SubGeometry(elementIDs)
}

func headerFromGeometry(geom *mesh.Geometry, items []dataset.ItemInfo, axis dataset.TimeAxis, compression format.CompressionType) (*section.Header, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: dataset has no items", errs.ErrShapeMismatch)
	}

	hdr := &section.Header{
		Flag:       section.NewFileFlag().WithGeo(geom.IsGeo()).WithCompression(compression),
		Projection: geom.Projection(),
		StartTime:  axis.Start().UnixMicro(),
		StepMicros: axis.Step().Microseconds(),
		StepCount:  uint32(axis.Len()),
	}

	nodes := geom.Nodes()
	hdr.Nodes = make([]section.NodeRecord, len(nodes))
	for i, n := range nodes {
		hdr.Nodes[i] = section.NodeRecord{X: n.X, Y: n.Y, Z: n.Z, Code: int32(n.Code)}
	}

	elements := geom.Elements()
	hdr.Elements = make([]section.ElementRecord, len(elements))
	for i, el := range elements {
		nids := make([]uint32, len(el.Nodes))
		for j, nid := range el.Nodes {
			nids[j] = uint32(nid)
		}
		hdr.Elements[i] = section.ElementRecord{Type: el.Type, Nodes: nids}
	}

	if layers := geom.Layers(); layers != nil {
		hdr.NLayers = uint16(layers.NLayers)
		hdr.NSigma = uint16(layers.NSigma)
		hdr.LayerIndex = make([]uint32, len(layers.ElementLayer))
		for i, li := range layers.ElementLayer {
			hdr.LayerIndex[i] = uint32(li)
		}
	}

	hdr.Items = make([]section.ItemRecord, len(items))
	for i, it := range items {
		hdr.Items[i] = section.ItemRecord{Name: it.Name, Unit: it.Unit, ValueType: it.ValueType}
	}

	return hdr, nil
}
