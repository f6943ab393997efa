// Package mesh models unstructured flexible-mesh topology: nodes, elements,
// vertical layer structure and the geometric queries built on them.
//
// A Geometry is immutable after construction and safe for concurrent readers.
// Element ordering is stable and defines the element-axis index used by
// dataset arrays throughout the library.
package mesh

import (
	"fmt"

	"github.com/coastalkit/flexmesh/errs"
	"github.com/coastalkit/flexmesh/format"
)

// Node is one mesh vertex. IDs are 1-based and contiguous.
type Node struct {
	ID      int
	X, Y, Z float64
	// Code is the boundary code; 0 marks an interior node.
	Code int
}

// Element is one mesh cell. IDs are 1-based and contiguous; Nodes lists
// 1-based node ids in winding order. Volumetric elements list the bottom
// face first, then the top face in the same winding.
type Element struct {
	ID    int
	Type  format.ElementType
	Nodes []int
}

// LayerInfo describes the vertical structure of a layered 3D mesh.
type LayerInfo struct {
	// NLayers is the total layer count.
	NLayers int
	// NSigma is the number of terrain-following sigma layers. The remaining
	// NLayers-NSigma layers are fixed-elevation z layers below the sigma
	// region.
	NSigma int
	// ElementLayer holds the 0-based layer index of each element within its
	// vertical column. Elements are column-grouped and ordered bottom to top
	// within a column.
	ElementLayer []int
}

// NZLayers returns the number of fixed-elevation z layers.
func (l *LayerInfo) NZLayers() int {
	return l.NLayers - l.NSigma
}

// Geometry is an immutable mesh: node table, element table, optional layer
// structure and the projection the coordinates live in.
type Geometry struct {
	nodes      []Node
	elements   []Element
	layers     *LayerInfo
	projection string
	isGeo      bool

	// centroids are precomputed element centers, one per element.
	centroids [][3]float64
}

// NewGeometry constructs and validates a Geometry. Nodes and elements must be
// ordered by their 1-based ids; every element node reference must exist in
// the node table. The inputs are copied, so callers may reuse their slices.
func NewGeometry(nodes []Node, elements []Element, layers *LayerInfo, projection string) (*Geometry, error) {
	if len(nodes) == 0 || len(elements) == 0 {
		return nil, fmt.Errorf("%w: geometry requires at least one node and one element", errs.ErrShapeMismatch)
	}

	g := &Geometry{
		nodes:      make([]Node, len(nodes)),
		elements:   make([]Element, len(elements)),
		projection: projection,
		isGeo:      format.IsGeoProjection(projection),
	}
	copy(g.nodes, nodes)

	for i := range g.nodes {
		if g.nodes[i].ID != i+1 {
			return nil, fmt.Errorf("%w: node at position %d has id %d, want %d",
				errs.ErrInvalidNodeRef, i, g.nodes[i].ID, i+1)
		}
	}

	for i, el := range elements {
		if el.ID != i+1 {
			return nil, fmt.Errorf("%w: element at position %d has id %d, want %d",
				errs.ErrShapeMismatch, i, el.ID, i+1)
		}
		if el.Type.NodeCount() != len(el.Nodes) {
			return nil, fmt.Errorf("%w: element %d has %d nodes, %s requires %d",
				errs.ErrInvalidElementType, el.ID, len(el.Nodes), el.Type, el.Type.NodeCount())
		}

		cp := Element{ID: el.ID, Type: el.Type, Nodes: make([]int, len(el.Nodes))}
		copy(cp.Nodes, el.Nodes)
		for _, nid := range cp.Nodes {
			if nid < 1 || nid > len(nodes) {
				return nil, fmt.Errorf("%w: element %d references node %d outside [1, %d]",
					errs.ErrInvalidNodeRef, el.ID, nid, len(nodes))
			}
		}
		g.elements[i] = cp
	}

	if layers != nil && layers.NLayers > 1 {
		if len(layers.ElementLayer) != len(elements) {
			return nil, fmt.Errorf("%w: layer index length %d does not match element count %d",
				errs.ErrShapeMismatch, len(layers.ElementLayer), len(elements))
		}
		if layers.NSigma < 0 || layers.NSigma > layers.NLayers {
			return nil, fmt.Errorf("%w: sigma layer count %d outside [0, %d]",
				errs.ErrShapeMismatch, layers.NSigma, layers.NLayers)
		}
		for i, li := range layers.ElementLayer {
			if li < 0 || li >= layers.NLayers {
				return nil, fmt.Errorf("%w: element %d layer index %d outside [0, %d)",
					errs.ErrShapeMismatch, i+1, li, layers.NLayers)
			}
		}

		li := &LayerInfo{
			NLayers:      layers.NLayers,
			NSigma:       layers.NSigma,
			ElementLayer: make([]int, len(layers.ElementLayer)),
		}
		copy(li.ElementLayer, layers.ElementLayer)
		g.layers = li
	}

	g.centroids = make([][3]float64, len(g.elements))
	for i := range g.elements {
		g.centroids[i] = g.centroid(&g.elements[i])
	}

	return g, nil
}

func (g *Geometry) centroid(el *Element) [3]float64 {
	var cx, cy, cz float64
	for _, nid := range el.Nodes {
		n := &g.nodes[nid-1]
		cx += n.X
		cy += n.Y
		cz += n.Z
	}

	inv := 1.0 / float64(len(el.Nodes))

	return [3]float64{cx * inv, cy * inv, cz * inv}
}

// NNodes returns the node count.
func (g *Geometry) NNodes() int { return len(g.nodes) }

// NElements returns the element count.
func (g *Geometry) NElements() int { return len(g.elements) }

// Projection returns the projection string of the coordinate system.
func (g *Geometry) Projection() string { return g.projection }

// IsGeo reports whether coordinates are geographic lon/lat.
func (g *Geometry) IsGeo() bool { return g.isGeo }

// Is2D reports whether the mesh has no vertical layer structure.
func (g *Geometry) Is2D() bool { return g.layers == nil }

// NLayers returns the total vertical layer count, 0 for 2D meshes.
func (g *Geometry) NLayers() int {
	if g.layers == nil {
		return 0
	}

	return g.layers.NLayers
}

// NSigmaLayers returns the sigma layer count, 0 for 2D meshes.
func (g *Geometry) NSigmaLayers() int {
	if g.layers == nil {
		return 0
	}

	return g.layers.NSigma
}

// NZLayers returns the z layer count, 0 for 2D meshes.
func (g *Geometry) NZLayers() int {
	if g.layers == nil {
		return 0
	}

	return g.layers.NZLayers()
}

// Layers returns a copy of the layer structure, or nil for 2D meshes.
func (g *Geometry) Layers() *LayerInfo {
	if g.layers == nil {
		return nil
	}

	li := &LayerInfo{
		NLayers:      g.layers.NLayers,
		NSigma:       g.layers.NSigma,
		ElementLayer: make([]int, len(g.layers.ElementLayer)),
	}
	copy(li.ElementLayer, g.layers.ElementLayer)

	return li
}

// Nodes returns the node table ordered by id. The returned slice is shared;
// callers must treat it as read-only.
func (g *Geometry) Nodes() []Node { return g.nodes }

// Elements returns the element table in element-axis order. The returned
// slice is shared; callers must treat it as read-only.
func (g *Geometry) Elements() []Element { return g.elements }

// Element returns the element with the given 1-based id.
func (g *Geometry) Element(id int) (Element, error) {
	if id < 1 || id > len(g.elements) {
		return Element{}, fmt.Errorf("%w: element id %d outside [1, %d]",
			errs.ErrIndexOutOfRange, id, len(g.elements))
	}

	return g.elements[id-1], nil
}
