package mesh

import (
	"fmt"
	"math"
	"slices"

	"github.com/coastalkit/flexmesh/errs"
	"github.com/coastalkit/flexmesh/format"
)

// earthRadius is the sphere radius in meters used for the local equal-area
// projection of geographic coordinates.
const earthRadius = 6366707.0

const degToRad = math.Pi / 180.0

// NodeCoordinates returns the (x, y, z) coordinates of every node, ordered by
// node id.
func (g *Geometry) NodeCoordinates() [][3]float64 {
	coords := make([][3]float64, len(g.nodes))
	for i := range g.nodes {
		n := &g.nodes[i]
		coords[i] = [3]float64{n.X, n.Y, n.Z}
	}

	return coords
}

// ElementCoordinates returns each element's centroid, the arithmetic mean of
// its node coordinates, in element-axis order.
func (g *Geometry) ElementCoordinates() [][3]float64 {
	coords := make([][3]float64, len(g.centroids))
	copy(coords, g.centroids)

	return coords
}

// ElementAreas returns the horizontal area of every element in element-axis
// order, in square meters.
//
// Areas are computed with the shoelace formula over the element's horizontal
// node ring: the full ring for 2D elements, the bottom face for volumetric
// ones. Geographic lon/lat coordinates are first projected to a local metric
// frame (equirectangular about the element's mean latitude, earth radius
// 6366707 m) so the result is metric rather than in squared degrees.
func (g *Geometry) ElementAreas() []float64 {
	areas := make([]float64, len(g.elements))
	for i := range g.elements {
		areas[i] = g.elementArea(&g.elements[i])
	}

	return areas
}

func (g *Geometry) elementArea(el *Element) float64 {
	ring := horizontalRing(el)

	xs := make([]float64, len(ring))
	ys := make([]float64, len(ring))
	for i, nid := range ring {
		n := &g.nodes[nid-1]
		xs[i] = n.X
		ys[i] = n.Y
	}

	if g.isGeo {
		var latc float64
		for _, lat := range ys {
			latc += lat
		}
		latc /= float64(len(ys))

		scale := earthRadius * math.Cos(latc*degToRad)
		for i := range xs {
			xs[i] *= degToRad * scale
			ys[i] *= degToRad * earthRadius
		}
	}

	return shoelaceArea(xs, ys)
}

// horizontalRing returns the node ids of the element's horizontal polygon:
// all nodes for 2D elements, the bottom face for volumetric ones.
func horizontalRing(el *Element) []int {
	if el.Type.Is3D() {
		return el.Nodes[:len(el.Nodes)/2]
	}

	return el.Nodes
}

// shoelaceArea computes the absolute polygon area of the ring (x[i], y[i]).
func shoelaceArea(xs, ys []float64) float64 {
	var sum float64
	n := len(xs)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += xs[i]*ys[j] - xs[j]*ys[i]
	}

	return math.Abs(sum) / 2.0
}

// FindClosestElementIndex returns the 0-based element-axis index of the
// element whose centroid is nearest to (x, y) in planar Euclidean distance.
// Ties resolve to the lowest index. For geographic meshes the distance is
// planar degree-distance, an approximation consistent with small search
// neighborhoods.
func (g *Geometry) FindClosestElementIndex(x, y float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range g.centroids {
		dx := c[0] - x
		dy := c[1] - y
		d := dx*dx + dy*dy
		if d < bestDist {
			bestDist = d
			best = i
		}
	}

	return best
}

// BoundaryCodes returns the distinct non-zero node boundary codes present in
// the mesh, in ascending order.
func (g *Geometry) BoundaryCodes() []int {
	seen := make(map[int]struct{})
	for i := range g.nodes {
		if c := g.nodes[i].Code; c != 0 {
			seen[c] = struct{}{}
		}
	}

	codes := make([]int, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	slices.Sort(codes)

	return codes
}

// TopElementIDs returns, for layered 3D meshes, the 1-based id of the topmost
// element of each vertical column, in column order. Elements are stored
// column-grouped with the layer index increasing bottom to top, so a column
// ends wherever the next element's layer index stops increasing. Returns nil
// for 2D meshes.
func (g *Geometry) TopElementIDs() []int {
	if g.layers == nil {
		return nil
	}

	layer := g.layers.ElementLayer
	ids := make([]int, 0)
	for i := range layer {
		if i == len(layer)-1 || layer[i+1] <= layer[i] {
			ids = append(ids, i+1)
		}
	}

	return ids
}

// BottomElementIDs returns, for layered 3D meshes, the 1-based id of the
// bottommost element of each vertical column, in column order. Returns nil for
// 2D meshes.
func (g *Geometry) BottomElementIDs() []int {
	if g.layers == nil {
		return nil
	}

	layer := g.layers.ElementLayer
	ids := make([]int, 0)
	for i := range layer {
		if i == 0 || layer[i] <= layer[i-1] {
			ids = append(ids, i+1)
		}
	}

	return ids
}

// SubGeometry derives a renumbered 2D geometry containing exactly the given
// elements, in the given order. Element ids are 1-based ids of this geometry,
// which must be 2D.
func (g *Geometry) SubGeometry(elementIDs []int) (*Geometry, error) {
	if g.layers != nil {
		return nil, fmt.Errorf("%w: sub-geometry requires a 2D source mesh", errs.ErrShapeMismatch)
	}
	if len(elementIDs) == 0 {
		return nil, fmt.Errorf("%w: empty element id selection", errs.ErrShapeMismatch)
	}

	for _, id := range elementIDs {
		if id < 1 || id > len(g.elements) {
			return nil, fmt.Errorf("%w: element id %d outside [1, %d]",
				errs.ErrIndexOutOfRange, id, len(g.elements))
		}
	}

	return g.renumbered(elementIDs, func(el *Element) ([]int, format.ElementType) {
		return el.Nodes, el.Type
	})
}
