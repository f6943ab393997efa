package mesh

import (
	"fmt"
	"slices"

	"github.com/coastalkit/flexmesh/errs"
	"github.com/coastalkit/flexmesh/format"
)

// TopLayerGeometry derives a 2D geometry from a layered 3D mesh by taking the
// topmost element of every vertical column and projecting its top face.
//
// The returned mapping holds, per 2D element index, the 1-based id of the 3D
// element it was derived from. Feeding those ids to a reader's element
// selection and writing the result against the derived geometry realizes a
// full 3D-to-2D top-layer extraction.
func TopLayerGeometry(g *Geometry) (*Geometry, []int, error) {
	if g.Is2D() {
		return nil, nil, fmt.Errorf("%w: top-layer projection requires a layered 3D mesh", errs.ErrShapeMismatch)
	}

	topIDs := g.TopElementIDs()

	g2d, err := g.renumbered(topIDs, func(el *Element) ([]int, format.ElementType) {
		// Volumetric elements list the bottom face first; the top face is
		// the second half of the node list in the same winding.
		return el.Nodes[len(el.Nodes)/2:], el.Type.Projected()
	})
	if err != nil {
		return nil, nil, err
	}

	mapping := make([]int, len(topIDs))
	copy(mapping, topIDs)

	return g2d, mapping, nil
}

// renumbered builds a new 2D geometry from the selected source elements.
// ring yields each derived element's node ids (in source numbering) and type.
// Used nodes are renumbered contiguously in ascending source-id order.
func (g *Geometry) renumbered(srcIDs []int, ring func(el *Element) ([]int, format.ElementType)) (*Geometry, error) {
	used := make(map[int]struct{})
	rings := make([][]int, len(srcIDs))
	types := make([]format.ElementType, len(srcIDs))

	for i, id := range srcIDs {
		nodes, typ := ring(&g.elements[id-1])
		rings[i] = nodes
		types[i] = typ
		for _, nid := range nodes {
			used[nid] = struct{}{}
		}
	}

	oldIDs := make([]int, 0, len(used))
	for nid := range used {
		oldIDs = append(oldIDs, nid)
	}
	slices.Sort(oldIDs)

	remap := make(map[int]int, len(oldIDs))
	nodes := make([]Node, len(oldIDs))
	for i, old := range oldIDs {
		remap[old] = i + 1
		n := g.nodes[old-1]
		n.ID = i + 1
		nodes[i] = n
	}

	elements := make([]Element, len(srcIDs))
	for i := range srcIDs {
		mapped := make([]int, len(rings[i]))
		for j, nid := range rings[i] {
			mapped[j] = remap[nid]
		}
		elements[i] = Element{ID: i + 1, Type: types[i], Nodes: mapped}
	}

	return NewGeometry(nodes, elements, nil, g.projection)
}
