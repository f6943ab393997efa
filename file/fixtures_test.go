package file

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coastalkit/flexmesh/dataset"
	"github.com/coastalkit/flexmesh/format"
	"github.com/coastalkit/flexmesh/mesh"
)

var fixtureStart = time.Date(2020, 3, 11, 12, 0, 0, 0, time.UTC)

// quadGrid builds a 2x2 grid of 100x100 quads over a 3x3 node lattice, with
// boundary codes on the lattice rim.
func quadGrid(t *testing.T) *mesh.Geometry {
	t.Helper()

	nodes := []mesh.Node{
		{ID: 1, X: 0, Y: 0, Code: 1},
		{ID: 2, X: 100, Y: 0, Code: 1},
		{ID: 3, X: 200, Y: 0, Code: 1},
		{ID: 4, X: 0, Y: 100, Code: 1},
		{ID: 5, X: 100, Y: 100, Code: 0},
		{ID: 6, X: 200, Y: 100, Code: 1},
		{ID: 7, X: 0, Y: 200, Code: 1},
		{ID: 8, X: 100, Y: 200, Code: 1},
		{ID: 9, X: 200, Y: 200, Code: 2},
	}
	elements := []mesh.Element{
		{ID: 1, Type: format.ElemQuad4, Nodes: []int{1, 2, 5, 4}},
		{ID: 2, Type: format.ElemQuad4, Nodes: []int{2, 3, 6, 5}},
		{ID: 3, Type: format.ElemQuad4, Nodes: []int{4, 5, 8, 7}},
		{ID: 4, Type: format.ElemQuad4, Nodes: []int{5, 6, 9, 8}},
	}

	g, err := mesh.NewGeometry(nodes, elements, nil, "UTM-33")
	require.NoError(t, err)

	return g
}

// hexColumns builds a layered 3D mesh of two vertical columns, two Hex8
// elements each, column-grouped bottom to top.
func hexColumns(t *testing.T) *mesh.Geometry {
	t.Helper()

	var nodes []mesh.Node
	id := 1
	for _, z := range []float64{-10, -5, 0} {
		for _, xy := range [][2]float64{
			{0, 0}, {100, 0}, {200, 0},
			{0, 100}, {100, 100}, {200, 100},
		} {
			nodes = append(nodes, mesh.Node{ID: id, X: xy[0], Y: xy[1], Z: z, Code: 1})
			id++
		}
	}

	colA := []int{1, 2, 5, 4}
	colB := []int{2, 3, 6, 5}
	hex := func(id int, col []int, base int) mesh.Element {
		n := make([]int, 0, 8)
		for _, off := range []int{base, base + 6} {
			for _, c := range col {
				n = append(n, c+off)
			}
		}
		return mesh.Element{ID: id, Type: format.ElemHex8, Nodes: n}
	}

	elements := []mesh.Element{
		hex(1, colA, 0), hex(2, colA, 6),
		hex(3, colB, 0), hex(4, colB, 6),
	}
	layers := &mesh.LayerInfo{NLayers: 2, NSigma: 2, ElementLayer: []int{0, 1, 0, 1}}

	g, err := mesh.NewGeometry(nodes, elements, layers, "UTM-33")
	require.NoError(t, err)

	return g
}

func fixtureItems() []dataset.ItemInfo {
	return []dataset.ItemInfo{
		{Name: "Surface elevation", Unit: "meter", ValueType: format.ValueInstantaneous},
		{Name: "Current speed", Unit: "meter per sec", ValueType: format.ValueInstantaneous},
	}
}

// fixtureValue is the value of item i, step t, element index e in fixture
// datasets. All values are small integers, exactly representable in float32.
func fixtureValue(item, step, element int) float64 {
	return float64(1000*item + 100*step + element)
}

func fixtureDataset(t *testing.T, nElements, nSteps int) *dataset.Dataset {
	t.Helper()

	items := fixtureItems()
	data := make([][][]float64, len(items))
	for i := range data {
		data[i] = make([][]float64, nSteps)
		for step := range data[i] {
			row := make([]float64, nElements)
			for e := range row {
				row[e] = fixtureValue(i, step, e)
			}
			data[i][step] = row
		}
	}

	axis, err := dataset.NewEquidistantAxis(fixtureStart, time.Hour, nSteps)
	require.NoError(t, err)

	ds, err := dataset.New(items, axis, data)
	require.NoError(t, err)

	return ds
}

// writeFixture writes a 9-step file for the given geometry into a temp dir
// and returns its path.
func writeFixture(t *testing.T, geom *mesh.Geometry, opts ...WriterOption) string {
	t.Helper()

	w, err := NewWriter(geom, opts...)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fixture.fmx")
	require.NoError(t, w.Write(path, fixtureDataset(t, geom.NElements(), 9)))

	return path
}

func openFixture(t *testing.T, geom *mesh.Geometry, opts ...WriterOption) *Reader {
	t.Helper()

	r, err := Open(writeFixture(t, geom, opts...))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	return r
}
