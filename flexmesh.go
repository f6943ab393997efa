// Package flexmesh reads and writes a binary unstructured-mesh time-series
// format: 2D/3D flexible-mesh topology plus named time-varying data items
// sampled per element.
//
// A file carries the complete mesh (node coordinates, element-node
// connectivity, vertical layer structure, boundary codes), an item catalog
// and an equidistant time axis in its header, followed by a sequential
// stream of per-(time-step, item) element data blocks.
//
// # Reading
//
//	dfs, err := flexmesh.Open("results.fmx")
//	if err != nil { ... }
//	defer dfs.Close()
//
//	// All items, all time steps.
//	ds, err := dfs.Read()
//
//	// Two items by name, every other time step.
//	ds, err = dfs.Read(
//	    file.WithItemNames("Surface elevation", "Current speed"),
//	    file.WithTimeSteps(0, 2, 4, 6, 8),
//	)
//
// Selections resolve before any I/O; only the data blocks covering the
// selection are decoded, the rest of the stream is skipped frame by frame.
//
// # Writing
//
//	w, err := flexmesh.NewWriter(dfs.Geometry(), file.WithCatalog(dfs.Items()...))
//	if err != nil { ... }
//	err = w.Write("subset.fmx", ds)
//
// The writer validates shapes and the time axis before committing a single
// byte, and deletes the output on any failure: callers never observe a
// truncated file.
//
// # Layered 3D meshes
//
// Layered meshes expose their vertical structure through the geometry:
// top-layer element ids, sigma/z layer counts and a derived 2D top-layer
// geometry. Reading with the top-layer element ids and writing the result
// with the same ids extracts the top layer into a plain 2D file.
//
// This package provides convenience wrappers around the file package; use
// the file, mesh and dataset packages directly for fine-grained control.
package flexmesh

import (
	"github.com/coastalkit/flexmesh/file"
	"github.com/coastalkit/flexmesh/mesh"
)

// Open opens a flexmesh file for reading. The returned reader exposes the
// parsed geometry, item catalog and time axis, and streams data selections
// via Read.
func Open(path string) (*file.Reader, error) {
	return file.Open(path)
}

// NewWriter creates a writer targeting the given geometry.
//
// Available options:
//   - file.WithCatalog(items...): restrict written items to a target catalog
//   - file.WithCompression(format.CompressionNone|Zstd|S2|LZ4)
func NewWriter(geom *mesh.Geometry, opts ...file.WriterOption) (*file.Writer, error) {
	return file.NewWriter(geom, opts...)
}
