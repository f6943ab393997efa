package file

import (
	"context"

	"github.com/coastalkit/flexmesh/dataset"
	"github.com/coastalkit/flexmesh/format"
	"github.com/coastalkit/flexmesh/internal/options"
)

// readConfig collects the selection applied by Reader.Read. The zero value
// selects every item, every time step and every element.
type readConfig struct {
	items      []dataset.ItemSelector
	steps      dataset.TimeSelector
	elementIDs []int
	ctx        context.Context
}

// ReadOption configures one Reader.Read call.
//
// This is a type alias for the generic Option interface specialized for
// readConfig.
type ReadOption = options.Option[*readConfig]

// WithItems selects items by explicit selectors, in selector order.
func WithItems(sels ...dataset.ItemSelector) ReadOption {
	return options.NoError(func(c *readConfig) {
		c.items = append(c.items, sels...)
	})
}

// WithItemIndices selects items by 0-based catalog position.
func WithItemIndices(indices ...int) ReadOption {
	return options.NoError(func(c *readConfig) {
		for _, i := range indices {
			c.items = append(c.items, dataset.ItemIndex(i))
		}
	})
}

// WithItemNames selects items by exact name.
func WithItemNames(names ...string) ReadOption {
	return options.NoError(func(c *readConfig) {
		for _, n := range names {
			c.items = append(c.items, dataset.ItemName(n))
		}
	})
}

// WithTimeStep selects a single time step, the scalar form of WithTimeSteps.
func WithTimeStep(index int) ReadOption {
	return options.NoError(func(c *readConfig) {
		c.steps = dataset.Step(index)
	})
}

// WithTimeSteps selects the given 0-based time steps, which must be strictly
// increasing.
func WithTimeSteps(indices ...int) ReadOption {
	return options.NoError(func(c *readConfig) {
		c.steps = dataset.Steps(indices...)
	})
}

// WithElementIDs restricts the element axis to exactly the given 1-based
// element ids, in the given order.
func WithElementIDs(ids ...int) ReadOption {
	return options.NoError(func(c *readConfig) {
		c.elementIDs = append(c.elementIDs, ids...)
	})
}

// WithReadContext attaches a context checked between block reads, allowing
// long reads to be cancelled.
func WithReadContext(ctx context.Context) ReadOption {
	return options.NoError(func(c *readConfig) {
		c.ctx = ctx
	})
}

// writeConfig collects the per-call configuration of Writer.Write.
type writeConfig struct {
	elementIDs []int
	ctx        context.Context
}

// WriteOption configures one Writer.Write call.
type WriteOption = options.Option[*writeConfig]

// WithWriteElementIDs declares that the dataset's element axis holds exactly
// the given 1-based element ids of the writer's source geometry. On a layered
// 3D source these must be the top-layer element ids; the file is then written
// against the derived 2D geometry.
func WithWriteElementIDs(ids ...int) WriteOption {
	return options.NoError(func(c *writeConfig) {
		c.elementIDs = append(c.elementIDs, ids...)
	})
}

// WithWriteContext attaches a context checked between block writes. A
// cancelled write unwinds through the file guard and deletes the partial
// output.
func WithWriteContext(ctx context.Context) WriteOption {
	return options.NoError(func(c *writeConfig) {
		c.ctx = ctx
	})
}

// WriterOption configures a Writer at construction time.
type WriterOption = options.Option[*Writer]

// WithCatalog sets the target item catalog. When present, every written
// dataset item must resolve in it by exact name.
func WithCatalog(items ...dataset.ItemInfo) WriterOption {
	return options.NoError(func(w *Writer) {
		w.items = append([]dataset.ItemInfo(nil), items...)
	})
}

// WithCompression sets the block compression of files produced by the writer.
func WithCompression(c format.CompressionType) WriterOption {
	return options.NoError(func(w *Writer) {
		w.compression = c
	})
}
