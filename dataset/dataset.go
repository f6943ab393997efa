package dataset

import (
	"fmt"

	"github.com/coastalkit/flexmesh/errs"
)

// Dataset is an in-memory container of per-item time-by-element arrays
// sharing one time axis and one element-axis length.
//
// Data is indexed Data()[item][step][element]. Selection methods return new
// Dataset values with copied arrays; a Dataset is never mutated in place.
type Dataset struct {
	items []ItemInfo
	time  TimeAxis
	data  [][][]float64
}

// New validates the container invariants and wraps the arrays in a Dataset.
// The data slices are retained, not copied; callers hand over ownership.
func New(items []ItemInfo, axis TimeAxis, data [][][]float64) (*Dataset, error) {
	if len(items) == 0 || len(items) != len(data) {
		return nil, fmt.Errorf("%w: %d items with %d data arrays",
			errs.ErrShapeMismatch, len(items), len(data))
	}

	nElem := -1
	for i, arr := range data {
		if len(arr) != axis.Len() {
			return nil, fmt.Errorf("%w: item %q has %d time steps, axis has %d",
				errs.ErrShapeMismatch, items[i].Name, len(arr), axis.Len())
		}
		for t, row := range arr {
			if nElem < 0 {
				nElem = len(row)
			}
			if len(row) != nElem {
				return nil, fmt.Errorf("%w: item %q step %d has %d elements, want %d",
					errs.ErrShapeMismatch, items[i].Name, t, len(row), nElem)
			}
		}
	}
	if nElem <= 0 {
		return nil, fmt.Errorf("%w: empty element axis", errs.ErrShapeMismatch)
	}

	cp := make([]ItemInfo, len(items))
	copy(cp, items)

	return &Dataset{items: cp, time: axis, data: data}, nil
}

// Items returns the item descriptors in data-array order.
func (ds *Dataset) Items() []ItemInfo {
	cp := make([]ItemInfo, len(ds.items))
	copy(cp, ds.items)

	return cp
}

// Time returns the shared time axis.
func (ds *Dataset) Time() TimeAxis { return ds.time }

// Data returns the raw arrays, indexed [item][step][element]. The slices are
// shared with the Dataset; callers must treat them as read-only.
func (ds *Dataset) Data() [][][]float64 { return ds.data }

// NItems returns the number of items.
func (ds *Dataset) NItems() int { return len(ds.items) }

// NSteps returns the number of time steps.
func (ds *Dataset) NSteps() int { return ds.time.Len() }

// NElements returns the element-axis length.
func (ds *Dataset) NElements() int { return len(ds.data[0][0]) }

// SelectItems returns a new Dataset restricted to the selected items, in
// selector order.
func (ds *Dataset) SelectItems(sels ...ItemSelector) (*Dataset, error) {
	idx, err := ResolveItems(ds.items, sels)
	if err != nil {
		return nil, err
	}

	items := make([]ItemInfo, len(idx))
	data := make([][][]float64, len(idx))
	for i, k := range idx {
		items[i] = ds.items[k]
		data[i] = copyArray(ds.data[k])
	}

	return New(items, ds.time, data)
}

// SelectSteps returns a new Dataset restricted to the selected time steps,
// with a correspondingly derived time axis.
func (ds *Dataset) SelectSteps(sel TimeSelector) (*Dataset, error) {
	axis, idx, err := ds.time.Select(sel)
	if err != nil {
		return nil, err
	}

	data := make([][][]float64, len(ds.data))
	for i, arr := range ds.data {
		sub := make([][]float64, len(idx))
		for j, k := range idx {
			sub[j] = copyRow(arr[k])
		}
		data[i] = sub
	}

	return New(ds.items, axis, data)
}

// SelectElements returns a new Dataset whose element axis holds exactly the
// given 0-based element indices, in the given order.
func (ds *Dataset) SelectElements(indices []int) (*Dataset, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: empty element selection", errs.ErrShapeMismatch)
	}

	nElem := ds.NElements()
	for _, e := range indices {
		if e < 0 || e >= nElem {
			return nil, fmt.Errorf("%w: element index %d outside [0, %d)",
				errs.ErrIndexOutOfRange, e, nElem)
		}
	}

	data := make([][][]float64, len(ds.data))
	for i, arr := range ds.data {
		sub := make([][]float64, len(arr))
		for t, row := range arr {
			picked := make([]float64, len(indices))
			for j, e := range indices {
				picked[j] = row[e]
			}
			sub[t] = picked
		}
		data[i] = sub
	}

	return New(ds.items, ds.time, data)
}

// ItemSeries returns the time series of one element of one item, copied.
// This is the single-element slice along the element axis.
func (ds *Dataset) ItemSeries(item, element int) ([]float64, error) {
	if item < 0 || item >= len(ds.items) {
		return nil, fmt.Errorf("%w: item index %d outside [0, %d)",
			errs.ErrIndexOutOfRange, item, len(ds.items))
	}
	if element < 0 || element >= ds.NElements() {
		return nil, fmt.Errorf("%w: element index %d outside [0, %d)",
			errs.ErrIndexOutOfRange, element, ds.NElements())
	}

	series := make([]float64, ds.NSteps())
	for t, row := range ds.data[item] {
		series[t] = row[element]
	}

	return series, nil
}

func copyArray(arr [][]float64) [][]float64 {
	out := make([][]float64, len(arr))
	for i, row := range arr {
		out[i] = copyRow(row)
	}

	return out
}

func copyRow(row []float64) []float64 {
	out := make([]float64, len(row))
	copy(out, row)

	return out
}
