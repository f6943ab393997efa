package dataset

import (
	"fmt"
	"time"

	"github.com/coastalkit/flexmesh/errs"
)

// TimeAxis models the time dimension of a dataset: either equidistant
// (start, fixed step, count) or an explicit ascending list of timestamps.
//
// Explicit lists whose spacing turns out uniform are normalized to the
// equidistant representation, since the on-disk format can only express
// equidistant axes. A TimeAxis is an immutable value.
type TimeAxis struct {
	start       time.Time
	step        time.Duration
	count       int
	times       []time.Time
	equidistant bool
}

// NewEquidistantAxis creates an equidistant axis of count steps spaced step
// apart, starting at start.
func NewEquidistantAxis(start time.Time, step time.Duration, count int) (TimeAxis, error) {
	if count < 1 {
		return TimeAxis{}, fmt.Errorf("%w: step count %d, want at least 1", errs.ErrUnsupportedTimeAxis, count)
	}
	if count > 1 && step <= 0 {
		return TimeAxis{}, fmt.Errorf("%w: non-positive step duration %v", errs.ErrUnsupportedTimeAxis, step)
	}

	return TimeAxis{
		start:       start,
		step:        step,
		count:       count,
		equidistant: true,
	}, nil
}

// NewExplicitAxis creates an axis from a strictly increasing timestamp list.
// Uniformly spaced lists collapse to the equidistant representation.
func NewExplicitAxis(times []time.Time) (TimeAxis, error) {
	if len(times) == 0 {
		return TimeAxis{}, fmt.Errorf("%w: empty timestamp list", errs.ErrUnsupportedTimeAxis)
	}

	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return TimeAxis{}, fmt.Errorf("%w: timestamps must be strictly increasing (position %d)",
				errs.ErrUnsupportedTimeAxis, i)
		}
	}

	if len(times) == 1 {
		return TimeAxis{start: times[0], count: 1, equidistant: true}, nil
	}

	step := times[1].Sub(times[0])
	uniform := true
	for i := 2; i < len(times); i++ {
		if times[i].Sub(times[i-1]) != step {
			uniform = false
			break
		}
	}

	if uniform {
		return NewEquidistantAxis(times[0], step, len(times))
	}

	cp := make([]time.Time, len(times))
	copy(cp, times)

	return TimeAxis{
		start: cp[0],
		count: len(cp),
		times: cp,
	}, nil
}

// IsEquidistant reports whether step spacing is constant. Only equidistant
// axes can be written to disk.
func (a TimeAxis) IsEquidistant() bool { return a.equidistant }

// Len returns the number of time steps.
func (a TimeAxis) Len() int { return a.count }

// Start returns the first timestamp.
func (a TimeAxis) Start() time.Time { return a.start }

// Step returns the step duration of an equidistant axis; 0 for explicit axes
// and single-step axes.
func (a TimeAxis) Step() time.Duration {
	if !a.equidistant {
		return 0
	}

	return a.step
}

// Time returns the timestamp of step i. Panics if i is out of range; use
// Select for validated access.
func (a TimeAxis) Time(i int) time.Time {
	if a.times != nil {
		return a.times[i]
	}

	return a.start.Add(time.Duration(i) * a.step)
}

// Times returns all timestamps in order.
func (a TimeAxis) Times() []time.Time {
	out := make([]time.Time, a.count)
	for i := range out {
		out[i] = a.Time(i)
	}

	return out
}

// TimeSelector picks time steps: everything (zero value), one step, or an
// explicit strictly increasing index list.
type TimeSelector struct {
	kind    timeSelKind
	index   int
	indices []int
}

type timeSelKind uint8

const (
	timeAll timeSelKind = iota
	timeSingle
	timeList
)

// AllSteps selects every time step.
func AllSteps() TimeSelector {
	return TimeSelector{kind: timeAll}
}

// Step selects the single step at the given 0-based index.
func Step(i int) TimeSelector {
	return TimeSelector{kind: timeSingle, index: i}
}

// Steps selects the given 0-based indices, which must be strictly increasing.
// An empty list selects every step.
func Steps(indices ...int) TimeSelector {
	if len(indices) == 0 {
		return AllSteps()
	}

	cp := make([]int, len(indices))
	copy(cp, indices)

	return TimeSelector{kind: timeList, indices: cp}
}

// Select resolves the selector against the axis and returns the derived axis
// together with the resolved 0-based step indices.
//
// Selecting a uniformly strided subset of an equidistant axis yields an
// equidistant axis whose step is the stride multiple of the original step;
// any other subset yields an explicit axis, which the writer rejects.
func (a TimeAxis) Select(sel TimeSelector) (TimeAxis, []int, error) {
	idx, err := a.resolve(sel)
	if err != nil {
		return TimeAxis{}, nil, err
	}

	if len(idx) == 1 {
		axis := TimeAxis{start: a.Time(idx[0]), step: a.Step(), count: 1, equidistant: true}

		return axis, idx, nil
	}

	if a.equidistant {
		stride := idx[1] - idx[0]
		uniform := true
		for i := 2; i < len(idx); i++ {
			if idx[i]-idx[i-1] != stride {
				uniform = false
				break
			}
		}
		if uniform {
			axis, err := NewEquidistantAxis(a.Time(idx[0]), time.Duration(stride)*a.step, len(idx))
			if err != nil {
				return TimeAxis{}, nil, err
			}

			return axis, idx, nil
		}
	}

	times := make([]time.Time, len(idx))
	for i, k := range idx {
		times[i] = a.Time(k)
	}

	axis, err := NewExplicitAxis(times)
	if err != nil {
		return TimeAxis{}, nil, err
	}

	return axis, idx, nil
}

func (a TimeAxis) resolve(sel TimeSelector) ([]int, error) {
	switch sel.kind {
	case timeAll:
		idx := make([]int, a.count)
		for i := range idx {
			idx[i] = i
		}

		return idx, nil

	case timeSingle:
		if sel.index < 0 || sel.index >= a.count {
			return nil, fmt.Errorf("%w: time step index %d outside [0, %d)",
				errs.ErrIndexOutOfRange, sel.index, a.count)
		}

		return []int{sel.index}, nil

	case timeList:
		idx := make([]int, len(sel.indices))
		copy(idx, sel.indices)
		for i, k := range idx {
			if k < 0 || k >= a.count {
				return nil, fmt.Errorf("%w: time step index %d outside [0, %d)",
					errs.ErrIndexOutOfRange, k, a.count)
			}
			if i > 0 && k <= idx[i-1] {
				return nil, fmt.Errorf("%w: time step indices must be strictly increasing",
					errs.ErrIndexOutOfRange)
			}
		}

		return idx, nil

	default:
		return nil, fmt.Errorf("%w: invalid time selector", errs.ErrIndexOutOfRange)
	}
}
