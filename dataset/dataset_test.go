package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coastalkit/flexmesh/errs"
)

// testDataset builds a 2-item, 3-step, 4-element dataset with recognizable
// values: item i, step t, element e holds 100*i + 10*t + e.
func testDataset(t *testing.T) *Dataset {
	t.Helper()

	items := []ItemInfo{
		NewItemInfo("Surface elevation"),
		NewItemInfo("Current speed"),
	}

	data := make([][][]float64, len(items))
	for i := range data {
		data[i] = make([][]float64, 3)
		for step := range data[i] {
			row := make([]float64, 4)
			for e := range row {
				row[e] = float64(100*i + 10*step + e)
			}
			data[i][step] = row
		}
	}

	ds, err := New(items, hourlyAxis(t, 3), data)
	require.NoError(t, err)

	return ds
}

func TestNewDataset(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		ds := testDataset(t)
		require.Equal(t, 2, ds.NItems())
		require.Equal(t, 3, ds.NSteps())
		require.Equal(t, 4, ds.NElements())
		require.Equal(t, "Surface elevation", ds.Items()[0].Name)
	})

	t.Run("ItemCountMismatch", func(t *testing.T) {
		items := []ItemInfo{NewItemInfo("a")}
		_, err := New(items, hourlyAxis(t, 1), [][][]float64{{{1}}, {{2}}})
		require.ErrorIs(t, err, errs.ErrShapeMismatch)

		_, err = New(nil, hourlyAxis(t, 1), nil)
		require.ErrorIs(t, err, errs.ErrShapeMismatch)
	})

	t.Run("StepCountMismatch", func(t *testing.T) {
		items := []ItemInfo{NewItemInfo("a")}
		_, err := New(items, hourlyAxis(t, 2), [][][]float64{{{1, 2}}})
		require.ErrorIs(t, err, errs.ErrShapeMismatch)
	})

	t.Run("RaggedElementAxis", func(t *testing.T) {
		items := []ItemInfo{NewItemInfo("a")}
		_, err := New(items, hourlyAxis(t, 2), [][][]float64{{{1, 2}, {3}}})
		require.ErrorIs(t, err, errs.ErrShapeMismatch)
	})

	t.Run("EmptyElementAxis", func(t *testing.T) {
		items := []ItemInfo{NewItemInfo("a")}
		_, err := New(items, hourlyAxis(t, 1), [][][]float64{{{}}})
		require.ErrorIs(t, err, errs.ErrShapeMismatch)
	})
}

func TestSelectItems(t *testing.T) {
	ds := testDataset(t)

	t.Run("ByName", func(t *testing.T) {
		sub, err := ds.SelectItems(ItemName("Current speed"))
		require.NoError(t, err)
		require.Equal(t, 1, sub.NItems())
		require.Equal(t, "Current speed", sub.Items()[0].Name)
		require.Equal(t, 100.0, sub.Data()[0][0][0])
	})

	t.Run("ByIndexReordered", func(t *testing.T) {
		sub, err := ds.SelectItems(ItemIndex(1), ItemIndex(0))
		require.NoError(t, err)
		require.Equal(t, "Current speed", sub.Items()[0].Name)
		require.Equal(t, "Surface elevation", sub.Items()[1].Name)
	})

	t.Run("CopiesData", func(t *testing.T) {
		sub, err := ds.SelectItems(ItemIndex(0))
		require.NoError(t, err)

		sub.Data()[0][0][0] = -1
		require.Equal(t, 0.0, ds.Data()[0][0][0])
	})

	t.Run("UnknownName", func(t *testing.T) {
		_, err := ds.SelectItems(ItemName("missing"))
		require.ErrorIs(t, err, errs.ErrUnknownItem)
	})

	t.Run("IndexOutOfRange", func(t *testing.T) {
		_, err := ds.SelectItems(ItemIndex(2))
		require.ErrorIs(t, err, errs.ErrIndexOutOfRange)
	})
}

func TestSelectSteps(t *testing.T) {
	ds := testDataset(t)

	t.Run("Single", func(t *testing.T) {
		sub, err := ds.SelectSteps(Step(1))
		require.NoError(t, err)
		require.Equal(t, 1, sub.NSteps())
		require.Equal(t, []float64{10, 11, 12, 13}, sub.Data()[0][0])
		require.Equal(t, ds.Time().Time(1), sub.Time().Start())
	})

	t.Run("List", func(t *testing.T) {
		sub, err := ds.SelectSteps(Steps(0, 2))
		require.NoError(t, err)
		require.Equal(t, 2, sub.NSteps())
		require.Equal(t, []float64{20, 21, 22, 23}, sub.Data()[0][1])
		require.Equal(t, 2*time.Hour, sub.Time().Step())
	})

	t.Run("OutOfRange", func(t *testing.T) {
		_, err := ds.SelectSteps(Step(3))
		require.ErrorIs(t, err, errs.ErrIndexOutOfRange)
	})
}

func TestSelectElements(t *testing.T) {
	ds := testDataset(t)

	t.Run("OrderPreserved", func(t *testing.T) {
		sub, err := ds.SelectElements([]int{3, 0})
		require.NoError(t, err)
		require.Equal(t, 2, sub.NElements())
		require.Equal(t, []float64{3, 0}, sub.Data()[0][0])
		require.Equal(t, []float64{113, 110}, sub.Data()[1][1])
	})

	t.Run("OutOfRange", func(t *testing.T) {
		_, err := ds.SelectElements([]int{0, 4})
		require.ErrorIs(t, err, errs.ErrIndexOutOfRange)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ds.SelectElements(nil)
		require.ErrorIs(t, err, errs.ErrShapeMismatch)
	})
}

func TestItemSeries(t *testing.T) {
	ds := testDataset(t)

	series, err := ds.ItemSeries(1, 2)
	require.NoError(t, err)
	require.Equal(t, []float64{102, 112, 122}, series)

	_, err = ds.ItemSeries(2, 0)
	require.ErrorIs(t, err, errs.ErrIndexOutOfRange)
	_, err = ds.ItemSeries(0, 4)
	require.ErrorIs(t, err, errs.ErrIndexOutOfRange)
}

func TestResolveItems(t *testing.T) {
	items := []ItemInfo{NewItemInfo("a"), NewItemInfo("b"), NewItemInfo("c")}

	t.Run("NilSelectsAll", func(t *testing.T) {
		idx, err := ResolveItems(items, nil)
		require.NoError(t, err)
		require.Equal(t, []int{0, 1, 2}, idx)
	})

	t.Run("Mixed", func(t *testing.T) {
		idx, err := ResolveItems(items, []ItemSelector{ItemName("c"), ItemIndex(0)})
		require.NoError(t, err)
		require.Equal(t, []int{2, 0}, idx)
	})

	t.Run("ExactNameMatch", func(t *testing.T) {
		_, err := ResolveItems(items, []ItemSelector{ItemName("A")})
		require.ErrorIs(t, err, errs.ErrUnknownItem)
	})

	t.Run("ZeroSelector", func(t *testing.T) {
		_, err := ResolveItems(items, []ItemSelector{{}})
		require.ErrorIs(t, err, errs.ErrUnknownItem)
	})
}
