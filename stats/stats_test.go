package stats

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"imgbench/model"
)

func m(src model.SourceKind, item string, ms float64, iter uint32, ok bool) model.Measurement {
	return model.Measurement{Source: src, Item: item, Size: 100, ElapsedMs: ms, Iteration: iter, Succeeded: ok}
}

// TestCompute_AllSucceeded testing aggregation of a fully successful set
func TestCompute_AllSucceeded(t *testing.T) {
	t.Parallel()

	agg := Compute([]model.Measurement{
		m(model.Blob, "a", 10, 1, true),
		m(model.Blob, "a", 20, 2, true),
		m(model.Blob, "a", 30, 3, true),
	})

	require.Equal(t, 20.0, agg.Mean)
	require.Equal(t, 20.0, agg.Median)
	require.Equal(t, 10.0, agg.Min)
	require.Equal(t, 30.0, agg.Max)
	require.InDelta(t, 8.165, agg.StdDev, 0.001)
	require.Equal(t, 100.0, agg.SuccessRate)
	require.Equal(t, 3, agg.Count)
	require.Equal(t, 3, agg.Successes)
}

// TestCompute_PartialFailure testing that failed entries only count towards the success rate
func TestCompute_PartialFailure(t *testing.T) {
	t.Parallel()

	agg := Compute([]model.Measurement{
		{Source: model.File, Item: "b", Size: 50, ElapsedMs: 5, Iteration: 1, Succeeded: true},
		{Source: model.File, Item: "b", Size: 50, ElapsedMs: 0, Iteration: 2, Succeeded: false},
	})

	require.Equal(t, 5.0, agg.Mean)
	require.Equal(t, 5.0, agg.Median)
	require.Equal(t, 5.0, agg.Min)
	require.Equal(t, 5.0, agg.Max)
	require.Equal(t, 0.0, agg.StdDev)
	require.Equal(t, 50.0, agg.SuccessRate)
}

// TestCompute_NoSuccesses testing zero values for empty and all-failed sets
func TestCompute_NoSuccesses(t *testing.T) {
	t.Parallel()

	for _, ms := range [][]model.Measurement{
		nil,
		{m(model.File, "a", 3, 1, false), m(model.File, "a", 4, 2, false)},
	} {
		agg := Compute(ms)

		for _, v := range []float64{agg.Mean, agg.Median, agg.Min, agg.Max, agg.StdDev, agg.SuccessRate} {
			require.False(t, math.IsNaN(v))
			require.Equal(t, 0.0, v)
		}

		require.Equal(t, len(ms), agg.Count)
	}
}

// TestCompute_EvenMedian testing that the median averages the middle pair
func TestCompute_EvenMedian(t *testing.T) {
	t.Parallel()

	agg := Compute([]model.Measurement{
		m(model.Blob, "a", 40, 1, true),
		m(model.Blob, "a", 10, 2, true),
		m(model.Blob, "a", 30, 3, true),
		m(model.Blob, "a", 20, 4, true),
	})

	require.Equal(t, 25.0, agg.Median)
	require.InDelta(t, 25.0, agg.Mean, 1e-9)
}

// TestCompute_Ordering testing min <= median <= max and min <= mean <= max over varied inputs
func TestCompute_Ordering(t *testing.T) {
	t.Parallel()

	samples := [][]float64{
		{1},
		{3, 1, 2},
		{100, 0.5, 0.5, 0.5},
		{7.25, 7.25},
		{9, 1, 8, 2, 7, 3, 6, 4, 5},
	}

	for _, xs := range samples {
		var ms []model.Measurement

		for i, x := range xs {
			ms = append(ms, m(model.File, "a", x, uint32(i+1), true))
		}

		agg := Compute(ms)

		require.LessOrEqual(t, agg.Min, agg.Median)
		require.LessOrEqual(t, agg.Median, agg.Max)
		require.LessOrEqual(t, agg.Min, agg.Mean)
		require.LessOrEqual(t, agg.Mean, agg.Max)
		require.GreaterOrEqual(t, agg.StdDev, 0.0)
	}
}

// TestCompute_SuccessRateMonotonic testing that flipping a failure to success never lowers the rate
func TestCompute_SuccessRateMonotonic(t *testing.T) {
	t.Parallel()

	ms := []model.Measurement{
		m(model.Blob, "a", 1, 1, false),
		m(model.Blob, "a", 2, 2, false),
		m(model.Blob, "a", 3, 3, false),
		m(model.Blob, "a", 4, 4, false),
	}

	prev := Compute(ms).SuccessRate
	require.Equal(t, 0.0, prev)

	for i := range ms {
		ms[i].Succeeded = true
		rate := Compute(ms).SuccessRate
		require.GreaterOrEqual(t, rate, prev)
		require.LessOrEqual(t, rate, 100.0)
		prev = rate
	}

	require.Equal(t, 100.0, prev)
}

// TestGroupBySource testing first-occurrence ordering and partition contents
func TestGroupBySource(t *testing.T) {
	t.Parallel()

	ms := []model.Measurement{
		m(model.File, "a", 10, 1, true),
		m(model.Blob, "a", 4, 1, true),
		m(model.File, "b", 20, 1, true),
		m(model.Blob, "b", 6, 1, false),
	}

	groups := GroupBySource(ms)
	require.Len(t, groups, 2)
	require.Equal(t, model.File, groups[0].Source)
	require.Equal(t, model.Blob, groups[1].Source)
	require.Empty(t, groups[0].Item)

	require.Equal(t, []model.Measurement{ms[0], ms[2]}, groups[0].Measurements)
	require.Equal(t, 15.0, groups[0].Aggregate.Mean)
	require.Equal(t, 50.0, groups[1].Aggregate.SuccessRate)

	require.Empty(t, GroupBySource(nil))
}

// TestGroupByItemAndSource testing grouping on the (item, source) pair
func TestGroupByItemAndSource(t *testing.T) {
	t.Parallel()

	ms := []model.Measurement{
		m(model.Blob, "b", 1, 1, true),
		m(model.File, "a", 2, 1, true),
		m(model.Blob, "b", 3, 2, true),
		m(model.Blob, "a", 4, 1, true),
		m(model.File, "a", 6, 2, true),
	}

	groups := GroupByItemAndSource(ms)
	require.Len(t, groups, 3)

	require.Equal(t, "b", groups[0].Item)
	require.Equal(t, model.Blob, groups[0].Source)
	require.Equal(t, 2.0, groups[0].Aggregate.Mean)

	require.Equal(t, "a", groups[1].Item)
	require.Equal(t, model.File, groups[1].Source)
	require.Equal(t, 4.0, groups[1].Aggregate.Mean)

	require.Equal(t, "a", groups[2].Item)
	require.Equal(t, model.Blob, groups[2].Source)
	require.Len(t, groups[2].Measurements, 1)
}

// TestCompare testing the faster-source verdict and summary sentence
func TestCompare(t *testing.T) {
	t.Parallel()

	var files, blobs []model.Measurement

	for i := 0; i < 10; i++ {
		files = append(files, m(model.File, "a", 20+float64(i%3), uint32(i+1), true))
		blobs = append(blobs, m(model.Blob, "a", 10+float64(i%3), uint32(i+1), true))
	}

	c := Compare(blobs, files)
	require.Equal(t, model.Blob, c.Faster)
	require.InDelta(t, 47.85, c.Percent, 0.01)
	require.Equal(t, "BLOB is ~48% faster than FILE.", c.Summary())
	require.Less(t, c.WelchP, 0.01)
	require.Less(t, c.MannWhitneyUP, 0.01)

	c, err := CompareSources(append(files, blobs...), model.File, model.Blob)
	require.NoError(t, err)
	require.Equal(t, model.Blob, c.Faster)
	require.Equal(t, model.File, c.A.Source)
}

// TestCompare_Undecided testing comparisons without enough data
func TestCompare_Undecided(t *testing.T) {
	t.Parallel()

	c := Compare([]model.Measurement{m(model.File, "a", 1, 1, false)}, []model.Measurement{m(model.Blob, "a", 1, 1, true)})
	require.Empty(t, c.Faster)
	require.True(t, math.IsNaN(c.WelchP))
	require.Equal(t, "Not enough successful loads to compare sources.", c.Summary())

	c = Compare([]model.Measurement{m(model.File, "a", 5, 1, true)}, []model.Measurement{m(model.Blob, "a", 5, 1, true)})
	require.Equal(t, "FILE and BLOB performed the same.", c.Summary())

	_, err := CompareSources([]model.Measurement{m(model.File, "a", 5, 1, true)}, model.File, model.Blob)
	require.ErrorIs(t, err, model.ErrInvalidRequest)
}

// TestRecorder_Concurrent testing that concurrent adds are all kept
func TestRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	var (
		rec Recorder
		wg  sync.WaitGroup
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()
			rec.Add(m(model.Blob, "a", float64(i), uint32(i), i%2 == 0))
		}(i)
	}

	wg.Wait()

	success, total := rec.Counts()
	require.Equal(t, 25, success)
	require.Equal(t, 50, total)
	require.Len(t, rec.Snapshot(), 50)
	require.Equal(t, 50.0, rec.Get().SuccessRate)
}
