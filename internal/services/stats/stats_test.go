package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStdPopulation(t *testing.T) {
	got := Std([]float64{0.2, 0.4, 0.6})
	require.InDelta(t, 0.1632993, got, 1e-6)
}

func TestZScoresConstantSeries(t *testing.T) {
	z := ZScores([]float64{4, 4, 4, 4})
	require.Len(t, z, 4)
	for _, v := range z {
		require.Zero(t, v)
	}
}

func TestOutlierScoresValues(t *testing.T) {
	scores, idx := OutlierScores([]float64{10, 12, 11, 13, 50})
	require.Equal(t, []int{0, 1, 2, 3, 4}, idx)
	require.InDelta(t, 0.0, scores[0], 1e-9)
	require.InDelta(t, 0.05, scores[1], 1e-9)
	require.InDelta(t, 0.025, scores[2], 1e-9)
	require.InDelta(t, 0.075, scores[3], 1e-9)
	require.InDelta(t, 1.0, scores[4], 1e-9)
	for _, s := range scores {
		require.GreaterOrEqual(t, s, 0.0)
		require.LessOrEqual(t, s, 1.0)
	}
}

func TestOutlierScoresConstantSeries(t *testing.T) {
	scores, idx := OutlierScores([]float64{7, 7, 7})
	require.Len(t, scores, 3)
	require.Len(t, idx, 3)
	for _, s := range scores {
		require.Zero(t, s)
	}
}

func TestOutlierScoresSingleValue(t *testing.T) {
	scores, idx := OutlierScores([]float64{math.NaN(), 5})
	require.Equal(t, []int{1}, idx)
	require.Equal(t, []float64{0}, scores)
}

func TestOutlierScoresEmpty(t *testing.T) {
	scores, idx := OutlierScores(nil)
	require.Empty(t, scores)
	require.Empty(t, idx)

	scores, idx = OutlierScores([]float64{math.NaN(), math.NaN()})
	require.Empty(t, scores)
	require.Empty(t, idx)
}

func TestOutlierScoresSkipsNaN(t *testing.T) {
	scores, idx := OutlierScores([]float64{math.NaN(), 1, math.NaN(), 2, 3})
	require.Equal(t, []int{1, 3, 4}, idx)
	require.Len(t, scores, 3)
}

func TestOutlierMaskFlagsSpike(t *testing.T) {
	xs := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 100}
	mask, idx := OutlierMask(xs, 3)
	require.Len(t, mask, len(xs))
	require.Len(t, idx, len(xs))
	for i := 0; i < 11; i++ {
		require.False(t, mask[i])
	}
	require.True(t, mask[11])
}

func TestOutlierMaskConstantSeries(t *testing.T) {
	mask, _ := OutlierMask([]float64{2, 2, 2, 2}, 3)
	for _, m := range mask {
		require.False(t, m)
	}
}

func TestMinMaxSkipsNaN(t *testing.T) {
	lo, hi := MinMax([]float64{math.NaN(), 9, 12, math.NaN(), 10})
	require.Equal(t, 9.0, lo)
	require.Equal(t, 12.0, hi)

	lo, hi = MinMax([]float64{math.NaN()})
	require.True(t, math.IsNaN(lo))
	require.True(t, math.IsNaN(hi))
}

func TestRescale(t *testing.T) {
	out := Rescale([]float64{9, 11, math.NaN(), 12})
	require.InDelta(t, 0.0, out[0], 1e-9)
	require.InDelta(t, 2.0/3.0, out[1], 1e-9)
	require.True(t, math.IsNaN(out[2]))
	require.InDelta(t, 1.0, out[3], 1e-9)
}
