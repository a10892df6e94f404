package stats

import "math"

// Mean returns the arithmetic mean, or 0 for empty input.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Std returns the population standard deviation (ddof=0), or 0 for empty
// input. The whole module uses the population convention so that z-scores
// and sentiment dispersion agree.
func Std(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mu := Mean(xs)
	sum2 := 0.0
	for _, x := range xs {
		d := x - mu
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(len(xs)))
}

// DropNaN returns the non-missing values of xs together with their original
// positions.
func DropNaN(xs []float64) ([]float64, []int) {
	clean := make([]float64, 0, len(xs))
	idx := make([]int, 0, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		clean = append(clean, x)
		idx = append(idx, i)
	}
	return clean, idx
}

// ZScores returns (x-mu)/sigma per value. A constant series (sigma = 0)
// yields all zeros rather than dividing by zero.
func ZScores(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	mu := Mean(xs)
	sigma := Std(xs)
	if sigma == 0 {
		return out
	}
	for i, x := range xs {
		out[i] = (x - mu) / sigma
	}
	return out
}

// OutlierMask drops missing values, then flags every value whose absolute
// z-score exceeds threshold. The mask is aligned to the surviving values;
// idx maps each mask position back into xs. Empty input after NaN removal
// yields empty output.
func OutlierMask(xs []float64, threshold float64) ([]bool, []int) {
	clean, idx := DropNaN(xs)
	mask := make([]bool, len(clean))
	z := ZScores(clean)
	for i, v := range z {
		mask[i] = math.Abs(v) > threshold
	}
	return mask, idx
}

// OutlierScores drops missing values, computes z-scores and rescales them
// into [0,1] over the observed z range. Degenerate inputs take explicit
// fallbacks: sigma = 0 yields all zeros, an all-equal z range returns the
// raw z-scores unscaled. Output is aligned to the surviving values; idx
// maps positions back into xs.
func OutlierScores(xs []float64) ([]float64, []int) {
	clean, idx := DropNaN(xs)
	if len(clean) == 0 {
		return []float64{}, idx
	}
	if Std(clean) == 0 {
		return make([]float64, len(clean)), idx
	}
	z := ZScores(clean)
	lo, hi := MinMax(z)
	if hi == lo {
		return z, idx
	}
	out := make([]float64, len(z))
	for i, v := range z {
		out[i] = (v - lo) / (hi - lo)
	}
	return out, idx
}

// MinMax returns the NaN-skipping minimum and maximum. All-missing input
// yields (NaN, NaN).
func MinMax(xs []float64) (float64, float64) {
	lo := math.NaN()
	hi := math.NaN()
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if math.IsNaN(lo) || x < lo {
			lo = x
		}
		if math.IsNaN(hi) || x > hi {
			hi = x
		}
	}
	return lo, hi
}

// Rescale maps values linearly onto [0,1] over the observed min/max,
// preserving NaN holes. Callers gate on a strictly positive range; a
// zero-range input comes back unchanged.
func Rescale(xs []float64) []float64 {
	out := make([]float64, len(xs))
	lo, hi := MinMax(xs)
	if math.IsNaN(lo) || hi == lo {
		copy(out, xs)
		return out
	}
	for i, x := range xs {
		if math.IsNaN(x) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (x - lo) / (hi - lo)
	}
	return out
}
