package features

import (
	"math"
	"strings"

	"QuantPull/pkg/util"
)

// pctChange returns the fractional change between consecutive values. The
// first element is always NaN; a missing or zero previous value leaves the
// change undefined.
func pctChange(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = math.NaN()
	}
	for i := 1; i < len(xs); i++ {
		prev := xs[i-1]
		cur := xs[i]
		if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
			continue
		}
		out[i] = (cur - prev) / prev
	}
	return out
}

// sma returns the trailing simple moving average. Positions before the
// window fills, and windows containing missing values, stay NaN.
func sma(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 || len(xs) < window {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		valid := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				valid = false
				break
			}
			sum += xs[j]
		}
		if valid {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// ffill propagates the last valid observation forward, in place. Leading
// missing values stay missing.
func ffill(xs []float64) {
	last := math.NaN()
	for i, x := range xs {
		if math.IsNaN(x) {
			xs[i] = last
		} else {
			last = x
		}
	}
}

// bfill propagates the next valid observation backward, in place. Trailing
// missing values stay missing.
func bfill(xs []float64) {
	next := math.NaN()
	for i := len(xs) - 1; i >= 0; i-- {
		if math.IsNaN(xs[i]) {
			xs[i] = next
		} else {
			next = xs[i]
		}
	}
}

// coerceCells parses textual cells into floats. Missing cells ("" or ".")
// and unparseable cells become NaN; ok is false when the column held real
// content but not a single cell parsed.
func coerceCells(cells []string) ([]float64, bool) {
	vals := make([]float64, len(cells))
	parsed := 0
	garbage := 0
	for i, c := range cells {
		t := strings.TrimSpace(c)
		if t == "" || t == "." {
			vals[i] = math.NaN()
			continue
		}
		v, ok := util.ParseFloatLoose(t)
		if !ok {
			vals[i] = math.NaN()
			garbage++
			continue
		}
		vals[i] = v
		parsed++
	}
	if garbage > 0 && parsed == 0 {
		return nil, false
	}
	return vals, true
}
