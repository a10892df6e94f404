package models

import (
	"math"
	"time"
)

// Canonical OHLCV column names. Providers map their field spellings onto
// these before the table reaches the feature engine.
const (
	ColOpen     = "Open"
	ColHigh     = "High"
	ColLow      = "Low"
	ColClose    = "Close"
	ColVolume   = "Volume"
	ColAdjClose = "AdjClose"
)

// Derived feature column names.
const (
	ColReturns            = "Returns"
	ColNormalizedPrice    = "NormalizedPrice"
	ColVolatility         = "Volatility"
	ColReturnsOutlier     = "ReturnsOutlierScore"
	ColVolatilityOutlier  = "VolatilityOutlierScore"
	NormalizedSuffix      = "_Normalized"
	IntervalEconomicValue = "economic"
)

// FeatureTable is the enriched numeric table produced by the feature engine.
// math.NaN marks undefined cells. Columns that could not be coerced to
// numeric are carried through untouched in Textual.
type FeatureTable struct {
	Symbol   string
	Interval string
	Columns  []string // ordered numeric columns
	Times    []time.Time
	Data     map[string][]float64
	Textual  map[string][]string
}

func (t *FeatureTable) Len() int {
	return len(t.Times)
}

// Column returns the values of a numeric column, or nil if absent.
func (t *FeatureTable) Column(name string) []float64 {
	return t.Data[name]
}

func (t *FeatureTable) HasColumn(name string) bool {
	_, ok := t.Data[name]
	return ok
}

// SetColumn adds or replaces a numeric column, keeping column order stable.
func (t *FeatureTable) SetColumn(name string, values []float64) {
	if t.Data == nil {
		t.Data = make(map[string][]float64)
	}
	if _, exists := t.Data[name]; !exists {
		t.Columns = append(t.Columns, name)
	}
	t.Data[name] = values
}

// Value returns the cell at (column, row); NaN when the column is absent.
func (t *FeatureTable) Value(name string, i int) float64 {
	col, ok := t.Data[name]
	if !ok || i < 0 || i >= len(col) {
		return math.NaN()
	}
	return col[i]
}

// FeaturePoint is one pivoted row of a stored feature table, as served by
// the read API.
type FeaturePoint struct {
	Time   time.Time
	Values map[string]float64
}
