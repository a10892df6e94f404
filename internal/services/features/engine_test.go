package features

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"QuantPull/internal/domain/models"
)

func makeTable(symbol string, columns []string, cells map[string][]string) *models.RawTable {
	n := 0
	for _, c := range cells {
		n = len(c)
		break
	}
	times := make([]time.Time, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range times {
		times[i] = base.AddDate(0, 0, i)
	}
	t := &models.RawTable{Symbol: symbol, Interval: "daily", Times: times}
	for _, name := range columns {
		t.AddColumn(name, cells[name])
	}
	return t
}

func TestEnrichCloseOnlyScenario(t *testing.T) {
	table := makeTable("NVDA", []string{"Close"}, map[string][]string{
		"Close": {"10", "11", "9", "12", "12"},
	})
	e := NewEngine(Config{}, nil)
	out := e.Enrich(table)

	require.Equal(t, 5, out.Len())

	returns := out.Column(models.ColReturns)
	require.Len(t, returns, 5)
	require.InDelta(t, 0.1, returns[0], 1e-9) // backward-filled from [1]
	require.InDelta(t, 0.1, returns[1], 1e-9)
	require.InDelta(t, -0.1818, returns[2], 1e-3)
	require.InDelta(t, 0.3333, returns[3], 1e-3)
	require.InDelta(t, 0.0, returns[4], 1e-9)

	norm := out.Column(models.ColNormalizedPrice)
	require.NotNil(t, norm)
	require.InDelta(t, 1.0/3.0, norm[0], 1e-9)
	require.InDelta(t, 2.0/3.0, norm[1], 1e-9)
	require.InDelta(t, 0.0, norm[2], 1e-9)
	require.InDelta(t, 1.0, norm[3], 1e-9)
	require.InDelta(t, 1.0, norm[4], 1e-9)

	// five rows: MA_5 fills from its single defined value, MA_20/MA_50 stay
	// entirely undefined
	ma5 := out.Column("MA_5")
	require.InDelta(t, 10.8, ma5[4], 1e-9)
	require.InDelta(t, 10.8, ma5[0], 1e-9)
	for _, v := range out.Column("MA_20") {
		require.True(t, math.IsNaN(v))
	}
	for _, v := range out.Column("MA_50") {
		require.True(t, math.IsNaN(v))
	}

	scores := out.Column(models.ColReturnsOutlier)
	require.NotNil(t, scores)
	require.InDelta(t, 0.547058, scores[1], 1e-5)
	require.InDelta(t, 0.0, scores[2], 1e-9)
	require.InDelta(t, 1.0, scores[3], 1e-9)
	require.InDelta(t, 0.352941, scores[4], 1e-5)
	require.InDelta(t, scores[1], scores[0], 1e-9) // backward-filled

	// no High/Low: volatility features omitted
	require.False(t, out.HasColumn(models.ColVolatility))
	require.False(t, out.HasColumn(models.ColVolatilityOutlier))
}

func TestEnrichOHLCVWithThousandsSeparators(t *testing.T) {
	table := makeTable("XOM", []string{"Open", "High", "Low", "Close", "Volume"}, map[string][]string{
		"Open":   {"1,100.5", "1,110", "1,090"},
		"High":   {"1,120", "1,130", "1,100"},
		"Low":    {"1,080", "1,100", "1,070"},
		"Close":  {"1,110", "1,120", "1,085"},
		"Volume": {"2,000,000", "2,100,000", "1,900,000"},
	})
	e := NewEngine(Config{MAWindows: []int{2}}, nil)
	out := e.Enrich(table)

	require.InDelta(t, 1100.5, out.Value(models.ColOpen, 0), 1e-9)
	require.InDelta(t, 2000000, out.Value(models.ColVolume, 0), 1e-9)

	vol := out.Column(models.ColVolatility)
	require.NotNil(t, vol)
	require.InDelta(t, 40.0, vol[0], 1e-9)
	require.InDelta(t, 30.0, vol[1], 1e-9)
	require.InDelta(t, 30.0, vol[2], 1e-9)
	require.True(t, out.HasColumn(models.ColVolatilityOutlier))

	// terminal fill leaves nothing undefined in populated columns
	for _, name := range out.Columns {
		for i, v := range out.Column(name) {
			require.False(t, math.IsNaN(v), "column %s row %d", name, i)
		}
	}
}

func TestEnrichMovingAverages(t *testing.T) {
	n := 60
	closes := make([]string, n)
	for i := range closes {
		closes[i] = fmt.Sprintf("%d", i+1)
	}
	table := makeTable("SOXL", []string{"Close"}, map[string][]string{"Close": closes})
	out := NewEngine(Config{}, nil).Enrich(table)

	require.InDelta(t, 3.0, out.Value("MA_5", 4), 1e-9)
	require.InDelta(t, 10.5, out.Value("MA_20", 19), 1e-9)
	require.InDelta(t, 25.5, out.Value("MA_50", 49), 1e-9)
	require.InDelta(t, 58.0, out.Value("MA_5", 59), 1e-9)
	// positions before the window are backward-filled from the first value
	require.InDelta(t, 25.5, out.Value("MA_50", 0), 1e-9)
}

func TestEnrichSingleRow(t *testing.T) {
	table := makeTable("NVDA", []string{"High", "Low", "Close"}, map[string][]string{
		"High":  {"12"},
		"Low":   {"10"},
		"Close": {"11"},
	})
	out := NewEngine(Config{}, nil).Enrich(table)

	require.Equal(t, 1, out.Len())
	require.True(t, math.IsNaN(out.Value(models.ColReturns, 0)))
	require.False(t, out.HasColumn(models.ColNormalizedPrice))
	require.True(t, math.IsNaN(out.Value("MA_5", 0)))
	require.InDelta(t, 2.0, out.Value(models.ColVolatility, 0), 1e-9)
	// single observation scores 0 by the zero-sigma rule
	require.InDelta(t, 0.0, out.Value(models.ColVolatilityOutlier, 0), 1e-9)
}

func TestEnrichCloseCoercionFailure(t *testing.T) {
	table := makeTable("BAD", []string{"High", "Low", "Close"}, map[string][]string{
		"High":  {"12", "13"},
		"Low":   {"10", "11"},
		"Close": {"twelve", "oops"},
	})
	out := NewEngine(Config{}, nil).Enrich(table)

	require.False(t, out.HasColumn(models.ColClose))
	require.Equal(t, []string{"twelve", "oops"}, out.Textual["Close"])
	require.False(t, out.HasColumn(models.ColReturns))
	require.False(t, out.HasColumn(models.ColNormalizedPrice))

	// volatility features do not depend on Close
	require.True(t, out.HasColumn(models.ColVolatility))
	require.True(t, out.HasColumn(models.ColVolatilityOutlier))
}

func TestEnrichConstantClose(t *testing.T) {
	table := makeTable("FLAT", []string{"Close"}, map[string][]string{
		"Close": {"9", "9", "9", "9"},
	})
	out := NewEngine(Config{}, nil).Enrich(table)

	require.False(t, out.HasColumn(models.ColNormalizedPrice))
	scores := out.Column(models.ColReturnsOutlier)
	for _, s := range scores {
		require.Zero(t, s)
	}
}

func TestEnrichEmptyTable(t *testing.T) {
	table := &models.RawTable{Symbol: "EMPTY", Interval: "daily"}
	table.AddColumn("Close", nil)
	out := NewEngine(Config{}, nil).Enrich(table)
	require.Equal(t, 0, out.Len())
}

func TestEnrichKeepsRowCount(t *testing.T) {
	table := makeTable("NVDA", []string{"Close"}, map[string][]string{
		"Close": {"10", "11", "12", "13", "14", "15"},
	})
	out := NewEngine(Config{}, nil).Enrich(table)
	for _, name := range out.Columns {
		require.Len(t, out.Column(name), table.Len(), "column %s", name)
	}
}

func TestOutliersUsesConfiguredThreshold(t *testing.T) {
	xs := []float64{1, 1, 1, 1, 100}

	strict := NewEngine(Config{OutlierThreshold: 3}, nil)
	mask, _ := strict.Outliers(xs)
	for _, m := range mask {
		require.False(t, m)
	}

	loose := NewEngine(Config{OutlierThreshold: 1.5}, nil)
	mask, idx := loose.Outliers(xs)
	require.Len(t, idx, 5)
	require.True(t, mask[4])
}

func TestNormalizeIndicators(t *testing.T) {
	table := makeTable("CPI", []string{"CPI", "FedRate", "Junk"}, map[string][]string{
		"CPI":     {"100", "", ".", "103"},
		"FedRate": {"5", "5", "5", "5"},
		"Junk":    {"a", "b", "c", "d"},
	})
	table.Interval = models.IntervalEconomicValue
	out := NewEngine(Config{}, nil).NormalizeIndicators(table)

	cpi := out.Column("CPI")
	require.Equal(t, []float64{100, 100, 100, 103}, cpi)

	norm := out.Column("CPI" + models.NormalizedSuffix)
	require.NotNil(t, norm)
	require.Equal(t, []float64{0, 0, 0, 1}, norm)

	// zero range: raw column kept, no sibling
	require.True(t, out.HasColumn("FedRate"))
	require.False(t, out.HasColumn("FedRate"+models.NormalizedSuffix))

	// unparseable column carried through untouched
	require.False(t, out.HasColumn("Junk"))
	require.Equal(t, []string{"a", "b", "c", "d"}, out.Textual["Junk"])
}

func TestPctChange(t *testing.T) {
	out := pctChange([]float64{10, 11, 9, 12, 12})
	require.True(t, math.IsNaN(out[0]))
	require.InDelta(t, 0.1, out[1], 1e-9)
	require.InDelta(t, -2.0/11.0, out[2], 1e-9)
	require.InDelta(t, 1.0/3.0, out[3], 1e-9)
	require.InDelta(t, 0.0, out[4], 1e-9)

	// zero previous value leaves the change undefined
	out = pctChange([]float64{0, 5})
	require.True(t, math.IsNaN(out[1]))
}

func TestSma(t *testing.T) {
	out := sma([]float64{1, 2, 3, 4}, 2)
	require.True(t, math.IsNaN(out[0]))
	require.InDelta(t, 1.5, out[1], 1e-9)
	require.InDelta(t, 2.5, out[2], 1e-9)
	require.InDelta(t, 3.5, out[3], 1e-9)

	for _, v := range sma([]float64{1, 2}, 5) {
		require.True(t, math.IsNaN(v))
	}
}

func TestFillOrder(t *testing.T) {
	xs := []float64{math.NaN(), 1, math.NaN(), 2, math.NaN()}
	ffill(xs)
	bfill(xs)
	require.Equal(t, []float64{1, 1, 1, 2, 2}, xs)
}
