package features

import (
	"fmt"
	"math"

	"QuantPull/internal/domain/models"
	"QuantPull/internal/services/stats"
	"QuantPull/pkg/logger"
)

// Config carries the tunables of the feature derivation chain.
type Config struct {
	OutlierThreshold float64
	MAWindows        []int
}

// Engine turns raw collected tables into ML-ready feature tables. All
// methods are pure over their input; the logger is the only side channel
// and carries coercion diagnostics.
type Engine struct {
	cfg Config
	log *logger.Logger
}

func NewEngine(cfg Config, log *logger.Logger) *Engine {
	if cfg.OutlierThreshold <= 0 {
		cfg.OutlierThreshold = 3
	}
	if len(cfg.MAWindows) == 0 {
		cfg.MAWindows = []int{5, 20, 50}
	}
	return &Engine{cfg: cfg, log: log}
}

// numericColumns are the OHLCV columns the engine coerces; anything else in
// a market table is carried through untouched.
var numericColumns = map[string]bool{
	models.ColOpen:     true,
	models.ColHigh:     true,
	models.ColLow:      true,
	models.ColClose:    true,
	models.ColVolume:   true,
	models.ColAdjClose: true,
}

// Enrich derives the feature columns for one symbol and one sampling
// interval. Derivation order matters: later steps consume earlier columns.
// The input table is not mutated and no rows are added or dropped.
func (e *Engine) Enrich(table *models.RawTable) *models.FeatureTable {
	out := &models.FeatureTable{
		Symbol:   table.Symbol,
		Interval: table.Interval,
		Times:    table.Times,
		Data:     make(map[string][]float64),
		Textual:  make(map[string][]string),
	}

	for _, name := range table.Columns {
		cells := table.Cells[name]
		if !numericColumns[name] {
			out.Textual[name] = cells
			continue
		}
		vals, ok := coerceCells(cells)
		if !ok {
			out.Textual[name] = cells
			e.warn("column failed numeric coercion",
				logger.String("symbol", table.Symbol),
				logger.String("column", name))
			continue
		}
		out.SetColumn(name, vals)
	}

	closes := out.Column(models.ColClose)
	if closes == nil {
		e.warn("Close column missing or non-numeric, price features skipped",
			logger.String("symbol", table.Symbol),
			logger.String("interval", table.Interval))
	} else {
		out.SetColumn(models.ColReturns, pctChange(closes))

		if lo, hi := stats.MinMax(closes); hi > lo {
			out.SetColumn(models.ColNormalizedPrice, stats.Rescale(closes))
		}

		for _, w := range e.cfg.MAWindows {
			out.SetColumn(fmt.Sprintf("MA_%d", w), sma(closes, w))
		}
	}

	high := out.Column(models.ColHigh)
	low := out.Column(models.ColLow)
	if high != nil && low != nil {
		vol := make([]float64, len(high))
		for i := range vol {
			vol[i] = high[i] - low[i] // NaN propagates
		}
		out.SetColumn(models.ColVolatility, vol)
	}

	e.scoreColumn(out, models.ColReturns, models.ColReturnsOutlier)
	e.scoreColumn(out, models.ColVolatility, models.ColVolatilityOutlier)

	// Terminal imputation: forward then backward, so only genuinely
	// all-missing columns keep NaN.
	for _, name := range out.Columns {
		col := out.Data[name]
		ffill(col)
		bfill(col)
	}

	return out
}

// scoreColumn assigns outlier scores back aligned by position; rows outside
// the scored index stay undefined until the terminal fill.
func (e *Engine) scoreColumn(t *models.FeatureTable, src, dst string) {
	col := t.Column(src)
	if col == nil {
		return
	}
	scores, idx := stats.OutlierScores(col)
	aligned := make([]float64, len(col))
	for i := range aligned {
		aligned[i] = math.NaN()
	}
	for j, pos := range idx {
		aligned[pos] = scores[j]
	}
	t.SetColumn(dst, aligned)
}

// Outliers flags values whose absolute z-score exceeds the configured
// threshold, over the non-missing positions of xs. Pipelines use the mask
// to report extreme observations without mutating any table.
func (e *Engine) Outliers(xs []float64) ([]bool, []int) {
	return stats.OutlierMask(xs, e.cfg.OutlierThreshold)
}

// NormalizeIndicators runs the degraded chain for economic series: coerce,
// forward-fill, then a sibling min-max column per indicator. Zero-range
// columns keep their raw form only.
func (e *Engine) NormalizeIndicators(table *models.RawTable) *models.FeatureTable {
	out := &models.FeatureTable{
		Symbol:   table.Symbol,
		Interval: table.Interval,
		Times:    table.Times,
		Data:     make(map[string][]float64),
		Textual:  make(map[string][]string),
	}

	for _, name := range table.Columns {
		vals, ok := coerceCells(table.Cells[name])
		if !ok {
			out.Textual[name] = table.Cells[name]
			e.warn("column failed numeric coercion",
				logger.String("series", table.Symbol),
				logger.String("column", name))
			continue
		}
		ffill(vals)
		out.SetColumn(name, vals)

		if lo, hi := stats.MinMax(vals); hi > lo {
			out.SetColumn(name+models.NormalizedSuffix, stats.Rescale(vals))
		}
	}

	return out
}

func (e *Engine) warn(msg string, fields ...logger.Field) {
	if e.log != nil {
		e.log.Warn(msg, fields...)
	}
}
