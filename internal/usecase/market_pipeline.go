package usecase

import (
	"context"
	"fmt"
	"time"

	drepo "QuantPull/internal/domain/repository"
	domsvc "QuantPull/internal/domain/service"
	applogger "QuantPull/pkg/logger"
)

// MarketPipeline runs one market collection end to end: fetch the raw OHLCV
// table, derive the feature columns, and fan the result out.
type MarketPipeline struct {
	source  drepo.BarSource
	engine  domsvc.FeatureEngine
	proc    *TableProcessor
	metrics drepo.Metrics
	log     *applogger.Logger
}

func NewMarketPipeline(source drepo.BarSource, engine domsvc.FeatureEngine, proc *TableProcessor, metrics drepo.Metrics, log *applogger.Logger) *MarketPipeline {
	return &MarketPipeline{source: source, engine: engine, proc: proc, metrics: metrics, log: log}
}

// Collect fetches and processes one (symbol, interval) pair.
func (p *MarketPipeline) Collect(ctx context.Context, symbol string, interval drepo.Interval) error {
	start := time.Now()

	raw, err := p.source.FetchBars(ctx, symbol, interval)
	if err != nil {
		p.metrics.RecordError("market_fetch")
		return fmt.Errorf("fetch bars %s %s: %w", symbol, interval, err)
	}
	if raw == nil || raw.Len() == 0 {
		p.log.Warn("market collection returned no rows",
			applogger.String("symbol", symbol),
			applogger.String("interval", string(interval)),
		)
		return nil
	}

	table := p.engine.Enrich(raw)
	if err := p.proc.ProcessTable(ctx, table); err != nil {
		return err
	}

	p.metrics.RecordLatency("collect_market", time.Since(start).Seconds())
	p.log.Info("market collection done",
		applogger.String("symbol", symbol),
		applogger.String("interval", string(interval)),
		applogger.Int("rows", table.Len()),
		applogger.Int("columns", len(table.Columns)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}
