package usecase

import (
	"context"
	"fmt"
	"time"

	drepo "QuantPull/internal/domain/repository"
	domsvc "QuantPull/internal/domain/service"
	applogger "QuantPull/pkg/logger"
)

// EconPipeline runs one economic-series collection: fetch the observations,
// run the indicator normalization chain, and fan the result out.
type EconPipeline struct {
	source  drepo.EconSource
	engine  domsvc.FeatureEngine
	proc    *TableProcessor
	metrics drepo.Metrics
	log     *applogger.Logger
}

func NewEconPipeline(source drepo.EconSource, engine domsvc.FeatureEngine, proc *TableProcessor, metrics drepo.Metrics, log *applogger.Logger) *EconPipeline {
	return &EconPipeline{source: source, engine: engine, proc: proc, metrics: metrics, log: log}
}

// Collect fetches and processes one series. name is the display name used
// for output columns; seriesID is the provider identifier.
func (p *EconPipeline) Collect(ctx context.Context, seriesID, name string) error {
	start := time.Now()

	raw, err := p.source.FetchSeries(ctx, seriesID, name)
	if err != nil {
		p.metrics.RecordError("econ_fetch")
		return fmt.Errorf("fetch series %s: %w", seriesID, err)
	}
	if raw == nil || raw.Len() == 0 {
		p.log.Warn("econ collection returned no observations",
			applogger.String("series", seriesID),
		)
		return nil
	}

	table := p.engine.NormalizeIndicators(raw)
	if err := p.proc.ProcessTable(ctx, table); err != nil {
		return err
	}

	p.metrics.RecordLatency("collect_econ", time.Since(start).Seconds())
	p.log.Info("econ collection done",
		applogger.String("series", seriesID),
		applogger.String("name", name),
		applogger.Int("rows", table.Len()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}
