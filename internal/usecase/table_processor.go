package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"QuantPull/internal/domain/models"
	drepo "QuantPull/internal/domain/repository"
)

// TableProcessor fans computed tables out to the configured backends.
// Backends fail independently: one broken sink never starves the others,
// and the caller gets the joined errors for retry accounting.
type TableProcessor struct {
	pub      drepo.Publisher
	store    drepo.Storage
	exporter drepo.Exporter
	metrics  drepo.Metrics
	backends []string
}

// NewTableProcessor creates a new TableProcessor instance. Sinks for
// backends that are not configured may be nil.
func NewTableProcessor(
	pub drepo.Publisher,
	store drepo.Storage,
	exporter drepo.Exporter,
	metrics drepo.Metrics,
	backends []string,
) *TableProcessor {
	return &TableProcessor{
		pub:      pub,
		store:    store,
		exporter: exporter,
		metrics:  metrics,
		backends: backends,
	}
}

// ProcessTable routes one feature table to every configured backend.
func (p *TableProcessor) ProcessTable(ctx context.Context, t *models.FeatureTable) error {
	if t == nil {
		return fmt.Errorf("table is nil")
	}

	start := time.Now()
	var errs []error

	for _, backend := range p.backends {
		var err error
		switch backend {
		case "kafka":
			err = p.pub.PublishTable(ctx, t)
		case "clickhouse":
			err = p.store.StoreTable(ctx, t)
		case "csv":
			err = p.exporter.ExportTable(ctx, t)
		default:
			err = fmt.Errorf("unknown backend: %s", backend)
		}
		if err != nil {
			p.metrics.RecordError("process_" + backend)
			errs = append(errs, fmt.Errorf("%s: %w", backend, err))
			continue
		}
		p.metrics.RecordRowsStored(backend, t.Symbol, t.Len())
	}

	p.metrics.RecordLatency("process_table", time.Since(start).Seconds())
	if len(errs) > 0 {
		return fmt.Errorf("process table %s/%s: %w", t.Symbol, t.Interval, errors.Join(errs...))
	}
	return nil
}

// ProcessSentiment routes aggregated sentiment rows the same way.
func (p *TableProcessor) ProcessSentiment(ctx context.Context, rows []*models.DailySentiment) error {
	if len(rows) == 0 {
		return nil
	}

	start := time.Now()
	var errs []error

	for _, backend := range p.backends {
		var err error
		switch backend {
		case "kafka":
			err = p.pub.PublishSentiment(ctx, rows)
		case "clickhouse":
			err = p.store.StoreSentiment(ctx, rows)
		case "csv":
			err = p.exporter.ExportSentiment(ctx, rows)
		default:
			err = fmt.Errorf("unknown backend: %s", backend)
		}
		if err != nil {
			p.metrics.RecordError("sentiment_" + backend)
			errs = append(errs, fmt.Errorf("%s: %w", backend, err))
			continue
		}
		p.metrics.RecordRowsStored(backend, "sentiment", len(rows))
	}

	p.metrics.RecordLatency("process_sentiment", time.Since(start).Seconds())
	if len(errs) > 0 {
		return fmt.Errorf("process sentiment: %w", errors.Join(errs...))
	}
	return nil
}

// Close closes underlying resources if available.
func (p *TableProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
